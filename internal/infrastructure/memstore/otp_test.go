package memstore

import (
	"testing"
	"time"

	"github.com/civic-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(token, email string, ttl time.Duration) *domain.OTPEntry {
	return &domain.OTPEntry{
		Token:     token,
		Email:     email,
		Code:      "123456",
		ExpiresAt: time.Now().Add(ttl),
		SentCount: 1,
	}
}

func TestPutGet(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	s.Put(newEntry("tok1", "a@b.com", time.Minute))

	e, err := s.Get("tok1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", e.Email)

	_, err = s.Get("unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetByEmail(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	s.Put(newEntry("tok1", "a@b.com", time.Minute))

	e, err := s.GetByEmail("a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "tok1", e.Token)

	_, err = s.GetByEmail("nobody@b.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPut_ReplacesLiveEntryForSameEmail(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	s.Put(newEntry("tok1", "a@b.com", time.Minute))
	s.Put(newEntry("tok2", "a@b.com", time.Minute))

	_, err := s.Get("tok1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	e, err := s.GetByEmail("a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "tok2", e.Token)
	assert.Equal(t, 1, s.Len())
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	s.Put(newEntry("tok1", "a@b.com", time.Minute))
	e, err := s.Get("tok1")
	require.NoError(t, err)
	e.Attempts = 99

	again, err := s.Get("tok1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Attempts)
}

func TestUpdate_MutatesInPlace(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	s.Put(newEntry("tok1", "a@b.com", time.Minute))

	err := s.Update("tok1", func(e *domain.OTPEntry) (bool, error) {
		e.Attempts++
		return false, nil
	})
	require.NoError(t, err)

	e, err := s.Get("tok1")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Attempts)
}

func TestUpdate_RemoveDeletesEntryAndIndex(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	s.Put(newEntry("tok1", "a@b.com", time.Minute))

	err := s.Update("tok1", func(e *domain.OTPEntry) (bool, error) {
		return true, domain.ErrExpired
	})
	assert.ErrorIs(t, err, domain.ErrExpired)

	_, err = s.Get("tok1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetByEmail("a@b.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_UnknownToken(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	err := s.Update("ghost", func(e *domain.OTPEntry) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSweep_ReclaimsExpiredEntries(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	s.Put(newEntry("dead", "dead@b.com", -time.Minute))
	s.Put(newEntry("live", "live@b.com", time.Hour))

	s.sweep(time.Now())

	_, err := s.Get("dead")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Get("live")
	assert.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestSweep_AtExactExpiryKeepsEntryAndHeapItem(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	at := time.Now().Add(time.Minute)
	e := newEntry("tok1", "a@b.com", 0)
	e.ExpiresAt = at
	s.Put(e)

	// now == ExpiresAt: the entry is not expired yet, so the sweep must leave
	// both it and its heap item in place for the next pass.
	s.sweep(at)
	assert.Equal(t, 1, s.Len())

	s.sweep(at.Add(time.Nanosecond))
	assert.Equal(t, 0, s.Len())
}

func TestSweep_KeepsEntryWhoseExpiryMoved(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	s.Put(newEntry("tok1", "a@b.com", time.Millisecond))

	// Simulate a resend pushing the expiry forward past the stale heap item.
	err := s.Update("tok1", func(e *domain.OTPEntry) (bool, error) {
		e.ExpiresAt = time.Now().Add(time.Hour)
		return false, nil
	})
	require.NoError(t, err)

	s.sweep(time.Now().Add(time.Second))

	_, err = s.Get("tok1")
	assert.NoError(t, err)
}

func TestDelete_Idempotent(t *testing.T) {
	s := NewOTPStore()
	defer s.Close()

	s.Put(newEntry("tok1", "a@b.com", time.Minute))
	s.Delete("tok1")
	s.Delete("tok1")

	assert.Equal(t, 0, s.Len())
}
