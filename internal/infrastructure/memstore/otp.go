package memstore

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"github.com/civic-relay/internal/domain"
)

// janitorInterval is how often expired entries are actively reclaimed.
// Lazy expiry at verification time remains the authoritative check; the
// janitor only stops entries for emails that never retry from leaking.
const janitorInterval = time.Minute

// OTPStore is an in-process store for outstanding login codes, keyed by
// token with a secondary email index. All read-modify-write cycles run under
// the store mutex, so concurrent resend/verify calls on one token cannot
// lose increments.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]*domain.OTPEntry // token -> entry
	byEmail map[string]string           // email -> token
	exp     expiryHeap                  // stale items invalidated at pop time

	done      chan struct{}
	closeOnce sync.Once
}

func NewOTPStore() *OTPStore {
	s := &OTPStore{
		entries: make(map[string]*domain.OTPEntry),
		byEmail: make(map[string]string),
		done:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Put stores the entry. A live entry for the same email is replaced, never
// duplicated.
func (s *OTPStore) Put(e *domain.OTPEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byEmail[e.Email]; ok && prev != e.Token {
		delete(s.entries, prev)
	}
	cp := *e
	s.entries[e.Token] = &cp
	s.byEmail[e.Email] = e.Token
	heap.Push(&s.exp, expiryItem{token: e.Token, at: e.ExpiresAt})
}

// Get returns a copy of the entry for the token.
func (s *OTPStore) Get(token string) (*domain.OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return nil, fmt.Errorf("otp entry not found: %w", domain.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

// GetByEmail returns a copy of the live entry for the email, if any.
func (s *OTPStore) GetByEmail(email string) (*domain.OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("otp entry not found for email: %w", domain.ErrNotFound)
	}
	e, ok := s.entries[token]
	if !ok {
		// Index out of step with the entry map; treat as absent.
		delete(s.byEmail, email)
		return nil, fmt.Errorf("otp entry not found for email: %w", domain.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

// Update runs fn on the live entry under the store lock. fn may mutate the
// entry in place; returning remove=true deletes it (alongside or instead of
// returning an error). Returns domain.ErrNotFound when the token is unknown.
func (s *OTPStore) Update(token string, fn func(e *domain.OTPEntry) (remove bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return fmt.Errorf("otp entry not found: %w", domain.ErrNotFound)
	}
	remove, err := fn(e)
	if remove {
		s.removeLocked(token)
	} else if e.ExpiresAt != s.peekExpiry(token) {
		// Expiry may have moved (resend); index it so the janitor sees it.
		heap.Push(&s.exp, expiryItem{token: token, at: e.ExpiresAt})
	}
	return err
}

// Delete removes the entry for the token, if present.
func (s *OTPStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(token)
}

// Len reports the number of live entries.
func (s *OTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the janitor goroutine.
func (s *OTPStore) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *OTPStore) removeLocked(token string) {
	e, ok := s.entries[token]
	if !ok {
		return
	}
	delete(s.entries, token)
	if s.byEmail[e.Email] == token {
		delete(s.byEmail, e.Email)
	}
}

// peekExpiry returns the heap's most recent known expiry for token, or zero.
// Heap items are never removed on Update, so this only needs to detect change.
func (s *OTPStore) peekExpiry(token string) time.Time {
	for i := len(s.exp) - 1; i >= 0; i-- {
		if s.exp[i].token == token {
			return s.exp[i].at
		}
	}
	return time.Time{}
}

func (s *OTPStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep reclaims entries whose expiry has passed. Heap items whose entry was
// replaced or already removed are discarded as stale.
func (s *OTPStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.exp) > 0 {
		item := s.exp[0]
		// Same strictness as Expired: an item is due only once now is past it,
		// otherwise it could be popped while its entry still reads as live.
		if !now.After(item.at) {
			return
		}
		heap.Pop(&s.exp)
		e, ok := s.entries[item.token]
		if !ok {
			continue // stale: entry already gone
		}
		if e.Expired(now) {
			s.removeLocked(item.token)
		}
		// Not expired: a resend moved the expiry; the newer heap item covers it.
	}
}

type expiryItem struct {
	token string
	at    time.Time
}

// expiryHeap is a min-heap on expiry time.
type expiryHeap []expiryItem

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x interface{}) { *h = append(*h, x.(expiryItem)) }
func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
