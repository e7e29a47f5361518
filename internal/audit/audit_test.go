package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "ci*@example.com", MaskEmail("citizen@example.com"))
	assert.Equal(t, "ab*@b.com", MaskEmail("abc@b.com"))
	// Too short to mask; left as-is.
	assert.Equal(t, "a@b.com", MaskEmail("a@b.com"))
	assert.Equal(t, "", MaskEmail(""))
}

func TestRecord_WritesMaskedDailyLine(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)

	l.Record(Entry{
		Name:       "Asha",
		Email:      "citizen@example.com",
		Category:   "Roads",
		Location:   "Sector 17",
		TrackingID: "CE-1700000000000",
	})

	file := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".log")
	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var e Entry
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Equal(t, "ci*@example.com", e.Email)
	assert.Equal(t, "Roads", e.Category)
	assert.Equal(t, "CE-1700000000000", e.TrackingID)
	assert.NotEmpty(t, e.Timestamp)
}

func TestRecord_AppendsMultipleLines(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)

	l.Record(Entry{Email: "first@example.com", Category: "Water"})
	l.Record(Entry{Email: "second@example.com", Category: "Health"})

	file := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".log")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(data))
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
