package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// Entry is one redacted audit record, appended after a complaint completes.
type Entry struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Category    string `json:"category"`
	Location    string `json:"location,omitempty"`
	Timestamp   string `json:"timestamp"`
	TrackingID  string `json:"trackingId,omitempty"`
	ReferenceID string `json:"reference_id,omitempty"`
}

// Logger appends one JSON line per complaint to a per-day file. Writes are
// best-effort; a failed write never fails the request.
type Logger struct {
	mu  sync.Mutex
	dir string
}

func NewLogger(dir string) *Logger {
	return &Logger{dir: dir}
}

// Record masks the entry's email and appends it to today's file.
func (l *Logger) Record(e Entry) {
	if l == nil {
		return
	}
	e.Email = MaskEmail(e.Email)
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		slog.Warn("audit log mkdir failed", "dir", l.dir, "err", err)
		return
	}
	file := filepath.Join(l.dir, fmt.Sprintf("%s.log", time.Now().UTC().Format("2006-01-02")))
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("audit log open failed", "file", file, "err", err)
		return
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		slog.Warn("audit log marshal failed", "err", err)
		return
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		slog.Warn("audit log write failed", "file", file, "err", err)
	}
}

var emailMask = regexp.MustCompile(`^(.{2}).+@`)

// MaskEmail redacts the local part of an address, keeping its first two
// characters: "citizen@example.com" -> "ci*@example.com".
func MaskEmail(email string) string {
	return emailMask.ReplaceAllString(email, "$1*@")
}
