package mail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// deliveryLog appends one line per delivery attempt to a plain-text file.
// Writes are best-effort; a log failure never fails a send.
type deliveryLog struct {
	mu   sync.Mutex
	path string
}

func newDeliveryLog(path string) *deliveryLog {
	return &deliveryLog{path: path}
}

func (l *deliveryLog) record(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		slog.Warn("delivery log mkdir failed", "path", l.path, "err", err)
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("delivery log open failed", "path", l.path, "err", err)
		return
	}
	defer f.Close()
	line := fmt.Sprintf("%s - %s\n", time.Now().UTC().Format(time.RFC3339), entry)
	if _, err := f.WriteString(line); err != nil {
		slog.Warn("delivery log write failed", "path", l.path, "err", err)
	}
}
