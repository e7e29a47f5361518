package id

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewTrackingID generates a citizen-facing tracking id of the form
// CE-<unix-millis>, matching what acknowledgement emails reference.
func NewTrackingID(now time.Time) string {
	return fmt.Sprintf("CE-%d", now.UnixMilli())
}
