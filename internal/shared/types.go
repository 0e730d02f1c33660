package shared

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewSessionID returns a lexically sortable id for a live session.
func NewSessionID() string {
	return ulid.Make().String()
}

// SessionIDTime extracts the creation time encoded in a session id.
func SessionIDTime(id string) (time.Time, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
