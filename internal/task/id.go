package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDLength is the number of lowercase hex characters in task and project ids.
const IDLength = 8

const maxIDAttempts = 16

// NewID returns a random 8-character lowercase hex id for which taken reports false.
// taken may be nil.
func NewID(taken func(id string) bool) (string, error) {
	for range maxIDAttempts {
		id := shortID(uuid.New())
		if taken == nil || !taken(id) {
			return id, nil
		}
	}

	return "", ErrIDGenerationFailed
}

func shortID(id uuid.UUID) string {
	// Version and variant bits live in bytes 6 and 8; the first four bytes are fully random.
	return strings.ToLower(strings.ReplaceAll(id.String(), "-", ""))[:IDLength]
}

// dateLayouts are accepted by ParseDate, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseDate parses a due date. Date-only values are midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, errorf(ErrInvalidDate, s)
}
