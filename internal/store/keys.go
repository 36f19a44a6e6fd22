// Package store implements the object-store key layout and the MinIO-backed
// ObjectStore used as the system's only persistent state.
package store

import (
	"errors"
	"fmt"

	"github.com/user/schoolaide/internal/types"
)

var (
	// ErrNotFound is returned when no object exists at the requested key.
	ErrNotFound = errors.New("object not found")
	// ErrVersionConflict is returned by PutVersioned when the object changed
	// since the caller read it.
	ErrVersionConflict = errors.New("object version conflict")
)

// Key namespaces in the source bucket. A message lives at exactly one of
// these prefixes at any time (modulo the copy-then-delete window).
const (
	IncomingPrefix = "incoming/"
	ArchivePrefix  = "archive/"
	ErrorPrefix    = "processing_errors/"
)

// Fixed destination keys in the serving bucket. Deliveries overwrite; there
// is no versioning.
const (
	HandbookKey = "handbook.pdf"
	CalendarKey = "calendar.pdf"
	SummaryKey  = "newsletter_summary.txt"
)

func IncomingKey(id types.MessageID) string {
	return IncomingPrefix + string(id)
}

func ArchiveKey(id types.MessageID) string {
	return ArchivePrefix + string(id)
}

func ErrorKey(id types.MessageID) string {
	return ErrorPrefix + string(id)
}

// NewsletterRawKey is the per-message archival key for raw newsletter bytes,
// kept for audit and replay.
func NewsletterRawKey(id types.MessageID) string {
	return fmt.Sprintf("newsletters/%s.pdf", id)
}
