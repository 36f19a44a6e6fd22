// internal/types/ids.go
package types

import (
	"github.com/google/uuid"
)

// MessageID is the mail gateway's globally unique identifier for an arrived
// email; it doubles as the object key suffix across the prefixes.
type MessageID string

// ConnectionID identifies one live chat connection; minted at upgrade time.
type ConnectionID string

// Job handles minted by the extraction and retrieval services.
type ExtractionJobID string
type IngestionJobID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.New().String())
}
