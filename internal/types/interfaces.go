// internal/types/interfaces.go
package types

import (
	"context"
)

// ObjectStore is the system's only persistent state: durable blobs addressed
// by (bucket, key). Moves are copy-then-delete, so consumers must tolerate a
// narrow window where an object exists at both locations.
type ObjectStore interface {
	// Get returns the object bytes, or ErrNotFound from the store package.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// GetVersioned additionally returns an opaque version token for use with
	// PutVersioned.
	GetVersioned(ctx context.Context, bucket, key string) ([]byte, string, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	// PutVersioned writes only if the object's current version still matches
	// the token. An empty token means "create, must not already exist".
	// Returns ErrVersionConflict when the check fails.
	PutVersioned(ctx context.Context, bucket, key string, data []byte, contentType, version string) error
	Copy(ctx context.Context, bucket, srcKey, dstKey string) error
	Delete(ctx context.Context, bucket, key string) error
}

// TextExtractor recovers the full text of a stored document. Remote
// implementations submit an asynchronous job and poll it to a terminal
// state; a failed or timed-out job is an error.
type TextExtractor interface {
	Extract(ctx context.Context, bucket, key string) (string, error)
}

// Retriever is the semantic retrieval service over the indexed serving
// store.
type Retriever interface {
	// Query returns ranked passages for the raw question text.
	Query(ctx context.Context, knowledgeBaseID, text string) ([]Passage, error)
	// StartIngestion triggers an asynchronous re-index of the data source.
	// Callers treat it as fire-and-forget and never poll the returned job.
	StartIngestion(ctx context.Context, knowledgeBaseID, dataSourceID string) (IngestionJobID, error)
}

// ConnectionGateway pushes one frame to a live connection. Pushing to a
// connection that no longer exists is a silent success: an in-flight stream
// must not crash because the user went away.
type ConnectionGateway interface {
	Push(ctx context.Context, id ConnectionID, frame Frame) error
}

// Dispatcher hands work to the triggering infrastructure. Both dispatches
// are fire-and-forget: the caller gets an enqueue error at most, never a
// result.
type Dispatcher interface {
	DispatchIntake(ctx context.Context, id MessageID) error
	DispatchRespond(ctx context.Context, turn ChatTurn) error
}
