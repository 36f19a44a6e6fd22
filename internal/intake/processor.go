package intake

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/schoolaide/internal/store"
	"github.com/user/schoolaide/internal/types"
)

// NewsletterSink receives newsletter attachments for summarization. The
// concrete implementation is the summarize package.
type NewsletterSink interface {
	Process(ctx context.Context, id types.MessageID, att types.Attachment) error
}

// Processor handles one intake attempt for one message. Every side effect is
// idempotent: destination keys are fixed and overwritten, so re-processing a
// message that crashed between store writes and the archive move converges
// on the same final state.
type Processor struct {
	store       types.ObjectStore
	newsletters NewsletterSink
	retriever   types.Retriever

	sourceBucket    string
	destBucket      string
	knowledgeBaseID string
	dataSourceID    string
}

func NewProcessor(objStore types.ObjectStore, newsletters NewsletterSink, retriever types.Retriever, sourceBucket, destBucket, knowledgeBaseID, dataSourceID string) *Processor {
	return &Processor{
		store:           objStore,
		newsletters:     newsletters,
		retriever:       retriever,
		sourceBucket:    sourceBucket,
		destBucket:      destBucket,
		knowledgeBaseID: knowledgeBaseID,
		dataSourceID:    dataSourceID,
	}
}

// Process runs one intake attempt. Any error aborts the attempt; the retry
// controller decides what happens to the message afterwards.
func (p *Processor) Process(ctx context.Context, id types.MessageID) error {
	key := store.IncomingKey(id)
	raw, err := p.store.Get(ctx, p.sourceBucket, key)
	if err != nil {
		return fmt.Errorf("fetch message %s: %w", id, err)
	}

	atts, err := Attachments(raw)
	if err != nil {
		return fmt.Errorf("parse message %s: %w", id, err)
	}

	wrote := false
	for _, att := range atts {
		kind := Classify(att.Filename)
		switch kind {
		case types.KindHandbook:
			if err := p.store.Put(ctx, p.destBucket, store.HandbookKey, att.Data, att.ContentType); err != nil {
				return fmt.Errorf("store handbook from %s: %w", id, err)
			}
		case types.KindCalendar:
			if err := p.store.Put(ctx, p.destBucket, store.CalendarKey, att.Data, att.ContentType); err != nil {
				return fmt.Errorf("store calendar from %s: %w", id, err)
			}
		case types.KindNewsletter:
			if err := p.newsletters.Process(ctx, id, att); err != nil {
				return fmt.Errorf("summarize newsletter from %s: %w", id, err)
			}
		default:
			slog.Info("skipping unrecognized attachment",
				"message_id", string(id),
				"filename", att.Filename,
			)
			continue
		}
		wrote = true
		slog.Info("stored attachment",
			"message_id", string(id),
			"filename", att.Filename,
			"kind", string(kind),
		)
	}

	if wrote {
		p.syncKnowledgeBase(ctx)
	}

	// Archive unconditionally, recognized attachments or not.
	if err := p.move(ctx, key, store.ArchiveKey(id)); err != nil {
		return fmt.Errorf("archive message %s: %w", id, err)
	}
	slog.Info("message archived", "message_id", string(id))
	return nil
}

// MoveToError relocates the message to the error prefix. Called by the retry
// controller after the final failed attempt.
func (p *Processor) MoveToError(ctx context.Context, id types.MessageID) error {
	if err := p.move(ctx, store.IncomingKey(id), store.ErrorKey(id)); err != nil {
		return fmt.Errorf("move message %s to error prefix: %w", id, err)
	}
	slog.Info("message moved to error prefix", "message_id", string(id))
	return nil
}

// syncKnowledgeBase triggers a re-index of the serving store. Best effort: a
// failed sync is logged, never propagated, because the documents are durable
// and the next delivery re-triggers ingestion.
func (p *Processor) syncKnowledgeBase(ctx context.Context) {
	jobID, err := p.retriever.StartIngestion(ctx, p.knowledgeBaseID, p.dataSourceID)
	if err != nil {
		slog.Error("knowledge base sync failed", "error", err)
		return
	}
	slog.Info("knowledge base sync started", "job_id", string(jobID))
}

// move is copy-then-delete. The window where the object exists at both keys
// is tolerated by downstream consumers.
func (p *Processor) move(ctx context.Context, srcKey, dstKey string) error {
	if err := p.store.Copy(ctx, p.sourceBucket, srcKey, dstKey); err != nil {
		return err
	}
	return p.store.Delete(ctx, p.sourceBucket, srcKey)
}
