package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/user/schoolaide/internal/store"
	"github.com/user/schoolaide/internal/types"
)

const (
	srcBucket  = "mail"
	destBucket = "docs"
)

// fakeSink stands in for the summarizer: it archives the raw bytes and
// overwrites the summary key, mirroring the real sink's store footprint.
type fakeSink struct {
	store *store.MemoryStore
	calls int
	err   error
}

func (s *fakeSink) Process(ctx context.Context, id types.MessageID, att types.Attachment) error {
	if s.err != nil {
		return s.err
	}
	s.calls++
	if err := s.store.Put(ctx, destBucket, store.NewsletterRawKey(id), att.Data, att.ContentType); err != nil {
		return err
	}
	return s.store.Put(ctx, destBucket, store.SummaryKey, []byte("merged summary"), "text/plain")
}

type fakeRetriever struct {
	ingestions int
	ingestErr  error
	passages   []types.Passage
	queries    []string
}

func (r *fakeRetriever) Query(ctx context.Context, kbID, text string) ([]types.Passage, error) {
	r.queries = append(r.queries, text)
	return r.passages, nil
}

func (r *fakeRetriever) StartIngestion(ctx context.Context, kbID, dsID string) (types.IngestionJobID, error) {
	r.ingestions++
	if r.ingestErr != nil {
		return "", r.ingestErr
	}
	return "job-1", nil
}

func newTestProcessor(mem *store.MemoryStore, sink *fakeSink, retriever *fakeRetriever) *Processor {
	return NewProcessor(mem, sink, retriever, srcBucket, destBucket, "kb-1", "ds-1")
}

func seedMessage(t *testing.T, mem *store.MemoryStore, id types.MessageID, atts []testAttachment) {
	t.Helper()
	raw := buildEmail(t, atts)
	if err := mem.Put(context.Background(), srcBucket, store.IncomingKey(id), raw, "message/rfc822"); err != nil {
		t.Fatalf("seed message: %v", err)
	}
}

func TestProcessRoutesAttachmentsAndArchives(t *testing.T) {
	mem := store.NewMemory()
	sink := &fakeSink{store: mem}
	retriever := &fakeRetriever{}
	p := newTestProcessor(mem, sink, retriever)

	id := types.MessageID("msg-1")
	seedMessage(t, mem, id, []testAttachment{
		{filename: "fall_handbook.pdf", contentType: "application/pdf", data: []byte("handbook-bytes")},
		{filename: "week3_newsletter.pdf", contentType: "application/pdf", data: []byte("newsletter-bytes")},
		{filename: "lunch_menu.pdf", contentType: "application/pdf", data: []byte("menu-bytes")},
	})

	if err := p.Process(context.Background(), id); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, err := mem.Get(context.Background(), destBucket, store.HandbookKey)
	if err != nil || string(got) != "handbook-bytes" {
		t.Errorf("handbook at fixed key = %q, err %v", got, err)
	}
	if sink.calls != 1 {
		t.Errorf("newsletter sink called %d times, want 1", sink.calls)
	}
	// Unrecognized attachment produced no write anywhere.
	if mem.Exists(destBucket, "lunch_menu.pdf") {
		t.Error("unrecognized attachment must not be stored")
	}
	if retriever.ingestions != 1 {
		t.Errorf("ingestion triggered %d times, want 1", retriever.ingestions)
	}
	if mem.Exists(srcBucket, store.IncomingKey(id)) {
		t.Error("message still at incoming after archive")
	}
	if !mem.Exists(srcBucket, store.ArchiveKey(id)) {
		t.Error("message missing from archive")
	}
}

func TestProcessIdempotentRerun(t *testing.T) {
	// Simulate a crash after the store writes but before the archive move:
	// the message is still at incoming, so re-seed it and process again.
	mem := store.NewMemory()
	sink := &fakeSink{store: mem}
	retriever := &fakeRetriever{}
	p := newTestProcessor(mem, sink, retriever)

	id := types.MessageID("msg-2")
	atts := []testAttachment{
		{filename: "handbook.pdf", contentType: "application/pdf", data: []byte("v1")},
		{filename: "newsletter.pdf", contentType: "application/pdf", data: []byte("n1")},
	}
	seedMessage(t, mem, id, atts)
	if err := p.Process(context.Background(), id); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstCount := mem.Len()

	seedMessage(t, mem, id, atts)
	if err := p.Process(context.Background(), id); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if mem.Len() != firstCount {
		t.Errorf("rerun changed object count: %d -> %d", firstCount, mem.Len())
	}
	got, _ := mem.Get(context.Background(), destBucket, store.HandbookKey)
	if string(got) != "v1" {
		t.Errorf("handbook content after rerun = %q", got)
	}
	if mem.Exists(srcBucket, store.IncomingKey(id)) {
		t.Error("message still at incoming after rerun")
	}
}

func TestProcessArchivesWithoutRecognizedAttachments(t *testing.T) {
	mem := store.NewMemory()
	sink := &fakeSink{store: mem}
	retriever := &fakeRetriever{}
	p := newTestProcessor(mem, sink, retriever)

	id := types.MessageID("msg-3")
	seedMessage(t, mem, id, []testAttachment{
		{filename: "random.pdf", contentType: "application/pdf", data: []byte("x")},
	})

	if err := p.Process(context.Background(), id); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if retriever.ingestions != 0 {
		t.Errorf("ingestion triggered with no recognized attachments")
	}
	if !mem.Exists(srcBucket, store.ArchiveKey(id)) {
		t.Error("message must be archived even when nothing was recognized")
	}
}

func TestProcessIngestionFailureNotPropagated(t *testing.T) {
	mem := store.NewMemory()
	sink := &fakeSink{store: mem}
	retriever := &fakeRetriever{ingestErr: errors.New("service down")}
	p := newTestProcessor(mem, sink, retriever)

	id := types.MessageID("msg-4")
	seedMessage(t, mem, id, []testAttachment{
		{filename: "handbook.pdf", contentType: "application/pdf", data: []byte("h")},
	})

	if err := p.Process(context.Background(), id); err != nil {
		t.Fatalf("ingestion failure must not fail intake: %v", err)
	}
	if !mem.Exists(srcBucket, store.ArchiveKey(id)) {
		t.Error("message not archived after best-effort sync failure")
	}
}

func TestProcessSinkFailureAbortsAttempt(t *testing.T) {
	mem := store.NewMemory()
	sink := &fakeSink{store: mem, err: errors.New("extraction failed")}
	retriever := &fakeRetriever{}
	p := newTestProcessor(mem, sink, retriever)

	id := types.MessageID("msg-5")
	seedMessage(t, mem, id, []testAttachment{
		{filename: "newsletter.pdf", contentType: "application/pdf", data: []byte("n")},
	})

	if err := p.Process(context.Background(), id); err == nil {
		t.Fatal("expected error from failing newsletter sink")
	}
	// The failed attempt leaves the message at incoming for the retry.
	if !mem.Exists(srcBucket, store.IncomingKey(id)) {
		t.Error("message must stay at incoming after a failed attempt")
	}
	if mem.Exists(srcBucket, store.ArchiveKey(id)) {
		t.Error("failed attempt must not archive")
	}
}

func TestProcessMissingMessage(t *testing.T) {
	mem := store.NewMemory()
	p := newTestProcessor(mem, &fakeSink{store: mem}, &fakeRetriever{})
	if err := p.Process(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for missing incoming object")
	}
}

func TestMoveToError(t *testing.T) {
	mem := store.NewMemory()
	p := newTestProcessor(mem, &fakeSink{store: mem}, &fakeRetriever{})

	id := types.MessageID("msg-6")
	seedMessage(t, mem, id, nil)

	if err := p.MoveToError(context.Background(), id); err != nil {
		t.Fatalf("MoveToError: %v", err)
	}
	if mem.Exists(srcBucket, store.IncomingKey(id)) {
		t.Error("message still at incoming")
	}
	if !mem.Exists(srcBucket, store.ErrorKey(id)) {
		t.Error("message missing from error prefix")
	}
}
