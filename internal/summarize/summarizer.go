// Package summarize maintains the cumulative newsletter summary: one
// tag-delimited document regenerated in place each time a newsletter
// arrives.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/schoolaide/internal/store"
	"github.com/user/schoolaide/internal/types"
	"github.com/user/schoolaide/pkg/llm"
)

// mergeAttempts bounds the read-merge-write loop when concurrent deliveries
// race on the summary key.
const mergeAttempts = 3

// Summarizer extracts the latest newsletter content and folds it into the
// running summary through the LLM.
type Summarizer struct {
	store      types.ObjectStore
	extractor  types.TextExtractor
	provider   llm.Provider
	budget     *Budget
	destBucket string
	anchor     string
	wordBudget int
}

func New(objStore types.ObjectStore, extractor types.TextExtractor, provider llm.Provider, budget *Budget, destBucket, anchor string, wordBudget int) *Summarizer {
	return &Summarizer{
		store:      objStore,
		extractor:  extractor,
		provider:   provider,
		budget:     budget,
		destBucket: destBucket,
		anchor:     anchor,
		wordBudget: wordBudget,
	}
}

// Process persists the raw newsletter, recovers its text, isolates the most
// recent period, and regenerates the summary document. Safe to re-run for
// the same message: the raw key is per-message and the summary merge
// deduplicates content it has already seen.
func (s *Summarizer) Process(ctx context.Context, id types.MessageID, att types.Attachment) error {
	rawKey := store.NewsletterRawKey(id)
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	if err := s.store.Put(ctx, s.destBucket, rawKey, att.Data, contentType); err != nil {
		return fmt.Errorf("archive newsletter %s: %w", id, err)
	}

	text, err := s.recoverText(ctx, rawKey, att)
	if err != nil {
		return err
	}

	latest := LatestPeriod(text, s.anchor)
	slog.Info("newsletter text recovered",
		"message_id", string(id),
		"total_chars", len(text),
		"latest_chars", len(latest),
	)

	for attempt := 1; attempt <= mergeAttempts; attempt++ {
		prev, version, err := s.store.GetVersioned(ctx, s.destBucket, store.SummaryKey)
		if errors.Is(err, store.ErrNotFound) {
			prev, version = []byte(EmptyShell), ""
		} else if err != nil {
			return fmt.Errorf("load summary: %w", err)
		}

		merged, err := s.merge(ctx, string(prev), latest)
		if err != nil {
			return err
		}

		err = s.store.PutVersioned(ctx, s.destBucket, store.SummaryKey, []byte(merged), "text/plain; charset=utf-8", version)
		if errors.Is(err, store.ErrVersionConflict) {
			slog.Warn("summary changed underneath merge, retrying", "message_id", string(id), "attempt", attempt)
			continue
		}
		if err != nil {
			return fmt.Errorf("store summary: %w", err)
		}
		return nil
	}
	return fmt.Errorf("store summary for %s: gave up after %d conflicting merges", id, mergeAttempts)
}

// recoverText turns the attachment into plain text. HTML newsletters are
// converted to markdown directly; everything else goes through the
// extraction service against the archived copy.
func (s *Summarizer) recoverText(ctx context.Context, rawKey string, att types.Attachment) (string, error) {
	if isHTML(att.ContentType) {
		md, err := htmltomarkdown.ConvertString(string(att.Data))
		if err != nil {
			return "", fmt.Errorf("convert html newsletter: %w", err)
		}
		return md, nil
	}
	text, err := s.extractor.Extract(ctx, s.destBucket, rawKey)
	if err != nil {
		return "", fmt.Errorf("extract newsletter text: %w", err)
	}
	return text, nil
}

func (s *Summarizer) merge(ctx context.Context, previous, latest string) (string, error) {
	resp, err := s.provider.Complete(ctx, BuildMergeMessages(previous, latest, s.wordBudget))
	if err != nil {
		return "", fmt.Errorf("merge summaries: %w", err)
	}
	merged := strings.TrimSpace(resp.Content)
	if merged == "" {
		return "", fmt.Errorf("merge summaries: model returned empty document")
	}

	if words := WordCount(merged); words > s.wordBudget {
		slog.Warn("merged summary exceeds word budget",
			"words", words,
			"budget", s.wordBudget,
			"tokens", s.budget.Tokens(merged),
		)
	}
	return merged, nil
}

// LatestPeriod isolates the most recent period's content: everything from
// the last occurrence of the anchor marker onward, marker included. When the
// marker never occurs the whole text is used.
func LatestPeriod(text, anchor string) string {
	if anchor == "" {
		return text
	}
	idx := strings.LastIndex(text, anchor)
	if idx < 0 {
		return text
	}
	return text[idx:]
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html"
}
