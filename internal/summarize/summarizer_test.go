package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/user/schoolaide/internal/store"
	"github.com/user/schoolaide/internal/types"
	"github.com/user/schoolaide/pkg/llm"
)

const destBucket = "docs"

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (e *fakeExtractor) Extract(ctx context.Context, bucket, key string) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

type fakeProvider struct {
	responses []string
	requests  [][]llm.Message
	onCall    func(call int)
}

func (p *fakeProvider) Complete(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	call := len(p.requests)
	p.requests = append(p.requests, messages)
	if p.onCall != nil {
		p.onCall(call)
	}
	if call >= len(p.responses) {
		return nil, errors.New("no scripted response")
	}
	return &llm.Response{Content: p.responses[call]}, nil
}

func (p *fakeProvider) Stream(ctx context.Context, messages []llm.Message) (<-chan llm.Delta, error) {
	return nil, errors.New("not used")
}

func newTestSummarizer(t *testing.T, mem *store.MemoryStore, extractor *fakeExtractor, provider *fakeProvider) *Summarizer {
	t.Helper()
	budget, err := NewBudget("gpt-4")
	if err != nil {
		t.Fatalf("NewBudget: %v", err)
	}
	return New(mem, extractor, provider, budget, destBucket, "WEEKLY UPDATE", 1500)
}

func TestLatestPeriod(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		anchor string
		want   string
	}{
		{
			name:   "keeps from last occurrence, marker included",
			text:   "WEEKLY UPDATE old stuff WEEKLY UPDATE new stuff",
			anchor: "WEEKLY UPDATE",
			want:   "WEEKLY UPDATE new stuff",
		},
		{
			name:   "single occurrence",
			text:   "intro WEEKLY UPDATE the news",
			anchor: "WEEKLY UPDATE",
			want:   "WEEKLY UPDATE the news",
		},
		{
			name:   "missing marker falls back to full text",
			text:   "no marker here",
			anchor: "WEEKLY UPDATE",
			want:   "no marker here",
		},
		{
			name:   "empty anchor keeps everything",
			text:   "anything",
			anchor: "",
			want:   "anything",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LatestPeriod(tt.text, tt.anchor); got != tt.want {
				t.Errorf("LatestPeriod = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcessFirstRun(t *testing.T) {
	mem := store.NewMemory()
	extractor := &fakeExtractor{text: "intro WEEKLY UPDATE Book fair on Oct 3 at 6pm"}
	provider := &fakeProvider{responses: []string{"<summary>merged</summary>"}}
	s := newTestSummarizer(t, mem, extractor, provider)

	att := types.Attachment{Filename: "newsletter.pdf", ContentType: "application/pdf", Data: []byte("pdf")}
	if err := s.Process(context.Background(), "msg-1", att); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !mem.Exists(destBucket, store.NewsletterRawKey("msg-1")) {
		t.Error("raw newsletter not archived")
	}
	got, err := mem.Get(context.Background(), destBucket, store.SummaryKey)
	if err != nil || string(got) != "<summary>merged</summary>" {
		t.Errorf("summary = %q, err %v", got, err)
	}

	if len(provider.requests) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.requests))
	}
	user := provider.requests[0][1].Content
	if !strings.Contains(user, EmptyShell) {
		t.Error("first run must merge into the empty shell")
	}
	if !strings.Contains(user, "WEEKLY UPDATE Book fair on Oct 3 at 6pm") {
		t.Error("latest period text missing from merge request")
	}
	if strings.Contains(user, "intro WEEKLY") {
		t.Error("text before the last anchor occurrence must be dropped")
	}
}

func TestProcessMergesWithPreviousSummary(t *testing.T) {
	mem := store.NewMemory()
	prev := "<summary>old events</summary>"
	mem.Put(context.Background(), destBucket, store.SummaryKey, []byte(prev), "text/plain")

	extractor := &fakeExtractor{text: "WEEKLY UPDATE spirit week"}
	provider := &fakeProvider{responses: []string{"<summary>old events + spirit week</summary>"}}
	s := newTestSummarizer(t, mem, extractor, provider)

	att := types.Attachment{Filename: "newsletter.pdf", ContentType: "application/pdf", Data: []byte("pdf")}
	if err := s.Process(context.Background(), "msg-2", att); err != nil {
		t.Fatalf("Process: %v", err)
	}

	user := provider.requests[0][1].Content
	if !strings.Contains(user, prev) {
		t.Error("previous summary missing from merge request")
	}
	got, _ := mem.Get(context.Background(), destBucket, store.SummaryKey)
	if string(got) != "<summary>old events + spirit week</summary>" {
		t.Errorf("summary not replaced wholesale: %q", got)
	}
}

func TestProcessHTMLNewsletterSkipsExtractor(t *testing.T) {
	mem := store.NewMemory()
	extractor := &fakeExtractor{text: "should not be used"}
	provider := &fakeProvider{responses: []string{"<summary>html merged</summary>"}}
	s := newTestSummarizer(t, mem, extractor, provider)

	att := types.Attachment{
		Filename:    "newsletter.html",
		ContentType: "text/html; charset=utf-8",
		Data:        []byte("<h1>Fall Festival</h1><p>Friday 5pm</p>"),
	}
	if err := s.Process(context.Background(), "msg-3", att); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if extractor.calls != 0 {
		t.Error("extraction service must not be called for html attachments")
	}
	user := provider.requests[0][1].Content
	if !strings.Contains(user, "Fall Festival") {
		t.Error("converted html content missing from merge request")
	}
}

func TestProcessRetriesOnVersionConflict(t *testing.T) {
	mem := store.NewMemory()
	extractor := &fakeExtractor{text: "WEEKLY UPDATE news"}
	provider := &fakeProvider{responses: []string{"<summary>first</summary>", "<summary>second</summary>"}}
	// A concurrent delivery lands between our read and our write on the
	// first merge only.
	provider.onCall = func(call int) {
		if call == 0 {
			mem.Put(context.Background(), destBucket, store.SummaryKey, []byte("<summary>concurrent</summary>"), "text/plain")
		}
	}
	s := newTestSummarizer(t, mem, extractor, provider)

	att := types.Attachment{Filename: "newsletter.pdf", ContentType: "application/pdf", Data: []byte("pdf")}
	if err := s.Process(context.Background(), "msg-4", att); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(provider.requests) != 2 {
		t.Fatalf("provider called %d times, want 2 (conflict retry)", len(provider.requests))
	}
	// The retry must have re-read the concurrent writer's summary.
	if !strings.Contains(provider.requests[1][1].Content, "<summary>concurrent</summary>") {
		t.Error("retry did not re-read the latest summary")
	}
	got, _ := mem.Get(context.Background(), destBucket, store.SummaryKey)
	if string(got) != "<summary>second</summary>" {
		t.Errorf("summary after retry = %q", got)
	}
}

func TestProcessExtractionFailureAborts(t *testing.T) {
	mem := store.NewMemory()
	extractor := &fakeExtractor{err: errors.New("job failed")}
	provider := &fakeProvider{}
	s := newTestSummarizer(t, mem, extractor, provider)

	att := types.Attachment{Filename: "newsletter.pdf", ContentType: "application/pdf", Data: []byte("pdf")}
	err := s.Process(context.Background(), "msg-5", att)
	if err == nil {
		t.Fatal("expected extraction failure to abort")
	}
	if mem.Exists(destBucket, store.SummaryKey) {
		t.Error("summary must not be written after failed extraction")
	}
	if len(provider.requests) != 0 {
		t.Error("model must not be invoked after failed extraction")
	}
}

func TestBuildMergeMessages(t *testing.T) {
	messages := BuildMergeMessages("PREV", "LATEST", 1500)
	if len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(messages))
	}
	if messages[0].Role != "system" || messages[1].Role != "user" {
		t.Errorf("unexpected roles %q/%q", messages[0].Role, messages[1].Role)
	}
	if !strings.Contains(messages[0].Content, fmt.Sprintf("%d words", 1500)) {
		t.Error("word budget missing from instructions")
	}
	if !strings.Contains(messages[1].Content, "PREV") || !strings.Contains(messages[1].Content, "LATEST") {
		t.Error("merge inputs missing from user message")
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("one two  three\nfour"); got != 4 {
		t.Errorf("WordCount = %d, want 4", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount(empty) = %d, want 0", got)
	}
}
