// Package extract recovers document text, either through the asynchronous
// text-detection service or by parsing PDFs in-process.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/schoolaide/internal/types"
)

// Job statuses reported by the extraction service.
const (
	statusInProgress = "in_progress"
	statusSucceeded  = "succeeded"
	statusFailed     = "failed"
)

// RemoteExtractor submits extraction jobs to the text-detection service and
// polls until the job reaches a terminal state. The poll interval and the
// overall deadline both come from configuration; hitting the deadline is a
// failure, not a longer wait.
type RemoteExtractor struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewRemote creates an extractor against the service at baseURL.
func NewRemote(baseURL string, pollInterval, pollTimeout time.Duration) *RemoteExtractor {
	return &RemoteExtractor{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

type submitRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type textResponse struct {
	Blocks    []textBlock `json:"blocks"`
	NextToken string      `json:"next_token,omitempty"`
}

type textBlock struct {
	Text string `json:"text"`
}

// Extract runs submit → poll → paginated fetch and returns the full document
// text, blocks joined by newlines.
func (e *RemoteExtractor) Extract(ctx context.Context, bucket, key string) (string, error) {
	jobID, err := e.submit(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	slog.Debug("extraction job submitted", "job_id", jobID, "bucket", bucket, "key", key)

	if err := e.waitTerminal(ctx, jobID); err != nil {
		return "", err
	}
	return e.fetchText(ctx, jobID)
}

func (e *RemoteExtractor) submit(ctx context.Context, bucket, key string) (types.ExtractionJobID, error) {
	body, err := json.Marshal(submitRequest{Bucket: bucket, Key: key})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	var resp submitResponse
	if err := e.doJSON(ctx, http.MethodPost, e.baseURL+"/jobs", body, &resp); err != nil {
		return "", fmt.Errorf("submit extraction job: %w", err)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("extraction service returned empty job id")
	}
	return types.ExtractionJobID(resp.JobID), nil
}

// waitTerminal polls on a fixed interval until the job succeeds, fails, or
// the deadline passes.
func (e *RemoteExtractor) waitTerminal(ctx context.Context, jobID types.ExtractionJobID) error {
	ctx, cancel := context.WithTimeout(ctx, e.pollTimeout)
	defer cancel()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		var resp statusResponse
		url := fmt.Sprintf("%s/jobs/%s", e.baseURL, jobID)
		if err := e.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
			return fmt.Errorf("poll extraction job %s: %w", jobID, err)
		}
		switch resp.Status {
		case statusSucceeded:
			return nil
		case statusFailed:
			return fmt.Errorf("extraction job %s failed: %s", jobID, resp.Error)
		case statusInProgress, "submitted":
		default:
			return fmt.Errorf("extraction job %s in unknown state %q", jobID, resp.Status)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("extraction job %s: %w", jobID, ctx.Err())
		}
	}
}

// fetchText pages through the job's text blocks following continuation
// tokens.
func (e *RemoteExtractor) fetchText(ctx context.Context, jobID types.ExtractionJobID) (string, error) {
	var builder strings.Builder
	nextToken := ""
	for {
		u := fmt.Sprintf("%s/jobs/%s/text", e.baseURL, jobID)
		if nextToken != "" {
			u += "?next_token=" + url.QueryEscape(nextToken)
		}
		var resp textResponse
		if err := e.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
			return "", fmt.Errorf("fetch extraction text %s: %w", jobID, err)
		}
		for _, block := range resp.Blocks {
			builder.WriteString(block.Text)
			builder.WriteString("\n")
		}
		if resp.NextToken == "" {
			return builder.String(), nil
		}
		nextToken = resp.NextToken
	}
}

func (e *RemoteExtractor) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
