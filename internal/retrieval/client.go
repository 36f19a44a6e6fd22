// Package retrieval is the client for the semantic retrieval service that
// indexes the serving bucket.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/schoolaide/internal/types"
)

// Client talks to the retrieval service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type queryRequest struct {
	KnowledgeBaseID string `json:"knowledge_base_id"`
	Text            string `json:"text"`
}

type queryResponse struct {
	Results []types.Passage `json:"results"`
}

type ingestionRequest struct {
	KnowledgeBaseID string `json:"knowledge_base_id"`
	DataSourceID    string `json:"data_source_id"`
}

type ingestionResponse struct {
	JobID string `json:"job_id"`
}

// Query returns ranked passages for the raw question text. All returned
// passages are used downstream; no thresholding happens here.
func (c *Client) Query(ctx context.Context, knowledgeBaseID, text string) ([]types.Passage, error) {
	body, err := json.Marshal(queryRequest{KnowledgeBaseID: knowledgeBaseID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	var resp queryResponse
	if err := c.doJSON(ctx, c.baseURL+"/retrieve", body, &resp); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return resp.Results, nil
}

// StartIngestion triggers an asynchronous re-index of the data source and
// returns the job handle. Callers fire and forget.
func (c *Client) StartIngestion(ctx context.Context, knowledgeBaseID, dataSourceID string) (types.IngestionJobID, error) {
	body, err := json.Marshal(ingestionRequest{KnowledgeBaseID: knowledgeBaseID, DataSourceID: dataSourceID})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	var resp ingestionResponse
	if err := c.doJSON(ctx, c.baseURL+"/ingestion-jobs", body, &resp); err != nil {
		return "", fmt.Errorf("start ingestion: %w", err)
	}
	return types.IngestionJobID(resp.JobID), nil
}

func (c *Client) doJSON(ctx context.Context, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
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
