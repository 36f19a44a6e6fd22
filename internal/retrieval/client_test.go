package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/retrieve" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.KnowledgeBaseID != "kb-1" || req.Text != "when is pickup?" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"text": "Pickup is at 3pm."},
				{"text": "Early release Fridays at 1pm."},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	passages, err := c.Query(context.Background(), "kb-1", "when is pickup?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("got %d passages, want 2", len(passages))
	}
	if passages[0].Text != "Pickup is at 3pm." {
		t.Errorf("first passage = %q", passages[0].Text)
	}
}

func TestQueryServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "kb unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Query(context.Background(), "kb-1", "q"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestStartIngestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ingestion-jobs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ingestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.KnowledgeBaseID != "kb-1" || req.DataSourceID != "ds-1" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(ingestionResponse{JobID: "ing-42"})
	}))
	defer srv.Close()

	jobID, err := New(srv.URL).StartIngestion(context.Background(), "kb-1", "ds-1")
	if err != nil {
		t.Fatalf("StartIngestion: %v", err)
	}
	if string(jobID) != "ing-42" {
		t.Errorf("job id = %q", jobID)
	}
}
