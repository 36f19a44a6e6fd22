package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/user/schoolaide/internal/types"
)

// PushClient is the connection gateway for a worker process that does not
// hold the websocket connections itself: frames go over HTTP to the serve
// node, which relays them to the connection.
type PushClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPushClient(baseURL string) *PushClient {
	return &PushClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Push forwards one frame. A connection the serve node no longer knows is a
// silent success, matching the in-process hub.
func (c *PushClient) Push(ctx context.Context, id types.ConnectionID, frame types.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/connections/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push frame: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		slog.Debug("push to unknown connection dropped", "connection_id", string(id))
		return nil
	default:
		return fmt.Errorf("push frame: unexpected status %d", resp.StatusCode)
	}
}
