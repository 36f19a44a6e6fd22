package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/schoolaide/internal/types"
)

type recordingDispatcher struct {
	intakes []types.MessageID
	err     error
}

func (d *recordingDispatcher) DispatchIntake(ctx context.Context, id types.MessageID) error {
	d.intakes = append(d.intakes, id)
	return d.err
}

func (d *recordingDispatcher) DispatchRespond(ctx context.Context, turn types.ChatTurn) error {
	return errors.New("not used")
}

type recordingGateway struct {
	frames []types.Frame
	ids    []types.ConnectionID
	err    error
}

func (g *recordingGateway) Push(ctx context.Context, id types.ConnectionID, frame types.Frame) error {
	g.frames = append(g.frames, frame)
	g.ids = append(g.ids, id)
	return g.err
}

func TestHealth(t *testing.T) {
	s := NewServer(&recordingDispatcher{}, &recordingGateway{}, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health body = %s", rec.Body.String())
	}
}

func TestEmailNotificationQueuesIntake(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	s := NewServer(dispatcher, &recordingGateway{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/notifications/email", strings.NewReader(`{"messageId":"msg-1"}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if len(dispatcher.intakes) != 1 || dispatcher.intakes[0] != "msg-1" {
		t.Errorf("dispatched intakes = %v", dispatcher.intakes)
	}
}

func TestEmailNotificationValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", "{nope"},
		{"missing message id", `{"messageId":""}`},
		{"empty body", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &recordingDispatcher{}
			s := NewServer(dispatcher, &recordingGateway{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/notifications/email", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(dispatcher.intakes) != 0 {
				t.Error("nothing should be dispatched for an invalid notification")
			}
		})
	}
}

func TestEmailNotificationDispatchFailure(t *testing.T) {
	dispatcher := &recordingDispatcher{err: errors.New("queue down")}
	s := NewServer(dispatcher, &recordingGateway{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/notifications/email", strings.NewReader(`{"messageId":"msg-1"}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestPushForwardsFrameToGateway(t *testing.T) {
	gateway := &recordingGateway{}
	s := NewServer(&recordingDispatcher{}, gateway, nil)

	body := `{"statusCode":200,"type":"delta","text":"chunk"}`
	req := httptest.NewRequest(http.MethodPost, "/connections/conn-7", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(gateway.frames) != 1 {
		t.Fatalf("pushed %d frames, want 1", len(gateway.frames))
	}
	if gateway.ids[0] != "conn-7" {
		t.Errorf("pushed to %q", gateway.ids[0])
	}
	frame := gateway.frames[0]
	if frame.Type != types.FrameDelta || frame.Text != "chunk" || frame.StatusCode != 200 {
		t.Errorf("pushed frame = %+v", frame)
	}
}

func TestPushBadJSON(t *testing.T) {
	s := NewServer(&recordingDispatcher{}, &recordingGateway{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/connections/conn-1", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWebsocketEndpointOnlyWhenConfigured(t *testing.T) {
	called := false
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	s := NewServer(&recordingDispatcher{}, &recordingGateway{}, ws)
	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))
	if !called {
		t.Error("websocket handler not mounted")
	}

	bare := NewServer(&recordingDispatcher{}, &recordingGateway{}, nil)
	rec := httptest.NewRecorder()
	bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("ws on bare server = %d, want 404", rec.Code)
	}
}
