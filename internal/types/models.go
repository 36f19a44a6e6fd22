// internal/types/models.go
package types

// DocumentKind is the classification bucket assigned to an attachment by
// filename marker matching.
type DocumentKind string

const (
	KindHandbook     DocumentKind = "handbook"
	KindCalendar     DocumentKind = "calendar"
	KindNewsletter   DocumentKind = "newsletter"
	KindUnrecognized DocumentKind = "unrecognized"
)

// Attachment is one attachment part extracted from a message's MIME
// structure.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Passage is one ranked result returned by the retrieval service.
type Passage struct {
	Text  string  `json:"text"`
	Score float64 `json:"score,omitempty"`
}

// ChatTurn carries one user question from the relay to the responder.
// Turns are ephemeral and never persisted.
type ChatTurn struct {
	Prompt       string       `json:"prompt"`
	ConnectionID ConnectionID `json:"connectionId"`
	Language     string       `json:"language"`
}

// Frame is one outbound chunk of a streamed answer. The far end
// reconstructs the answer by concatenating Text fields in arrival order.
type Frame struct {
	StatusCode int    `json:"statusCode"`
	Type       string `json:"type"`
	Text       string `json:"text"`
}

// Outbound frame types. FrameBlank stands in for engine fragments the
// responder does not recognize; they are forwarded rather than dropped so
// the stream stays gap-free.
const (
	FrameStart = "start"
	FrameDelta = "delta"
	FrameEnd   = "end"
	FrameBlank = "blank"
)

// NewFrame returns a Frame with the fixed success status code used by the
// outbound protocol.
func NewFrame(frameType, text string) Frame {
	return Frame{StatusCode: 200, Type: frameType, Text: text}
}
