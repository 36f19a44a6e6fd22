// Package intake processes one arrived email: classify attachments, route
// them by document kind, sync the knowledge base, and move the message out
// of the incoming prefix.
package intake

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/user/schoolaide/internal/types"
)

// Attachments parses a raw RFC 822 message and returns every part whose
// disposition marks it as an attachment. Inline parts and multipart
// containers are skipped.
func Attachments(raw []byte) ([]types.Attachment, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Type", msg.Header.Get("Content-Type"))
	header.Set("Content-Disposition", msg.Header.Get("Content-Disposition"))
	header.Set("Content-Transfer-Encoding", msg.Header.Get("Content-Transfer-Encoding"))

	var atts []types.Attachment
	if err := walkPart(header, msg.Body, &atts); err != nil {
		return nil, err
	}
	return atts, nil
}

func walkPart(header textproto.MIMEHeader, body io.Reader, atts *[]types.Attachment) error {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("parse content type %q: %w", contentType, err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart body without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read part: %w", err)
			}
			if err := walkPart(part.Header, part, atts); err != nil {
				return err
			}
		}
	}

	filename, ok := attachmentFilename(header)
	if !ok {
		return nil
	}

	data, err := decodeBody(body, header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return fmt.Errorf("decode attachment %s: %w", filename, err)
	}
	*atts = append(*atts, types.Attachment{
		Filename:    filename,
		ContentType: mediaType,
		Data:        data,
	})
	return nil
}

// attachmentFilename returns the part's filename when its disposition marks
// it as an attachment.
func attachmentFilename(header textproto.MIMEHeader) (string, bool) {
	disposition := header.Get("Content-Disposition")
	if disposition == "" {
		return "", false
	}
	dispType, params, err := mime.ParseMediaType(disposition)
	if err != nil || dispType != "attachment" {
		return "", false
	}
	name := params["filename"]
	if name == "" {
		return "", false
	}
	return name, true
}

func decodeBody(body io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, newWhitespaceStripper(body))
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}
	return io.ReadAll(body)
}

// whitespaceStripper removes CR/LF from base64 bodies, which arrive wrapped
// at 76 columns.
type whitespaceStripper struct {
	r io.Reader
}

func newWhitespaceStripper(r io.Reader) io.Reader {
	return &whitespaceStripper{r: r}
}

func (w *whitespaceStripper) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	kept := 0
	for i := 0; i < n; i++ {
		if p[i] == '\r' || p[i] == '\n' {
			continue
		}
		p[kept] = p[i]
		kept++
	}
	if kept == 0 && err == nil && n > 0 {
		return w.Read(p)
	}
	return kept, err
}
