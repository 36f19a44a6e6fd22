package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/user/schoolaide/internal/types"
)

// PDFExtractor parses PDFs in-process instead of calling the extraction
// service. Used in self-hosted deployments where no text-detection service
// is available.
type PDFExtractor struct {
	store types.ObjectStore
}

func NewPDF(store types.ObjectStore) *PDFExtractor {
	return &PDFExtractor{store: store}
}

// Extract downloads the stored document and returns its plain text.
func (e *PDFExtractor) Extract(ctx context.Context, bucket, key string) (string, error) {
	data, err := e.store.Get(ctx, bucket, key)
	if err != nil {
		return "", fmt.Errorf("download document %s/%s: %w", bucket, key, err)
	}
	return Text(data)
}

// Text extracts plain text from PDF bytes, page by page.
func Text(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
