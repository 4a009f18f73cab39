package textextract

import (
	"fmt"
	"strings"

	"skillatlas/internal/apperr"
)

// Extractor turns an uploaded file into plain text. Implementations must return
// apperr.ErrExtractionEmpty (wrapped) when the file contains no extractable text,
// e.g. a scanned PDF with no text layer.
type Extractor interface {
	ExtractText(data []byte, mimeType string) (string, error)
}

// Default dispatches on MIME type: PDFs go through the text-layer reader,
// text-ish content passes through as-is.
type Default struct{}

// ExtractText implements Extractor.
func (Default) ExtractText(data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", apperr.ErrExtractionEmpty)
	}

	switch {
	case mimeType == "application/pdf":
		return extractPDF(data)
	case strings.HasPrefix(mimeType, "text/"), mimeType == "", mimeType == "application/octet-stream":
		text := string(data)
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: file contains only whitespace", apperr.ErrExtractionEmpty)
		}
		return text, nil
	default:
		return "", fmt.Errorf("unsupported content type %q", mimeType)
	}
}
