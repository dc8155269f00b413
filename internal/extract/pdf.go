// Package extract pulls plain text out of uploaded PDF files.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrExtraction is returned when a PDF cannot be opened or read.
	ErrExtraction = errors.New("failed to extract text from document")
	// ErrNoText is returned when a PDF parses fine but contains no
	// extractable text (scanned images, empty pages).
	ErrNoText = errors.New("no extractable text found in the document")
)

// PDF extracts page-concatenated text from PDF files on disk.
type PDF struct{}

// Text returns the document's plain text, trimmed. Page texts are
// concatenated in order, as the reader emits them.
func (PDF) Text(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrExtraction, path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrExtraction, path, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrExtraction, path, err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
