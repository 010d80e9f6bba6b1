// Package pdftext extracts plain text from PDF documents. It exists so that
// everything downstream of the fetcher works on text and can be tested
// without binary fixtures.
package pdftext

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Extractor converts a PDF file into its plain text content.
type Extractor interface {
	Text(path string) (string, error)
}

// Reader extracts text using the ledongthuc/pdf parser.
type Reader struct{}

// Text returns the concatenated plain text of every page.
func (Reader) Text(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

var _ Extractor = Reader{}
