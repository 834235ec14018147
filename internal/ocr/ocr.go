// Package ocr extracts text content from the PDF attachments that carry
// provisioning order details.
package ocr

import (
	"context"

	"github.com/bawa-networks/provision-cli/internal/config"
)

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) Extractor {
	return NewPdfToText(cfg.PdfToTextPath)
}
