package ocr

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rotisserie/eris"
)

// PageCount parses the PDF and returns its page count. A file that cannot be
// parsed at all fails here, letting callers treat it as a structural failure
// before shelling out for text extraction.
func PageCount(pdfPath string) (int, error) {
	count, err := api.PageCountFile(pdfPath)
	if err != nil {
		return 0, eris.Wrapf(err, "ocr: page count for %s", pdfPath)
	}
	return count, nil
}
