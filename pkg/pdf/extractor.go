package pdf

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText is the extracted text of a single PDF page, 1-based.
type PageText struct {
	Page int
	Text string
}

// ExtractPages pulls plain text out of a PDF file page by page.
// Pages whose text cannot be read are skipped; the error is only
// returned when the file itself cannot be opened or parsed.
func ExtractPages(path string) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]PageText, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pages = append(pages, PageText{
			Page: i,
			Text: text,
		})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", filepath.Base(path))
	}

	return pages, nil
}
