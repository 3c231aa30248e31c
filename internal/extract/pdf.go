package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads text runs page by page. Runs on a row are joined with a
// space, rows with a newline and pages with a blank line.
func extractPDF(data []byte) (text string, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, run := range row.Content {
				if s := strings.TrimSpace(run.S); s != "" {
					words = append(words, s)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
