package docxextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/unidoc/unioffice/document"
)

// ExtractText returns the body paragraphs of a .docx file followed by the text
// of its table cells. Runs inside a paragraph are concatenated; paragraphs are
// separated by newlines and tables by a blank line.
func ExtractText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", nil
	}
	doc, err := document.Read(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open docx failed: %w", err)
	}
	defer doc.Close()

	var lines []string
	for _, p := range doc.Paragraphs() {
		if text := paragraphText(p); text != "" {
			lines = append(lines, text)
		}
	}

	for _, table := range doc.Tables() {
		var rows []string
		for _, row := range table.Rows() {
			var cells []string
			for _, cell := range row.Cells() {
				var parts []string
				for _, p := range cell.Paragraphs() {
					if text := paragraphText(p); text != "" {
						parts = append(parts, text)
					}
				}
				if len(parts) > 0 {
					cells = append(cells, strings.Join(parts, " "))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " | "))
			}
		}
		if len(rows) > 0 {
			lines = append(lines, "", strings.Join(rows, "\n"))
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func paragraphText(p document.Paragraph) string {
	var sb strings.Builder
	for _, run := range p.Runs() {
		sb.WriteString(run.Text())
	}
	return strings.TrimSpace(sb.String())
}
