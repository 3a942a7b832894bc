package document

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/logging"
)

// Read extracts the plain text content of a document. The format is chosen
// from the file extension.
func Read(ctx context.Context, path string) (string, error) {
	if err := errors.CheckContext(ctx, "read document"); err != nil {
		return "", err
	}

	switch DetectFormat(path) {
	case FormatText:
		return readText(path)
	case FormatPDF:
		return readPDF(path)
	case FormatDocx, FormatDoc:
		return readDocx(ctx, path)
	default:
		return "", errors.WithFields(
			errors.New(errors.UnsupportedFormat, "unsupported document format"),
			errors.Fields{"path": path})
	}
}

// readText reads a plain text file. Files that are not valid UTF-8 are
// decoded as Latin-1, which covers legacy Danish documents.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.DocumentReadFailed, "failed to read text file"),
			errors.Fields{"path": path})
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.DocumentReadFailed, "failed to decode text file"),
			errors.Fields{"path": path})
	}
	return string(decoded), nil
}

// readPDF extracts text from a PDF, one page at a time. Pages that cannot be
// parsed are skipped with a warning so a single bad page does not lose the
// whole document.
func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.DocumentReadFailed, "failed to open PDF"),
			errors.Fields{"path": path})
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logging.GetLogger().Warn(context.Background(), "Skipping unreadable PDF page %d in %s: %v", i, path, err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

// readDocx extracts paragraph and table text from a Word document. Images
// and other non-text content are not extracted.
func readDocx(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.DocumentReadFailed, "failed to open Word document"),
			errors.Fields{"path": path})
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrap(err, errors.DocumentReadFailed, "failed to stat Word document")
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", errors.WithFields(
			errors.Wrap(err, errors.DocumentReadFailed, "failed to parse Word document"),
			errors.Fields{"path": path})
	}

	var blocks []string
	for _, item := range doc.Document.Body.Items {
		switch block := item.(type) {
		case *docx.Paragraph:
			blocks = append(blocks, block.String())
		case *docx.Table:
			blocks = append(blocks, tableText(block)...)
		}
	}

	return strings.Join(blocks, "\n"), nil
}

// tableText renders a table one row per line, cells joined with " | ".
func tableText(table *docx.Table) []string {
	var rows []string
	for _, row := range table.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if text := strings.TrimSpace(para.String()); text != "" {
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
	return rows
}
