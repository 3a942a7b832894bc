package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/logging"
)

// CorrectedPath returns the output path for a corrected document. With
// overwrite the input path is returned unchanged, otherwise a "_corrected"
// suffix is inserted before the extension.
func CorrectedPath(inputPath string, overwrite bool) string {
	if overwrite {
		return inputPath
	}
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(inputPath, ext)
	return stem + "_corrected" + ext
}

// Write saves text content to a document. The format follows the target file
// extension. PDF output is not supported, so corrected PDFs are written as a
// plain text sibling instead; the actually written path is returned.
func Write(ctx context.Context, path string, content string) (string, error) {
	if err := errors.CheckContext(ctx, "write document"); err != nil {
		return "", err
	}

	switch DetectFormat(path) {
	case FormatText:
		return path, writeText(path, content)
	case FormatDocx, FormatDoc:
		return path, writeDocx(path, content)
	case FormatPDF:
		txtPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
		logging.GetLogger().Warn(ctx, "PDF output is not supported, writing %s instead", txtPath)
		return txtPath, writeText(txtPath, content)
	default:
		return "", errors.WithFields(
			errors.New(errors.UnsupportedFormat, "unsupported output format"),
			errors.Fields{"path": path})
	}
}

func writeText(path string, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.DocumentWriteFailed, "failed to write text file"),
			errors.Fields{"path": path})
	}
	return nil
}

// writeDocx writes content as a new Word document with one paragraph per
// blank-line separated block.
func writeDocx(path string, content string) error {
	doc := docx.New()
	for _, block := range strings.Split(content, "\n\n") {
		para := doc.AddParagraph()
		para.AddText(strings.TrimSpace(block))
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.DocumentWriteFailed, "failed to create Word document"),
			errors.Fields{"path": path})
	}
	defer f.Close()

	if _, err := doc.WriteTo(f); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.DocumentWriteFailed, "failed to write Word document"),
			errors.Fields{"path": path})
	}
	return nil
}
