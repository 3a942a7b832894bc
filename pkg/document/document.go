// Package document reads and writes the text content of TXT, PDF and Word
// files.
package document

import (
	"path/filepath"
	"strings"
)

// Format identifies a supported document format.
type Format string

const (
	FormatText Format = ".txt"
	FormatPDF  Format = ".pdf"
	FormatDocx Format = ".docx"
	FormatDoc  Format = ".doc"
)

// SupportedExtensions lists the file extensions the reader understands.
var SupportedExtensions = []string{
	string(FormatText),
	string(FormatPDF),
	string(FormatDocx),
	string(FormatDoc),
}

// DetectFormat returns the document format for a file path based on its
// extension.
func DetectFormat(path string) Format {
	return Format(strings.ToLower(filepath.Ext(path)))
}

// IsSupported reports whether the file at path has a supported extension.
func IsSupported(path string) bool {
	format := DetectFormat(path)
	for _, ext := range SupportedExtensions {
		if string(format) == ext {
			return true
		}
	}
	return false
}
