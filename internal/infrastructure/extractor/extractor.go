package extractor

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extract returns the document text of filename. Unreadable pdf and docx
// files yield an error; callers skip them like empty files.
func Extract(filename string, raw []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(raw)
	case ".docx":
		return extractDOCX(raw)
	default:
		return plainText(raw), nil
	}
}

// plainText drops invalid UTF-8 sequences instead of rejecting the file.
func plainText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "")
}
