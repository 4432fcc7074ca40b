// Package extract converts uploaded document bytes into plain text for
// chunking. Format selection is by file extension; unknown extensions are
// treated as plain text.
package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extractor extracts plain text from document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedExtensions lists the formats accepted for upload and S3
// ingestion, matching the upstream document pipeline.
var SupportedExtensions = []string{
	".txt", ".md", ".mdx", ".markdown", ".html", ".htm",
	".csv", ".pdf", ".docx", ".xlsx", ".xls",
}

// Supported reports whether the extension (with leading dot, any case) is
// an accepted format.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ExtractText extracts text from content using the extension of name
// (an object key or filename) to pick the format.
func (e *Extractor) ExtractText(content []byte, name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx", ".xls":
		return extractExcel(content)
	case ".csv":
		return extractCSV(content)
	default:
		return extractPlain(content)
	}
}

// extractPlain passes text formats (.txt, .md, .html, unknown) through as
// UTF-8 text.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("content is not valid UTF-8 text")
	}
	return string(content), nil
}

// extractCSV flattens rows into tab-separated lines, one line per record.
func extractCSV(content []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1

	var b strings.Builder
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv: %w", err)
		}
		b.WriteString(strings.Join(record, "\t"))
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), nil
}
