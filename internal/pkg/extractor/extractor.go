// Package extractor converts uploaded documents into plain text for the
// ingestion pipeline.
package extractor

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/snobbots/chatbot-backend/internal/entity"
)

// SupportedExtensions lists the file types the ingestion endpoint accepts.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// Extract returns the plain text content of an uploaded file, dispatching on
// the filename extension. Unsupported extensions fail with
// entity.ErrUnsupportedFileType before any paid API call is made.
func Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDOCX(data)
	case ".txt":
		return extractText(data)
	default:
		return "", fmt.Errorf("%w: %s (allowed: pdf, docx, txt)", entity.ErrUnsupportedFileType, ext)
	}
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text file is not valid UTF-8", entity.ErrInvalidParameter)
	}
	return string(data), nil
}
