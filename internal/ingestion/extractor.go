package ingestion

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrNoText      = errors.New("no text extracted")
)

var allowedExt = []string{".pdf", ".txt", ".md", ".png", ".jpg", ".jpeg"}

// Supported reports whether ExtractText can handle the file's extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowedExt {
		if ext == a {
			return true
		}
	}
	return false
}

// ExtractText detects file type and returns text via direct extraction or OCR.
func ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case ".pdf":
		text, err := ExtractTextFromPDF(path)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		// Scanned PDF or no text layer.
		return ExtractTextWithOCR(path)
	case ".png", ".jpg", ".jpeg":
		return ExtractTextWithOCR(path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}
