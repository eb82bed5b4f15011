package ingestion

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// ExtractTextWithOCR runs OCR on images or scanned PDFs. PDF pages are
// rendered to PNGs with pdftoppm (poppler) first.
func ExtractTextWithOCR(path string) (string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return runTesseract(path)
	}

	dir, err := os.MkdirTemp("", "agent-ocr-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	if out, err := exec.Command("pdftoppm", "-png", path, prefix).CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftoppm convert failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return "", err
	}
	sort.Strings(pages)

	var combined strings.Builder
	for _, p := range pages {
		t, err := runTesseract(p)
		if err != nil {
			continue
		}
		combined.WriteString(t)
		combined.WriteString("\n")
	}
	return strings.TrimSpace(combined.String()), nil
}

func runTesseract(imgPath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetImage(imgPath); err != nil {
		return "", err
	}
	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
