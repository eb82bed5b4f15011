package ingestion

import (
	"bytes"
	"io"
	"os/exec"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ExtractTextFromPDF reads the PDF text layer. It returns an empty string
// when the document has none, e.g. a scan.
func ExtractTextFromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		// pdftotext handles some encodings the pure Go reader does not.
		if out, err := exec.Command("pdftotext", "-layout", path, "-").Output(); err == nil {
			return strings.TrimSpace(string(out)), nil
		}
	}
	return text, nil
}
