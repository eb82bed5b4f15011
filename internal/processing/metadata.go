package processing

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"
)

// Document sources.
const (
	SourceLocal  = "local"
	SourceGDrive = "gdrive"
	SourceUpload = "upload"
)

type Metadata struct {
	Path       string
	Source     string
	ImportedAt time.Time
	Title      string
	// ContentHash is the hex sha256 of the raw file bytes.
	ContentHash string
}

// NewMetadata describes a file about to be indexed.
func NewMetadata(path, source string, content []byte) Metadata {
	base := filepath.Base(path)
	return Metadata{
		Path:        path,
		Source:      source,
		ImportedAt:  time.Now().UTC(),
		Title:       strings.TrimSuffix(base, filepath.Ext(base)),
		ContentHash: HashContent(content),
	}
}

func HashContent(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
