package ingestion

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// LoadLocalFiles walks root and returns every supported file, sorted.
func LoadLocalFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if Supported(path) {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}
