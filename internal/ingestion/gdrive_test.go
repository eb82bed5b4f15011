package ingestion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newFakeDriveServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), "'folder-1' in parents")
		assert.Contains(t, r.URL.Query().Get("q"), "mimeType = 'application/pdf'")

		page := map[string]any{
			"files":         []map[string]string{{"id": "a", "name": "Guide.pdf", "md5Checksum": "m1"}},
			"nextPageToken": "p2",
		}
		if r.URL.Query().Get("pageToken") == "p2" {
			page = map[string]any{
				"files": []map[string]string{{"id": "b", "name": "notes", "md5Checksum": "m2"}},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("/files/a", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	})
	mux.HandleFunc("/files/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"File not found"}}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestDriveSource(t *testing.T, srv *httptest.Server) *DriveSource {
	t.Helper()
	src, err := NewDriveSourceWithOptions(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return src
}

func TestDriveSourceListPDFsFollowsPages(t *testing.T) {
	src := newTestDriveSource(t, newFakeDriveServer(t))

	files, err := src.ListPDFs(context.Background(), "folder-1")
	require.NoError(t, err)
	assert.Equal(t, []DriveFile{
		{ID: "a", Name: "Guide.pdf", MD5: "m1"},
		{ID: "b", Name: "notes", MD5: "m2"},
	}, files)
}

func TestDriveSourceDownload(t *testing.T) {
	src := newTestDriveSource(t, newFakeDriveServer(t))
	dir := t.TempDir()

	path, err := src.Download(context.Background(), DriveFile{ID: "a", Name: "Guide.pdf"}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a_Guide.pdf"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(b))

	_, err = src.Download(context.Background(), DriveFile{ID: "missing", Name: "x.pdf"}, dir)
	assert.Error(t, err)
}

func TestNewDriveSourceMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewDriveSource(context.Background(), filepath.Join(dir, "credentials.json"), filepath.Join(dir, "token.json"))
	assert.ErrorContains(t, err, "read drive credentials")
}
