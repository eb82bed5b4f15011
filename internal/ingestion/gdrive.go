package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

const pdfMimeType = "application/pdf"

// DriveFile is a PDF found in a Drive folder.
type DriveFile struct {
	ID   string
	Name string
	MD5  string
}

// DriveSource lists and downloads PDFs from Google Drive.
type DriveSource struct {
	svc *drive.Service
}

// NewDriveSource authenticates with an OAuth client credentials file and a
// previously obtained token file.
func NewDriveSource(ctx context.Context, credentialsFile, tokenFile string) (*DriveSource, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(creds, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	tok, err := loadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return NewDriveSourceWithOptions(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
}

// NewDriveSourceWithOptions builds a source from raw client options.
func NewDriveSourceWithOptions(ctx context.Context, opts ...option.ClientOption) (*DriveSource, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveSource{svc: svc}, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read drive token: %w", err)
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("parse drive token: %w", err)
	}
	return &tok, nil
}

// ListPDFs returns every non-trashed PDF directly inside folderID.
func (d *DriveSource) ListPDFs(ctx context.Context, folderID string) ([]DriveFile, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(folderID, "'", `\'`), pdfMimeType)

	var out []DriveFile
	pageToken := ""
	for {
		call := d.svc.Files.List().
			Q(q).
			Fields("nextPageToken, files(id, name, md5Checksum)").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			metrics.ExternalAPICallsTotal.WithLabelValues("gdrive", "error").Inc()
			return nil, fmt.Errorf("list drive folder %s: %w", folderID, err)
		}
		metrics.ExternalAPICallsTotal.WithLabelValues("gdrive", "success").Inc()
		for _, f := range res.Files {
			out = append(out, DriveFile{ID: f.Id, Name: f.Name, MD5: f.Md5Checksum})
		}
		if res.NextPageToken == "" {
			return out, nil
		}
		pageToken = res.NextPageToken
	}
}

// Download saves the file into dir and returns the local path.
func (d *DriveSource) Download(ctx context.Context, f DriveFile, dir string) (string, error) {
	resp, err := d.svc.Files.Get(f.ID).Context(ctx).Download()
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("gdrive", "error").Inc()
		return "", fmt.Errorf("download %s: %w", f.Name, err)
	}
	defer resp.Body.Close()
	metrics.ExternalAPICallsTotal.WithLabelValues("gdrive", "success").Inc()

	name := filepath.Base(f.Name)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	path := filepath.Join(dir, f.ID+"_"+name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", err
	}
	return path, out.Close()
}
