package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/graph"
	"github.com/Divas-Gupta30/agentic-assistant/internal/ingestion"
)

const maxBodyBytes = 1 << 20

type queryRequest struct {
	Query string `json:"query"`
}

// queryResponse is the final state plus the text to show the user.
type queryResponse struct {
	graph.State
	Answer string `json:"answer"`
}

type ingestRequest struct {
	Path string `json:"path"`
}

var errOutsideRoot = errors.New("path is outside the documents directory")

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	st := s.runner.Run(r.Context(), req.Query)
	writeJSONResponse(w, http.StatusOK, queryResponse{State: st, Answer: st.Answer()})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingester == nil {
		writeError(w, http.StatusServiceUnavailable, "Ingestion is not configured")
		return
	}
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, http.StatusBadRequest, "Path is required")
		return
	}

	path, err := resolveIngestPath(s.ingestRoot, req.Path)
	if err != nil {
		s.log.Warn("ingest path rejected", zap.String("path", req.Path), zap.Error(err))
		writeError(w, http.StatusForbidden, "Path must be inside the documents directory")
		return
	}

	sum, err := s.ingester.IngestPath(r.Context(), path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "Path not found")
	case errors.Is(err, ingestion.ErrUnsupported):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.log.Error("ingest failed", zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Ingestion failed")
	default:
		writeJSONResponse(w, http.StatusOK, sum)
	}
}

// resolveIngestPath maps a requested path onto root. Relative paths are taken
// relative to root and the result, symlinks included, must stay inside it.
func resolveIngestPath(root, p string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(rootAbs, p)
	}
	p = filepath.Clean(p)
	if !within(rootAbs, p) {
		return "", errOutsideRoot
	}

	if real, err := filepath.EvalSymlinks(p); err == nil {
		realRoot, err := filepath.EvalSymlinks(rootAbs)
		if err != nil || !within(realRoot, real) {
			return "", errOutsideRoot
		}
	}
	return p, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := map[string]any{"status": "healthy"}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			health[name] = "disconnected"
			health["status"] = "degraded"
			continue
		}
		health[name] = "connected"
	}
	writeJSONResponse(w, http.StatusOK, health)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONResponse(w, status, errorResponse{Error: msg})
}
