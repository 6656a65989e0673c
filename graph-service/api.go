package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/animus-labs/rungraph/internal/execution/runspec"
	"github.com/animus-labs/rungraph/internal/platform/auth"
	"github.com/animus-labs/rungraph/internal/platform/httpserver"
	"github.com/animus-labs/rungraph/internal/repo"
	"github.com/animus-labs/rungraph/internal/service/graphs"
)

const maxRunBytes = 8 << 20

type graphService interface {
	Build(ctx context.Context, req graphs.BuildRequest) (graphs.Result, error)
	Get(ctx context.Context, runID string) (repo.GraphRecord, error)
}

type graphAPI struct {
	logger *slog.Logger
	graphs graphService
}

func newGraphAPI(logger *slog.Logger, svc graphService) *graphAPI {
	return &graphAPI{
		logger: logger,
		graphs: svc,
	}
}

func (api *graphAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /runs/{run_id}/graph", api.handleBuildGraph)
	mux.HandleFunc("GET /runs/{run_id}/graph", api.handleGetGraph)
}

type buildResponse struct {
	RunID        string          `json:"run_id"`
	Digest       string          `json:"digest"`
	Created      bool            `json:"created"`
	Cached       bool            `json:"cached"`
	Tasks        int             `json:"tasks"`
	Dependencies int             `json:"dependencies"`
	Unsupported  []string        `json:"unsupported_ops,omitempty"`
	Graph        json.RawMessage `json:"graph"`
}

type graphResponse struct {
	RunID        string          `json:"run_id"`
	Digest       string          `json:"digest"`
	Tasks        int             `json:"tasks"`
	Dependencies int             `json:"dependencies"`
	CreatedAt    time.Time       `json:"created_at"`
	Graph        json.RawMessage `json:"graph"`
}

func (api *graphAPI) handleBuildGraph(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		httpserver.WriteError(w, r, http.StatusBadRequest, "run_id_required")
		return
	}
	format, ok := runFormat(r.Header.Get("Content-Type"))
	if !ok {
		httpserver.WriteError(w, r, http.StatusUnsupportedMediaType, "unsupported_content_type")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRunBytes+1))
	if err != nil {
		httpserver.WriteError(w, r, http.StatusBadRequest, "invalid_body")
		return
	}
	if len(payload) > maxRunBytes {
		httpserver.WriteError(w, r, http.StatusRequestEntityTooLarge, "run_too_large")
		return
	}
	if len(strings.TrimSpace(string(payload))) == 0 {
		httpserver.WriteError(w, r, http.StatusBadRequest, "run_required")
		return
	}

	res, err := api.graphs.Build(r.Context(), graphs.BuildRequest{
		RunID:     runID,
		Payload:   payload,
		Format:    format,
		Actor:     auth.Actor(r.Context()),
		RequestID: r.Header.Get(httpserver.HeaderRequestID),
	})
	if err != nil {
		api.writeBuildError(w, r, runID, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	httpserver.WriteJSON(w, status, buildResponse{
		RunID:        res.RunID,
		Digest:       res.Digest,
		Created:      res.Created,
		Cached:       res.Cached,
		Tasks:        res.Tasks,
		Dependencies: res.Dependencies,
		Unsupported:  res.Unsupported,
		Graph:        res.Graph,
	})
}

func (api *graphAPI) writeBuildError(w http.ResponseWriter, r *http.Request, runID string, err error) {
	requestID := r.Header.Get(httpserver.HeaderRequestID)
	var verr *runspec.ValidationError
	switch {
	case errors.As(err, &verr):
		httpserver.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "invalid_run",
			"issues":     verr.Issues,
			"request_id": requestID,
		})
	case errors.Is(err, graphs.ErrInvalidRun):
		httpserver.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "invalid_run",
			"issues":     []string{err.Error()},
			"request_id": requestID,
		})
	case graphs.IsTimingError(err):
		httpserver.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "invalid_time_constraint",
			"detail":     err.Error(),
			"request_id": requestID,
		})
	case errors.Is(err, repo.ErrConflict):
		httpserver.WriteError(w, r, http.StatusConflict, "graph_exists")
	default:
		api.logger.Error("graph build failed", "run_id", runID, "request_id", requestID, "error", err)
		httpserver.WriteError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

func (api *graphAPI) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		httpserver.WriteError(w, r, http.StatusBadRequest, "run_id_required")
		return
	}

	record, err := api.graphs.Get(r.Context(), runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			httpserver.WriteError(w, r, http.StatusNotFound, "not_found")
			return
		}
		api.logger.Error("graph lookup failed", "run_id", runID, "error", err)
		httpserver.WriteError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	httpserver.WriteJSON(w, http.StatusOK, graphResponse{
		RunID:        record.RunID,
		Digest:       record.Digest,
		Tasks:        record.TaskCount,
		Dependencies: record.DependencyCount,
		CreatedAt:    record.CreatedAt,
		Graph:        record.Graph,
	})
}

// runFormat maps a request content type to a run format. A missing content
// type is treated as JSON.
func runFormat(contentType string) (string, bool) {
	if strings.TrimSpace(contentType) == "" {
		return "json", true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch mediaType {
	case "application/json":
		return "json", true
	case "application/yaml", "application/x-yaml", "text/yaml":
		return "yaml", true
	default:
		return "", false
	}
}
