package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/tabedit/internal/core"
	"github.com/JonMunkholm/tabedit/internal/logging"
)

// maxJSONBody bounds API request bodies.
const maxJSONBody = 64 << 10

// TableResponse is one page of the session's table.
type TableResponse struct {
	FileName   string     `json:"fileName,omitempty"`
	Columns    []string   `json:"columns"`
	Rows       []core.Row `json:"rows"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalRows  int        `json:"totalRows"`
	TotalPages int        `json:"totalPages"`
	UndoDepth  int        `json:"undoDepth"`
	Steps      int        `json:"steps"`
	State      string     `json:"state"`
	Column     string     `json:"column,omitempty"`
}

// OperationRequest names a column and the operation to run on it.
type OperationRequest struct {
	Column     string      `json:"column"`
	Op         core.OpKind `json:"op"`
	Delimiter  string      `json:"delimiter,omitempty"`
	Expression string      `json:"expression,omitempty"`
}

func (s *Server) handleAPITable(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()
	grid := buildGrid(snap.Table, parseGridQuery(r.URL.Query(), s.cfg.Editor.PageSize))

	writeJSON(w, http.StatusOK, TableResponse{
		FileName:   snap.FileName,
		Columns:    grid.Columns,
		Rows:       grid.Rows,
		Page:       grid.Page,
		PageSize:   grid.PageSize,
		TotalRows:  grid.TotalRows,
		TotalPages: grid.TotalPages,
		UndoDepth:  snap.UndoDepth,
		Steps:      snap.Steps,
		State:      snap.State.String(),
		Column:     snap.Column,
	})
}

// handleAPIPreview previews an operation without opening the dialog.
func (s *Server) handleAPIPreview(w http.ResponseWriter, r *http.Request) {
	req, op, err := decodeOperation(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := sessionFrom(r.Context()).PreviewOperation(req.Column, op)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAPIApply(w http.ResponseWriter, r *http.Request) {
	req, op, err := decodeOperation(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := sessionFrom(r.Context()).ApplyOperation(r.Context(), req.Column, op)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAPIProfile(w http.ResponseWriter, r *http.Request) {
	column, err := columnParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := sessionFrom(r.Context()).Profile(column)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func decodeOperation(w http.ResponseWriter, r *http.Request) (OperationRequest, core.Operation, error) {
	var req OperationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, core.Operation{}, fmt.Errorf("%w: %w", errInvalidRequest, err)
	}

	kind, err := core.ParseOpKind(string(req.Op))
	if err != nil {
		return req, core.Operation{}, err
	}
	return req, core.Operation{
		Kind:       kind,
		Delimiter:  req.Delimiter,
		Expression: req.Expression,
	}, nil
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Sessions int                      `json:"sessions"`
	Uploads  core.UploadLimiterStatus `json:"uploads"`
	Checks   map[string]string        `json:"checks,omitempty"`
}

// handleHealth reports "ok", or "degraded" with 503 when a check fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Sessions: s.service.SessionCount(),
		Uploads:  s.service.Limiter().Status(),
	}

	s.checksMu.RLock()
	defer s.checksMu.RUnlock()

	if len(s.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp.Checks = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check(ctx); err != nil {
				logging.FromContext(r.Context()).Warn("health check failed", "check", name, "error", err)
				resp.Checks[name] = "failing"
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
