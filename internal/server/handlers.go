package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/analytics-agent/internal/state"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

const (
	maxBodyBytes        = 1 << 20
	defaultHistoryLimit = 50
)

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question    string `json:"question"`
	ProjectPath string `json:"projectPath"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// TablesResponse is the body of GET /tables.
type TablesResponse struct {
	Tables []core.TableSchema `json:"tables"`
}

// LoadView is one load in GET /history.
type LoadView struct {
	Table      string    `json:"table"`
	Source     string    `json:"source"`
	Columns    int       `json:"columns"`
	RowCount   int64     `json:"rowCount"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`
}

// QueryView is one ask or query in GET /history.
type QueryView struct {
	Question   string    `json:"question,omitempty"`
	SQL        string    `json:"sql,omitempty"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	RowCount   int       `json:"rowCount"`
	Degraded   bool      `json:"degraded,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`
}

// HistoryResponse is the body of GET /history.
type HistoryResponse struct {
	Loads   []LoadView  `json:"loads"`
	Queries []QueryView `json:"queries"`
}

// Handlers provides the HTTP handlers of the API.
type Handlers struct {
	projects *projects
	logger   *slog.Logger
	now      func() time.Time
}

// newHandlers creates a new Handlers instance.
func newHandlers(ps *projects, logger *slog.Logger) *Handlers {
	return &Handlers{projects: ps, logger: logger, now: time.Now}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: h.now().UTC()})
}

// Ask answers a natural-language question about a project.
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		writeError(w, logger, errBadRequest(fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	e, err := h.projects.get(req.ProjectPath)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	result, err := e.project.Pipeline.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Tables returns the loaded tables of a project.
func (h *Handlers) Tables(w http.ResponseWriter, r *http.Request) {
	e, err := h.projects.get(r.URL.Query().Get("projectPath"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ps, err := e.project.Pipeline.Schema()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TablesResponse{Tables: ps.Tables})
}

// History returns the most recent loads and asks of a project.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, h.logger, errBadRequest("limit must be a positive integer"))
			return
		}
		limit = n
	}

	e, err := h.projects.get(r.URL.Query().Get("projectPath"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	store := e.project.History()

	loads, err := store.ListLoads(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	queries, err := store.ListQueries(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := HistoryResponse{Loads: make([]LoadView, 0, len(loads)), Queries: make([]QueryView, 0, len(queries))}
	for _, l := range loads {
		resp.Loads = append(resp.Loads, loadView(l))
	}
	for _, q := range queries {
		resp.Queries = append(resp.Queries, queryView(q))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Events streams a "schema" server-sent event whenever the project's
// schema.json changes.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	e, err := h.projects.get(r.URL.Query().Get("projectPath"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, h.logger, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, ": connected\n\n")
	flusher.Flush()

	ch := e.notifier.Subscribe()
	defer e.notifier.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			if _, err := fmt.Fprintf(w, "event: schema\ndata: {\"changedAt\":%q}\n\n", h.now().UTC().Format(time.RFC3339)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func loadView(l *state.LoadRecord) LoadView {
	return LoadView{
		Table:      l.Table,
		Source:     l.Source,
		Columns:    l.Columns,
		RowCount:   l.RowCount,
		Status:     string(l.Status),
		Error:      l.Error,
		StartedAt:  l.StartedAt,
		DurationMS: l.Duration.Milliseconds(),
	}
}

func queryView(q *state.QueryRecord) QueryView {
	return QueryView{
		Question:   q.Question,
		SQL:        q.SQL,
		Outcome:    string(q.Outcome),
		Reason:     q.Reason,
		RowCount:   q.RowCount,
		Degraded:   q.Degraded,
		StartedAt:  q.StartedAt,
		DurationMS: q.Duration.Milliseconds(),
	}
}
