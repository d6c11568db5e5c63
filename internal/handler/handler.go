package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/angeloszaimis/uptime-monitor/internal/storage"
)

// RecordReader reads stored check records.
type RecordReader interface {
	Read(key string, dst any) error
}

// LogReader lists and decompresses check logs.
type LogReader interface {
	List(includeArchived bool) ([]string, error)
	Decompress(id string) (string, error)
}

// WorkerStats is implemented by *worker.Periodic.
type WorkerStats interface {
	Name() string
	Stats() (runs int, lastErr error, lastRunAt time.Time)
}

type StatusHandler struct {
	logger  *slog.Logger
	checks  RecordReader
	logs    LogReader
	workers []WorkerStats
}

type workerStatus struct {
	Runs      int        `json:"runs"`
	LastError string     `json:"last_error,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
}

type healthResponse struct {
	Status  string                  `json:"status"`
	Workers map[string]workerStatus `json:"workers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewStatusHandler(logger *slog.Logger, checks RecordReader, logs LogReader, workers ...WorkerStats) *StatusHandler {
	return &StatusHandler{
		logger:  logger,
		checks:  checks,
		logs:    logs,
		workers: workers,
	}
}

// Health reports liveness and the latest run of each worker.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Workers: make(map[string]workerStatus, len(h.workers)),
	}

	for _, wk := range h.workers {
		runs, lastErr, lastRunAt := wk.Stats()
		status := workerStatus{Runs: runs}
		if lastErr != nil {
			status.LastError = lastErr.Error()
		}
		if !lastRunAt.IsZero() {
			status.LastRunAt = &lastRunAt
		}
		resp.Workers[wk.Name()] = status
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCheck returns the stored record for {id} as it is on disk.
func (h *StatusHandler) GetCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var record map[string]any
	if err := h.checks.Read(id, &record); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// ListLogs returns the ids with an active log, or with any log when
// ?archived=true.
func (h *StatusHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("archived") == "true"

	ids, err := h.logs.List(includeArchived)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// GetArchive returns the latest archive for {id}, decompressed.
func (h *StatusHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	content, err := h.logs.Decompress(id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// pathID reads {id} and answers 400 itself when it cannot name a stored
// check or log.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := validation.Validate(id, validation.Required, is.Alphanumeric); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return "", false
	}
	return id, true
}

func (h *StatusHandler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if storage.CodeOf(err) == storage.CodeNotFound {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	h.logger.Error("Status request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
