package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/auction-watch/internal/delivery/http/response"
	"github.com/user/auction-watch/internal/repository"
	"github.com/user/auction-watch/internal/usecase"
)

const maxFailuresLimit = 1000

type Handler struct {
	inspector usecase.Inspector
	runner    usecase.PassRunner
	logger    *zap.Logger
}

// NewHandler creates the API handlers. runner may be nil, which disables
// the pass trigger.
func NewHandler(inspector usecase.Inspector, runner usecase.PassRunner, logger *zap.Logger) *Handler {
	return &Handler{
		inspector: inspector,
		runner:    runner,
		logger:    logger,
	}
}

func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.inspector.ListRecords(r.Context())
	if err != nil {
		h.logger.Error("Failed to list records", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]response.RecordSummary, 0, len(records))
	for _, rec := range records {
		resp = append(resp, response.NewRecordSummary(rec))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	rec, err := h.inspector.GetRecord(r.Context(), identity)
	if errors.Is(err, repository.ErrNotFound) {
		h.writeJSONError(w, "Record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to get record", zap.String("identity", identity), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewRecordDetail(rec))
}

func (h *Handler) HandleListFailures(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxFailuresLimit {
			h.writeJSONError(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	failures, err := h.inspector.ListFailures(r.Context(), limit)
	if errors.Is(err, usecase.ErrFailuresUnavailable) {
		h.writeJSONError(w, err.Error(), http.StatusNotImplemented)
		return
	}
	if err != nil {
		h.logger.Error("Failed to list failures", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]response.FailureResponse, 0, len(failures))
	for _, f := range failures {
		resp = append(resp, response.NewFailureResponse(f))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleRunPass runs one pass synchronously and returns its report.
func (h *Handler) HandleRunPass(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		h.writeJSONError(w, "Pass trigger is disabled", http.StatusNotImplemented)
		return
	}

	// The pass outlives the request: a client that disconnects must not abort it.
	report, err := h.runner.RunPass(context.WithoutCancel(r.Context()))
	if errors.Is(err, usecase.ErrPassInProgress) {
		h.writeJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("Pass failed", zap.Error(err))
		h.writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewPassResponse(report))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	deps, healthy := h.inspector.Health(r.Context())
	resp := response.HealthResponse{Status: "ok", Dependencies: deps}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
