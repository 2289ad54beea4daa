// Package server exposes the QA chain over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Yates-Labs/medrag/internal/chain"
	"github.com/Yates-Labs/medrag/internal/logging"
	"github.com/Yates-Labs/medrag/internal/rag"
)

// Answerer answers a single question. *chain.QAChain implements it.
type Answerer interface {
	Invoke(ctx context.Context, question string) (*chain.Result, error)
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer          string         `json:"answer"`
	SourceDocuments []rag.Document `json:"source_documents,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	qa      Answerer
	timeout time.Duration
	metrics *Metrics
	logger  *zap.Logger
}

// NewHandler serves questions with qa. A nil qa makes every question fail
// with 503 so the server can report a missing chain instead of refusing to start.
func NewHandler(qa Answerer, timeout time.Duration, metrics *Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		qa:      qa,
		timeout: timeout,
		metrics: metrics,
		logger:  logging.OrNop(logger),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"chain_ready": h.qa != nil,
	})
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	if h.qa == nil {
		h.record(outcomeUnavailable)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no QA chain available"})
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.record(outcomeBadRequest)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		h.record(outcomeBadRequest)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: chain.ErrEmptyQuestion.Error()})
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := h.qa.Invoke(ctx, req.Question)
	if h.metrics != nil {
		h.metrics.AskDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		// Client libraries may report an expired deadline with their own error types.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			h.record(outcomeTimeout)
			writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "answer timed out"})
			return
		}
		h.record(outcomeError)
		h.logger.Error("Failed to answer question", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to answer question"})
		return
	}

	h.record(outcomeAnswered)
	writeJSON(w, http.StatusOK, AskResponse{
		Answer:          result.Answer,
		SourceDocuments: result.SourceDocuments,
	})
}

func (h *Handler) record(outcome string) {
	if h.metrics != nil {
		h.metrics.AskRequests.WithLabelValues(outcome).Inc()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
