package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/rl1809/voice-pos/internal/common/errors"
	"github.com/rl1809/voice-pos/internal/core/domain"
	"github.com/rl1809/voice-pos/internal/core/service"
)

// Engine is the part of service.Engine the HTTP surface needs.
type Engine interface {
	HandleRequest(ctx context.Context, requestID, utterance string) (*domain.Report, error)
	Cart() service.CartView
	Inventory() []domain.CatalogItem
}

type HTTPHandler struct {
	engine Engine
}

type CommandHTTPRequest struct {
	RequestID string `json:"request_id"`
	Utterance string `json:"utterance"`
}

type CommandHTTPResponse struct {
	Success   bool              `json:"success"`
	Intent    string            `json:"intent,omitempty"`
	Message   string            `json:"message,omitempty"`
	Outcomes  []OutcomeResponse `json:"outcomes,omitempty"`
	Cart      map[string]int    `json:"cart,omitempty"`
	Total     float64           `json:"total,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	Code      string            `json:"code,omitempty"`
}

type OutcomeResponse struct {
	Phrase    string  `json:"phrase"`
	Status    string  `json:"status"`
	SKU       string  `json:"sku,omitempty"`
	Name      string  `json:"name,omitempty"`
	Score     float64 `json:"score,omitempty"`
	Requested int     `json:"requested"`
	Applied   int     `json:"applied"`
	Stock     int     `json:"stock"`
	Message   string  `json:"message"`
}

func NewHTTPHandler(engine Engine) *HTTPHandler {
	return &HTTPHandler{engine: engine}
}

// Routes mounts the API, health and metrics endpoints.
func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/command", h.Command)
		r.Get("/cart", h.GetCart)
		r.Get("/inventory", h.GetInventory)
	})
	return r
}

func (h *HTTPHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req CommandHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CommandHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if strings.TrimSpace(req.Utterance) == "" {
		writeJSON(w, http.StatusBadRequest, CommandHTTPResponse{
			Success: false,
			Message: "missing utterance",
		})
		return
	}

	report, err := h.engine.HandleRequest(r.Context(), req.RequestID, req.Utterance)
	if err != nil {
		status := http.StatusInternalServerError
		resp := CommandHTTPResponse{Success: false, Message: "internal error"}

		switch {
		case errors.Is(err, service.ErrDuplicateRequest):
			status = http.StatusConflict
			resp.Message = "duplicate request"
			resp.Code = string(apperrors.ErrCodeDuplicateRequest)
		case errors.Is(err, service.ErrParseMiss):
			status = http.StatusUnprocessableEntity
			resp = toResponse(report)
			resp.Success = false
			resp.Code = string(apperrors.ErrCodeParseMiss)
		case apperrors.CodeOf(err) == apperrors.ErrCodePersistenceFailed:
			status = http.StatusServiceUnavailable
			resp = toResponse(report)
			resp.Success = false
			resp.Retryable = true
			resp.Code = string(apperrors.ErrCodePersistenceFailed)
		}

		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(report))
}

func toResponse(report *domain.Report) CommandHTTPResponse {
	if report == nil {
		return CommandHTTPResponse{}
	}

	resp := CommandHTTPResponse{
		Success: report.Intent != domain.IntentUnknown,
		Intent:  string(report.Intent),
		Message: report.Message,
		Cart:    report.Cart,
		Total:   report.Total,
	}
	for _, o := range report.Outcomes {
		resp.Outcomes = append(resp.Outcomes, OutcomeResponse{
			Phrase:    o.Clause.Phrase,
			Status:    string(o.Status),
			SKU:       o.Key,
			Name:      o.Name,
			Score:     o.Score,
			Requested: o.Requested,
			Applied:   o.Applied,
			Stock:     o.Stock,
			Message:   o.Message,
		})
		if o.Status == domain.StatusPersistFailed {
			resp.Retryable = true
			resp.Code = string(apperrors.ErrCodePersistenceFailed)
		}
	}
	if report.Intent == domain.IntentUnknown {
		resp.Code = string(apperrors.ErrCodeUnknownIntent)
	}
	return resp
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Cart())
}

func (h *HTTPHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Inventory())
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
