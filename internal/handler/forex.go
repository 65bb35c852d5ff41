package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"splitpay/internal/domain"
	"splitpay/internal/forex"
	"splitpay/pkg/logger"
	"splitpay/pkg/validator"
)

// ForexHandler manages exchange rate endpoints.
type ForexHandler struct {
	base
	service *forex.Service
}

// NewForexHandler creates a ForexHandler.
func NewForexHandler(service *forex.Service, val *validator.Validator, log logger.Logger) *ForexHandler {
	return &ForexHandler{
		base:    base{validator: val, logger: log},
		service: service,
	}
}

type AddRateRequest struct {
	From string          `json:"from" validate:"required,currency"`
	To   string          `json:"to" validate:"required,currency"`
	Rate decimal.Decimal `json:"rate" validate:"gt=0"`
}

// AddRate stores a directed rate; the reverse direction is implied.
func (h *ForexHandler) AddRate(w http.ResponseWriter, r *http.Request) {
	var req AddRateRequest
	if !h.decode(w, r, &req) {
		return
	}

	from, to := domain.Currency(req.From), domain.Currency(req.To)
	if err := h.service.AddRate(r.Context(), from, to, req.Rate); err != nil {
		h.respondDomainError(w, err, "Failed to add rate")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"from": from,
		"to":   to,
		"rate": req.Rate,
	})
}

// GetRate returns the best available conversion factor for a pair.
func (h *ForexHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	from := domain.Currency(strings.ToUpper(vars["from"]))
	to := domain.Currency(strings.ToUpper(vars["to"]))

	rate, err := h.service.GetRate(r.Context(), from, to)
	if err != nil {
		h.respondDomainError(w, err, "Failed to resolve rate")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"from": from,
		"to":   to,
		"rate": rate,
	})
}

// ListRates returns every stored directed edge.
func (h *ForexHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	rates := h.service.Rates()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"rates": rates,
		"count": len(rates),
	})
}
