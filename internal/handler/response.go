// Package handler provides HTTP handlers for the split payment service.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"splitpay/pkg/errors"
	"splitpay/pkg/logger"
	"splitpay/pkg/validator"
)

const maxBodyBytes = 1 << 20

// base carries the helpers every handler shares.
type base struct {
	validator *validator.Validator
	logger    logger.Logger
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (h *base) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if errs := h.validator.ValidateStructured(dst); errs != nil {
		h.respondValidationErrors(w, errs)
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsInvalidState(err),
		errors.Is(err, errors.ErrUserAlreadyExists),
		errors.Is(err, errors.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, errors.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrInvalidAmount),
		errors.Is(err, errors.ErrInvalidRate),
		errors.Is(err, errors.ErrNoAccounts),
		errors.Is(err, errors.ErrAmountMismatch),
		errors.Is(err, errors.ErrDuplicateParticipant),
		errors.Is(err, errors.ErrInvalidSplitKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondDomainError writes err with its mapped status. Internal errors are
// logged and hidden from the client.
func (h *base) respondDomainError(w http.ResponseWriter, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, map[string]interface{}{"error": err.Error()})
		h.respondError(w, status, msg)
		return
	}
	h.respondError(w, status, err.Error())
}

func (h *base) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("json encode failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *base) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *base) respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":             "Validation failed",
		"validation_errors": errs,
	})
}
