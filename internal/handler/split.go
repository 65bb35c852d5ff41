package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"splitpay/internal/domain"
	"splitpay/internal/split"
	"splitpay/pkg/errors"
	"splitpay/pkg/logger"
	"splitpay/pkg/validator"
)

// SplitHandler exposes the split coordinator.
type SplitHandler struct {
	base
	coord *split.Coordinator
}

func NewSplitHandler(coord *split.Coordinator, val *validator.Validator, log logger.Logger) *SplitHandler {
	return &SplitHandler{
		base:  base{validator: val, logger: log},
		coord: coord,
	}
}

type SubmitSplitRequest struct {
	Kind            string            `json:"split_payment_type"`
	Accounts        []string          `json:"accounts"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency" validate:"required,currency"`
	AmountsForUsers []decimal.Decimal `json:"amount_for_users"`
	Timestamp       int64             `json:"timestamp"`
}

// SplitActionRequest targets a split by request ID, by account (oldest
// pending match) or by user (first account with a match), in that order.
type SplitActionRequest struct {
	Kind      string `json:"split_payment_type"`
	RequestID string `json:"request_id" validate:"omitempty,uuid"`
	Account   string `json:"account"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// Submit registers a new split payment.
func (h *SplitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitSplitRequest
	if !h.decode(w, r, &req) {
		return
	}

	kind, err := domain.ParseSplitKind(req.Kind)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, errors.ErrInvalidSplitKind.Error())
		return
	}

	accounts := make([]domain.AccountID, len(req.Accounts))
	for i, id := range req.Accounts {
		accounts[i] = domain.AccountID(id)
	}

	id, err := h.coord.Submit(r.Context(), split.SubmitInput{
		Kind:            kind,
		Accounts:        accounts,
		Amount:          req.Amount,
		Currency:        domain.Currency(req.Currency),
		AmountsForUsers: req.AmountsForUsers,
		Timestamp:       req.Timestamp,
	})
	if err != nil {
		h.respondDomainError(w, err, "Failed to submit split payment")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"request_id": id,
		"status":     domain.SplitStatusPending,
	})
}

// List returns outstanding splits, optionally only those involving ?account=.
func (h *SplitHandler) List(w http.ResponseWriter, r *http.Request) {
	var splits []split.Snapshot
	if account := r.URL.Query().Get("account"); account != "" {
		splits = h.coord.OutstandingFor(domain.AccountID(account))
	} else {
		splits = h.coord.Outstanding()
	}
	if splits == nil {
		splits = []split.Snapshot{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"splits": splits,
		"count":  len(splits),
	})
}

// Accept records an acceptance and settles the split when it completes it.
func (h *SplitHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, true)
}

// Reject cancels a split for every participant.
func (h *SplitHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, false)
}

func (h *SplitHandler) act(w http.ResponseWriter, r *http.Request, accept bool) {
	var req SplitActionRequest
	if !h.decode(w, r, &req) {
		return
	}

	kind, err := domain.ParseSplitKind(req.Kind)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, errors.ErrInvalidSplitKind.Error())
		return
	}
	account := domain.AccountID(req.Account)
	ctx := r.Context()

	var out *split.Outcome
	switch {
	case req.RequestID != "":
		id, perr := uuid.Parse(req.RequestID)
		if perr != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid request ID")
			return
		}
		if accept {
			if account == "" {
				h.respondValidationErrors(w, map[string]string{"Account": "This field is required"})
				return
			}
			out, err = h.coord.AcceptRequest(ctx, id, account)
		} else {
			out, err = h.coord.RejectRequest(ctx, id)
		}
	case account != "":
		if accept {
			out, err = h.coord.Accept(ctx, kind, account)
		} else {
			out, err = h.coord.Reject(ctx, kind, account)
		}
	case req.Email != "":
		if accept {
			out, err = h.coord.AcceptForUser(ctx, req.Email, kind)
		} else {
			out, err = h.coord.RejectForUser(ctx, req.Email, kind)
		}
	default:
		h.respondError(w, http.StatusBadRequest, "account or email is required")
		return
	}

	if err != nil {
		if out != nil {
			// settlement aborted: the split is over and every participant has the failure record
			h.respondJSON(w, statusFor(err), map[string]interface{}{
				"error":   err.Error(),
				"outcome": out,
			})
			return
		}
		h.respondDomainError(w, err, "Failed to process split payment")
		return
	}

	h.respondJSON(w, http.StatusOK, out)
}
