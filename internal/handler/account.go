package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"splitpay/internal/domain"
	"splitpay/internal/ledger"
	"splitpay/internal/split"
	"splitpay/pkg/logger"
	"splitpay/pkg/validator"
)

// AccountHandler manages users, accounts and balances.
type AccountHandler struct {
	base
	store *ledger.Store
	coord *split.Coordinator
}

func NewAccountHandler(store *ledger.Store, coord *split.Coordinator, val *validator.Validator, log logger.Logger) *AccountHandler {
	return &AccountHandler{
		base:  base{validator: val, logger: log},
		store: store,
		coord: coord,
	}
}

type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type OpenAccountRequest struct {
	Email          string          `json:"email" validate:"required,email"`
	AccountID      string          `json:"account_id"`
	Currency       string          `json:"currency" validate:"required,currency"`
	InitialBalance decimal.Decimal `json:"initial_balance" validate:"gte=0"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// AccountView is the public shape of an account.
type AccountView struct {
	ID          domain.AccountID `json:"id"`
	Currency    domain.Currency  `json:"currency"`
	Balance     decimal.Decimal  `json:"balance"`
	History     []domain.Record  `json:"history"`
	Pending     []domain.Record  `json:"pending"`
	Outstanding []split.Snapshot `json:"outstanding_splits"`
}

// CreateUser registers an account holder.
func (h *AccountHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.store.AddUser(req.Email); err != nil {
		h.respondDomainError(w, err, "Failed to create user")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{"email": req.Email})
}

// ListUserAccounts lists a user's accounts in opening order.
func (h *AccountHandler) ListUserAccounts(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	ids, err := h.store.AccountsOf(email)
	if err != nil {
		h.respondDomainError(w, err, "Failed to list accounts")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"email":    email,
		"accounts": ids,
		"count":    len(ids),
	})
}

// OpenAccount creates an account for an existing user.
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.store.OpenAccount(
		req.Email,
		domain.AccountID(strings.TrimSpace(req.AccountID)),
		domain.Currency(req.Currency),
		req.InitialBalance,
	)
	if err != nil {
		h.respondDomainError(w, err, "Failed to open account")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       id,
		"currency": req.Currency,
		"balance":  req.InitialBalance,
	})
}

// Deposit credits an account.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.store.Deposit, "Deposit failed")
}

// Withdraw debits an account.
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.store.Withdraw, "Withdrawal failed")
}

func (h *AccountHandler) move(w http.ResponseWriter, r *http.Request, op func(domain.AccountID, decimal.Decimal) error, msg string) {
	id := domain.AccountID(mux.Vars(r)["id"])
	var req AmountRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := op(id, req.Amount); err != nil {
		h.respondDomainError(w, err, msg)
		return
	}

	balance, err := h.store.Balance(id)
	if err != nil {
		h.respondDomainError(w, err, msg)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"balance": balance,
	})
}

// GetAccount returns balance, history, pending markers and outstanding splits.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := domain.AccountID(mux.Vars(r)["id"])

	currency, err := h.store.Currency(id)
	if err != nil {
		h.respondDomainError(w, err, "Failed to fetch account")
		return
	}
	balance, _ := h.store.Balance(id)
	history, _ := h.store.History(id)
	pending, _ := h.store.Pending(id)

	h.respondJSON(w, http.StatusOK, AccountView{
		ID:          id,
		Currency:    currency,
		Balance:     balance,
		History:     history,
		Pending:     pending,
		Outstanding: h.coord.OutstandingFor(id),
	})
}
