package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the public API on api, normally the /api/v1 subrouter.
// events may be nil when no websocket stream is offered.
func RegisterRoutes(api *mux.Router, accounts *AccountHandler, fx *ForexHandler, splits *SplitHandler, events http.Handler) {
	api.HandleFunc("/users", accounts.CreateUser).Methods("POST")
	api.HandleFunc("/users/{email}/accounts", accounts.ListUserAccounts).Methods("GET")
	api.HandleFunc("/accounts", accounts.OpenAccount).Methods("POST")
	api.HandleFunc("/accounts/{id}", accounts.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{id}/deposit", accounts.Deposit).Methods("POST")
	api.HandleFunc("/accounts/{id}/withdraw", accounts.Withdraw).Methods("POST")

	api.HandleFunc("/forex/rates", fx.AddRate).Methods("POST")
	api.HandleFunc("/forex/rates", fx.ListRates).Methods("GET")
	api.HandleFunc("/forex/rate/{from}/{to}", fx.GetRate).Methods("GET")

	api.HandleFunc("/splits", splits.Submit).Methods("POST")
	api.HandleFunc("/splits", splits.List).Methods("GET")
	api.HandleFunc("/splits/accept", splits.Accept).Methods("POST")
	api.HandleFunc("/splits/reject", splits.Reject).Methods("POST")
	if events != nil {
		api.Handle("/splits/ws", events)
	}
}
