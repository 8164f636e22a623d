package handler

import (
	"net/http"

	"github.com/Dan9191/invest-service/internal/config"
	"github.com/Dan9191/invest-service/internal/metrics"
	"github.com/Dan9191/invest-service/internal/middleware"
	"github.com/gorilla/mux"
)

// NewRouter wires every API route
func NewRouter(h *Handler, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)

	// Public routes
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/investment-plans", h.ListPlans).Methods(http.MethodGet)
	r.HandleFunc("/trading-activities", h.TradingActivities).Methods(http.MethodGet)
	r.HandleFunc("/benchmark-rate", h.BenchmarkRate).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Protected routes
	auth := r.PathPrefix("/").Subrouter()
	auth.Use(middleware.AuthMiddleware(cfg))
	auth.HandleFunc("/auth/user", h.CurrentUser).Methods(http.MethodGet)
	auth.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
	auth.HandleFunc("/investments", h.ListInvestments).Methods(http.MethodGet)
	auth.HandleFunc("/investments", h.CreateInvestment).Methods(http.MethodPost)
	auth.HandleFunc("/investments/{id}/withdraw", h.EarlyWithdrawal).Methods(http.MethodPost)
	auth.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	auth.HandleFunc("/transactions/deposit", h.Deposit).Methods(http.MethodPost)
	auth.HandleFunc("/transactions/withdraw", h.Withdraw).Methods(http.MethodPost)

	// Admin routes
	admin := auth.PathPrefix("/admin").Subrouter()
	admin.Use(h.RequireAdmin)
	admin.HandleFunc("/investment-plans", h.CreatePlan).Methods(http.MethodPost)
	admin.HandleFunc("/investment-plans/{id}", h.UpdatePlan).Methods(http.MethodPut)
	admin.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	admin.HandleFunc("/settings", h.UpdateSettings).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/balance", h.AdjustBalance).Methods(http.MethodPost)
	admin.HandleFunc("/calculate-earnings", h.CalculateEarnings).Methods(http.MethodPost)

	return r
}
