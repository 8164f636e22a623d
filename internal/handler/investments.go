package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type createInvestmentRequest struct {
	PlanID string          `json:"plan_id"`
	Amount decimal.Decimal `json:"amount"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type withdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
	PixKey string          `json:"pix_key"`
}

// ListPlans returns the active investment plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

// TradingActivities returns the most recent simulated market activity
func (h *Handler) TradingActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.svc.ListTradingActivities(r.Context(), 10)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// BenchmarkRate returns the current SELIC rate
func (h *Handler) BenchmarkRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.GetSelicRate(r.Context())
	if err != nil {
		h.log.Warnf("Failed to get SELIC rate: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"message": "benchmark rate unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

// Dashboard returns the user's overview
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// ListInvestments returns every investment of the user
func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := h.svc.ListInvestments(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, investments)
}

// CreateInvestment moves balance into a new investment
func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req createInvestmentRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	inv, err := h.svc.CreateInvestment(r.Context(), userID(r), req.PlanID, req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// EarlyWithdrawal closes an investment before maturity
func (h *Handler) EarlyWithdrawal(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.EarlyWithdrawal(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListTransactions returns the user's recent ledger entries
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid limit"})
			return
		}
		limit = n
	}
	txs, err := h.svc.ListTransactions(r.Context(), userID(r), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// Deposit credits the user's balance
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	tx, err := h.svc.Deposit(r.Context(), userID(r), req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// Withdraw requests a PIX payout
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	tx, err := h.svc.RequestWithdrawal(r.Context(), userID(r), req.Amount, req.PixKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}
