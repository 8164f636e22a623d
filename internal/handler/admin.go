package handler

import (
	"net/http"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type planRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	DurationDays  int             `json:"duration_days"`
	DailyRate     decimal.Decimal `json:"daily_rate"`
	MinInvestment decimal.Decimal `json:"min_investment"`
	MaxInvestment decimal.Decimal `json:"max_investment"`
	IsActive      *bool           `json:"is_active"`
}

func (p planRequest) toModel() *models.InvestmentPlan {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return &models.InvestmentPlan{
		Name:          p.Name,
		Description:   p.Description,
		DurationDays:  p.DurationDays,
		DailyRate:     p.DailyRate,
		MinInvestment: p.MinInvestment,
		MaxInvestment: p.MaxInvestment,
		IsActive:      active,
	}
}

type settingsRequest struct {
	PixGateway string `json:"pix_gateway"`
}

type balanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.svc.CreatePlan(r.Context(), req.toModel())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.svc.UpdatePlan(r.Context(), mux.Vars(r)["id"], req.toModel())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.GetSettings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	settings, err := h.svc.UpdateSettings(r.Context(), req.PixGateway)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// AdjustBalance sets a user's balance, recording the difference in the ledger
func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.svc.AdjustBalance(r.Context(), mux.Vars(r)["id"], req.Balance)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CalculateEarnings runs the daily earnings batch on demand
func (h *Handler) CalculateEarnings(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.RunDailyEarnings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
