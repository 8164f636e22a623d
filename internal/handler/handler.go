package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Dan9191/invest-service/internal/integrations/bcb"
	"github.com/Dan9191/invest-service/internal/middleware"
	"github.com/Dan9191/invest-service/internal/service"
	"github.com/sirupsen/logrus"
)

// RateProvider returns the current benchmark rate
type RateProvider interface {
	GetSelicRate(ctx context.Context) (*bcb.Rate, error)
}

type Handler struct {
	svc   *service.Service
	rates RateProvider
	log   *logrus.Logger
}

func NewHandler(svc *service.Service, rates RateProvider, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, rates: rates, log: log}
}

var errMalformedBody = errors.New("malformed request body")

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errMalformedBody
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to an HTTP status. Internal failures are logged and
// hidden from the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Errorf("Request failed: %v", err)
		msg = "internal server error"
	}
	if status == http.StatusNotFound && errors.Is(err, service.ErrNotOwnedByUser) {
		msg = service.ErrInvestmentNotFound.Error()
	}
	writeJSON(w, status, map[string]string{"message": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody),
		errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrAboveMaximum),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrPixKeyRequired),
		errors.Is(err, service.ErrInvalidPlan),
		errors.Is(err, service.ErrInvalidGateway),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNotActive),
		errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrInvestmentNotFound),
		errors.Is(err, service.ErrNotOwnedByUser):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// userID returns the authenticated user id placed by the auth middleware
func userID(r *http.Request) string {
	id, _ := middleware.UserIDFromContext(r.Context())
	return id
}

// RequireAdmin rejects requests from users without the admin flag
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.svc.GetUser(r.Context(), userID(r))
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				err = service.ErrForbidden
			}
			h.writeError(w, r, err)
			return
		}
		if err := service.RequireAdmin(user); err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
