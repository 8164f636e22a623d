package service

import "errors"

// Validation errors
var (
	ErrBelowMinimum   = errors.New("amount below plan minimum")
	ErrAboveMaximum   = errors.New("amount above plan maximum")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrPixKeyRequired = errors.New("pix key is required")
	ErrInvalidPlan    = errors.New("invalid investment plan")
	ErrInvalidGateway = errors.New("invalid pix gateway")
	ErrInvalidInput   = errors.New("invalid input")
)

// State errors
var (
	ErrNotActive           = errors.New("investment is not active")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEmailTaken          = errors.New("email already registered")
)

// Lookup and access errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrPlanNotFound       = errors.New("investment plan not found")
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrNotOwnedByUser     = errors.New("investment does not belong to user")
	ErrForbidden          = errors.New("admin access required")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrBatchFailure is returned when the daily earnings batch cannot run at all.
var ErrBatchFailure = errors.New("earnings batch failed")
