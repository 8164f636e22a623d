package models

import "github.com/shopspring/decimal"

// PlatformStats represents the admin overview of the platform
type PlatformStats struct {
	TotalUsers        int             `json:"total_users"`
	TotalVolume       decimal.Decimal `json:"total_volume"` // Sum of all users' total invested
	ActiveInvestments int             `json:"active_investments"`
	ActiveGateway     string          `json:"active_gateway"`
}

// Dashboard represents the data shown on a user's home screen
type Dashboard struct {
	User               *User             `json:"user"`
	ActiveInvestments  []UserInvestment  `json:"active_investments"`
	RecentTransactions []Transaction     `json:"recent_transactions"`
	TradingActivities  []TradingActivity `json:"trading_activities"`
}
