package service

import (
	"context"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/shopspring/decimal"
)

const defaultActivityLimit = 10

var activityCatalog = []struct {
	symbol string
	action string
}{
	{"BTC", "buy"},
	{"ETH", "sell"},
	{"ADA", "swap"},
	{"SOL", "buy"},
	{"DOT", "sell"},
}

// GenerateTradingActivities stores two or three simulated market moves.
// Percentages are uniform in [0.50, 3.49]. Storage failures are logged.
func (s *Service) GenerateTradingActivities(ctx context.Context) []models.TradingActivity {
	s.rngMu.Lock()
	count := 2 + s.rng.IntN(2)
	drafts := make([]models.TradingActivity, count)
	for i := range drafts {
		entry := activityCatalog[s.rng.IntN(len(activityCatalog))]
		hundredths := 50 + s.rng.IntN(300)
		drafts[i] = models.TradingActivity{
			Symbol:     entry.symbol,
			Action:     entry.action,
			Percentage: decimal.New(int64(hundredths), -2),
		}
	}
	s.rngMu.Unlock()

	created := make([]models.TradingActivity, 0, count)
	for i := range drafts {
		if err := s.store.CreateTradingActivity(ctx, &drafts[i]); err != nil {
			s.log.Warnf("Failed to store trading activity %s/%s: %v", drafts[i].Symbol, drafts[i].Action, err)
			continue
		}
		created = append(created, drafts[i])
	}
	return created
}

// ListTradingActivities returns the most recent simulated activities
func (s *Service) ListTradingActivities(ctx context.Context, limit int) ([]models.TradingActivity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return s.store.ListRecentTradingActivities(ctx, limit)
}
