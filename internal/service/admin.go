package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dan9191/invest-service/internal/models"
)

const dashboardTransactions = 5

// RequireAdmin is the single authorization check for admin operations
func RequireAdmin(user *models.User) error {
	if user == nil || !user.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func normalizePlan(plan *models.InvestmentPlan) error {
	plan.Name = strings.TrimSpace(plan.Name)
	plan.Description = strings.TrimSpace(plan.Description)
	plan.DailyRate = plan.DailyRate.Round(4)
	plan.MinInvestment = round2(plan.MinInvestment)
	plan.MaxInvestment = round2(plan.MaxInvestment)

	switch {
	case plan.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	case plan.DurationDays <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidPlan)
	case !plan.DailyRate.IsPositive():
		return fmt.Errorf("%w: daily rate must be positive", ErrInvalidPlan)
	case !plan.MinInvestment.IsPositive():
		return fmt.Errorf("%w: minimum investment must be positive", ErrInvalidPlan)
	case plan.MinInvestment.GreaterThan(plan.MaxInvestment):
		return fmt.Errorf("%w: minimum investment exceeds maximum", ErrInvalidPlan)
	}
	return nil
}

// CreatePlan validates and stores a new investment plan
func (s *Service) CreatePlan(ctx context.Context, plan *models.InvestmentPlan) (*models.InvestmentPlan, error) {
	if err := normalizePlan(plan); err != nil {
		return nil, err
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	s.log.Infof("Investment plan created: %s (%s/day)", plan.Name, plan.DailyRate.String())
	return plan, nil
}

// UpdatePlan replaces the editable fields of an existing plan. Running
// investments keep the rate they were opened with.
func (s *Service) UpdatePlan(ctx context.Context, id string, update *models.InvestmentPlan) (*models.InvestmentPlan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrPlanNotFound)
	}

	plan.Name = update.Name
	plan.Description = update.Description
	plan.DurationDays = update.DurationDays
	plan.DailyRate = update.DailyRate
	plan.MinInvestment = update.MinInvestment
	plan.MaxInvestment = update.MaxInvestment
	plan.IsActive = update.IsActive
	if err := normalizePlan(plan); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		return nil, mapNotFound(err, ErrPlanNotFound)
	}
	s.log.Infof("Investment plan updated: %s", plan.ID)
	return plan, nil
}

// ListPlans returns the plans open for new investments
func (s *Service) ListPlans(ctx context.Context) ([]models.InvestmentPlan, error) {
	return s.store.ListActivePlans(ctx)
}

// ListUsers returns every user, newest first
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// GetStats returns platform figures together with the configured gateway
func (s *Service) GetStats(ctx context.Context) (*models.PlatformStats, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.GetSystemSettings(ctx)
	if err != nil {
		return nil, err
	}
	stats.ActiveGateway = settings.PixGateway
	return stats, nil
}

// GetSettings returns the current system settings
func (s *Service) GetSettings(ctx context.Context) (*models.SystemSettings, error) {
	return s.store.GetSystemSettings(ctx)
}

// UpdateSettings selects the PIX gateway
func (s *Service) UpdateSettings(ctx context.Context, gateway string) (*models.SystemSettings, error) {
	gateway = strings.ToLower(strings.TrimSpace(gateway))
	if gateway != models.GatewayEfi && gateway != models.GatewayMercadoPago {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGateway, gateway)
	}
	settings := &models.SystemSettings{ID: models.SettingsID, PixGateway: gateway}
	if err := s.store.UpdateSystemSettings(ctx, settings); err != nil {
		return nil, err
	}
	s.log.Infof("PIX gateway set to %s", gateway)
	return settings, nil
}

// Dashboard gathers the user's overview
func (s *Service) Dashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	investments, err := s.store.ListUserInvestments(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListUserTransactions(ctx, userID, dashboardTransactions)
	if err != nil {
		return nil, err
	}
	activities, err := s.store.ListRecentTradingActivities(ctx, defaultActivityLimit)
	if err != nil {
		return nil, err
	}

	if investments == nil {
		investments = []models.UserInvestment{}
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	if activities == nil {
		activities = []models.TradingActivity{}
	}
	return &models.Dashboard{
		User:               user,
		ActiveInvestments:  investments,
		RecentTransactions: txs,
		TradingActivities:  activities,
	}, nil
}

