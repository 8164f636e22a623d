package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory is a thread-safe in-memory Store. It backs the tests and lets the
// service run without a database (DB_CONN=memory).
//
// Writers are serialized. RunInTx works on a copy of the state and swaps it in
// on success, so a failed unit of work leaves nothing behind. Entity maps are
// copied per unit of work, which suits tests and single-node demos rather
// than large data sets.
type Memory struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   *memState
}

type memState struct {
	seq          int64
	order        map[string]int64
	users        map[string]models.User
	plans        map[string]models.InvestmentPlan
	investments  map[string]models.UserInvestment
	transactions []models.Transaction
	activities   []models.TradingActivity
	settings     *models.SystemSettings
	runs         map[string]models.EarningsRun
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: &memState{
		order:       make(map[string]int64),
		users:       make(map[string]models.User),
		plans:       make(map[string]models.InvestmentPlan),
		investments: make(map[string]models.UserInvestment),
		runs:        make(map[string]models.EarningsRun),
	}}
}

func (m *Memory) read(fn func(s *memState) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.state)
}

func (m *Memory) write(fn func(s *memState) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

// RunInTx implements Store.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Ledger) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	child := &Memory{state: m.state.clone()}
	m.mu.RUnlock()

	if err := fn(ctx, child); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = child.state
	m.mu.Unlock()
	return nil
}

// clone copies the mutable maps. The transaction and activity logs are
// append-only and shared: writers are serialized, so a unit of work only
// appends past the committed length, and a rolled back tail stays invisible
// until the next append overwrites it.
func (s *memState) clone() *memState {
	c := &memState{
		seq:          s.seq,
		order:        make(map[string]int64, len(s.order)),
		users:        make(map[string]models.User, len(s.users)),
		plans:        make(map[string]models.InvestmentPlan, len(s.plans)),
		investments:  make(map[string]models.UserInvestment, len(s.investments)),
		transactions: s.transactions,
		activities:   s.activities,
		runs:         make(map[string]models.EarningsRun, len(s.runs)),
	}
	for k, v := range s.order {
		c.order[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.investments {
		c.investments[k] = cloneInvestment(v)
	}
	for k, v := range s.runs {
		c.runs[k] = v
	}
	if s.settings != nil {
		settings := *s.settings
		c.settings = &settings
	}
	return c
}

func (s *memState) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

func cloneInvestment(inv models.UserInvestment) models.UserInvestment {
	if inv.LastAccruedOn != nil {
		day := *inv.LastAccruedOn
		inv.LastAccruedOn = &day
	}
	return inv
}

func now() time.Time {
	return time.Now().UTC()
}

// --- UserStore --------------------------------------------------------------

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	return m.write(func(s *memState) error {
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		if _, exists := s.users[user.ID]; exists {
			return fmt.Errorf("user %s: %w", user.ID, ErrConflict)
		}
		for _, u := range s.users {
			if strings.EqualFold(u.Email, user.Email) {
				return fmt.Errorf("email %s: %w", user.Email, ErrConflict)
			}
		}
		ts := now()
		user.CreatedAt = ts
		user.UpdatedAt = ts
		s.users[user.ID] = *user
		s.track(user.ID)
		return nil
	})
}

func (m *Memory) GetUser(_ context.Context, id string) (*models.User, error) {
	var user models.User
	err := m.read(func(s *memState) error {
		u, ok := s.users[id]
		if !ok {
			return ErrNotFound
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserForUpdate implements UserStore; writers are already serialized.
func (m *Memory) GetUserForUpdate(ctx context.Context, id string) (*models.User, error) {
	return m.GetUser(ctx, id)
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	var user *models.User
	err := m.read(func(s *memState) error {
		for _, u := range s.users {
			if strings.EqualFold(u.Email, email) {
				found := u
				user = &found
				return nil
			}
		}
		return ErrNotFound
	})
	return user, err
}

func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	var users []models.User
	err := m.read(func(s *memState) error {
		for _, u := range s.users {
			users = append(users, u)
		}
		sort.Slice(users, func(i, j int) bool {
			return s.order[users[i].ID] > s.order[users[j].ID]
		})
		return nil
	})
	return users, err
}

func (m *Memory) SetBalance(_ context.Context, userID string, balance decimal.Decimal) error {
	return m.write(func(s *memState) error {
		u, ok := s.users[userID]
		if !ok {
			return ErrNotFound
		}
		if balance.IsNegative() {
			return ErrInsufficientFunds
		}
		u.Balance = balance
		u.UpdatedAt = now()
		s.users[userID] = u
		return nil
	})
}

func (m *Memory) IncrementBalance(_ context.Context, userID string, delta decimal.Decimal) error {
	return m.write(func(s *memState) error {
		u, ok := s.users[userID]
		if !ok {
			return ErrNotFound
		}
		next := u.Balance.Add(delta)
		if next.IsNegative() {
			return ErrInsufficientFunds
		}
		u.Balance = next
		u.UpdatedAt = now()
		s.users[userID] = u
		return nil
	})
}

func (m *Memory) AddTotals(_ context.Context, userID string, invested, earnings decimal.Decimal) error {
	return m.write(func(s *memState) error {
		u, ok := s.users[userID]
		if !ok {
			return ErrNotFound
		}
		u.TotalInvested = u.TotalInvested.Add(invested)
		u.TotalEarnings = u.TotalEarnings.Add(earnings)
		u.UpdatedAt = now()
		s.users[userID] = u
		return nil
	})
}

// --- PlanStore --------------------------------------------------------------

func (m *Memory) CreatePlan(_ context.Context, plan *models.InvestmentPlan) error {
	return m.write(func(s *memState) error {
		if plan.ID == "" {
			plan.ID = uuid.NewString()
		}
		if _, exists := s.plans[plan.ID]; exists {
			return fmt.Errorf("plan %s: %w", plan.ID, ErrConflict)
		}
		ts := now()
		plan.CreatedAt = ts
		plan.UpdatedAt = ts
		s.plans[plan.ID] = *plan
		s.track(plan.ID)
		return nil
	})
}

func (m *Memory) UpdatePlan(_ context.Context, plan *models.InvestmentPlan) error {
	return m.write(func(s *memState) error {
		existing, ok := s.plans[plan.ID]
		if !ok {
			return ErrNotFound
		}
		plan.CreatedAt = existing.CreatedAt
		plan.UpdatedAt = now()
		s.plans[plan.ID] = *plan
		return nil
	})
}

func (m *Memory) GetPlan(_ context.Context, id string) (*models.InvestmentPlan, error) {
	var plan models.InvestmentPlan
	err := m.read(func(s *memState) error {
		p, ok := s.plans[id]
		if !ok {
			return ErrNotFound
		}
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (m *Memory) ListActivePlans(_ context.Context) ([]models.InvestmentPlan, error) {
	var plans []models.InvestmentPlan
	err := m.read(func(s *memState) error {
		for _, p := range s.plans {
			if p.IsActive {
				plans = append(plans, p)
			}
		}
		sort.Slice(plans, func(i, j int) bool {
			return s.order[plans[i].ID] < s.order[plans[j].ID]
		})
		return nil
	})
	return plans, err
}

// --- InvestmentStore --------------------------------------------------------

func (m *Memory) CreateInvestment(_ context.Context, inv *models.UserInvestment) error {
	return m.write(func(s *memState) error {
		if _, ok := s.users[inv.UserID]; !ok {
			return fmt.Errorf("user %s: %w", inv.UserID, ErrNotFound)
		}
		plan, ok := s.plans[inv.PlanID]
		if !ok {
			return fmt.Errorf("plan %s: %w", inv.PlanID, ErrNotFound)
		}
		if inv.ID == "" {
			inv.ID = uuid.NewString()
		}
		ts := now()
		inv.PlanName = plan.Name
		inv.CreatedAt = ts
		inv.UpdatedAt = ts
		s.investments[inv.ID] = cloneInvestment(*inv)
		s.track(inv.ID)
		return nil
	})
}

func (m *Memory) GetInvestment(_ context.Context, id string) (*models.UserInvestment, error) {
	var inv models.UserInvestment
	err := m.read(func(s *memState) error {
		i, ok := s.investments[id]
		if !ok {
			return ErrNotFound
		}
		inv = cloneInvestment(i)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInvestmentForUpdate implements InvestmentStore; writers are already serialized.
func (m *Memory) GetInvestmentForUpdate(ctx context.Context, id string) (*models.UserInvestment, error) {
	return m.GetInvestment(ctx, id)
}

func (m *Memory) ListUserInvestments(_ context.Context, userID string, activeOnly bool) ([]models.UserInvestment, error) {
	var result []models.UserInvestment
	err := m.read(func(s *memState) error {
		for _, inv := range s.investments {
			if inv.UserID != userID || (activeOnly && !inv.IsActive) {
				continue
			}
			result = append(result, cloneInvestment(inv))
		}
		sort.Slice(result, func(i, j int) bool {
			return s.order[result[i].ID] > s.order[result[j].ID]
		})
		return nil
	})
	return result, err
}

func (m *Memory) ApplyAccrual(_ context.Context, id string, currentValue, dailyEarnings decimal.Decimal, day time.Time) (bool, error) {
	var applied bool
	err := m.write(func(s *memState) error {
		inv, ok := s.investments[id]
		if !ok {
			return ErrNotFound
		}
		if !inv.IsActive || inv.AccruedOn(day) {
			return nil
		}
		accrued := day.UTC()
		inv.CurrentValue = currentValue
		inv.DailyEarnings = dailyEarnings
		inv.LastAccruedOn = &accrued
		inv.UpdatedAt = now()
		s.investments[id] = inv
		applied = true
		return nil
	})
	return applied, err
}

func (m *Memory) CloseInvestment(_ context.Context, id string, withdrawnEarly bool) (bool, error) {
	var closed bool
	err := m.write(func(s *memState) error {
		inv, ok := s.investments[id]
		if !ok {
			return ErrNotFound
		}
		if !inv.IsActive {
			return nil
		}
		inv.IsActive = false
		inv.WasWithdrawnEarly = withdrawnEarly
		inv.UpdatedAt = now()
		s.investments[id] = inv
		closed = true
		return nil
	})
	return closed, err
}

// --- TransactionStore -------------------------------------------------------

func (m *Memory) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	return m.write(func(s *memState) error {
		if _, ok := s.users[tx.UserID]; !ok {
			return fmt.Errorf("user %s: %w", tx.UserID, ErrNotFound)
		}
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		tx.CreatedAt = now()
		s.transactions = append(s.transactions, *tx)
		return nil
	})
}

func (m *Memory) ListUserTransactions(_ context.Context, userID string, limit int) ([]models.Transaction, error) {
	var result []models.Transaction
	err := m.read(func(s *memState) error {
		for i := len(s.transactions) - 1; i >= 0; i-- {
			if limit > 0 && len(result) == limit {
				break
			}
			if s.transactions[i].UserID == userID {
				result = append(result, s.transactions[i])
			}
		}
		return nil
	})
	return result, err
}

// --- ActivityStore ----------------------------------------------------------

func (m *Memory) CreateTradingActivity(_ context.Context, activity *models.TradingActivity) error {
	return m.write(func(s *memState) error {
		if activity.ID == "" {
			activity.ID = uuid.NewString()
		}
		activity.CreatedAt = now()
		s.activities = append(s.activities, *activity)
		return nil
	})
}

func (m *Memory) ListRecentTradingActivities(_ context.Context, limit int) ([]models.TradingActivity, error) {
	var result []models.TradingActivity
	err := m.read(func(s *memState) error {
		for i := len(s.activities) - 1; i >= 0; i-- {
			if limit > 0 && len(result) == limit {
				break
			}
			result = append(result, s.activities[i])
		}
		return nil
	})
	return result, err
}

// --- SettingsStore ----------------------------------------------------------

func (m *Memory) GetSystemSettings(_ context.Context) (*models.SystemSettings, error) {
	settings := DefaultSettings()
	err := m.read(func(s *memState) error {
		if s.settings != nil {
			*settings = *s.settings
		}
		return nil
	})
	return settings, err
}

func (m *Memory) UpdateSystemSettings(_ context.Context, settings *models.SystemSettings) error {
	return m.write(func(s *memState) error {
		settings.ID = models.SettingsID
		settings.UpdatedAt = now()
		stored := *settings
		s.settings = &stored
		return nil
	})
}

// --- EarningsRunStore -------------------------------------------------------

func (m *Memory) CreateEarningsRun(_ context.Context, run *models.EarningsRun) error {
	return m.write(func(s *memState) error {
		if run.ID == "" {
			run.ID = uuid.NewString()
		}
		s.runs[run.ID] = *run
		return nil
	})
}

func (m *Memory) FinishEarningsRun(_ context.Context, run *models.EarningsRun) error {
	return m.write(func(s *memState) error {
		if _, ok := s.runs[run.ID]; !ok {
			return ErrNotFound
		}
		s.runs[run.ID] = *run
		return nil
	})
}

// --- StatsStore -------------------------------------------------------------

func (m *Memory) GetStats(_ context.Context) (*models.PlatformStats, error) {
	stats := &models.PlatformStats{TotalVolume: decimal.Zero}
	err := m.read(func(s *memState) error {
		stats.TotalUsers = len(s.users)
		for _, u := range s.users {
			stats.TotalVolume = stats.TotalVolume.Add(u.TotalInvested)
		}
		for _, inv := range s.investments {
			if inv.IsActive {
				stats.ActiveInvestments++
			}
		}
		return nil
	})
	return stats, err
}
