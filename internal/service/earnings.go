package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dan9191/invest-service/internal/metrics"
	"github.com/Dan9191/invest-service/internal/models"
	"github.com/Dan9191/invest-service/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// runTally accumulates batch counters across workers
type runTally struct {
	mu  sync.Mutex
	run *models.EarningsRun
}

func (t *runTally) update(fn func(run *models.EarningsRun)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.run)
}

// RunDailyEarnings accrues one day of earnings on every active investment
// and settles the ones that reached their end date. Failures on a single
// investment or user are logged and counted without stopping the batch.
func (s *Service) RunDailyEarnings(ctx context.Context) (*models.EarningsRun, error) {
	started := time.Now()
	now := s.now().UTC()
	day := today(now)

	run := &models.EarningsRun{RunDate: day, StartedAt: now, TotalEarnings: decimal.Zero}
	if err := s.store.CreateEarningsRun(ctx, run); err != nil {
		metrics.RecordEarningsRun(nil, time.Since(started), false)
		return nil, fmt.Errorf("%w: %v", ErrBatchFailure, err)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.finishRun(ctx, run, started, false)
		return nil, fmt.Errorf("%w: failed to list users: %v", ErrBatchFailure, err)
	}

	s.log.WithFields(logrus.Fields{"run_id": run.ID, "users": len(users)}).Info("Daily earnings started")

	tally := &runTally{run: run}
	workers := 1
	if s.config != nil && s.config.EarningsWorkers > 0 {
		workers = s.config.EarningsWorkers
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range users {
		user := users[i]
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s.processUser(ctx, &user, now, day, tally)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.finishRun(ctx, run, started, false)
		return nil, fmt.Errorf("%w: %v", ErrBatchFailure, err)
	}

	s.GenerateTradingActivities(ctx)
	s.finishRun(ctx, run, started, true)

	s.log.WithFields(logrus.Fields{
		"run_id":    run.ID,
		"accrued":   run.InvestmentsAccrued,
		"matured":   run.InvestmentsMatured,
		"skipped":   run.InvestmentsSkipped,
		"failures":  run.Failures,
		"earnings":  run.TotalEarnings.StringFixed(2),
		"processed": run.UsersProcessed,
	}).Info("Daily earnings finished")
	return run, nil
}

func (s *Service) finishRun(ctx context.Context, run *models.EarningsRun, started time.Time, success bool) {
	finished := s.now().UTC()
	run.FinishedAt = &finished
	if err := s.store.FinishEarningsRun(context.WithoutCancel(ctx), run); err != nil {
		s.log.WithFields(logrus.Fields{"run_id": run.ID}).Errorf("Failed to store earnings run: %v", err)
	}
	metrics.RecordEarningsRun(run, time.Since(started), success)
}

// processUser handles one user's active investments sequentially. Matured
// investments are settled one by one; the rest accrue in a single unit of
// work together with the user's totalEarnings increment.
func (s *Service) processUser(ctx context.Context, user *models.User, now, day time.Time, tally *runTally) {
	logger := s.log.WithFields(logrus.Fields{"user_id": user.ID})

	investments, err := s.store.ListUserInvestments(ctx, user.ID, true)
	if err != nil {
		logger.Errorf("Failed to list investments: %v", err)
		tally.update(func(run *models.EarningsRun) { run.Failures++ })
		return
	}

	var pending []string
	for i := range investments {
		if ctx.Err() != nil {
			return
		}
		inv := &investments[i]

		switch {
		case inv.Matured(now):
			closed, err := s.finalize(ctx, user, inv)
			if err != nil {
				logger.WithField("investment_id", inv.ID).Errorf("Failed to finalize investment: %v", err)
				tally.update(func(run *models.EarningsRun) { run.Failures++ })
				continue
			}
			tally.update(func(run *models.EarningsRun) {
				if closed {
					run.InvestmentsMatured++
				} else {
					run.InvestmentsSkipped++
				}
			})
		case inv.AccruedOn(day):
			tally.update(func(run *models.EarningsRun) { run.InvestmentsSkipped++ })
		default:
			pending = append(pending, inv.ID)
		}
	}

	if len(pending) > 0 {
		if !s.accrueUser(ctx, user.ID, pending, day, tally, logger) {
			return
		}
	}
	tally.update(func(run *models.EarningsRun) { run.UsersProcessed++ })
}

// accrual is the outcome of one investment's daily accrual
type accrual struct {
	earning decimal.Decimal
	applied bool
}

// accrueUser accrues the pending investments of one user. When the combined
// unit of work fails, each investment is retried on its own so a single
// broken investment does not hold back the others. It reports false when the
// batch was cancelled.
func (s *Service) accrueUser(ctx context.Context, userID string, ids []string, day time.Time, tally *runTally, logger *logrus.Entry) bool {
	results, err := s.accrue(ctx, userID, ids, day)
	if err == nil {
		tally.addAccruals(results)
		return true
	}
	if ctx.Err() != nil {
		logger.Warnf("Accrual interrupted: %v", err)
		return false
	}

	logger.Warnf("Accrual failed, retrying investments one by one: %v", err)
	for _, id := range ids {
		if ctx.Err() != nil {
			return false
		}
		results, err := s.accrue(ctx, userID, []string{id}, day)
		if err != nil {
			logger.WithField("investment_id", id).Errorf("Failed to accrue earnings: %v", err)
			tally.update(func(run *models.EarningsRun) { run.Failures++ })
			continue
		}
		tally.addAccruals(results)
	}
	return true
}

func (t *runTally) addAccruals(results []accrual) {
	t.update(func(run *models.EarningsRun) {
		for _, r := range results {
			if !r.applied {
				run.InvestmentsSkipped++
				continue
			}
			run.InvestmentsAccrued++
			run.TotalEarnings = run.TotalEarnings.Add(r.earning)
		}
	})
}

// accrue applies one day of earnings to every investment in ids and adds
// their sum to the user's totalEarnings, all in one unit of work. Investments
// closed or already accrued for day in the meantime are reported as not
// applied.
func (s *Service) accrue(ctx context.Context, userID string, ids []string, day time.Time) ([]accrual, error) {
	results := make([]accrual, len(ids))
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Ledger) error {
		total := decimal.Zero
		for i, id := range ids {
			r, err := s.accrueInvestment(ctx, tx, id, day)
			if err != nil {
				return fmt.Errorf("investment %s: %w", id, err)
			}
			results[i] = r
			if r.applied {
				total = total.Add(r.earning)
			}
		}
		if !total.IsPositive() {
			return nil
		}
		return tx.AddTotals(ctx, userID, decimal.Zero, total)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) accrueInvestment(ctx context.Context, tx storage.Ledger, investmentID string, day time.Time) (accrual, error) {
	inv, err := tx.GetInvestmentForUpdate(ctx, investmentID)
	if err != nil {
		return accrual{}, mapNotFound(err, ErrInvestmentNotFound)
	}
	if !inv.IsActive || inv.AccruedOn(day) {
		return accrual{}, nil
	}

	earning := round2(inv.CurrentValue.Mul(inv.DailyRate))
	ok, err := tx.ApplyAccrual(ctx, inv.ID, inv.CurrentValue.Add(earning), earning, day)
	if err != nil || !ok {
		return accrual{}, err
	}
	if earning.IsPositive() {
		err = tx.CreateTransaction(ctx, &models.Transaction{
			UserID:      inv.UserID,
			Type:        models.TxTypeEarnings,
			Amount:      earning,
			Description: fmt.Sprintf("Daily earnings - %s", inv.PlanName),
			Status:      models.TxStatusCompleted,
			Reference:   inv.ID,
		})
		if err != nil {
			return accrual{}, err
		}
	}
	return accrual{earning: earning, applied: true}, nil
}

// finalize closes a matured investment and releases its current value to the
// user's balance. It reports false when another writer closed it first.
func (s *Service) finalize(ctx context.Context, user *models.User, inv *models.UserInvestment) (bool, error) {
	var (
		settled *models.UserInvestment
		closed  bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx storage.Ledger) error {
		var err error
		settled, err = tx.GetInvestmentForUpdate(ctx, inv.ID)
		if err != nil {
			return mapNotFound(err, ErrInvestmentNotFound)
		}
		closed, err = tx.CloseInvestment(ctx, inv.ID, false)
		if err != nil || !closed {
			return err
		}
		settled.IsActive = false

		return s.postEntry(ctx, tx, &models.Transaction{
			UserID:      settled.UserID,
			Type:        models.TxTypeInvestmentCompletion,
			Amount:      settled.CurrentValue,
			Description: fmt.Sprintf("Investment completion - %s", settled.PlanName),
			Reference:   settled.ID,
		}, settled.CurrentValue)
	})
	if err != nil {
		return false, err
	}
	if closed {
		s.notify(user.ID, func() error { return s.notifier.InvestmentMatured(ctx, user, settled) })
	}
	return closed, nil
}
