// Package scheduler triggers the daily earnings batch on a cron schedule
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/invest-service/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// runTimeout bounds a single scheduled batch
const runTimeout = 30 * time.Minute

// EarningsRunner runs one earnings batch
type EarningsRunner interface {
	RunDailyEarnings(ctx context.Context) (*models.EarningsRun, error)
}

// Scheduler runs the earnings batch in UTC. A trigger that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner EarningsRunner
	log    *logrus.Logger
}

// New validates the cron schedule and registers the earnings job
func New(schedule string, runner EarningsRunner, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{runner: runner, log: log}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.PrintfLogger(log)), cron.SkipIfStillRunning(cron.PrintfLogger(log))),
	)
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid earnings schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins scheduling in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		s.log.Infof("Daily earnings scheduled, next run at %s", entry.Next.Format(time.RFC3339))
	}
}

// Stop prevents new runs and waits for a running batch until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stopped before the running batch finished")
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	run, err := s.runner.RunDailyEarnings(ctx)
	if err != nil {
		s.log.Errorf("Scheduled earnings run failed: %v", err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"accrued":  run.InvestmentsAccrued,
		"matured":  run.InvestmentsMatured,
		"failures": run.Failures,
	}).Info("Scheduled earnings run completed")
}
