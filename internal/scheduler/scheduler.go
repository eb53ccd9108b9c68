package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dnovakovic099/secure-stay-server-sub003/internal/services"
	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BatchRunner is the scheduled batch entry point of the analysis engine
type BatchRunner interface {
	ProcessScheduledAnalysis(ctx context.Context) (*services.BatchResult, error)
}

// Scheduler triggers the daily checkout analysis batch
type Scheduler struct {
	cron   *cron.Cron
	runner BatchRunner
}

// New creates a scheduler firing on the given cron spec in the operator's
// timezone (e.g. "5 0 * * *" for five past local midnight)
func New(runner BatchRunner, spec, timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", timezone, err)
	}

	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid scheduler cron spec %q: %w", spec, err)
	}

	return s, nil
}

// Start begins firing scheduled runs
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Analysis scheduler started")
}

// Stop stops the scheduler, waiting for a running batch to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Analysis scheduler stopped")
}

func (s *Scheduler) run() {
	// Batches run unattended; bound them so a stuck upstream cannot leak
	// into the next day's run
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	result, err := s.runner.ProcessScheduledAnalysis(ctx)
	if err != nil {
		logger.Error("Scheduled analysis batch failed", zap.Error(err))
		return
	}

	logger.Info("Scheduled analysis batch completed",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))
}
