// Package scheduler re-runs the scan batch on cron schedules, typically once
// after each fine close and once after each coarse close.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"bxscan/internal/scan"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the periodic rescan tasks.
type Scheduler struct {
	cron    *cron.Cron
	svc     *scan.Service
	symbols []string
	log     *slog.Logger
	ctx     context.Context
}

// New creates a scheduler driving svc over the given symbols.
func New(ctx context.Context, svc *scan.Service, symbols []string, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		svc:     svc,
		symbols: symbols,
		log:     log,
		ctx:     ctx,
	}
}

// Register adds the rescan tasks. fineCron fires after fine-resolution closes
// (e.g. weekly), coarseCron after coarse-resolution closes (e.g. monthly);
// both run the same full batch — the alignment engine re-derives windows and
// signals deterministically from whatever bars are now closed.
func (s *Scheduler) Register(fineCron, coarseCron string) error {
	if _, err := s.cron.AddFunc(fineCron, s.runBatch); err != nil {
		return fmt.Errorf("register fine rescan: %w", err)
	}
	if _, err := s.cron.AddFunc(coarseCron, s.runBatch); err != nil {
		return fmt.Errorf("register coarse rescan: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", slog.Int("symbols", len(s.symbols)))
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("scheduler stopped")
}

// RunNow executes the batch immediately (manual trigger / run-on-start).
func (s *Scheduler) RunNow() {
	s.runBatch()
}

func (s *Scheduler) runBatch() {
	results := s.svc.AnalyzeBatch(s.ctx, s.symbols)

	failed := 0
	signals := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			s.log.Error("symbol analysis failed", slog.String("symbol", r.Symbol), slog.Any("err", r.Err))
			continue
		}
		signals += len(r.Report.Signals)
	}
	s.log.Info("batch complete",
		slog.Int("symbols", len(results)),
		slog.Int("failed", failed),
		slog.Int("signals", signals),
	)
}
