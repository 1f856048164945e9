// Package scan orchestrates per-symbol analysis runs: fetch both resolutions,
// run the two oscillator passes, merge them through the alignment engine, and
// hand the resulting report to the configured sinks.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bxscan/internal/alignment"
	"bxscan/internal/barsource"
	"bxscan/internal/gateway"
	"bxscan/internal/logger"
	"bxscan/internal/metrics"
	"bxscan/internal/model"
	"bxscan/internal/notification"
	"bxscan/internal/oscillator"
	"bxscan/internal/report"
	"bxscan/internal/store/redis"
	"bxscan/internal/store/sqlite"
)

const defaultWorkers = 4

// Service runs analyses. Sinks are optional; a nil sink is skipped.
type Service struct {
	source barsource.Source
	engine *oscillator.Engine
	log    *slog.Logger

	Metrics   *metrics.Metrics
	Store     *sqlite.Writer
	Publisher *redis.Writer
	Hub       *gateway.Hub
	Notifier  notification.Notifier

	// Workers bounds batch parallelism across symbols. Defaults to 4.
	Workers int

	// Now is the clock used for bar-closedness checks. Defaults to time.Now.
	Now func() time.Time
}

// New creates a scan service.
func New(source barsource.Source, engine *oscillator.Engine, log *slog.Logger) *Service {
	return &Service{
		source:  source,
		engine:  engine,
		log:     log,
		Workers: defaultWorkers,
		Now:     time.Now,
	}
}

// Analyze runs one symbol end to end and returns its report.
//
// The two per-resolution passes are independent — no shared mutable state —
// and run concurrently; the alignment merge starts only after both have
// completed. Source errors and bar-order violations fail the run for this
// symbol only.
func (s *Service) Analyze(ctx context.Context, symbol string) (*report.Report, error) {
	now := s.Now().UTC()
	ctx = logger.WithRunID(ctx, logger.GenerateRunID(symbol, now))
	start := time.Now()

	var (
		wg           sync.WaitGroup
		fine, coarse []model.OscillatorPoint
		fineErr      error
		coarseErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		fine, fineErr = s.computePass(ctx, symbol, model.Fine, now)
	}()
	go func() {
		defer wg.Done()
		coarse, coarseErr = s.computePass(ctx, symbol, model.Coarse, now)
	}()
	wg.Wait()

	if fineErr != nil || coarseErr != nil {
		if s.Metrics != nil {
			s.Metrics.AnalyzeFailures.Inc()
		}
		if fineErr != nil {
			return nil, fmt.Errorf("analyze %s: %w", symbol, fineErr)
		}
		return nil, fmt.Errorf("analyze %s: %w", symbol, coarseErr)
	}

	res := alignment.Align(symbol, coarse, fine)
	rep := report.New(symbol, fine, coarse, res.Signals, res.SkippedConfirmations)

	s.deliver(ctx, rep, fine, coarse)

	if s.Metrics != nil {
		s.Metrics.SymbolsAnalyzed.Inc()
		s.Metrics.SignalsEmitted.Add(float64(len(rep.Signals)))
		s.Metrics.SkippedConfirmations.Add(float64(rep.SkippedConfirmations))
		s.Metrics.AnalyzeDur.Observe(time.Since(start).Seconds())
	}
	s.log.InfoContext(ctx, "analysis complete",
		append(logger.WithRun(ctx),
			slog.String("symbol", symbol),
			slog.Int("signals", len(rep.Signals)),
			slog.Int("fine_bars", rep.Fine.Bars),
			slog.Int("coarse_bars", rep.Coarse.Bars),
			slog.Int("skipped_confirmations", rep.SkippedConfirmations),
		)...)

	return rep, nil
}

// computePass fetches and classifies one resolution's series.
func (s *Service) computePass(ctx context.Context, symbol string, res model.Resolution, now time.Time) ([]model.OscillatorPoint, error) {
	bars, err := s.source.Bars(ctx, symbol, res)
	if err != nil {
		return nil, fmt.Errorf("%s bars: %w", res, err)
	}

	bars = barsource.DropUnclosed(bars, now)
	if s.Metrics != nil {
		s.Metrics.BarsProcessed.WithLabelValues(string(res)).Add(float64(len(bars)))
	}

	points, err := s.engine.ComputeSeries(bars)
	if err != nil {
		return nil, fmt.Errorf("%s series: %w", res, err)
	}
	if len(points) == 0 {
		// Below warm-up. The other resolution may still be reportable, so
		// this degrades to an empty series instead of failing the run.
		s.log.WarnContext(ctx, "series below warm-up",
			append(logger.WithRun(ctx),
				slog.String("symbol", symbol),
				slog.String("resolution", string(res)),
				slog.Int("bars", len(bars)),
			)...)
	}
	return points, nil
}

// deliver hands a finished report to the configured sinks. Sink failures are
// logged, not propagated: the report itself is already complete.
func (s *Service) deliver(ctx context.Context, rep *report.Report, fine, coarse []model.OscillatorPoint) {
	if s.Store != nil {
		if err := s.Store.SaveReport(rep); err != nil {
			s.log.ErrorContext(ctx, "sqlite save failed", slog.String("symbol", rep.Symbol), slog.Any("err", err))
		}
	}
	if s.Publisher != nil {
		for _, series := range [][]model.OscillatorPoint{fine, coarse} {
			if len(series) == 0 {
				continue
			}
			last := series[len(series)-1]
			if err := s.Publisher.PublishLatest(ctx, rep.Symbol, last); err != nil {
				s.log.ErrorContext(ctx, "redis publish failed", slog.String("symbol", rep.Symbol), slog.Any("err", err))
			}
		}
		if err := s.Publisher.AppendSignals(ctx, rep.Signals); err != nil {
			s.log.ErrorContext(ctx, "redis signal append failed", slog.String("symbol", rep.Symbol), slog.Any("err", err))
		}
	}
	if s.Hub != nil {
		s.Hub.BroadcastSignals(rep.Signals)
	}
	if s.Notifier != nil {
		for _, sig := range rep.Signals {
			if err := s.Notifier.Send(ctx, notification.FromSignal(sig)); err != nil {
				s.log.ErrorContext(ctx, "notification failed", slog.String("symbol", rep.Symbol), slog.Any("err", err))
			}
		}
	}
}

// BatchResult is one symbol's outcome within a batch.
type BatchResult struct {
	Symbol string
	Report *report.Report
	Err    error
}

// AnalyzeBatch runs all symbols with bounded parallelism. Each symbol's
// failure is isolated: it lands on that symbol's BatchResult and never aborts
// the others. Results are returned in input order.
func (s *Service) AnalyzeBatch(ctx context.Context, symbols []string) []BatchResult {
	workers := s.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}

	results := make([]BatchResult, len(symbols))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rep, err := s.Analyze(ctx, symbols[i])
				results[i] = BatchResult{Symbol: symbols[i], Report: rep, Err: err}
			}
		}()
	}

	for i := range symbols {
		select {
		case <-ctx.Done():
			// Mark the remaining symbols as cancelled and stop feeding.
			for j := i; j < len(symbols); j++ {
				results[j] = BatchResult{Symbol: symbols[j], Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}
