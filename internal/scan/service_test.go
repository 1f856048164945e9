package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"bxscan/internal/model"
	"bxscan/internal/notification"
	"bxscan/internal/oscillator"
	"bxscan/internal/report"
)

type fakeSource struct {
	bars map[string]map[model.Resolution][]model.PriceBar
	errs map[string]error
}

func (f *fakeSource) Bars(ctx context.Context, symbol string, res model.Resolution) ([]model.PriceBar, error) {
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.bars[symbol][res], nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(t *testing.T) *oscillator.Engine {
	t.Helper()
	e, err := oscillator.NewEngine(oscillator.Config{
		Short:    oscillator.Params{L1: 2, L2: 3, L3: 2},
		LongL1:   2,
		LongL2:   2,
		T3Length: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func series(symbol string, res model.Resolution, n int, step time.Duration) []model.PriceBar {
	start := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, n)
	for i := range bars {
		idx := start.Add(time.Duration(i) * step)
		c := 100 + float64(i)
		bars[i] = model.PriceBar{
			Symbol: symbol, Resolution: res, IndexDate: idx,
			Covered: model.Period{Start: idx, End: idx.Add(step)},
			Open:    c, High: c, Low: c, Close: c,
		}
	}
	return bars
}

func newTestService(t *testing.T, src *fakeSource) *Service {
	t.Helper()
	svc := New(src, testEngine(t), quietLogger())
	// Fixed clock far in the future: every test bar is closed.
	svc.Now = func() time.Time { return time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestAnalyze_ProducesReport(t *testing.T) {
	src := &fakeSource{
		bars: map[string]map[model.Resolution][]model.PriceBar{
			"AAPL": {
				model.Fine:   series("AAPL", model.Fine, 12, 7*24*time.Hour),
				model.Coarse: series("AAPL", model.Coarse, 10, 30*24*time.Hour),
			},
		},
	}

	svc := newTestService(t, src)
	rep, err := svc.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}

	if rep.Symbol != "AAPL" {
		t.Errorf("symbol %q, want AAPL", rep.Symbol)
	}
	// Warm-up is 5 bars with the test params, so 12 fine bars → 8 points.
	if rep.Fine.Bars != 8 {
		t.Errorf("fine bars=%d, want 8", rep.Fine.Bars)
	}
	if rep.Coarse.Bars != 6 {
		t.Errorf("coarse bars=%d, want 6", rep.Coarse.Bars)
	}
	if rep.GeneratedAt.IsZero() {
		t.Error("report must carry a generation timestamp")
	}
}

func TestAnalyze_UnclosedTrailingBarDropped(t *testing.T) {
	fine := series("AAPL", model.Fine, 12, 7*24*time.Hour)
	src := &fakeSource{
		bars: map[string]map[model.Resolution][]model.PriceBar{
			"AAPL": {
				model.Fine:   fine,
				model.Coarse: series("AAPL", model.Coarse, 10, 30*24*time.Hour),
			},
		},
	}

	svc := newTestService(t, src)
	// Clock inside the last fine bar's covered period: that bar is unclosed.
	svc.Now = func() time.Time { return fine[len(fine)-1].Covered.Start.Add(24 * time.Hour) }

	rep, err := svc.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Fine.Bars != 7 {
		t.Errorf("fine bars=%d, want 7 (trailing unclosed bar dropped)", rep.Fine.Bars)
	}
}

func TestAnalyze_ShortSeriesDegradesGracefully(t *testing.T) {
	src := &fakeSource{
		bars: map[string]map[model.Resolution][]model.PriceBar{
			"AAPL": {
				model.Fine:   series("AAPL", model.Fine, 12, 7*24*time.Hour),
				model.Coarse: series("AAPL", model.Coarse, 3, 30*24*time.Hour), // below warm-up
			},
		},
	}

	svc := newTestService(t, src)
	rep, err := svc.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("insufficient coarse data must not fail the run: %v", err)
	}
	if rep.Coarse.Bars != 0 {
		t.Errorf("coarse bars=%d, want 0", rep.Coarse.Bars)
	}
	if len(rep.Signals) != 0 {
		t.Errorf("no signals possible without coarse series, got %d", len(rep.Signals))
	}
	if rep.Fine.Bars == 0 {
		t.Error("fine series should still be reported")
	}
}

func TestAnalyze_OutOfOrderFailsRun(t *testing.T) {
	fine := series("AAPL", model.Fine, 12, 7*24*time.Hour)
	fine[6].IndexDate = fine[2].IndexDate
	src := &fakeSource{
		bars: map[string]map[model.Resolution][]model.PriceBar{
			"AAPL": {
				model.Fine:   fine,
				model.Coarse: series("AAPL", model.Coarse, 10, 30*24*time.Hour),
			},
		},
	}

	svc := newTestService(t, src)
	_, err := svc.Analyze(context.Background(), "AAPL")
	if !errors.Is(err, oscillator.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
}

func TestAnalyzeBatch_IsolatesFailures(t *testing.T) {
	src := &fakeSource{
		bars: map[string]map[model.Resolution][]model.PriceBar{
			"AAPL": {
				model.Fine:   series("AAPL", model.Fine, 12, 7*24*time.Hour),
				model.Coarse: series("AAPL", model.Coarse, 10, 30*24*time.Hour),
			},
			"MSFT": {
				model.Fine:   series("MSFT", model.Fine, 12, 7*24*time.Hour),
				model.Coarse: series("MSFT", model.Coarse, 10, 30*24*time.Hour),
			},
		},
		errs: map[string]error{"DOWN": fmt.Errorf("provider unavailable")},
	}

	svc := newTestService(t, src)
	results := svc.AnalyzeBatch(context.Background(), []string{"AAPL", "DOWN", "MSFT"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Symbol != "AAPL" || results[0].Err != nil {
		t.Errorf("AAPL should succeed: %+v", results[0])
	}
	if results[1].Err == nil {
		t.Error("DOWN should fail")
	}
	if results[2].Symbol != "MSFT" || results[2].Err != nil {
		t.Errorf("MSFT must not be aborted by DOWN's failure: %+v", results[2])
	}
}

func TestAnalyzeBatch_CancelledContext(t *testing.T) {
	src := &fakeSource{
		bars: map[string]map[model.Resolution][]model.PriceBar{},
		errs: map[string]error{},
	}
	svc := newTestService(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.AnalyzeBatch(ctx, []string{"A", "B", "C"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

type recordingNotifier struct {
	alerts []notification.Alert
}

func (r *recordingNotifier) Send(ctx context.Context, a notification.Alert) error {
	r.alerts = append(r.alerts, a)
	return nil
}

func TestDeliver_NotifiesEachSignal(t *testing.T) {
	svc := newTestService(t, &fakeSource{})
	rec := &recordingNotifier{}
	svc.Notifier = rec

	rep := &report.Report{
		Symbol: "AAPL",
		Signals: []model.EntrySignal{
			{Symbol: "AAPL", FineIndexDate: time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), Price: 231.59, FineState: model.LightGreen},
			{Symbol: "AAPL", FineIndexDate: time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC), Price: 240.10, FineState: model.LightGreen},
		},
	}
	svc.deliver(context.Background(), rep, nil, nil)

	if len(rec.alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(rec.alerts))
	}
	if rec.alerts[0].Symbol != "AAPL" {
		t.Errorf("alert symbol = %q", rec.alerts[0].Symbol)
	}
}
