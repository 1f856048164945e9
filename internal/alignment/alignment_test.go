package alignment

import (
	"reflect"
	"testing"
	"time"

	"bxscan/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthCovered returns the covered period for the month starting at s.
func monthCovered(y int, m time.Month) model.Period {
	return model.Period{Start: date(y, m, 1), End: date(y, m, 1).AddDate(0, 1, 0)}
}

// coarsePoint builds a classified monthly point. The provider files a monthly
// bar under the first day of the following month (yfinance convention).
func coarsePoint(covered model.Period, value, delta float64) model.OscillatorPoint {
	return model.OscillatorPoint{
		Resolution: model.Coarse,
		IndexDate:  covered.End,
		Covered:    covered,
		Value:      value,
		Delta:      delta,
		HasDelta:   true,
		State:      model.Classify(value, delta),
	}
}

// finePoint builds a classified weekly point filed under its own close date.
func finePoint(idx time.Time, close, value, delta float64) model.OscillatorPoint {
	return model.OscillatorPoint{
		Resolution: model.Fine,
		IndexDate:  idx,
		Covered:    model.Period{Start: idx.AddDate(0, 0, -7), End: idx},
		Close:      close,
		Value:      value,
		Delta:      delta,
		HasDelta:   true,
		State:      model.Classify(value, delta),
	}
}

func TestAlign_WindowReplacement(t *testing.T) {
	// Coarse: DarkRed (May), LightRed (June), LightGreen (July). The June bar
	// confirms and opens a July window; the July bar replaces it with an
	// August window. The only light fine close falls in August, so exactly
	// one signal fires and it references the July coarse bar.
	coarse := []model.OscillatorPoint{
		coarsePoint(monthCovered(2025, time.May), -20, -3), // DarkRed
		coarsePoint(monthCovered(2025, time.June), -12, 8), // LightRed
		coarsePoint(monthCovered(2025, time.July), 4, 16),  // LightGreen
	}
	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.August, 8), 150.0, 18, 4), // LightGreen, inside August window
	}

	res := Align("AAPL", coarse, fine)

	if len(res.Signals) != 1 {
		t.Fatalf("expected exactly 1 signal, got %d", len(res.Signals))
	}
	sig := res.Signals[0]
	if !sig.ConfirmingCoarseDate.Equal(date(2025, time.August, 1)) {
		t.Errorf("signal references coarse date %v, want 2025-08-01 (the replacing window)", sig.ConfirmingCoarseDate)
	}
	if sig.ConfirmingState != model.LightGreen {
		t.Errorf("confirming state %q, want %q", sig.ConfirmingState, model.LightGreen)
	}
	if sig.Price != 150.0 {
		t.Errorf("signal price %.2f, want 150.00 (fine close)", sig.Price)
	}
}

func TestAlign_ReferenceScenario(t *testing.T) {
	// Coarse values -14.26, -8.25, 0.24 with deltas +6.02, +8.49 classify
	// DarkRed, LightRed, LightGreen. A fine close of value 21.20 (delta +5)
	// during the period following the 0.24 confirmation yields one signal.
	coarse := []model.OscillatorPoint{
		coarsePoint(monthCovered(2025, time.May), -14.26, -2.0), // DarkRed
		coarsePoint(monthCovered(2025, time.June), -8.25, 6.02), // LightRed
		coarsePoint(monthCovered(2025, time.July), 0.24, 8.49),  // LightGreen
	}
	for i, want := range []model.MomentumState{model.DarkRed, model.LightRed, model.LightGreen} {
		if coarse[i].State != want {
			t.Fatalf("coarse %d classified %q, want %q", i, coarse[i].State, want)
		}
	}

	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.August, 15), 182.52, 21.20, 5.0),
	}
	if fine[0].State != model.LightGreen {
		t.Fatalf("fine point classified %q, want %q", fine[0].State, model.LightGreen)
	}

	res := Align("AAPL", coarse, fine)

	if len(res.Signals) != 1 {
		t.Fatalf("expected exactly 1 signal, got %d", len(res.Signals))
	}
	sig := res.Signals[0]
	if !sig.FineIndexDate.Equal(date(2025, time.August, 15)) {
		t.Errorf("signal date %v, want 2025-08-15", sig.FineIndexDate)
	}
	if sig.ConfirmingValue != 0.24 {
		t.Errorf("confirming value %.2f, want 0.24", sig.ConfirmingValue)
	}
	if sig.FineValue != 21.20 {
		t.Errorf("fine value %.2f, want 21.20", sig.FineValue)
	}
}

func TestAlign_DarkCoarseClosesWindow(t *testing.T) {
	// A confirming June close opens a July window. A dark coarse close filed
	// mid-July destroys it, so a light fine close later in July must not fire.
	coarse := []model.OscillatorPoint{
		coarsePoint(monthCovered(2025, time.June), -12, 8), // LightRed → July window
		{
			Resolution: model.Coarse,
			IndexDate:  date(2025, time.July, 10),
			Covered:    monthCovered(2025, time.July),
			Value:      -15, Delta: -3, HasDelta: true,
			State: model.DarkRed,
		},
	}
	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.July, 20), 98.0, -10, 5), // LightRed, inside July
	}

	res := Align("AAPL", coarse, fine)

	if len(res.Signals) != 0 {
		t.Fatalf("expected no signals after dark coarse close, got %d", len(res.Signals))
	}
	if res.Window != nil {
		t.Error("window should be destroyed by the dark coarse close")
	}
}

func TestAlign_SignalBeforeDarkCloseStillFires(t *testing.T) {
	// Fine closes processed before the dark coarse close (chronological merge)
	// still fire; only later ones are blocked.
	coarse := []model.OscillatorPoint{
		coarsePoint(monthCovered(2025, time.June), -12, 8), // LightRed → July window
		{
			Resolution: model.Coarse,
			IndexDate:  date(2025, time.July, 15),
			Covered:    monthCovered(2025, time.July),
			Value:      -15, Delta: -3, HasDelta: true,
			State: model.DarkRed,
		},
	}
	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.July, 7), 97.0, -11, 1),  // before the dark close — fires
		finePoint(date(2025, time.July, 21), 98.0, -10, 1), // after — blocked
	}

	res := Align("AAPL", coarse, fine)

	if len(res.Signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(res.Signals))
	}
	if !res.Signals[0].FineIndexDate.Equal(date(2025, time.July, 7)) {
		t.Errorf("signal date %v, want 2025-07-07", res.Signals[0].FineIndexDate)
	}
}

func TestAlign_NoWindowNoSignal(t *testing.T) {
	// Light fine closes with no active window are the common idle case —
	// no signals, no error.
	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.July, 7), 97.0, 12, 3),
		finePoint(date(2025, time.July, 14), 98.0, -4, 2),
	}

	res := Align("AAPL", nil, fine)
	if len(res.Signals) != 0 {
		t.Fatalf("expected no signals without a window, got %d", len(res.Signals))
	}
	if res.SkippedConfirmations != 0 {
		t.Errorf("expected no skipped confirmations, got %d", res.SkippedConfirmations)
	}
}

func TestAlign_MultipleSignalsPerWindow(t *testing.T) {
	// A window is not consumed by emitting — every eligible fine close fires.
	coarse := []model.OscillatorPoint{
		coarsePoint(monthCovered(2025, time.June), 4, 2), // LightGreen → July window
	}
	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.July, 7), 100, 10, 2),  // LightGreen
		finePoint(date(2025, time.July, 14), 99, 8, -2),  // DarkGreen — not eligible
		finePoint(date(2025, time.July, 21), 101, 12, 4), // LightGreen
	}

	res := Align("AAPL", coarse, fine)

	if len(res.Signals) != 2 {
		t.Fatalf("expected 2 signals from one window, got %d", len(res.Signals))
	}
	for _, sig := range res.Signals {
		if !sig.ConfirmingCoarseDate.Equal(date(2025, time.July, 1)) {
			t.Errorf("signal references %v, want the single 2025-07-01 confirmation", sig.ConfirmingCoarseDate)
		}
	}
}

func TestAlign_Idempotent(t *testing.T) {
	coarse := []model.OscillatorPoint{
		coarsePoint(monthCovered(2025, time.June), 4, 2),
		coarsePoint(monthCovered(2025, time.July), 6, 2),
	}
	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.July, 7), 100, 10, 2),
		finePoint(date(2025, time.August, 4), 102, 11, 1),
	}

	first := Align("AAPL", coarse, fine)
	second := Align("AAPL", coarse, fine)
	if !reflect.DeepEqual(first.Signals, second.Signals) {
		t.Error("re-running over identical inputs must yield an identical signal sequence")
	}

	// A duplicated fine point must not double-emit.
	dup := append([]model.OscillatorPoint{fine[0]}, fine...)
	res := Align("AAPL", coarse, dup)
	if len(res.Signals) != len(first.Signals) {
		t.Errorf("duplicate fine point double-emitted: %d vs %d signals", len(res.Signals), len(first.Signals))
	}
}

func TestAlign_EqualDatesCoarseFirst(t *testing.T) {
	// A fine bar filed under the same date as the confirming coarse bar
	// belongs to the window that coarse bar opens.
	coarse := []model.OscillatorPoint{
		coarsePoint(monthCovered(2025, time.July), 4, 2), // indexed 2025-08-01, → August window
	}
	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.August, 1), 100, 10, 2), // LightGreen, same filing date
	}

	res := Align("AAPL", coarse, fine)
	if len(res.Signals) != 1 {
		t.Fatalf("expected the same-date fine close to be eligible, got %d signals", len(res.Signals))
	}
}

func TestAlign_AmbiguousPeriodSkipsConfirmation(t *testing.T) {
	coarse := []model.OscillatorPoint{
		{
			Resolution: model.Coarse,
			IndexDate:  date(2025, time.July, 1),
			// Covered period metadata missing — cannot map to a following period.
			Value: 4, Delta: 2, HasDelta: true,
			State: model.LightGreen,
		},
	}
	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.July, 7), 100, 10, 2),
	}

	res := Align("AAPL", coarse, fine)

	if res.SkippedConfirmations != 1 {
		t.Errorf("SkippedConfirmations=%d, want 1", res.SkippedConfirmations)
	}
	if len(res.Signals) != 0 {
		t.Errorf("no window should open on ambiguous period metadata, got %d signals", len(res.Signals))
	}
}

func TestAlign_UnclassifiedPointsNeverParticipate(t *testing.T) {
	unclassified := model.OscillatorPoint{
		Resolution: model.Coarse,
		IndexDate:  date(2025, time.July, 1),
		Covered:    monthCovered(2025, time.June),
		Value:      4, // rising on its face, but no delta → no state
	}
	fine := []model.OscillatorPoint{
		finePoint(date(2025, time.July, 7), 100, 10, 2),
	}

	res := Align("AAPL", []model.OscillatorPoint{unclassified}, fine)
	if len(res.Signals) != 0 {
		t.Fatalf("first coarse point (no delta) must not confirm, got %d signals", len(res.Signals))
	}

	// And an unclassified fine point never signals even inside a window.
	coarse := []model.OscillatorPoint{coarsePoint(monthCovered(2025, time.June), 4, 2)}
	noDelta := model.OscillatorPoint{
		Resolution: model.Fine,
		IndexDate:  date(2025, time.July, 7),
		Value:      10,
	}
	res = Align("AAPL", coarse, []model.OscillatorPoint{noDelta})
	if len(res.Signals) != 0 {
		t.Fatalf("unclassified fine point must not signal, got %d signals", len(res.Signals))
	}
}
