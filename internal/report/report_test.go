package report

import (
	"math"
	"testing"

	"bxscan/internal/model"
)

func points(values ...float64) []model.OscillatorPoint {
	ps := make([]model.OscillatorPoint, len(values))
	for i, v := range values {
		ps[i] = model.OscillatorPoint{Value: v}
	}
	return ps
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(points(-14.26, -8.25, 0.24, 12.5))

	if s.Bars != 4 {
		t.Errorf("Bars=%d, want 4", s.Bars)
	}
	if s.Min != -14.26 {
		t.Errorf("Min=%.2f, want -14.26", s.Min)
	}
	if s.Max != 12.5 {
		t.Errorf("Max=%.2f, want 12.5", s.Max)
	}
	wantMean := (-14.26 - 8.25 + 0.24 + 12.5) / 4
	if math.Abs(s.Mean-wantMean) > 1e-9 {
		t.Errorf("Mean=%.6f, want %.6f", s.Mean, wantMean)
	}
	// Zero counts as positive, same boundary as classification.
	if s.Positive != 2 || s.Negative != 2 {
		t.Errorf("Positive=%d Negative=%d, want 2/2", s.Positive, s.Negative)
	}
}

func TestComputeStats_ZeroIsPositive(t *testing.T) {
	s := ComputeStats(points(0))
	if s.Positive != 1 || s.Negative != 0 {
		t.Errorf("value 0 must count as positive, got Positive=%d Negative=%d", s.Positive, s.Negative)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	s := ComputeStats(nil)
	if s != (SeriesStats{}) {
		t.Errorf("empty series should yield zero stats, got %+v", s)
	}
}
