// Package report assembles the output handed to reporting collaborators: the
// ordered entry signals of a run plus per-resolution summary statistics.
package report

import (
	"time"

	"bxscan/internal/model"
)

// SeriesStats summarizes one resolution's oscillator series.
type SeriesStats struct {
	Bars     int     `json:"bars"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Positive int     `json:"positive"` // bars with value ≥ 0
	Negative int     `json:"negative"` // bars with value < 0
}

// ComputeStats derives summary statistics from an oscillator series.
// An empty series yields the zero value.
func ComputeStats(points []model.OscillatorPoint) SeriesStats {
	if len(points) == 0 {
		return SeriesStats{}
	}

	s := SeriesStats{
		Bars: len(points),
		Min:  points[0].Value,
		Max:  points[0].Value,
	}
	sum := 0.0
	for _, p := range points {
		if p.Value < s.Min {
			s.Min = p.Value
		}
		if p.Value > s.Max {
			s.Max = p.Value
		}
		if p.Value >= 0 {
			s.Positive++
		} else {
			s.Negative++
		}
		sum += p.Value
	}
	s.Mean = sum / float64(len(points))
	return s
}

// Report is the full outcome of one symbol's analysis run.
type Report struct {
	Symbol               string              `json:"symbol"`
	GeneratedAt          time.Time           `json:"generated_at"`
	Signals              []model.EntrySignal `json:"signals"`
	Fine                 SeriesStats         `json:"fine"`
	Coarse               SeriesStats         `json:"coarse"`
	SkippedConfirmations int                 `json:"skipped_confirmations"`
}

// New assembles a report from the two classified series and the alignment
// outcome.
func New(symbol string, fine, coarse []model.OscillatorPoint, signals []model.EntrySignal, skipped int) *Report {
	return &Report{
		Symbol:               symbol,
		GeneratedAt:          time.Now().UTC(),
		Signals:              signals,
		Fine:                 ComputeStats(fine),
		Coarse:               ComputeStats(coarse),
		SkippedConfirmations: skipped,
	}
}
