// Package oscillator computes the B-Xtrender momentum oscillator over closed
// price bars of a single resolution.
//
// The short-term series is RSI(EMA(close, L1) − EMA(close, L2), L3) − 50,
// recentered so 0 is neutral momentum. It drives classification. Two
// supplementary series are computed for external consumers and never feed
// signal logic: a T3 smoothing of the short series and the long-term variant
// RSI(EMA(close, LongL1), LongL2) − 50.
package oscillator

import (
	"errors"
	"fmt"

	"bxscan/internal/indicator"
	"bxscan/internal/model"
)

// ErrOutOfOrder is returned when a bar's index date does not strictly follow
// the previous bar's. The smoothing recursions assume monotonic time order,
// so this is a caller contract violation, not something to repair silently.
var ErrOutOfOrder = errors.New("out-of-order bar")

// Params holds the smoothing windows for one oscillator variant.
type Params struct {
	L1 int // first EMA period
	L2 int // second EMA period
	L3 int // RSI period over the EMA difference
}

// Validate checks that all periods are positive.
func (p Params) Validate() error {
	if p.L1 <= 0 || p.L2 <= 0 || p.L3 <= 0 {
		return fmt.Errorf("oscillator params must be positive, got L1=%d L2=%d L3=%d", p.L1, p.L2, p.L3)
	}
	return nil
}

// WarmupLen returns the number of leading bars that cannot produce a fully
// warmed short-term value: max(L1, L2) + L3. Series of this length or shorter
// yield at most one point, and no classified point.
func (p Params) WarmupLen() int {
	m := p.L1
	if p.L2 > m {
		m = p.L2
	}
	return m + p.L3
}

// Config holds the full parameter surface of the engine. The long variant and
// the T3 length default to the reference values when zero.
type Config struct {
	Short    Params
	LongL1   int
	LongL2   int
	T3Length int
}

// DefaultConfig returns the reference parameter set: short 5/20/15,
// long 20/15, T3 length 5.
func DefaultConfig() Config {
	return Config{
		Short:    Params{L1: 5, L2: 20, L3: 15},
		LongL1:   20,
		LongL2:   15,
		T3Length: 5,
	}
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := c.Short.Validate(); err != nil {
		return err
	}
	if c.LongL1 <= 0 || c.LongL2 <= 0 {
		return fmt.Errorf("long oscillator params must be positive, got L1=%d L2=%d", c.LongL1, c.LongL2)
	}
	if c.T3Length <= 0 {
		return fmt.Errorf("t3 length must be positive, got %d", c.T3Length)
	}
	return nil
}

// Engine computes oscillator series. It holds only configuration — each
// ComputeSeries call builds a fresh smoothing cascade, so one Engine may be
// shared across concurrent per-resolution passes.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// ComputeSeries runs the full cascade over an ordered sequence of closed bars
// for one resolution and returns the classified oscillator points.
//
// Warm-up policy (identical for both resolutions): leading bars are truncated
// until the short cascade is warm, so the first emitted point lands at bar
// max(L1, L2) + L3. That first point has no delta and therefore StateNone.
// A series shorter than the warm-up length yields an empty, non-error result.
func (e *Engine) ComputeSeries(bars []model.PriceBar) ([]model.OscillatorPoint, error) {
	emaFast := indicator.NewEMA(e.cfg.Short.L1)
	emaSlow := indicator.NewEMA(e.cfg.Short.L2)
	rsiShort := indicator.NewRSI(e.cfg.Short.L3)
	t3 := indicator.NewT3(e.cfg.T3Length)
	emaLong := indicator.NewEMA(e.cfg.LongL1)
	rsiLong := indicator.NewRSI(e.cfg.LongL2)

	points := make([]model.OscillatorPoint, 0, len(bars))
	var prevValue float64
	havePrev := false

	for i, bar := range bars {
		if i > 0 && !bar.IndexDate.After(bars[i-1].IndexDate) {
			return nil, fmt.Errorf("%w: bar %d (%s) does not follow %s",
				ErrOutOfOrder, i, bar.IndexDate.Format("2006-01-02"), bars[i-1].IndexDate.Format("2006-01-02"))
		}

		emaFast.Update(bar.Close)
		emaSlow.Update(bar.Close)
		if emaFast.Ready() && emaSlow.Ready() {
			rsiShort.Update(emaFast.Value() - emaSlow.Value())
		}

		emaLong.Update(bar.Close)
		if emaLong.Ready() {
			rsiLong.Update(emaLong.Value())
		}

		if !rsiShort.Ready() {
			continue
		}

		value := rsiShort.Value() - 50
		t3.Update(value)

		p := model.OscillatorPoint{
			Resolution: bar.Resolution,
			IndexDate:  bar.IndexDate,
			Covered:    bar.Covered,
			Close:      bar.Close,
			Value:      value,
		}
		if havePrev {
			p.Delta = value - prevValue
			p.HasDelta = true
			p.State = model.Classify(value, p.Delta)
		}
		if t3.Ready() {
			p.Smoothed = t3.Value()
			p.HasSmoothed = true
		}
		if rsiLong.Ready() {
			p.Long = rsiLong.Value() - 50
			p.HasLong = true
		}

		prevValue = value
		havePrev = true
		points = append(points, p)
	}

	return points, nil
}
