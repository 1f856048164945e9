// Package indicator provides the incremental smoothing primitives the
// oscillator engine is built from.
//
// Unlike candle-based indicator libraries, these primitives consume a plain
// float64 input stream: the oscillator cascade feeds derived series (an EMA
// difference, a recentered RSI) into further smoothing stages. All updates
// are O(1) — no history scans, no recomputation from full series.
package indicator

// Indicator is the interface shared by the smoothing primitives.
type Indicator interface {
	// Update feeds the next input value and recalculates.
	Update(v float64)

	// Value returns the current output. Returns 0 until Ready.
	Value() float64

	// Ready reports whether enough inputs have been seen for a warmed value.
	Ready() bool

	// Reset clears all state for reuse.
	Reset()
}
