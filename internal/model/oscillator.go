package model

import (
	"encoding/json"
	"time"
)

// MomentumState is the four-color classification of an oscillator reading.
type MomentumState string

const (
	// StateNone marks the first point of a series: no prior value, no delta.
	// Such points never participate in confirmation or signal logic.
	StateNone MomentumState = ""

	LightGreen MomentumState = "light_green" // value ≥ 0, rising
	DarkGreen  MomentumState = "dark_green"  // value ≥ 0, flat or falling
	LightRed   MomentumState = "light_red"   // value < 0, rising
	DarkRed    MomentumState = "dark_red"    // value < 0, flat or falling
)

// Improving reports whether the state is a "light" color (rising momentum).
func (s MomentumState) Improving() bool {
	return s == LightGreen || s == LightRed
}

// Classify maps an oscillator value and its delta from the prior bar onto a
// momentum state. Boundaries: value == 0 counts as the green side, delta == 0
// as the dark side. Signal parity with the reference output depends on these
// exact tie-breaks.
func Classify(value, delta float64) MomentumState {
	if value >= 0 {
		if delta > 0 {
			return LightGreen
		}
		return DarkGreen
	}
	if delta > 0 {
		return LightRed
	}
	return DarkRed
}

// OscillatorPoint is one computed oscillator reading, derived from exactly one
// PriceBar plus the engine's smoothing state. Value is the short-term series
// that drives classification; Smoothed (T3 of Value) and Long (the long-term
// variant) are computed for external consumers and never feed signal logic.
type OscillatorPoint struct {
	Resolution  Resolution    `json:"resolution"`
	IndexDate   time.Time     `json:"index_date"`
	Covered     Period        `json:"covered"`
	Close       float64       `json:"close"` // close of the source bar
	Value       float64       `json:"value"`
	Delta       float64       `json:"delta"`
	HasDelta    bool          `json:"has_delta"` // false for the first point of a series
	Smoothed    float64       `json:"smoothed"`
	HasSmoothed bool          `json:"has_smoothed"`
	Long        float64       `json:"long"`
	HasLong     bool          `json:"has_long"`
	State       MomentumState `json:"state,omitempty"`
}

// JSON returns the JSON-encoded point.
func (p *OscillatorPoint) JSON() []byte {
	out, _ := json.Marshal(p)
	return out
}
