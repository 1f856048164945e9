package model

import (
	"encoding/json"
	"time"
)

// Resolution identifies one of the two configured time resolutions.
type Resolution string

const (
	Fine   Resolution = "fine"   // shorter period (e.g. weekly) — entry-signal detection
	Coarse Resolution = "coarse" // longer period (e.g. monthly) — confirmation
)

// Period is the half-open calendar span [Start, End) a bar summarizes.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the period carries usable metadata, i.e. it can be
// mapped to a following calendar period.
func (p Period) Valid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && p.End.After(p.Start)
}

// Contains reports whether t falls inside [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Following returns the calendar period immediately after p, with the same
// length. Month lengths drift by a few days, but a confirmation window is
// superseded as soon as the next coarse bar closes, so the estimated end only
// gates fine bars arriving after the last coarse bar of a series.
func (p Period) Following() Period {
	return Period{Start: p.End, End: p.End.Add(p.End.Sub(p.Start))}
}

// PriceBar is one fully-closed trading period at a given resolution.
//
// IndexDate is the date the data provider files the bar under; Covered is the
// span the bar actually summarizes. The two are not interchangeable: for
// coarse resolutions a provider may index a bar by the first day of the
// following period (yfinance files July's monthly bar under August 1st).
// Downstream period math must use Covered, never IndexDate.
type PriceBar struct {
	Symbol     string     `json:"symbol"`
	Resolution Resolution `json:"resolution"`
	IndexDate  time.Time  `json:"index_date"` // provider filing date (UTC)
	Covered    Period     `json:"covered"`    // span the bar summarizes
	Open       float64    `json:"open"`
	High       float64    `json:"high"`
	Low        float64    `json:"low"`
	Close      float64    `json:"close"`
}

// Key returns a unique key for this bar's series: "symbol:resolution".
func (b *PriceBar) Key() string {
	return b.Symbol + ":" + string(b.Resolution)
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *PriceBar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}

// Closed reports whether the bar's covered period has fully elapsed at now.
// Bars without valid period metadata are treated as unclosed.
func (b *PriceBar) Closed(now time.Time) bool {
	return b.Covered.Valid() && !now.Before(b.Covered.End)
}
