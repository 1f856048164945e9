package model

import (
	"encoding/json"
	"time"
)

// ConfirmationWindow is the fine-bar eligibility window opened by a coarse
// close with improving momentum. Covered is the calendar period immediately
// following the period the confirming coarse bar summarizes (derived from the
// bar's covered period, not its index date). At most one window is active per
// symbol; a newer confirming coarse close replaces it, a non-confirming coarse
// close destroys it.
type ConfirmationWindow struct {
	ConfirmingIndexDate time.Time     `json:"confirming_index_date"`
	ConfirmingState     MomentumState `json:"confirming_state"`
	ConfirmingValue     float64       `json:"confirming_value"`
	Covered             Period        `json:"covered"`
}

// Contains reports whether a fine index date is eligible under this window.
func (w *ConfirmationWindow) Contains(t time.Time) bool {
	return w.Covered.Contains(t)
}

// EntrySignal is emitted when a fine close with improving momentum falls
// inside an active confirmation window. Immutable once emitted; signals
// accumulate in an append-only ordered sequence for the run.
type EntrySignal struct {
	Symbol               string        `json:"symbol"`
	FineIndexDate        time.Time     `json:"fine_index_date"`
	Price                float64       `json:"price"` // fine bar close
	FineState            MomentumState `json:"fine_state"`
	FineValue            float64       `json:"fine_value"`
	ConfirmingCoarseDate time.Time     `json:"confirming_coarse_date"`
	ConfirmingState      MomentumState `json:"confirming_state"`
	ConfirmingValue      float64       `json:"confirming_value"`
}

// Key returns a unique key for this signal: "symbol:fineIndexDate".
func (s *EntrySignal) Key() string {
	return s.Symbol + ":" + s.FineIndexDate.UTC().Format(time.RFC3339)
}

// JSON returns the JSON-encoded signal.
func (s *EntrySignal) JSON() []byte {
	out, _ := json.Marshal(s)
	return out
}
