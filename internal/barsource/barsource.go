// Package barsource defines the contract with the external historical-data
// provider and the guards the core applies to its output. Actual retrieval
// (HTTP APIs, broker SDKs) lives outside this repository; the core only
// consumes ordered sequences of fully-closed bars.
package barsource

import (
	"context"
	"fmt"
	"time"

	"bxscan/internal/model"
)

// Source supplies the ordered, fully-closed bar series for one symbol at one
// resolution. Implementations must not include a partially-formed
// current-period bar; DropUnclosed exists as a guard for providers that do.
type Source interface {
	Bars(ctx context.Context, symbol string, res model.Resolution) ([]model.PriceBar, error)
}

// DropUnclosed removes trailing bars whose covered period has not fully
// elapsed at now. Bars without valid period metadata are treated as unclosed.
// Only the tail is inspected: an unclosed bar can only be the provider's
// in-progress current period.
func DropUnclosed(bars []model.PriceBar, now time.Time) []model.PriceBar {
	n := len(bars)
	for n > 0 && !bars[n-1].Closed(now) {
		n--
	}
	return bars[:n]
}

// Validate checks the caller contract: index dates strictly increasing.
func Validate(bars []model.PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].IndexDate.After(bars[i-1].IndexDate) {
			return fmt.Errorf("bar %d (%s) does not follow %s",
				i, bars[i].IndexDate.Format("2006-01-02"), bars[i-1].IndexDate.Format("2006-01-02"))
		}
	}
	return nil
}
