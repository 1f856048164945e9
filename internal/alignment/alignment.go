// Package alignment merges the classified coarse and fine oscillator series
// and emits entry signals.
//
// The engine is a single-pass state machine: a coarse close with improving
// momentum opens (or replaces) the confirmation window covering the calendar
// period that follows the coarse bar's covered period; a non-improving coarse
// close destroys any active window; fine closes with improving momentum that
// fall inside the active window emit entry signals. Only coarse closes move
// the state machine — fine points never open or close windows.
package alignment

import (
	"sort"
	"time"

	"bxscan/internal/model"
)

// Result is the outcome of one alignment pass.
type Result struct {
	// Signals is the append-only ordered sequence of emitted entry signals.
	Signals []model.EntrySignal

	// SkippedConfirmations counts coarse closes that would have confirmed but
	// carried period metadata that could not be mapped to a following period.
	SkippedConfirmations int

	// Window is the confirmation window still active after the last input
	// point, if any.
	Window *model.ConfirmationWindow
}

// Align merges two already-classified, time-ordered point series and returns
// the emitted signals. Re-running over identical inputs yields an identical
// result: emission is idempotent per fine index date and the merge order is
// fully determined by the inputs.
func Align(symbol string, coarse, fine []model.OscillatorPoint) Result {
	var res Result
	var window *model.ConfirmationWindow
	emitted := make(map[time.Time]bool)

	ci, fi := 0, 0
	for ci < len(coarse) || fi < len(fine) {
		// Coarse first on equal dates: a coarse bar filed under the same date
		// as a fine bar confirms the period that fine bar belongs to.
		if fi >= len(fine) || (ci < len(coarse) && !fine[fi].IndexDate.Before(coarse[ci].IndexDate)) {
			window = processCoarse(&res, window, coarse[ci])
			ci++
			continue
		}

		emitFine(&res, window, symbol, fine[fi], emitted)
		fi++
	}

	res.Window = window
	sort.SliceStable(res.Signals, func(i, j int) bool {
		return res.Signals[i].FineIndexDate.Before(res.Signals[j].FineIndexDate)
	})
	return res
}

// processCoarse applies one coarse close to the window state machine.
func processCoarse(res *Result, window *model.ConfirmationWindow, p model.OscillatorPoint) *model.ConfirmationWindow {
	if p.State == model.StateNone {
		// First point of the coarse series: no delta, never confirms. It is
		// still a coarse close, so it supersedes any active window.
		return nil
	}

	if !p.State.Improving() {
		return nil
	}

	if !p.Covered.Valid() {
		// Cannot map the covered period to a following one — decline to
		// confirm rather than guess, and surface the skip in the summary.
		res.SkippedConfirmations++
		return nil
	}

	return &model.ConfirmationWindow{
		ConfirmingIndexDate: p.IndexDate,
		ConfirmingState:     p.State,
		ConfirmingValue:     p.Value,
		Covered:             p.Covered.Following(),
	}
}

// emitFine emits an entry signal for a fine close if it is eligible under the
// active window. Duplicate fine index dates never double-emit.
func emitFine(res *Result, window *model.ConfirmationWindow, symbol string, p model.OscillatorPoint, emitted map[time.Time]bool) {
	if window == nil || !p.State.Improving() || !window.Contains(p.IndexDate) {
		return
	}
	if emitted[p.IndexDate] {
		return
	}
	emitted[p.IndexDate] = true

	res.Signals = append(res.Signals, model.EntrySignal{
		Symbol:               symbol,
		FineIndexDate:        p.IndexDate,
		Price:                p.Close,
		FineState:            p.State,
		FineValue:            p.Value,
		ConfirmingCoarseDate: window.ConfirmingIndexDate,
		ConfirmingState:      window.ConfirmingState,
		ConfirmingValue:      window.ConfirmingValue,
	})
}
