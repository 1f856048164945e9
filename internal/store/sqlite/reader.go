package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"bxscan/internal/model"
)

// Reader queries persisted signals for reporting collaborators.
type Reader struct {
	db *sql.DB
}

// NewReader creates a reader over an existing writer's database.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// RecentSignals returns up to limit signals for a symbol, newest first.
func (r *Reader) RecentSignals(symbol string, limit int) ([]model.EntrySignal, error) {
	rows, err := r.db.Query(`
		SELECT symbol, fine_ts, price, fine_state, fine_value, coarse_ts, coarse_state, coarse_value
		FROM entry_signals
		WHERE symbol = ?
		ORDER BY fine_ts DESC
		LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query signals: %w", err)
	}
	defer rows.Close()

	var signals []model.EntrySignal
	for rows.Next() {
		var s model.EntrySignal
		var fineTS, coarseTS int64
		var fineState, coarseState string
		if err := rows.Scan(&s.Symbol, &fineTS, &s.Price, &fineState, &s.FineValue,
			&coarseTS, &coarseState, &s.ConfirmingValue); err != nil {
			return nil, fmt.Errorf("sqlite scan signal: %w", err)
		}
		s.FineIndexDate = time.Unix(fineTS, 0).UTC()
		s.ConfirmingCoarseDate = time.Unix(coarseTS, 0).UTC()
		s.FineState = model.MomentumState(fineState)
		s.ConfirmingState = model.MomentumState(coarseState)
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
