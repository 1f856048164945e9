// Package notification delivers entry-signal alerts to external channels
// (Telegram, generic webhooks) when a scan run emits new signals.
package notification

import (
	"context"
	"fmt"
	"log"

	"bxscan/internal/model"
)

// Alert is one rendered entry-signal notification.
type Alert struct {
	Symbol  string `json:"symbol"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// FromSignal renders an entry signal into an Alert.
func FromSignal(sig model.EntrySignal) Alert {
	return Alert{
		Symbol: sig.Symbol,
		Title:  fmt.Sprintf("%s entry signal", sig.Symbol),
		Message: fmt.Sprintf("%s closed %s at %.2f on %s, confirmed by %s coarse close of %s (value %.2f)",
			sig.Symbol,
			sig.FineState,
			sig.Price,
			sig.FineIndexDate.Format("2006-01-02"),
			sig.ConfirmingState,
			sig.ConfirmingCoarseDate.Format("2006-01-02"),
			sig.ConfirmingValue,
		),
	}
}

// LogNotifier logs alerts instead of delivering them (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] %s: %s", alert.Title, alert.Message)
	return nil
}
