// Package redis publishes analysis output to Redis for downstream consumers:
// the latest classified point per symbol and resolution, and a capped stream
// of emitted entry signals.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"bxscan/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: plenty for years of weekly signals per symbol.
	signalStreamMaxLen = 10000
	defaultLatestTTL   = 30 * 24 * time.Hour
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Writer publishes oscillator points and signals to Redis.
type Writer struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks and cache reuse.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client}, nil
}

// PublishLatest stores the newest classified point for a symbol + resolution
// under "bx:latest:{symbol}:{resolution}" with a TTL.
func (w *Writer) PublishLatest(ctx context.Context, symbol string, p model.OscillatorPoint) error {
	key := "bx:latest:" + symbol + ":" + string(p.Resolution)
	if err := w.client.Set(ctx, key, p.JSON(), defaultLatestTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// AppendSignals appends entry signals to the per-symbol stream
// "bx:signals:{symbol}". Stream entries are keyed by the fine index date, so
// re-publishing the same run adds entries with identical payloads rather than
// corrupting history; consumers dedupe on fine_index_date.
func (w *Writer) AppendSignals(ctx context.Context, signals []model.EntrySignal) error {
	for _, s := range signals {
		key := "bx:signals:" + s.Symbol
		err := w.client.XAdd(ctx, &goredis.XAddArgs{
			Stream: key,
			MaxLen: signalStreamMaxLen,
			Approx: true,
			Values: map[string]interface{}{
				"fine_index_date": s.FineIndexDate.UTC().Format(time.RFC3339),
				"payload":         string(s.JSON()),
			},
		}).Err()
		if err != nil {
			return fmt.Errorf("redis xadd %s: %w", key, err)
		}
	}
	return nil
}

// Close closes the client.
func (w *Writer) Close() error {
	return w.client.Close()
}
