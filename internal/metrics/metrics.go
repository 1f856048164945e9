// Package metrics exposes Prometheus instrumentation for the scanner.
package metrics

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the scan pipeline.
type Metrics struct {
	SymbolsAnalyzed      prometheus.Counter
	AnalyzeFailures      prometheus.Counter
	SignalsEmitted       prometheus.Counter
	SkippedConfirmations prometheus.Counter
	BarsProcessed        *prometheus.CounterVec // labels: resolution
	AnalyzeDur           prometheus.Histogram
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		SymbolsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bxscan_symbols_analyzed_total",
			Help: "Total completed per-symbol analysis runs",
		}),
		AnalyzeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bxscan_analyze_failures_total",
			Help: "Per-symbol analysis runs that failed (contract violations, source errors)",
		}),
		SignalsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bxscan_signals_emitted_total",
			Help: "Entry signals emitted across all runs",
		}),
		SkippedConfirmations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bxscan_skipped_confirmations_total",
			Help: "Coarse confirmations declined due to ambiguous period metadata",
		}),
		BarsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bxscan_bars_processed_total",
			Help: "Closed bars fed into the oscillator engine",
		}, []string{"resolution"}),
		AnalyzeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bxscan_analyze_duration_seconds",
			Help:    "Per-symbol analysis latency (fetch + both passes + alignment)",
			Buckets: prometheus.DefBuckets,
		}),
	}

	prometheus.MustRegister(
		m.SymbolsAnalyzed,
		m.AnalyzeFailures,
		m.SignalsEmitted,
		m.SkippedConfirmations,
		m.BarsProcessed,
		m.AnalyzeDur,
	)

	return m
}

// Server runs an HTTP server exposing /metrics.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates the metrics server.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
