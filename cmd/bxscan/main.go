package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"bxscan/config"
	"bxscan/internal/barsource"
	"bxscan/internal/gateway"
	"bxscan/internal/logger"
	"bxscan/internal/metrics"
	"bxscan/internal/notification"
	"bxscan/internal/oscillator"
	"bxscan/internal/scan"
	"bxscan/internal/scheduler"
	"bxscan/internal/store/redis"
	"bxscan/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	configPath := flag.String("config", "config.yaml", "path to YAML config")
	once := flag.Bool("once", false, "run one batch and exit instead of scheduling")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[bxscan] config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[bxscan] config: %v", err)
	}

	logg := logger.Init("bxscan", slog.LevelInfo)

	engine, err := oscillator.NewEngine(oscillator.Config{
		Short: oscillator.Params{
			L1: cfg.Oscillator.ShortL1,
			L2: cfg.Oscillator.ShortL2,
			L3: cfg.Oscillator.ShortL3,
		},
		LongL1:   cfg.Oscillator.LongL1,
		LongL2:   cfg.Oscillator.LongL2,
		T3Length: cfg.Oscillator.T3Length,
	})
	if err != nil {
		log.Fatalf("[bxscan] oscillator: %v", err)
	}

	var source barsource.Source = barsource.NewFileSource(cfg.Data.BarsDir)

	store, err := sqlite.New(sqlite.WriterConfig{DBPath: cfg.Database.SQLitePath})
	if err != nil {
		log.Fatalf("[bxscan] sqlite: %v", err)
	}
	defer store.Close()

	var publisher *redis.Writer
	if cfg.Redis.Addr != "" {
		publisher, err = redis.New(redis.WriterConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalf("[bxscan] redis: %v", err)
		}
		defer publisher.Close()
		source = barsource.NewCache(source, publisher.Client(), 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := scan.New(source, engine, logg)
	svc.Metrics = metrics.NewMetrics()
	svc.Store = store
	svc.Publisher = publisher

	switch {
	case cfg.Notify.TelegramToken != "":
		svc.Notifier = notification.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
	case cfg.Notify.WebhookURL != "":
		svc.Notifier = notification.NewWebhookNotifier(cfg.Notify.WebhookURL)
	}

	if cfg.GatewayAddr != "" {
		hub := gateway.NewHub()
		svc.Hub = hub
		reader := sqlite.NewReader(store.DB())
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.HandleWS)
		mux.HandleFunc("/signals", func(w http.ResponseWriter, r *http.Request) {
			symbol := r.URL.Query().Get("symbol")
			if symbol == "" {
				http.Error(w, "symbol is required", http.StatusBadRequest)
				return
			}
			limit := 50
			if v := r.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					limit = n
				}
			}
			signals, err := reader.RecentSignals(symbol, limit)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(signals)
		})
		go func() {
			log.Printf("[gateway] listening on %s", cfg.GatewayAddr)
			if err := http.ListenAndServe(cfg.GatewayAddr, mux); err != nil {
				log.Printf("[gateway] server error: %v", err)
			}
		}()
	}

	metricsSrv := metrics.NewServer(cfg.MetricsAddr)
	metricsSrv.Start()
	defer metricsSrv.Stop(context.Background())

	sched := scheduler.New(ctx, svc, cfg.Symbols, logg)

	if *once {
		sched.RunNow()
		return
	}

	if err := sched.Register(cfg.Schedule.FineCron, cfg.Schedule.CoarseCron); err != nil {
		log.Fatalf("[bxscan] scheduler: %v", err)
	}
	if cfg.Schedule.RunOnStart {
		sched.RunNow()
	}
	sched.Start()
	defer sched.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()
}
