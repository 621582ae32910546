package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/lendfi/loan-engine/internal/limits"
	"github.com/lendfi/loan-engine/internal/metrics"
	"github.com/lendfi/loan-engine/internal/oracle"
	"github.com/lendfi/loan-engine/internal/quote"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Price source ---
	var src oracle.PriceSource
	var cleanup []func()

	if feedURL := os.Getenv("ORACLE_URL"); feedURL != "" {
		src = oracle.NewHTTPSource(feedURL)
		slog.Info("oracle feed configured", "url", feedURL)

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			src = oracle.NewCachedSource(src, rdb, 30*time.Second)
			slog.Info("Redis price cache enabled")
		}
	} else {
		slog.Warn("ORACLE_URL not set, using static prices (quotes will not track markets)")
		src = oracle.NewStaticSource(map[string]uint64{
			"ETH":  3_200_000_000,
			"WBTC": 64_000_000_000,
			"USDC": 1_000_000,
		})
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- WebSocket hub + oracle poller ---
	wsHub := quote.NewWSHub()
	go wsHub.Run()

	pollInterval := 15 * time.Second
	if v := os.Getenv("ORACLE_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid ORACLE_POLL_INTERVAL", "err", err)
			os.Exit(1)
		}
		pollInterval = d
	}
	poller := oracle.NewPoller(src, pollInterval, wsHub.BroadcastPrices)
	go poller.Run(rootCtx)

	// --- Quote service ---
	quoteSvc := quote.NewService(src, limits.DefaultConfig(), wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"loan-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", quoteSvc.Routes)

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("loan-engine listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	<-rootCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down loan-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("loan-engine stopped")
}
