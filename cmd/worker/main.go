// Command worker runs the digest on a cron schedule and serves
// Prometheus metrics. Each scheduled run covers the previous day's
// games.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"nba-alumni-digest/internal/config"
	"nba-alumni-digest/internal/digest"
	"nba-alumni-digest/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting alumni digest worker")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Str("schedule", cfg.DigestCron).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	runner := digest.New(ctx, cfg)
	defer runner.Close()

	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))

		startTime := time.Now()
		go func() {
			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.DigestCron, func() {
		target := time.Now().AddDate(0, 0, -1)
		if err := runner.Run(ctx, target); err != nil {
			log.Error().Err(err).Msg("Scheduled digest run failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.DigestCron).Msg("Failed to schedule digest")
	}
	c.Start()
	log.Info().Str("schedule", cfg.DigestCron).Msg("Digest scheduled")

	<-ctx.Done()

	log.Info().Msg("Stopping scheduler...")
	stopCtx := c.Stop()
	<-stopCtx.Done()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string) {
	http.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
