// Command digest produces a single alumni box-score digest and exits.
// It covers the previous day's games unless -date says otherwise.
// Failures are absorbed into fallback output rather than signaled via
// exit status; schedulers should not infer success from the exit code
// alone.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"nba-alumni-digest/internal/config"
	"nba-alumni-digest/internal/digest"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	var dateFlag string
	flag.StringVar(&dateFlag, "date", "", "target date (YYYY-MM-DD), defaults to yesterday")
	flag.Parse()

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	target := time.Now().AddDate(0, 0, -1)
	if dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", dateFlag)
		if err != nil {
			log.Fatal().Err(err).Str("date", dateFlag).Msg("Invalid -date value")
		}
		target = parsed
	}

	ctx := context.Background()
	runner := digest.New(ctx, cfg)
	defer runner.Close()

	if err := runner.Run(ctx, target); err != nil {
		log.Error().Err(err).Msg("Digest run failed")
	}
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
