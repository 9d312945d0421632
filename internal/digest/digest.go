// Package digest wires the pipeline for one run: resolve tracked
// players, collect box scores, archive, render, deliver.
package digest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"nba-alumni-digest/internal/cache"
	"nba-alumni-digest/internal/client"
	"nba-alumni-digest/internal/collector"
	"nba-alumni-digest/internal/config"
	"nba-alumni-digest/internal/mailer"
	"nba-alumni-digest/internal/metrics"
	"nba-alumni-digest/internal/repository"
	"nba-alumni-digest/internal/report"
	"nba-alumni-digest/internal/roster"
)

const (
	trackedCacheFile = "tracked_players.json"
	schoolCacheFile  = "schools.json"
)

// Runner holds the long-lived pieces of the pipeline so the worker can
// reuse them across scheduled runs.
type Runner struct {
	cfg     *config.Config
	api     *client.Client
	mirror  *cache.RedisCache
	archive *repository.Database
}

// New builds a runner. The Redis mirror and Postgres archive are both
// optional: connection failures degrade with a warning rather than
// aborting.
func New(ctx context.Context, cfg *config.Config) *Runner {
	r := &Runner{
		cfg: cfg,
		api: client.New(cfg.StatsBaseURL, cfg.StatsTimeout),
	}

	if cfg.RedisEnabled() {
		mirror, err := cache.NewRedisCache(cache.Config{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without school-lookup mirror")
		} else {
			r.mirror = mirror
			log.Info().Msg("Redis school-lookup mirror connected")
		}
	}

	if cfg.ArchiveEnabled() {
		db, err := repository.NewDatabase(ctx, repository.Config{
			Host:     cfg.DatabaseHost,
			Port:     strconv.Itoa(cfg.DatabasePort),
			User:     cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
			Database: cfg.DatabaseName,
			SSLMode:  cfg.DatabaseSSLMode,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to database - continuing without stat-line archive")
		} else {
			r.archive = db
		}
	}

	return r
}

// Close releases the runner's connections.
func (r *Runner) Close() {
	if r.mirror != nil {
		if err := r.mirror.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis connection")
		}
	}
	if r.archive != nil {
		r.archive.Close()
	}
}

// Run produces and delivers the digest for one target date.
func (r *Runner) Run(ctx context.Context, target time.Time) error {
	start := time.Now()
	log.Info().
		Str("date", target.Format("2006-01-02")).
		Str("school", r.cfg.SchoolSubstring).
		Msg("Starting digest run")

	ids, err := r.resolver().Resolve(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve tracked players: %w", err)
	}
	if len(ids) == 0 {
		// An empty tracked set most likely signals upstream failure,
		// not an absence of alumni; producing an empty report here
		// would hide that distinction from the operator.
		return errors.New("no tracked players resolved, refusing to produce an empty digest")
	}
	metrics.PlayersTracked.Set(float64(len(ids)))

	coll := collector.New(r.api, ids, collector.Options{
		GameListRetry: collector.DefaultOptions().GameListRetry,
		BoxScoreRetry: collector.DefaultOptions().BoxScoreRetry,
		PolitenessMin: r.cfg.PolitenessMinDelay,
		PolitenessMax: r.cfg.PolitenessMaxDelay,
	})
	rep, err := coll.Collect(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to collect box scores: %w", err)
	}

	if r.archive != nil {
		archived := 0
		for i := range rep.Lines {
			if err := r.archive.StatLines.Upsert(ctx, &rep.Lines[i]); err != nil {
				log.Error().
					Err(err).
					Int("player_id", rep.Lines[i].PlayerID).
					Str("game_id", rep.Lines[i].GameID).
					Msg("Failed to archive stat line")
				metrics.RecordArchiveWrite("error")
				continue
			}
			metrics.RecordArchiveWrite("ok")
			archived++
		}
		log.Info().Int("count", archived).Msg("Stat lines archived")
	}

	renderer := report.Renderer{Label: r.cfg.SchoolLabel}
	subject, textBody, htmlBody := renderer.Render(rep)

	m := mailer.New(mailer.Config{
		Host:     r.cfg.SMTPHost,
		Port:     r.cfg.SMTPPort,
		Username: r.cfg.SMTPUser,
		Password: r.cfg.SMTPPassword,
		From:     r.cfg.EmailFrom,
		To:       r.cfg.EmailTo,
	})
	outcome := m.Deliver(ctx, subject, textBody, htmlBody)
	metrics.RecordDelivery(string(outcome))
	metrics.LastSuccessfulRun.SetToCurrentTime()

	log.Info().
		Int("games_found", rep.GamesFound).
		Int("stat_lines", len(rep.Lines)).
		Str("delivery", string(outcome)).
		Dur("duration", time.Since(start)).
		Msg("Digest run complete")
	return nil
}

// resolver picks the tracked-player strategy: the static allow-list is
// an exclusive override, otherwise auto-discovery with the durable
// cache. The two are never mixed.
func (r *Runner) resolver() roster.Resolver {
	if len(r.cfg.TrackedPlayerIDs) > 0 {
		log.Info().
			Int("count", len(r.cfg.TrackedPlayerIDs)).
			Msg("Using static tracked-player allow-list")
		return roster.StaticList(r.cfg.TrackedPlayerIDs)
	}

	var mirror roster.Mirror
	if r.mirror != nil {
		mirror = r.mirror
	}
	schools := roster.LoadSchoolCache(filepath.Join(r.cfg.CacheDir, schoolCacheFile), mirror)

	return roster.NewDiscovery(r.api, schools, roster.DiscoveryConfig{
		School:        r.cfg.SchoolSubstring,
		CachePath:     filepath.Join(r.cfg.CacheDir, trackedCacheFile),
		MaxAgeDays:    r.cfg.CacheMaxAgeDays,
		Retry:         roster.DefaultBiographyRetry,
		PolitenessMin: r.cfg.PolitenessMinDelay,
		PolitenessMax: r.cfg.PolitenessMaxDelay,
	})
}
