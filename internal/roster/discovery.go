package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"nba-alumni-digest/internal/metrics"
	"nba-alumni-digest/internal/models"
	"nba-alumni-digest/internal/retry"
	"nba-alumni-digest/internal/schema"
)

// StatsAPI is the slice of the provider client that discovery needs.
type StatsAPI interface {
	ActivePlayers(ctx context.Context) (schema.Table, error)
	PlayerInfo(ctx context.Context, playerID int) (schema.Table, error)
}

// DefaultBiographyRetry is the retry budget for per-player biography
// lookups during discovery.
var DefaultBiographyRetry = retry.Policy{
	MaxAttempts: 4,
	BaseDelay:   2 * time.Second,
	MaxJitter:   500 * time.Millisecond,
}

// DiscoveryConfig tunes an auto-discovery pass.
type DiscoveryConfig struct {
	// School is the target substring, matched case-insensitively
	// against the biography school field.
	School string
	// CachePath is the tracked-player cache file.
	CachePath string
	// MaxAgeDays is the cache freshness window; a cache exactly at the
	// boundary is still fresh.
	MaxAgeDays int
	// Retry is the per-player biography retry policy.
	Retry retry.Policy
	// PolitenessMin/Max bound the randomized pause between biography
	// probes that actually hit the provider.
	PolitenessMin time.Duration
	PolitenessMax time.Duration
}

// Discovery resolves tracked players by probing the biography field of
// every active player, with a durable time-boxed cache in front.
type Discovery struct {
	api     StatsAPI
	schools *SchoolCache
	cfg     DiscoveryConfig

	now   func() time.Time
	sleep func(time.Duration)
}

// NewDiscovery builds the auto-discovery resolver. Zero-valued retry or
// missing attempt counts fall back to DefaultBiographyRetry.
func NewDiscovery(api StatsAPI, schools *SchoolCache, cfg DiscoveryConfig) *Discovery {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultBiographyRetry
	}
	cfg.School = strings.ToLower(cfg.School)
	return &Discovery{
		api:     api,
		schools: schools,
		cfg:     cfg,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// cacheFile is the durable tracked-player document: a generation
// timestamp plus the identifier list, with optional per-player detail
// for debugging.
type cacheFile struct {
	Timestamp string                 `json:"timestamp"`
	PlayerIDs []int                  `json:"player_ids"`
	Players   []models.TrackedPlayer `json:"players,omitempty"`
}

// Resolve returns the tracked identifier set, from the cache when it is
// fresh and non-empty, otherwise by a full discovery pass. A pass that
// finds nothing returns the empty set without overwriting the previous
// cache; the caller must treat that as "cannot proceed".
func (d *Discovery) Resolve(ctx context.Context) ([]int, error) {
	if ids, ok := d.loadCache(); ok {
		log.Info().Int("count", len(ids)).Msg("Using cached tracked-player list")
		return ids, nil
	}

	log.Info().Str("school", d.cfg.School).Msg("Refreshing tracked-player list from provider")

	listing, err := retry.Do(ctx, d.cfg.Retry, "active_players", func() (schema.Table, error) {
		return d.api.ActivePlayers(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active players: %w", err)
	}

	cols := schema.ResolveColumns(listing.Headers)
	var ids []int
	var detail []models.TrackedPlayer

	for _, row := range listing.Rows {
		playerID := cols.Int(row, schema.FieldPlayerID)
		if playerID == 0 {
			continue
		}
		if cols.Has(schema.FieldRosterStatus) && cols.Int(row, schema.FieldRosterStatus) == 0 {
			continue
		}
		name := cols.String(row, schema.FieldPlayerName)

		school, cached, err := d.lookupSchool(ctx, playerID)
		if err != nil {
			log.Warn().
				Err(err).
				Int("player_id", playerID).
				Str("player", name).
				Msg("Biography lookup failed, skipping player")
			continue
		}

		if strings.Contains(strings.ToLower(school), d.cfg.School) {
			ids = append(ids, playerID)
			detail = append(detail, models.TrackedPlayer{ID: playerID, Name: name, School: school})
			log.Info().
				Int("player_id", playerID).
				Str("player", name).
				Str("school", school).
				Msg("Tracked player discovered")
		}

		if !cached {
			d.sleep(d.politeness())
		}
	}

	log.Info().Int("count", len(ids)).Msg("Tracked-player discovery complete")

	if len(ids) > 0 {
		d.saveCache(ids, detail)
	}
	return ids, nil
}

// lookupSchool resolves a player's school, from the durable cache when
// possible. The cached flag tells the caller whether the provider was hit.
func (d *Discovery) lookupSchool(ctx context.Context, playerID int) (school string, cached bool, err error) {
	if school, ok := d.schools.Get(ctx, playerID); ok {
		metrics.RecordSchoolCacheHit()
		return school, true, nil
	}
	metrics.RecordSchoolCacheMiss()

	info, err := retry.Do(ctx, d.cfg.Retry, "player_info", func() (schema.Table, error) {
		return d.api.PlayerInfo(ctx, playerID)
	})
	if err != nil {
		return "", false, err
	}

	cols := schema.ResolveColumns(info.Headers)
	if !info.Empty() {
		school = cols.String(info.Rows[0], schema.FieldSchool)
	}

	if err := d.schools.Put(ctx, playerID, school); err != nil {
		log.Warn().Err(err).Int("player_id", playerID).Msg("Failed to cache school lookup")
	}
	return school, false, nil
}

func (d *Discovery) loadCache() ([]int, bool) {
	raw, err := os.ReadFile(d.cfg.CachePath)
	if err != nil {
		return nil, false
	}

	var cf cacheFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		// Malformed cache is a miss, not a crash
		log.Warn().Err(err).Str("path", d.cfg.CachePath).Msg("Tracked-player cache malformed, forcing rediscovery")
		return nil, false
	}

	ts, err := time.Parse(time.RFC3339, cf.Timestamp)
	if err != nil {
		log.Warn().Str("timestamp", cf.Timestamp).Msg("Tracked-player cache has bad timestamp, forcing rediscovery")
		return nil, false
	}

	ageDays := int(d.now().Sub(ts).Hours() / 24)
	if ageDays > d.cfg.MaxAgeDays {
		log.Info().
			Int("age_days", ageDays).
			Int("max_age_days", d.cfg.MaxAgeDays).
			Msg("Tracked-player cache is stale")
		return nil, false
	}

	if len(cf.PlayerIDs) == 0 {
		return nil, false
	}
	return cf.PlayerIDs, true
}

func (d *Discovery) saveCache(ids []int, detail []models.TrackedPlayer) {
	payload := cacheFile{
		Timestamp: d.now().UTC().Format(time.RFC3339),
		PlayerIDs: ids,
		Players:   detail,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal tracked-player cache")
		return
	}
	if err := os.WriteFile(d.cfg.CachePath, data, 0o644); err != nil {
		log.Error().Err(err).Str("path", d.cfg.CachePath).Msg("Failed to write tracked-player cache")
		return
	}
	log.Info().Str("path", d.cfg.CachePath).Int("count", len(ids)).Msg("Tracked-player cache written")
}

func (d *Discovery) politeness() time.Duration {
	span := d.cfg.PolitenessMax - d.cfg.PolitenessMin
	if span <= 0 {
		return d.cfg.PolitenessMin
	}
	return d.cfg.PolitenessMin + time.Duration(rand.Int63n(int64(span)))
}
