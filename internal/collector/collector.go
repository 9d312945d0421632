// Package collector turns one calendar date into a normalized report:
// it walks the scoreboard, pulls each game's box score, filters to
// tracked players, resolves opponents from the box score's own rows,
// and deduplicates.
package collector

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"nba-alumni-digest/internal/metrics"
	"nba-alumni-digest/internal/models"
	"nba-alumni-digest/internal/retry"
	"nba-alumni-digest/internal/schema"
)

// GameAPI is the slice of the provider client the collector needs.
type GameAPI interface {
	Scoreboard(ctx context.Context, date time.Time) (schema.Table, error)
	BoxScore(ctx context.Context, gameID string) (schema.Table, error)
}

// Options tunes a collector. The zero value gets defaults.
type Options struct {
	GameListRetry retry.Policy
	BoxScoreRetry retry.Policy
	// PolitenessMin/Max bound the randomized pause between per-game
	// box-score requests. Not a correctness requirement, just manners
	// toward the provider's rate limiter.
	PolitenessMin time.Duration
	PolitenessMax time.Duration
}

// DefaultOptions returns the standard retry budgets: five attempts for
// the game list, three per box score, both starting at two seconds.
func DefaultOptions() Options {
	return Options{
		GameListRetry: retry.Policy{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxJitter: 500 * time.Millisecond},
		BoxScoreRetry: retry.Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxJitter: 500 * time.Millisecond},
		PolitenessMin: 300 * time.Millisecond,
		PolitenessMax: 800 * time.Millisecond,
	}
}

// Collector owns no persistent state; everything is recomputed per
// invocation.
type Collector struct {
	api     GameAPI
	tracked map[int]struct{}
	opts    Options

	sleep func(time.Duration)
}

// New builds a collector filtering to the given tracked identifiers.
func New(api GameAPI, trackedIDs []int, opts Options) *Collector {
	if opts.GameListRetry.MaxAttempts <= 0 {
		opts.GameListRetry = DefaultOptions().GameListRetry
	}
	if opts.BoxScoreRetry.MaxAttempts <= 0 {
		opts.BoxScoreRetry = DefaultOptions().BoxScoreRetry
	}
	tracked := make(map[int]struct{}, len(trackedIDs))
	for _, id := range trackedIDs {
		tracked[id] = struct{}{}
	}
	return &Collector{
		api:     api,
		tracked: tracked,
		opts:    opts,
		sleep:   time.Sleep,
	}
}

type lineKey struct {
	playerID int
	gameID   string
}

// Collect builds the report for one date. A box score that cannot be
// fetched after retries skips that game only; the rest of the run
// continues.
func (c *Collector) Collect(ctx context.Context, date time.Time) (*models.Report, error) {
	games, err := retry.Do(ctx, c.opts.GameListRetry, "scoreboard", func() (schema.Table, error) {
		return c.api.Scoreboard(ctx, date)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard: %w", err)
	}

	report := &models.Report{Date: date}
	if games.Empty() {
		log.Info().Str("date", date.Format("2006-01-02")).Msg("No games on scoreboard")
		return report, nil
	}

	cols := schema.ResolveColumns(games.Headers)
	lines := make(map[lineKey]models.StatLine)

	for i, row := range games.Rows {
		gameID := cols.String(row, schema.FieldGameID)
		if gameID == "" {
			log.Warn().Msg("Scoreboard row has no resolvable game ID, skipping")
			continue
		}
		homeTeamID := cols.Int(row, schema.FieldHomeTeamID)
		awayTeamID := cols.Int(row, schema.FieldVisitorTeamID)
		report.GamesFound++

		log.Debug().Str("game_id", gameID).Msg("Processing game")

		box, err := retry.Do(ctx, c.opts.BoxScoreRetry, "boxscore", func() (schema.Table, error) {
			return c.api.BoxScore(ctx, gameID)
		})
		if err != nil {
			log.Warn().Err(err).Str("game_id", gameID).Msg("Box score unavailable, skipping game")
			metrics.GamesSkipped.Inc()
		} else {
			c.processGame(date, gameID, homeTeamID, awayTeamID, box, lines)
			metrics.GamesProcessed.Inc()
		}

		if i < len(games.Rows)-1 {
			c.sleep(c.politeness())
		}
	}

	report.Lines = make([]models.StatLine, 0, len(lines))
	for _, line := range lines {
		report.Lines = append(report.Lines, line)
	}
	sortLines(report.Lines)
	metrics.StatLinesCollected.Add(float64(len(report.Lines)))

	log.Info().
		Str("date", date.Format("2006-01-02")).
		Int("games_found", report.GamesFound).
		Int("stat_lines", len(report.Lines)).
		Msg("Collection complete")
	return report, nil
}

// processGame extracts tracked players' rows from one box score into
// lines, deduplicating by (player, game).
func (c *Collector) processGame(date time.Time, gameID string, homeTeamID, awayTeamID int, box schema.Table, lines map[lineKey]models.StatLine) {
	cols := schema.ResolveColumns(box.Headers)
	if !cols.Has(schema.FieldPlayerID) {
		// Schema too unfamiliar to process any row
		log.Warn().Str("game_id", gameID).Msg("Box score has no recognizable player ID column, skipping game")
		return
	}

	// Team ID to abbreviation map built from this box score's own rows;
	// no external team directory is consulted.
	abbrs := make(map[int]string)
	for _, row := range box.Rows {
		teamID := cols.Int(row, schema.FieldTeamID)
		abbr := cols.String(row, schema.FieldTeamAbbr)
		if teamID != 0 && abbr != "" {
			if _, ok := abbrs[teamID]; !ok {
				abbrs[teamID] = abbr
			}
		}
	}

	for _, row := range box.Rows {
		playerID := cols.Int(row, schema.FieldPlayerID)
		if playerID == 0 {
			continue
		}
		if _, ok := c.tracked[playerID]; !ok {
			continue
		}

		teamID := cols.Int(row, schema.FieldTeamID)
		opponentID := homeTeamID
		if teamID == homeTeamID {
			opponentID = awayTeamID
		}
		opponent := abbrs[opponentID]
		if opponent == "" {
			opponent = "UNK"
		}

		line := c.extractLine(date, gameID, playerID, opponent, cols, row)
		key := lineKey{playerID: playerID, gameID: gameID}
		if existing, ok := lines[key]; ok {
			line = betterOf(existing, line)
		}
		lines[key] = line
	}
}

// extractLine coerces one raw row into a normalized stat line. Missing
// or unparsable fields become typed zeroes.
func (c *Collector) extractLine(date time.Time, gameID string, playerID int, opponent string, cols schema.Columns, row []any) models.StatLine {
	line := models.StatLine{
		Date:     date.Format("2006-01-02"),
		GameID:   gameID,
		PlayerID: playerID,
		Team:     cols.String(row, schema.FieldTeamAbbr),
		Opponent: opponent,
		Minutes:  cols.String(row, schema.FieldMinutes),

		Points:            cols.Int(row, schema.FieldPoints),
		OffensiveRebounds: cols.Int(row, schema.FieldOffRebounds),
		DefensiveRebounds: cols.Int(row, schema.FieldDefRebounds),
		Assists:           cols.Int(row, schema.FieldAssists),
		Steals:            cols.Int(row, schema.FieldSteals),
		Blocks:            cols.Int(row, schema.FieldBlocks),
		Turnovers:         cols.Int(row, schema.FieldTurnovers),

		FieldGoalsMade:         cols.Int(row, schema.FieldFGM),
		FieldGoalsAttempted:    cols.Int(row, schema.FieldFGA),
		ThreePointersMade:      cols.Int(row, schema.FieldFG3M),
		ThreePointersAttempted: cols.Int(row, schema.FieldFG3A),
		FreeThrowsMade:         cols.Int(row, schema.FieldFTM),
		FreeThrowsAttempted:    cols.Int(row, schema.FieldFTA),

		PlusMinus: cols.Int(row, schema.FieldPlusMinus),
	}

	// Some schema versions carry only the offensive/defensive split
	if cols.Has(schema.FieldRebounds) {
		line.Rebounds = cols.Int(row, schema.FieldRebounds)
	} else {
		line.Rebounds = line.OffensiveRebounds + line.DefensiveRebounds
	}

	line.PlayerName = cols.String(row, schema.FieldPlayerName)
	if line.PlayerName == "" {
		first := cols.String(row, schema.FieldFirstName)
		last := cols.String(row, schema.FieldLastName)
		line.PlayerName = strings.TrimSpace(first + " " + last)
	}

	return line
}

// betterOf keeps the duplicate with more playing time, then more
// points. Duplicates occur from upstream data quality issues.
func betterOf(a, b models.StatLine) models.StatLine {
	am, bm := a.MinutesSeconds(), b.MinutesSeconds()
	if bm != am {
		if bm > am {
			return b
		}
		return a
	}
	if b.Points > a.Points {
		return b
	}
	return a
}

// sortLines applies the canonical report order: points descending,
// player name ascending.
func sortLines(lines []models.StatLine) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Points != lines[j].Points {
			return lines[i].Points > lines[j].Points
		}
		return lines[i].PlayerName < lines[j].PlayerName
	})
}

func (c *Collector) politeness() time.Duration {
	span := c.opts.PolitenessMax - c.opts.PolitenessMin
	if span <= 0 {
		return c.opts.PolitenessMin
	}
	return c.opts.PolitenessMin + time.Duration(rand.Int63n(int64(span)))
}
