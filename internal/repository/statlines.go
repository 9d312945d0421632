package repository

import (
	"context"
	"fmt"

	"nba-alumni-digest/internal/models"
)

// StatLineRepository archives normalized stat lines.
//
// Expected table:
//
//	CREATE TABLE stat_lines (
//	    player_id   INT  NOT NULL,
//	    game_id     TEXT NOT NULL,
//	    game_date   DATE NOT NULL,
//	    player_name TEXT NOT NULL,
//	    team        TEXT NOT NULL,
//	    opponent    TEXT NOT NULL,
//	    minutes     TEXT NOT NULL,
//	    points INT, rebounds INT, offensive_rebounds INT, defensive_rebounds INT,
//	    assists INT, steals INT, blocks INT, turnovers INT,
//	    fgm INT, fga INT, fg3m INT, fg3a INT, ftm INT, fta INT,
//	    plus_minus INT,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (player_id, game_id)
//	)
type StatLineRepository struct {
	db *Database
}

// Upsert writes one stat line, keyed by (player_id, game_id) to match
// the report's dedup invariant.
func (r *StatLineRepository) Upsert(ctx context.Context, line *models.StatLine) error {
	query := `
		INSERT INTO stat_lines (
			player_id, game_id, game_date, player_name, team, opponent, minutes,
			points, rebounds, offensive_rebounds, defensive_rebounds,
			assists, steals, blocks, turnovers,
			fgm, fga, fg3m, fg3a, ftm, fta, plus_minus
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22
		)
		ON CONFLICT (player_id, game_id) DO UPDATE SET
			player_name = EXCLUDED.player_name,
			team = EXCLUDED.team,
			opponent = EXCLUDED.opponent,
			minutes = EXCLUDED.minutes,
			points = EXCLUDED.points,
			rebounds = EXCLUDED.rebounds,
			offensive_rebounds = EXCLUDED.offensive_rebounds,
			defensive_rebounds = EXCLUDED.defensive_rebounds,
			assists = EXCLUDED.assists,
			steals = EXCLUDED.steals,
			blocks = EXCLUDED.blocks,
			turnovers = EXCLUDED.turnovers,
			fgm = EXCLUDED.fgm,
			fga = EXCLUDED.fga,
			fg3m = EXCLUDED.fg3m,
			fg3a = EXCLUDED.fg3a,
			ftm = EXCLUDED.ftm,
			fta = EXCLUDED.fta,
			plus_minus = EXCLUDED.plus_minus,
			updated_at = NOW()
	`

	_, err := r.db.Pool.Exec(ctx, query,
		line.PlayerID, line.GameID, line.Date, line.PlayerName, line.Team, line.Opponent, line.Minutes,
		line.Points, line.Rebounds, line.OffensiveRebounds, line.DefensiveRebounds,
		line.Assists, line.Steals, line.Blocks, line.Turnovers,
		line.FieldGoalsMade, line.FieldGoalsAttempted,
		line.ThreePointersMade, line.ThreePointersAttempted,
		line.FreeThrowsMade, line.FreeThrowsAttempted,
		line.PlusMinus,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stat line: %w", err)
	}
	return nil
}

// ListByDate returns the archived stat lines for one calendar date, in
// the canonical report order.
func (r *StatLineRepository) ListByDate(ctx context.Context, date string) ([]models.StatLine, error) {
	query := `
		SELECT
			player_id, game_id, game_date::text, player_name, team, opponent, minutes,
			points, rebounds, offensive_rebounds, defensive_rebounds,
			assists, steals, blocks, turnovers,
			fgm, fga, fg3m, fg3a, ftm, fta, plus_minus
		FROM stat_lines
		WHERE game_date = $1
		ORDER BY points DESC, player_name ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list stat lines: %w", err)
	}
	defer rows.Close()

	var lines []models.StatLine
	for rows.Next() {
		var l models.StatLine
		err := rows.Scan(
			&l.PlayerID, &l.GameID, &l.Date, &l.PlayerName, &l.Team, &l.Opponent, &l.Minutes,
			&l.Points, &l.Rebounds, &l.OffensiveRebounds, &l.DefensiveRebounds,
			&l.Assists, &l.Steals, &l.Blocks, &l.Turnovers,
			&l.FieldGoalsMade, &l.FieldGoalsAttempted,
			&l.ThreePointersMade, &l.ThreePointersAttempted,
			&l.FreeThrowsMade, &l.FreeThrowsAttempted,
			&l.PlusMinus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stat line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
