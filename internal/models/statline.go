package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StatLine is the normalized box-score row for one player in one game.
// Exactly one line exists per (player, game) pair in the final report.
type StatLine struct {
	Date     string `db:"game_date"`
	GameID   string `db:"game_id"`
	PlayerID int    `db:"player_id"`

	PlayerName string `db:"player_name"`
	Team       string `db:"team"`
	Opponent   string `db:"opponent"`

	// Minutes is kept as the upstream string, either "MM:SS" or a
	// decimal-minute value.
	Minutes string `db:"minutes"`

	Points            int `db:"points"`
	Rebounds          int `db:"rebounds"`
	OffensiveRebounds int `db:"offensive_rebounds"`
	DefensiveRebounds int `db:"defensive_rebounds"`
	Assists           int `db:"assists"`
	Steals            int `db:"steals"`
	Blocks            int `db:"blocks"`
	Turnovers         int `db:"turnovers"`

	FieldGoalsMade         int `db:"fgm"`
	FieldGoalsAttempted    int `db:"fga"`
	ThreePointersMade      int `db:"fg3m"`
	ThreePointersAttempted int `db:"fg3a"`
	FreeThrowsMade         int `db:"ftm"`
	FreeThrowsAttempted    int `db:"fta"`

	PlusMinus int `db:"plus_minus"`
}

// FieldGoals renders the field-goal split as "made-attempted".
func (l StatLine) FieldGoals() string {
	return fmt.Sprintf("%d-%d", l.FieldGoalsMade, l.FieldGoalsAttempted)
}

// ThreePointers renders the three-point split as "made-attempted".
func (l StatLine) ThreePointers() string {
	return fmt.Sprintf("%d-%d", l.ThreePointersMade, l.ThreePointersAttempted)
}

// FreeThrows renders the free-throw split as "made-attempted".
func (l StatLine) FreeThrows() string {
	return fmt.Sprintf("%d-%d", l.FreeThrowsMade, l.FreeThrowsAttempted)
}

// MinutesSeconds converts the Minutes string to whole seconds for
// comparison. Accepts "MM:SS" and decimal-minute forms; anything else
// counts as zero.
func (l StatLine) MinutesSeconds() int {
	s := strings.TrimSpace(l.Minutes)
	if s == "" {
		return 0
	}
	if mm, ss, ok := strings.Cut(s, ":"); ok {
		m, err1 := strconv.Atoi(strings.TrimSpace(mm))
		sec, err2 := strconv.Atoi(strings.TrimSpace(ss))
		if err1 != nil || err2 != nil {
			return 0
		}
		return m*60 + sec
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f * 60)
}

// Report is the ordered set of stat lines for one calendar date.
// GamesFound counts games on the scoreboard, including games whose box
// score could not be fetched.
type Report struct {
	Date       time.Time
	GamesFound int
	Lines      []StatLine
}

// TrackedPlayer is one discovered alumni entry as persisted in the
// tracked-player cache for debugging.
type TrackedPlayer struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	School string `json:"school"`
}
