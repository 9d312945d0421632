// Package schema isolates upstream box-score schema drift from the
// extraction logic. Column names have changed incompatibly across
// versions of the stats provider, so every semantically-typed field is
// resolved through an ordered alias table rather than ad hoc string
// matching at each call site.
package schema

import (
	"strconv"
	"strings"
)

// Table is one named result set from the stats provider: an ordered
// header row plus untyped data rows, exactly as they arrive on the wire.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Empty reports whether the table carries no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Field identifies a semantically-typed column independent of the
// upstream schema version that produced it.
type Field string

const (
	FieldPlayerID      Field = "player_id"
	FieldPlayerName    Field = "player_name"
	FieldFirstName     Field = "first_name"
	FieldLastName      Field = "last_name"
	FieldTeamID        Field = "team_id"
	FieldTeamAbbr      Field = "team_abbreviation"
	FieldMinutes       Field = "minutes"
	FieldPoints        Field = "points"
	FieldRebounds      Field = "rebounds"
	FieldOffRebounds   Field = "offensive_rebounds"
	FieldDefRebounds   Field = "defensive_rebounds"
	FieldAssists       Field = "assists"
	FieldSteals        Field = "steals"
	FieldBlocks        Field = "blocks"
	FieldTurnovers     Field = "turnovers"
	FieldFGM           Field = "fgm"
	FieldFGA           Field = "fga"
	FieldFG3M          Field = "fg3m"
	FieldFG3A          Field = "fg3a"
	FieldFTM           Field = "ftm"
	FieldFTA           Field = "fta"
	FieldPlusMinus     Field = "plus_minus"
	FieldSchool        Field = "school"
	FieldRosterStatus  Field = "roster_status"
	FieldGameID        Field = "game_id"
	FieldHomeTeamID    Field = "home_team_id"
	FieldVisitorTeamID Field = "visitor_team_id"
)

// aliases maps each field to the known raw column names, most-preferred
// first. The ordering reflects schema versions observed upstream.
var aliases = map[Field][]string{
	FieldPlayerID:      {"PLAYER_ID", "PERSON_ID", "personId"},
	FieldPlayerName:    {"PLAYER_NAME", "DISPLAY_FIRST_LAST"},
	FieldFirstName:     {"PLAYER_FIRST_NAME", "FIRST_NAME", "firstName"},
	FieldLastName:      {"PLAYER_LAST_NAME", "LAST_NAME", "familyName"},
	FieldTeamID:        {"TEAM_ID", "teamId"},
	FieldTeamAbbr:      {"TEAM_ABBREVIATION", "TEAM_ABBR", "teamTricode"},
	FieldMinutes:       {"MIN", "MINUTES", "minutes"},
	FieldPoints:        {"PTS", "POINTS", "points"},
	FieldRebounds:      {"REB", "TOT_REB", "reboundsTotal"},
	FieldOffRebounds:   {"OREB", "OFF_REB", "reboundsOffensive"},
	FieldDefRebounds:   {"DREB", "DEF_REB", "reboundsDefensive"},
	FieldAssists:       {"AST", "ASSISTS", "assists"},
	FieldSteals:        {"STL", "STEALS", "steals"},
	FieldBlocks:        {"BLK", "BLOCKS", "blocks"},
	FieldTurnovers:     {"TO", "TOV", "TURNOVERS", "turnovers"},
	FieldFGM:           {"FGM", "FIELD_GOALS_MADE", "fieldGoalsMade"},
	FieldFGA:           {"FGA", "FIELD_GOALS_ATTEMPTED", "fieldGoalsAttempted"},
	FieldFG3M:          {"FG3M", "THREE_POINTERS_MADE", "threePointersMade"},
	FieldFG3A:          {"FG3A", "THREE_POINTERS_ATTEMPTED", "threePointersAttempted"},
	FieldFTM:           {"FTM", "FREE_THROWS_MADE", "freeThrowsMade"},
	FieldFTA:           {"FTA", "FREE_THROWS_ATTEMPTED", "freeThrowsAttempted"},
	FieldPlusMinus:     {"PLUS_MINUS", "PLUS_MINUS_POINTS", "plusMinusPoints"},
	FieldSchool:        {"SCHOOL", "COLLEGE", "SCHOOL_NAME"},
	FieldRosterStatus:  {"ROSTERSTATUS", "ROSTER_STATUS"},
	FieldGameID:        {"GAME_ID", "gameId"},
	FieldHomeTeamID:    {"HOME_TEAM_ID", "homeTeamId"},
	FieldVisitorTeamID: {"VISITOR_TEAM_ID", "AWAY_TEAM_ID", "awayTeamId"},
}

// FindColumn returns the index of the first candidate present in
// headers. Exact matches win over case-insensitive ones. Absence is not
// an error; callers substitute a typed default.
func FindColumn(headers []string, candidates []string) (int, bool) {
	for _, want := range candidates {
		for i, h := range headers {
			if h == want {
				return i, true
			}
		}
	}
	for _, want := range candidates {
		for i, h := range headers {
			if strings.EqualFold(h, want) {
				return i, true
			}
		}
	}
	return 0, false
}

// Columns maps resolved fields to column indexes for one header row.
type Columns map[Field]int

// ResolveColumns runs the alias table against a header row once, so row
// extraction is plain index lookups.
func ResolveColumns(headers []string) Columns {
	cols := make(Columns)
	for field, names := range aliases {
		if idx, ok := FindColumn(headers, names); ok {
			cols[field] = idx
		}
	}
	return cols
}

// Has reports whether the field resolved to any column.
func (c Columns) Has(f Field) bool {
	_, ok := c[f]
	return ok
}

// String extracts the field from a row as text. Missing columns, short
// rows, and nil cells yield "".
func (c Columns) String(row []any, f Field) string {
	idx, ok := c[f]
	if !ok || idx >= len(row) {
		return ""
	}
	switch v := row[idx].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int extracts the field from a row as an integer. Any conversion
// failure yields 0, never an error; upstream schema volatility is
// expected, not exceptional.
func (c Columns) Int(row []any, f Field) int {
	idx, ok := c[f]
	if !ok || idx >= len(row) {
		return 0
	}
	switch v := row[idx].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if ferr != nil {
				return 0
			}
			return int(f)
		}
		return n
	default:
		return 0
	}
}
