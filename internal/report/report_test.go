package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nba-alumni-digest/internal/models"
)

var reportDate = time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

func sampleLine() models.StatLine {
	return models.StatLine{
		Date:                   "2026-02-14",
		GameID:                 "G1",
		PlayerID:               555,
		PlayerName:             "Alumni Guard",
		Team:                   "AAA",
		Opponent:               "BBB",
		Minutes:                "32:10",
		Points:                 20,
		Rebounds:               5,
		Assists:                4,
		Steals:                 1,
		Blocks:                 0,
		Turnovers:              2,
		FieldGoalsMade:         7,
		FieldGoalsAttempted:    14,
		ThreePointersMade:      2,
		ThreePointersAttempted: 5,
		FreeThrowsMade:         4,
		FreeThrowsAttempted:    4,
		PlusMinus:              -6,
	}
}

func TestSubject(t *testing.T) {
	r := Renderer{Label: "Duke"}
	rep := &models.Report{Date: reportDate}

	assert.Equal(t, "Duke in the NBA — 2026-02-14", r.Subject(rep))
}

func TestRender_NoGamesMessage(t *testing.T) {
	r := Renderer{Label: "Duke"}
	rep := &models.Report{Date: reportDate, GamesFound: 0}

	_, text, html := r.Render(rep)
	assert.Contains(t, text, "No NBA games were found on this date.")
	assert.Contains(t, html, "No NBA games were found on this date.")
	assert.NotContains(t, text, "alumni", "No-games and no-alumni are different facts")
}

func TestRender_NoAlumniMessage(t *testing.T) {
	r := Renderer{Label: "Duke"}
	rep := &models.Report{Date: reportDate, GamesFound: 7}

	_, text, html := r.Render(rep)
	assert.Contains(t, text, "No Duke alumni recorded stats in the 7 NBA games played on this date.")
	assert.Contains(t, html, "No Duke alumni recorded stats in the 7 NBA games played on this date.")
	assert.NotContains(t, text, "No NBA games were found")
}

func TestRender_TextBodyContent(t *testing.T) {
	r := Renderer{Label: "Duke"}
	rep := &models.Report{
		Date:       reportDate,
		GamesFound: 3,
		Lines:      []models.StatLine{sampleLine()},
	}

	_, text, _ := r.Render(rep)

	assert.Contains(t, text, "Duke in the NBA — Saturday, February 14, 2026")
	assert.Contains(t, text, "Alumni Guard")
	assert.Contains(t, text, "AAA")
	assert.Contains(t, text, "BBB")
	assert.Contains(t, text, "32:10")
	assert.Contains(t, text, "7-14", "Field goals render as made-attempted")
	assert.Contains(t, text, "2-5")
	assert.Contains(t, text, "4-4")
	assert.Contains(t, text, "-6", "Plus-minus carries its sign")
	assert.Contains(t, text, "3 games, 1 stat lines.")
}

func TestRender_HTMLBodyContent(t *testing.T) {
	r := Renderer{Label: "Duke"}
	rep := &models.Report{
		Date:       reportDate,
		GamesFound: 2,
		Lines:      []models.StatLine{sampleLine()},
	}

	_, _, html := r.Render(rep)

	assert.Contains(t, html, "<h2>Duke in the NBA — Saturday, February 14, 2026</h2>")
	assert.Contains(t, html, "<th>PLAYER</th>")
	assert.Contains(t, html, "<td>Alumni Guard</td>")
	assert.Contains(t, html, "<td>7-14</td>")
	assert.Contains(t, html, "2 games, 1 stat lines.")
}

func TestRender_PositivePlusMinusCarriesSign(t *testing.T) {
	line := sampleLine()
	line.PlusMinus = 11

	row := textRow(line)
	assert.Equal(t, "+11", row[len(row)-1])
}
