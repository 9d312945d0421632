// Package report renders a collected report into a subject line plus
// plain-text and HTML bodies.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"

	"nba-alumni-digest/internal/models"
)

var tableHeader = []string{"PLAYER", "TEAM", "OPP", "MIN", "PTS", "REB", "AST", "STL", "BLK", "TO", "FG", "3PT", "FT", "+/-"}

// Renderer formats reports for one school label, e.g. "Duke".
type Renderer struct {
	Label string
}

// Subject builds the email subject line for a report's target date.
func (r Renderer) Subject(rep *models.Report) string {
	return fmt.Sprintf("%s in the NBA — %s", r.Label, rep.Date.Format("2006-01-02"))
}

// Render produces the subject line plus the text and HTML bodies. A
// date with no games reads differently from a date with games but no
// matching alumni; those are different facts.
func (r Renderer) Render(rep *models.Report) (subject, textBody, htmlBody string) {
	return r.Subject(rep), r.renderText(rep), r.renderHTML(rep)
}

func (r Renderer) headline(rep *models.Report) string {
	return fmt.Sprintf("%s in the NBA — %s", r.Label, rep.Date.Format("Monday, January 2, 2006"))
}

func (r Renderer) emptyMessage(rep *models.Report) string {
	if rep.GamesFound == 0 {
		return "No NBA games were found on this date."
	}
	return fmt.Sprintf("No %s alumni recorded stats in the %d NBA games played on this date.",
		r.Label, rep.GamesFound)
}

func (r Renderer) renderText(rep *models.Report) string {
	var buf bytes.Buffer
	headline := r.headline(rep)
	buf.WriteString(headline + "\n")
	for range headline {
		buf.WriteByte('-')
	}
	buf.WriteString("\n\n")

	if len(rep.Lines) == 0 {
		buf.WriteString(r.emptyMessage(rep) + "\n")
		return buf.String()
	}

	table := tablewriter.NewWriter(&buf)
	table.SetHeader(tableHeader)
	table.SetBorder(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, line := range rep.Lines {
		table.Append(textRow(line))
	}
	table.Render()

	fmt.Fprintf(&buf, "\n%d games, %d stat lines.\n", rep.GamesFound, len(rep.Lines))
	return buf.String()
}

func textRow(l models.StatLine) []string {
	return []string{
		l.PlayerName,
		l.Team,
		l.Opponent,
		l.Minutes,
		strconv.Itoa(l.Points),
		strconv.Itoa(l.Rebounds),
		strconv.Itoa(l.Assists),
		strconv.Itoa(l.Steals),
		strconv.Itoa(l.Blocks),
		strconv.Itoa(l.Turnovers),
		l.FieldGoals(),
		l.ThreePointers(),
		l.FreeThrows(),
		fmt.Sprintf("%+d", l.PlusMinus),
	}
}

var htmlTmpl = template.Must(template.New("digest").Parse(`<html>
<body>
<h2>{{.Headline}}</h2>
{{if .Empty}}<p>{{.EmptyMessage}}</p>{{else}}<table border="1" cellpadding="4" cellspacing="0">
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
<p>{{.GamesFound}} games, {{.LineCount}} stat lines.</p>{{end}}
</body>
</html>
`))

func (r Renderer) renderHTML(rep *models.Report) string {
	rows := make([][]string, 0, len(rep.Lines))
	for _, line := range rep.Lines {
		rows = append(rows, textRow(line))
	}

	var buf bytes.Buffer
	err := htmlTmpl.Execute(&buf, map[string]any{
		"Headline":     r.headline(rep),
		"Empty":        len(rep.Lines) == 0,
		"EmptyMessage": r.emptyMessage(rep),
		"Header":       tableHeader,
		"Rows":         rows,
		"GamesFound":   rep.GamesFound,
		"LineCount":    len(rep.Lines),
	})
	if err != nil {
		// Template is static; execution can only fail on writer errors
		log.Error().Err(err).Msg("Failed to render HTML body")
		return ""
	}
	return buf.String()
}
