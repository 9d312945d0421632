// Package client talks to the stats provider. Responses arrive in the
// provider's result-set format: named tables of header rows plus untyped
// data rows. The client performs single attempts only; retry policy is
// applied at the call sites so each caller controls its own budget.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"nba-alumni-digest/internal/metrics"
	"nba-alumni-digest/internal/schema"
)

const (
	endpointScoreboard    = "scoreboardv2"
	endpointBoxScore      = "boxscoretraditionalv2"
	endpointPlayerInfo    = "commonplayerinfo"
	endpointActivePlayers = "commonallplayers"

	setGameHeader    = "GameHeader"
	setPlayerStats   = "PlayerStats"
	setPlayerInfo    = "CommonPlayerInfo"
	setActivePlayers = "CommonAllPlayers"
)

// Client is the stats provider API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a stats provider client with the given request timeout
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// StatusError is a non-200 response from the provider.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.Code, e.Body)
}

// Transient reports whether the status signals upstream overload worth
// retrying rather than a caller error.
func (e *StatusError) Transient() bool {
	switch e.Code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// resultSetsResponse is the provider's wire envelope.
type resultSetsResponse struct {
	ResultSets []struct {
		Name    string   `json:"name"`
		Headers []string `json:"headers"`
		RowSet  [][]any  `json:"rowSet"`
	} `json:"resultSets"`
}

// get performs one GET request and decodes the result-set envelope
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string) ([]schema.Table, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/%s", c.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The provider rejects requests without browser-looking headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	q := req.URL.Query()
	for key, value := range params {
		q.Add(key, value)
	}
	req.URL.RawQuery = q.Encode()

	log.Debug().
		Str("endpoint", endpoint).
		Str("url", req.URL.String()).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(endpoint, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordAPICall(endpoint, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	metrics.RecordAPICall(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: truncate(body, 200)}
	}

	var payload resultSetsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", endpoint, err)
	}

	tables := make([]schema.Table, 0, len(payload.ResultSets))
	for _, rs := range payload.ResultSets {
		tables = append(tables, schema.Table{
			Name:    rs.Name,
			Headers: rs.Headers,
			Rows:    rs.RowSet,
		})
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("result_sets", len(tables)).
		Int("size", len(body)).
		Msg("API request successful")
	return tables, nil
}

// table fetches an endpoint and picks out one named result set
func (c *Client) table(ctx context.Context, endpoint, setName string, params map[string]string) (schema.Table, error) {
	tables, err := c.get(ctx, endpoint, params)
	if err != nil {
		return schema.Table{}, err
	}
	for _, t := range tables {
		if t.Name == setName {
			return t, nil
		}
	}
	for _, t := range tables {
		if strings.EqualFold(t.Name, setName) {
			return t, nil
		}
	}
	return schema.Table{}, fmt.Errorf("%s response has no %q result set", endpoint, setName)
}

// Scoreboard fetches the game list for a calendar date
func (c *Client) Scoreboard(ctx context.Context, date time.Time) (schema.Table, error) {
	return c.table(ctx, endpointScoreboard, setGameHeader, map[string]string{
		"GameDate":  date.Format("01/02/2006"),
		"LeagueID":  "00",
		"DayOffset": "0",
	})
}

// BoxScore fetches the per-player stats table for a game
func (c *Client) BoxScore(ctx context.Context, gameID string) (schema.Table, error) {
	return c.table(ctx, endpointBoxScore, setPlayerStats, map[string]string{
		"GameID": gameID,
	})
}

// PlayerInfo fetches the biographical record for a player
func (c *Client) PlayerInfo(ctx context.Context, playerID int) (schema.Table, error) {
	return c.table(ctx, endpointPlayerInfo, setPlayerInfo, map[string]string{
		"PlayerID": strconv.Itoa(playerID),
	})
}

// ActivePlayers fetches the current-season roster listing
func (c *Client) ActivePlayers(ctx context.Context) (schema.Table, error) {
	return c.table(ctx, endpointActivePlayers, setActivePlayers, map[string]string{
		"LeagueID":            "00",
		"Season":              seasonString(time.Now()),
		"IsOnlyCurrentSeason": "1",
	})
}

// seasonString returns the season label the provider expects, e.g. "2025-26".
// Seasons roll over in the offseason summer months.
func seasonString(now time.Time) string {
	year := now.Year()
	if now.Month() < time.July {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
