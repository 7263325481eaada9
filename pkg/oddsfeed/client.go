// Package oddsfeed fetches reference moneyline odds for upcoming games
// from The Odds API, with a mock generator when no key is configured.
package oddsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/sharpmismatch/sportsagent/pkg/match"
	"github.com/sharpmismatch/sportsagent/pkg/models"
)

const (
	// DefaultBaseURL is The Odds API v4 base URL.
	DefaultBaseURL = "https://api.the-odds-api.com/v4"

	defaultRateLimit = 1.0 // requests per second
	defaultBurst     = 2
)

// sportKeys maps league names to The Odds API sport keys.
var sportKeys = map[string]string{
	"NBA":   "basketball_nba",
	"NFL":   "americanfootball_nfl",
	"NHL":   "icehockey_nhl",
	"MLB":   "baseball_mlb",
	"EPL":   "soccer_epl",
	"UCL":   "soccer_uefa_champs_league",
	"NCAAB": "basketball_ncaab",
	"NCAAF": "americanfootball_ncaaf",
}

// Client fetches head-to-head odds per league and matches events back
// to games. Without an API key it serves mock odds tagged with the
// mock source so callers can refuse to trade on them.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	matcher    *match.Matcher
	rng        *rand.Rand
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRandSource seeds the mock odds generator.
func WithRandSource(seed int64) ClientOption {
	return func(c *Client) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// NewClient creates an odds feed client. An empty apiKey switches the
// client to mock odds.
func NewClient(apiKey string, matcher *match.Matcher, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		matcher: matcher,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if c.matcher == nil {
		c.matcher = match.NewMatcher(nil)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type apiOutcome struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

type apiMarket struct {
	Key      string       `json:"key"`
	Outcomes []apiOutcome `json:"outcomes"`
}

type apiBookmaker struct {
	Key     string      `json:"key"`
	Markets []apiMarket `json:"markets"`
}

type apiEvent struct {
	ID           string         `json:"id"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []apiBookmaker `json:"bookmakers"`
}

// FetchReferenceOdds returns reference odds keyed by game ID. Games in
// leagues without a sport key, or with no matching event, are absent
// from the result. With no API key every game gets mock odds instead.
func (c *Client) FetchReferenceOdds(ctx context.Context, games []models.Game) (map[string]models.ReferenceOdds, error) {
	if c.apiKey == "" {
		return c.mockOdds(games), nil
	}

	byLeague := make(map[string][]models.Game)
	for _, g := range games {
		byLeague[g.League] = append(byLeague[g.League], g)
	}

	refOdds := make(map[string]models.ReferenceOdds)
	for league, leagueGames := range byLeague {
		sportKey, ok := sportKeys[league]
		if !ok {
			slog.Debug("no sport key for league", "league", league)
			continue
		}

		events, err := c.fetchSport(ctx, sportKey)
		if err != nil {
			slog.Warn("odds fetch failed", "league", league, "error", err)
			continue
		}

		matched := 0
		for _, game := range leagueGames {
			event := c.findEvent(game, events)
			if event == nil {
				slog.Debug("no odds event for game",
					"game_id", game.GameID, "team_a", game.TeamA, "team_b", game.TeamB)
				continue
			}

			homeOdds, awayOdds, ok := c.bestOdds(event)
			if !ok {
				continue
			}

			teamAOdds, teamBOdds := homeOdds, awayOdds
			if c.matcher.Match(game.TeamA, event.HomeTeam, event.AwayTeam) == match.MatchedB {
				teamAOdds, teamBOdds = awayOdds, homeOdds
			}

			refOdds[game.GameID] = models.ReferenceOdds{
				GameID:            game.GameID,
				TeamAAmericanOdds: teamAOdds,
				TeamBAmericanOdds: teamBOdds,
				Source:            models.OddsSourceAPI,
				Timestamp:         time.Now(),
			}
			matched++
		}
		slog.Info("matched reference odds",
			"league", league, "matched", matched, "games", len(leagueGames))
	}

	return refOdds, nil
}

func (c *Client) fetchSport(ctx context.Context, sportKey string) ([]apiEvent, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", "us")
	params.Set("markets", "h2h")
	params.Set("oddsFormat", "american")

	reqURL := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, sportKey, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching odds: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("odds API key rejected")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("odds API returned %d: %s", resp.StatusCode, string(body))
	}

	if remaining := resp.Header.Get("x-requests-remaining"); remaining == "0" {
		slog.Warn("odds API quota exhausted")
	}

	var events []apiEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return events, nil
}

// findEvent matches a game to an odds event by matching both team
// names against the event's home and away sides.
func (c *Client) findEvent(game models.Game, events []apiEvent) *apiEvent {
	for i := range events {
		e := &events[i]
		resA := c.matcher.Match(game.TeamA, e.HomeTeam, e.AwayTeam)
		resB := c.matcher.Match(game.TeamB, e.HomeTeam, e.AwayTeam)
		if resA == match.NoMatch || resA == match.Ambiguous {
			continue
		}
		if resB == match.NoMatch || resB == match.Ambiguous {
			continue
		}
		if resA != resB {
			return e
		}
	}
	return nil
}

// bestOdds picks the most favorable price for each side across all
// bookmakers' h2h markets.
func (c *Client) bestOdds(event *apiEvent) (homeOdds, awayOdds int, ok bool) {
	var haveHome, haveAway bool

	for _, bm := range event.Bookmakers {
		for _, m := range bm.Markets {
			if m.Key != "h2h" {
				continue
			}
			for _, outcome := range m.Outcomes {
				switch c.matcher.Match(outcome.Name, event.HomeTeam, event.AwayTeam) {
				case match.MatchedA:
					if !haveHome || outcome.Price > homeOdds {
						homeOdds = outcome.Price
						haveHome = true
					}
				case match.MatchedB:
					if !haveAway || outcome.Price > awayOdds {
						awayOdds = outcome.Price
						haveAway = true
					}
				}
			}
		}
	}

	return homeOdds, awayOdds, haveHome && haveAway
}

// mockOdds generates a random favorite/underdog pair per game.
func (c *Client) mockOdds(games []models.Game) map[string]models.ReferenceOdds {
	slog.Debug("generating mock odds", "games", len(games))

	refOdds := make(map[string]models.ReferenceOdds, len(games))
	for _, game := range games {
		favorite := -(110 + c.rng.Intn(91)) // -110 to -200
		underdog := 110 + c.rng.Intn(141)   // +110 to +250
		teamAOdds, teamBOdds := favorite, underdog
		if c.rng.Intn(2) == 0 {
			teamAOdds, teamBOdds = underdog, favorite
		}

		refOdds[game.GameID] = models.ReferenceOdds{
			GameID:            game.GameID,
			TeamAAmericanOdds: teamAOdds,
			TeamBAmericanOdds: teamBOdds,
			Source:            models.OddsSourceMock,
			Timestamp:         time.Now(),
		}
	}
	return refOdds
}
