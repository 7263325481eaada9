// Package exchange is a REST client for a Kalshi-style prediction
// exchange: signed portfolio reads, sports market listings, and limit
// order placement.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/sharpmismatch/sportsagent/pkg/models"
)

const (
	// DefaultBaseURL points at the demo environment. Production is
	// selected through configuration.
	DefaultBaseURL = "https://api.demo.kalshi.com/trade-api/v2"

	defaultRateLimit = 10.0 // requests per second
	defaultBurst     = 5
)

// Single-game winner series polled each cycle.
var sportsSeries = []string{
	"KXNBAGAME",
	"KXNFLGAME",
	"KXEPLGAME",
	"KXUCLGAME",
	"KXNHLGAME",
	"KXMLBGAME",
}

// Client is an exchange API client. A nil Credentials leaves requests
// unsigned, which the demo environment accepts for reads.
type Client struct {
	baseURL    string
	basePath   string // URL path prefix included in signatures
	creds      *Credentials
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
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

// NewClient creates an exchange client.
func NewClient(creds *Credentials, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	if u, err := url.Parse(c.baseURL); err == nil {
		c.basePath = u.Path
	}

	return c
}

// Authenticated reports whether the client holds signing credentials.
func (c *Client) Authenticated() bool { return c.creds != nil }

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.creds != nil {
		headers, err := c.creds.SignRequest(method, c.basePath+endpoint)
		if err != nil {
			return fmt.Errorf("signing request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s returned %d: %s", method, endpoint, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// GetBalance fetches the cash balance in dollars.
func (c *Client) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	var resp balanceResponse
	if err := c.do(ctx, http.MethodGet, "/portfolio/balance", nil, nil, &resp); err != nil {
		return decimal.Zero, err
	}
	// Balance arrives in cents.
	return decimal.NewFromInt(resp.Balance).Div(decimal.NewFromInt(100)), nil
}

// GetPositions fetches all open positions.
func (c *Client) GetPositions(ctx context.Context) ([]models.Position, error) {
	var resp positionsResponse
	if err := c.do(ctx, http.MethodGet, "/portfolio/positions", nil, nil, &resp); err != nil {
		return nil, err
	}

	positions := make([]models.Position, 0, len(resp.Positions))
	for _, p := range resp.Positions {
		if p.Position == 0 {
			continue
		}
		avgPrice := float64(p.AveragePrice) / 100.0
		gameID, team := parseTicker(p.Ticker, "")
		positions = append(positions, models.Position{
			MarketID:        p.Ticker,
			GameID:          gameID,
			Team:            team,
			League:          extractLeague(p.Ticker, ""),
			Quantity:        p.Position,
			AveragePrice:    avgPrice,
			CurrentYesPrice: float64(p.CurrentYesPrice) / 100.0,
			UnrealizedPnL:   decimal.NewFromInt(p.UnrealizedPnL).Div(decimal.NewFromInt(100)),
			MaxLoss:         decimal.NewFromInt(int64(p.Position)).Mul(decimal.NewFromFloat(avgPrice)),
		})
	}
	return positions, nil
}

// ListSportsMarkets fetches open single-game winner markets across all
// supported series. A series that fails is skipped so one bad sport
// does not sink the whole poll.
func (c *Client) ListSportsMarkets(ctx context.Context) ([]models.Market, error) {
	var all []apiMarket
	for _, series := range sportsSeries {
		query := url.Values{}
		query.Set("status", "open")
		query.Set("limit", "100")
		query.Set("series_ticker", series)

		var resp marketsResponse
		if err := c.do(ctx, http.MethodGet, "/markets", query, nil, &resp); err != nil {
			slog.Debug("series fetch failed", "series", series, "error", err)
			continue
		}
		all = append(all, resp.Markets...)
	}

	markets := make([]models.Market, 0, len(all))
	for _, m := range all {
		// Multivariate and combo markets are not single-game winners.
		if strings.Contains(m.Ticker, "KXMVE") {
			continue
		}

		title := m.Title
		if title == "" {
			title = m.Subtitle
		}

		yesBid := float64(m.YesBid) / 100.0
		yesAsk := float64(m.YesAsk) / 100.0
		if m.YesAsk == 0 {
			yesAsk = yesBid
		}

		gameID, team := parseTicker(m.Ticker, title)
		markets = append(markets, models.Market{
			MarketID:  m.Ticker,
			EventName: title,
			GameID:    gameID,
			League:    extractLeague(m.EventTicker+m.Ticker, title),
			Team:      team,
			BestYes:   yesBid,
			BestNo:    float64(m.NoBid) / 100.0,
			Volume:    m.Volume,
			Spread:    yesAsk - yesBid,
			StartTime: parseMarketTime(m),
			Title:     title,
		})
	}

	slog.Info("fetched sports markets", "count", len(markets))
	return markets, nil
}

// PlaceYesOrder places a limit order for YES contracts and returns the
// exchange order ID. Price is in price units (0 to 1).
func (c *Client) PlaceYesOrder(ctx context.Context, marketID string, price float64, count int) (string, error) {
	req := orderRequest{
		Ticker: marketID,
		Action: "buy",
		Side:   "yes",
		Type:   "limit",
		Count:  count,
		Price:  int(price * 100),
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/portfolio/orders", nil, req, &resp); err != nil {
		return "", err
	}

	orderID := resp.OrderID
	if orderID == "" {
		orderID = resp.Order.OrderID
	}
	slog.Info("order placed",
		"order_id", orderID,
		"market_id", marketID,
		"count", count,
		"price", fmt.Sprintf("%.4f", price))
	return orderID, nil
}

var leagueNames = []string{"NBA", "NFL", "NHL", "MLB", "EPL", "UCL", "NCAAB", "NCAAF"}

// extractLeague finds a league abbreviation in a ticker or title.
func extractLeague(ticker, title string) string {
	tickerUpper := strings.ToUpper(ticker)
	titleUpper := strings.ToUpper(title)
	for _, league := range leagueNames {
		if strings.Contains(tickerUpper, league) || strings.Contains(titleUpper, league) {
			return league
		}
	}
	return "UNKNOWN"
}

// parseTicker extracts the game ID and contract team from a market
// ticker like KXNBAGAME-25NOV20SACMEM-SAC. The trailing segment is the
// team abbreviation; the title's "A vs B" form resolves it to a full
// name when one side starts with the abbreviation.
func parseTicker(ticker, title string) (gameID, team string) {
	parts := strings.Split(ticker, "-")
	if len(parts) < 3 {
		return ticker, ""
	}

	abbrev := parts[len(parts)-1]
	gameID = strings.Join(parts[:len(parts)-1], "-")
	team = abbrev

	titleLower := strings.ToLower(title)
	if idx := strings.Index(titleLower, " vs "); idx > 0 && abbrev != "" {
		teamA := strings.TrimSpace(title[:idx])
		teamB := strings.TrimSpace(title[idx+4:])
		if cut := strings.IndexAny(teamB, "?:"); cut > 0 {
			teamB = strings.TrimSpace(teamB[:cut])
		}
		teamB = strings.TrimSuffix(teamB, " Winner")
		teamB = strings.TrimSuffix(teamB, " winner")

		abbrevLower := strings.ToLower(abbrev)
		switch {
		case matchesAbbrev(teamA, abbrevLower):
			team = teamA
		case matchesAbbrev(teamB, abbrevLower):
			team = teamB
		}
	}

	return gameID, team
}

// matchesAbbrev reports whether a team name plausibly corresponds to
// an exchange abbreviation: its leading letters or word initials line
// up with the abbreviation.
func matchesAbbrev(name, abbrevLower string) bool {
	nameLower := strings.ToLower(name)
	if strings.HasPrefix(nameLower, abbrevLower) {
		return true
	}
	words := strings.Fields(nameLower)
	initials := make([]byte, 0, len(words))
	for _, w := range words {
		initials = append(initials, w[0])
	}
	return strings.HasPrefix(string(initials), abbrevLower) ||
		strings.HasPrefix(abbrevLower, string(initials))
}

func parseMarketTime(m apiMarket) time.Time {
	for _, s := range []string{m.ExpectedExpirationTime, m.ExpirationTime, m.CloseTime} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Now()
}
