// Package models defines the shared data types for markets, games,
// reference odds, positions, and trades.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode selects whether the bot places real orders or only logs them.
type Mode string

const (
	// ModeShadow computes and records decisions without placing orders.
	ModeShadow Mode = "SHADOW"
	// ModeLive places real limit orders on the exchange.
	ModeLive Mode = "LIVE"
)

// Market is one exchange sports contract as of the latest poll.
type Market struct {
	MarketID  string    `json:"market_id"`
	EventName string    `json:"event_name"`
	GameID    string    `json:"game_id"` // key used to join with reference odds
	League    string    `json:"league"`  // e.g. "NBA", "NFL"
	Team      string    `json:"team"`    // the side a YES contract pays on
	BestYes   float64   `json:"best_yes_price"`
	BestNo    float64   `json:"best_no_price"`
	Volume    int       `json:"volume"`
	Spread    float64   `json:"spread"` // ask - bid, in price units
	StartTime time.Time `json:"start_time"`
	Title     string    `json:"title"`
}

// Game is a single sports event extracted from the market list.
type Game struct {
	GameID    string    `json:"game_id"`
	TeamA     string    `json:"team_a"`
	TeamB     string    `json:"team_b"`
	League    string    `json:"league"`
	StartTime time.Time `json:"start_time"`
}

// Odds provenance tags. The orchestrator never trades on mock odds.
const (
	OddsSourceMock = "mock"
	OddsSourceAPI  = "the-odds-api"
)

// ReferenceOdds holds two-sided American odds for a game from an
// external sportsbook feed.
type ReferenceOdds struct {
	GameID            string    `json:"game_id"`
	TeamAAmericanOdds int       `json:"team_a_american_odds"`
	TeamBAmericanOdds int       `json:"team_b_american_odds"`
	Source            string    `json:"source"`
	Timestamp         time.Time `json:"timestamp"`
}

// IsMock reports whether these odds are placeholder data.
func (r *ReferenceOdds) IsMock() bool { return r.Source == OddsSourceMock }

// FairProbabilities are the vig-free win probabilities for both sides
// of a game. TeamAFairProb and TeamBFairProb sum to 1.
type FairProbabilities struct {
	GameID        string  `json:"game_id"`
	TeamAFairProb float64 `json:"team_a_fair_prob"`
	TeamBFairProb float64 `json:"team_b_fair_prob"`
}

// Position is an open position reported by the exchange.
type Position struct {
	MarketID        string          `json:"market_id"`
	GameID          string          `json:"game_id"`
	Team            string          `json:"team"`
	League          string          `json:"league"`
	Quantity        int             `json:"quantity"`
	AveragePrice    float64         `json:"average_price"`
	CurrentYesPrice float64         `json:"current_yes_price"`
	UnrealizedPnL   decimal.Decimal `json:"unrealized_pnl"`
	MaxLoss         decimal.Decimal `json:"max_loss"` // worst case if the contract settles at 0
}

// Exposure is the worst-case dollar loss this position contributes.
// MaxLoss wins when set; otherwise cost basis is used.
func (p *Position) Exposure() decimal.Decimal {
	if p.MaxLoss.IsPositive() {
		return p.MaxLoss
	}
	return decimal.NewFromInt(int64(p.Quantity)).Mul(decimal.NewFromFloat(p.AveragePrice))
}

// Trade records an executed (or shadow) trade.
type Trade struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	MarketID   string          `json:"market_id"`
	GameID     string          `json:"game_id"`
	Team       string          `json:"team"`
	League     string          `json:"league"`
	FairProb   float64         `json:"fair_prob"` // blended probability used for sizing
	MarketProb float64         `json:"market_prob"`
	Edge       float64         `json:"edge"`
	Stake      decimal.Decimal `json:"stake"`
	Quantity   int             `json:"quantity"`
	LimitPrice float64         `json:"limit_price"`
	Mode       Mode            `json:"mode"`
	OrderID    string          `json:"order_id,omitempty"` // exchange order ID when live
}
