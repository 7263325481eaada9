// Package risk enforces bankroll exposure limits across game, team,
// league, and daily dimensions.
package risk

import (
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sharpmismatch/sportsagent/pkg/models"
)

// Limits defines the exposure caps as fractions of bankroll.
type Limits struct {
	MaxPerBetPct    decimal.Decimal // max single stake
	MaxPerGamePct   decimal.Decimal // max exposure per game
	MaxDailyRiskPct decimal.Decimal // max total worst-case loss
	MaxPerTeamPct   decimal.Decimal // max exposure per team
}

// DefaultLimits returns conservative defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxPerBetPct:    decimal.NewFromFloat(0.02),
		MaxPerGamePct:   decimal.NewFromFloat(0.05),
		MaxDailyRiskPct: decimal.NewFromFloat(0.10),
		MaxPerTeamPct:   decimal.NewFromFloat(0.08),
	}
}

// Engine tracks open-position exposure and authorizes or caps proposed
// stakes. All exposure state is rebuilt from a full position snapshot
// on every UpdateFromPositions call, so a missed fill can never drift
// the totals between cycles.
type Engine struct {
	limits Limits

	mu               sync.RWMutex
	bankroll         decimal.Decimal
	positions        []models.Position
	exposureByGame   map[string]decimal.Decimal
	exposureByTeam   map[string]decimal.Decimal
	exposureByLeague map[string]decimal.Decimal // tracked for observability, not capped
	totalDailyRisk   decimal.Decimal
}

// NewEngine creates a risk engine with the given limits.
func NewEngine(limits Limits) *Engine {
	return &Engine{
		limits:           limits,
		exposureByGame:   make(map[string]decimal.Decimal),
		exposureByTeam:   make(map[string]decimal.Decimal),
		exposureByLeague: make(map[string]decimal.Decimal),
	}
}

// UpdateFromPositions replaces all exposure state from the current
// position snapshot and bankroll. Calling it twice with the same
// arguments yields identical state.
func (e *Engine) UpdateFromPositions(positions []models.Position, bankroll decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bankroll = bankroll
	e.positions = positions

	e.exposureByGame = make(map[string]decimal.Decimal, len(positions))
	e.exposureByTeam = make(map[string]decimal.Decimal, len(positions))
	e.exposureByLeague = make(map[string]decimal.Decimal)
	e.totalDailyRisk = decimal.Zero

	for i := range positions {
		exp := positions[i].Exposure()
		e.totalDailyRisk = e.totalDailyRisk.Add(exp)
		e.exposureByGame[positions[i].GameID] = e.exposureByGame[positions[i].GameID].Add(exp)
		e.exposureByTeam[positions[i].Team] = e.exposureByTeam[positions[i].Team].Add(exp)
		e.exposureByLeague[positions[i].League] = e.exposureByLeague[positions[i].League].Add(exp)
	}

	slog.Debug("risk state rebuilt",
		"bankroll", bankroll.StringFixed(2),
		"daily_risk", e.totalDailyRisk.StringFixed(2),
		"positions", len(positions))
}

// Rejection reasons returned by CanTakeTrade.
const (
	ReasonDailyRisk = "daily risk limit"
	ReasonPerGame   = "per-game exposure limit"
	ReasonPerTeam   = "per-team exposure limit"
)

// CanTakeTrade reports whether adding stake would keep total daily
// risk, per-game exposure, and per-team exposure all within their
// caps. Any single violation rejects the whole trade; the returned
// reason names the first limit that would be breached.
func (e *Engine) CanTakeTrade(stake decimal.Decimal, gameID, team, league string) (bool, string) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	maxDaily := e.limits.MaxDailyRiskPct.Mul(e.bankroll)
	if e.totalDailyRisk.Add(stake).GreaterThan(maxDaily) {
		slog.Debug("trade rejected",
			"reason", ReasonDailyRisk,
			"current", e.totalDailyRisk.StringFixed(2),
			"stake", stake.StringFixed(2),
			"limit", maxDaily.StringFixed(2))
		return false, ReasonDailyRisk
	}

	maxGame := e.limits.MaxPerGamePct.Mul(e.bankroll)
	if e.exposureByGame[gameID].Add(stake).GreaterThan(maxGame) {
		slog.Debug("trade rejected",
			"reason", ReasonPerGame,
			"game_id", gameID,
			"current", e.exposureByGame[gameID].StringFixed(2),
			"stake", stake.StringFixed(2),
			"limit", maxGame.StringFixed(2))
		return false, ReasonPerGame
	}

	maxTeam := e.limits.MaxPerTeamPct.Mul(e.bankroll)
	if e.exposureByTeam[team].Add(stake).GreaterThan(maxTeam) {
		slog.Debug("trade rejected",
			"reason", ReasonPerTeam,
			"team", team,
			"current", e.exposureByTeam[team].StringFixed(2),
			"stake", stake.StringFixed(2),
			"limit", maxTeam.StringFixed(2))
		return false, ReasonPerTeam
	}

	return true, ""
}

// RemainingDailyRisk is the unused daily risk capacity, floored at 0.
func (e *Engine) RemainingDailyRisk() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.remainingDailyRiskLocked()
}

func (e *Engine) remainingDailyRiskLocked() decimal.Decimal {
	remaining := e.limits.MaxDailyRiskPct.Mul(e.bankroll).Sub(e.totalDailyRisk)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// CapStake clamps a raw stake through the per-bet cap, remaining daily
// capacity, remaining per-game capacity, and remaining per-team
// capacity, in that order. The result never exceeds the raw stake and
// is floored at 0.
func (e *Engine) CapStake(rawStake decimal.Decimal, gameID, team, league string) decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stake := decimal.Min(rawStake, e.limits.MaxPerBetPct.Mul(e.bankroll))

	stake = decimal.Min(stake, e.remainingDailyRiskLocked())

	maxGame := e.limits.MaxPerGamePct.Mul(e.bankroll)
	remainingGame := maxGame.Sub(e.exposureByGame[gameID])
	if remainingGame.IsNegative() {
		remainingGame = decimal.Zero
	}
	stake = decimal.Min(stake, remainingGame)

	maxTeam := e.limits.MaxPerTeamPct.Mul(e.bankroll)
	remainingTeam := maxTeam.Sub(e.exposureByTeam[team])
	if remainingTeam.IsNegative() {
		remainingTeam = decimal.Zero
	}
	stake = decimal.Min(stake, remainingTeam)

	if stake.IsNegative() {
		return decimal.Zero
	}
	return stake
}

// Status is a point-in-time summary of risk state for the status API
// and dashboard stream.
type Status struct {
	Bankroll         string            `json:"bankroll"`
	TotalDailyRisk   string            `json:"total_daily_risk"`
	MaxDailyRisk     string            `json:"max_daily_risk"`
	RemainingDaily   string            `json:"remaining_daily_risk"`
	OpenPositions    int               `json:"open_positions"`
	ExposureByGame   map[string]string `json:"exposure_by_game"`
	ExposureByTeam   map[string]string `json:"exposure_by_team"`
	ExposureByLeague map[string]string `json:"exposure_by_league"`
}

// Status returns the current risk snapshot.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{
		Bankroll:         e.bankroll.StringFixed(2),
		TotalDailyRisk:   e.totalDailyRisk.StringFixed(2),
		MaxDailyRisk:     e.limits.MaxDailyRiskPct.Mul(e.bankroll).StringFixed(2),
		RemainingDaily:   e.remainingDailyRiskLocked().StringFixed(2),
		OpenPositions:    len(e.positions),
		ExposureByGame:   make(map[string]string, len(e.exposureByGame)),
		ExposureByTeam:   make(map[string]string, len(e.exposureByTeam)),
		ExposureByLeague: make(map[string]string, len(e.exposureByLeague)),
	}
	for k, v := range e.exposureByGame {
		st.ExposureByGame[k] = v.StringFixed(2)
	}
	for k, v := range e.exposureByTeam {
		st.ExposureByTeam[k] = v.StringFixed(2)
	}
	for k, v := range e.exposureByLeague {
		st.ExposureByLeague[k] = v.StringFixed(2)
	}
	return st
}

// TotalDailyRisk returns the current total worst-case loss.
func (e *Engine) TotalDailyRisk() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalDailyRisk
}

// Bankroll returns the bankroll from the latest snapshot.
func (e *Engine) Bankroll() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bankroll
}
