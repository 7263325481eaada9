package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sharpmismatch/sportsagent/pkg/models"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func newTestEngine(positions []models.Position, bankroll float64) *Engine {
	e := NewEngine(DefaultLimits())
	e.UpdateFromPositions(positions, d(bankroll))
	return e
}

func TestCapStakePerBetLimit(t *testing.T) {
	// 2% per-bet cap on a $10,000 bankroll clamps an $800 raw stake to $200.
	e := newTestEngine(nil, 10000)

	capped := e.CapStake(d(800), "gm-1", "Lakers", "NBA")
	if !capped.Equal(d(200)) {
		t.Errorf("CapStake(800) = %s, want 200", capped)
	}
}

func TestCanTakeTradePerTeamLimit(t *testing.T) {
	// $700 existing team exposure plus a $150 stake exceeds the 8%
	// per-team cap ($800 on $10,000).
	positions := []models.Position{
		{MarketID: "mkt-1", GameID: "gm-1", Team: "Lakers", League: "NBA", MaxLoss: d(700)},
	}
	e := newTestEngine(positions, 10000)

	ok, reason := e.CanTakeTrade(d(150), "gm-2", "Lakers", "NBA")
	if ok {
		t.Fatal("expected rejection on per-team exposure")
	}
	if reason != ReasonPerTeam {
		t.Errorf("reason = %q, want %q", reason, ReasonPerTeam)
	}

	// Exactly reaching the cap is allowed.
	ok, reason = e.CanTakeTrade(d(100), "gm-2", "Lakers", "NBA")
	if !ok {
		t.Errorf("expected approval at exactly the cap, got rejection: %s", reason)
	}
}

func TestCanTakeTradeDailyLimit(t *testing.T) {
	positions := []models.Position{
		{MarketID: "mkt-1", GameID: "gm-1", Team: "Lakers", League: "NBA", MaxLoss: d(950)},
	}
	e := newTestEngine(positions, 10000)

	ok, reason := e.CanTakeTrade(d(100), "gm-2", "Celtics", "NBA")
	if ok {
		t.Fatal("expected rejection on daily risk")
	}
	if reason != ReasonDailyRisk {
		t.Errorf("reason = %q, want %q", reason, ReasonDailyRisk)
	}
}

func TestCanTakeTradePerGameLimit(t *testing.T) {
	positions := []models.Position{
		{MarketID: "mkt-1", GameID: "gm-1", Team: "Lakers", League: "NBA", MaxLoss: d(450)},
	}
	e := newTestEngine(positions, 10000)

	// 5% per-game cap is $500; $450 + $100 breaches it.
	ok, reason := e.CanTakeTrade(d(100), "gm-1", "Celtics", "NBA")
	if ok {
		t.Fatal("expected rejection on per-game exposure")
	}
	if reason != ReasonPerGame {
		t.Errorf("reason = %q, want %q", reason, ReasonPerGame)
	}

	// Same stake on a different game passes.
	if ok, reason := e.CanTakeTrade(d(100), "gm-2", "Celtics", "NBA"); !ok {
		t.Errorf("expected approval on a fresh game, got rejection: %s", reason)
	}
}

func TestUpdateFromPositionsIdempotent(t *testing.T) {
	positions := []models.Position{
		{MarketID: "mkt-1", GameID: "gm-1", Team: "Lakers", League: "NBA", MaxLoss: d(300)},
		{MarketID: "mkt-2", GameID: "gm-2", Team: "Heat", League: "NBA", Quantity: 200, AveragePrice: 0.55},
	}
	e := NewEngine(DefaultLimits())

	e.UpdateFromPositions(positions, d(10000))
	first := e.Status()

	e.UpdateFromPositions(positions, d(10000))
	second := e.Status()

	if first.TotalDailyRisk != second.TotalDailyRisk {
		t.Errorf("total daily risk drifted: %s then %s", first.TotalDailyRisk, second.TotalDailyRisk)
	}
	if first.ExposureByGame["gm-1"] != second.ExposureByGame["gm-1"] {
		t.Errorf("per-game exposure drifted: %s then %s",
			first.ExposureByGame["gm-1"], second.ExposureByGame["gm-1"])
	}
}

func TestExposureFallsBackToCostBasis(t *testing.T) {
	// A position without a max-loss figure contributes quantity times
	// average price.
	positions := []models.Position{
		{MarketID: "mkt-1", GameID: "gm-1", Team: "Heat", League: "NBA", Quantity: 200, AveragePrice: 0.55},
	}
	e := newTestEngine(positions, 10000)

	got := e.TotalDailyRisk()
	if !got.Equal(d(110)) {
		t.Errorf("TotalDailyRisk = %s, want 110", got)
	}
}

func TestCapStakeNeverExceedsRawAndNeverNegative(t *testing.T) {
	positions := []models.Position{
		{MarketID: "mkt-1", GameID: "gm-1", Team: "Lakers", League: "NBA", MaxLoss: d(900)},
	}
	e := newTestEngine(positions, 10000)

	for _, raw := range []float64{0, 10, 50, 150, 800, 5000} {
		capped := e.CapStake(d(raw), "gm-1", "Lakers", "NBA")
		if capped.GreaterThan(d(raw)) {
			t.Errorf("CapStake(%v) = %s exceeds raw stake", raw, capped)
		}
		if capped.IsNegative() {
			t.Errorf("CapStake(%v) = %s is negative", raw, capped)
		}
	}
}

func TestCapStakeDrainsThroughRemainingCapacity(t *testing.T) {
	// Daily risk already at $950 of a $1,000 cap: only $50 remains,
	// tighter than the $200 per-bet cap.
	positions := []models.Position{
		{MarketID: "mkt-1", GameID: "gm-1", Team: "Lakers", League: "NBA", MaxLoss: d(950)},
	}
	e := newTestEngine(positions, 10000)

	capped := e.CapStake(d(800), "gm-2", "Celtics", "NBA")
	if !capped.Equal(d(50)) {
		t.Errorf("CapStake = %s, want 50", capped)
	}
}

func TestRemainingDailyRiskFloorsAtZero(t *testing.T) {
	positions := []models.Position{
		{MarketID: "mkt-1", GameID: "gm-1", Team: "Lakers", League: "NBA", MaxLoss: d(1500)},
	}
	e := newTestEngine(positions, 10000)

	if got := e.RemainingDailyRisk(); !got.Equal(decimal.Zero) {
		t.Errorf("RemainingDailyRisk = %s, want 0", got)
	}
	if capped := e.CapStake(d(100), "gm-2", "Celtics", "NBA"); !capped.Equal(decimal.Zero) {
		t.Errorf("CapStake over-budget = %s, want 0", capped)
	}
}
