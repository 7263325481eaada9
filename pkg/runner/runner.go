// Package runner coordinates the polling pipeline: account sync,
// market discovery, reference odds, research, edge computation, risk
// checks, and execution.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sharpmismatch/sportsagent/pkg/config"
	"github.com/sharpmismatch/sportsagent/pkg/execution"
	"github.com/sharpmismatch/sportsagent/pkg/match"
	"github.com/sharpmismatch/sportsagent/pkg/metrics"
	"github.com/sharpmismatch/sportsagent/pkg/models"
	"github.com/sharpmismatch/sportsagent/pkg/odds"
	"github.com/sharpmismatch/sportsagent/pkg/research"
	"github.com/sharpmismatch/sportsagent/pkg/risk"
	"github.com/sharpmismatch/sportsagent/pkg/strategy"
	"github.com/sharpmismatch/sportsagent/pkg/streaming"
)

// ExchangeClient is the exchange surface the pipeline needs.
type ExchangeClient interface {
	GetBalance(ctx context.Context) (decimal.Decimal, error)
	GetPositions(ctx context.Context) ([]models.Position, error)
	ListSportsMarkets(ctx context.Context) ([]models.Market, error)
}

// OddsProvider supplies reference odds for a set of games.
type OddsProvider interface {
	FetchReferenceOdds(ctx context.Context, games []models.Game) (map[string]models.ReferenceOdds, error)
}

// Researcher produces a win probability estimate for a team. May be
// nil, in which case decisions use fair odds alone.
type Researcher interface {
	Research(ctx context.Context, game models.Game, team string) (*research.Result, error)
}

// TradeExecutor turns sized decisions into trades.
type TradeExecutor interface {
	Execute(ctx context.Context, d execution.Decision) (*models.Trade, error)
}

// Decision outcomes recorded per market.
const (
	OutcomeIneligible    = "ineligible"
	OutcomeNoOdds        = "no_reference_odds"
	OutcomeMockOdds      = "mock_odds"
	OutcomeAmbiguousTeam = "ambiguous_team"
	OutcomeBelowEdge     = "below_edge_threshold"
	OutcomeZeroStake     = "zero_stake"
	OutcomeRiskRejected  = "risk_rejected"
	OutcomeTraded        = "traded"
)

// Orchestrator runs the decision pipeline on a poll interval.
type Orchestrator struct {
	cfg        *config.Config
	exchange   ExchangeClient
	oddsFeed   OddsProvider
	researcher Researcher
	executor   TradeExecutor
	riskEngine *risk.Engine
	matcher    *match.Matcher
	metrics    *metrics.EngineMetrics
	hub        *streaming.Hub

	mu           sync.RWMutex
	running      bool
	cycles       int
	lastCycleAt  time.Time
	tradesTotal  int
	lastCycleErr string
	marketsSeen  int

	onTrade func(*models.Trade)
	onError func(error)
	onCycle func(CycleResult)
}

// CycleResult summarizes one pipeline run.
type CycleResult struct {
	Cycle          int           `json:"cycle"`
	MarketsSeen    int           `json:"markets_seen"`
	TradesExecuted int           `json:"trades_executed"`
	Duration       time.Duration `json:"duration"`
	Err            error         `json:"-"`
}

// New creates an orchestrator. Researcher, metrics, and hub are
// optional.
func New(
	cfg *config.Config,
	exchange ExchangeClient,
	oddsFeed OddsProvider,
	researcher Researcher,
	executor TradeExecutor,
	riskEngine *risk.Engine,
	matcher *match.Matcher,
	m *metrics.EngineMetrics,
	hub *streaming.Hub,
) *Orchestrator {
	if matcher == nil {
		matcher = match.NewMatcher(nil)
	}
	return &Orchestrator{
		cfg:        cfg,
		exchange:   exchange,
		oddsFeed:   oddsFeed,
		researcher: researcher,
		executor:   executor,
		riskEngine: riskEngine,
		matcher:    matcher,
		metrics:    m,
		hub:        hub,
	}
}

// OnTrade sets a callback for executed trades.
func (o *Orchestrator) OnTrade(fn func(*models.Trade)) { o.onTrade = fn }

// OnError sets a callback for per-cycle errors.
func (o *Orchestrator) OnError(fn func(error)) { o.onError = fn }

// OnCycle sets a callback for completed cycles.
func (o *Orchestrator) OnCycle(fn func(CycleResult)) { o.onCycle = fn }

// Run polls until the context is cancelled. A failed cycle is logged
// and the loop continues.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already running")
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	ticker := time.NewTicker(o.cfg.Runner.PollInterval)
	defer ticker.Stop()

	for {
		result := o.RunOnce(ctx)
		if result.Err != nil {
			o.handleError(result.Err)
		}
		if o.onCycle != nil {
			o.onCycle(result)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single pipeline cycle.
func (o *Orchestrator) RunOnce(ctx context.Context) CycleResult {
	start := time.Now()

	o.mu.Lock()
	o.cycles++
	cycle := o.cycles
	o.mu.Unlock()

	result := CycleResult{Cycle: cycle}
	tradesExecuted, err := o.runCycle(ctx, &result)
	result.TradesExecuted = tradesExecuted
	result.Duration = time.Since(start)
	result.Err = err

	status := "ok"
	if err != nil {
		status = "error"
	}
	if o.metrics != nil {
		o.metrics.RecordCycle(status, result.Duration.Seconds(), result.MarketsSeen)
	}

	o.mu.Lock()
	o.lastCycleAt = time.Now()
	o.tradesTotal += tradesExecuted
	o.marketsSeen = result.MarketsSeen
	o.lastCycleErr = ""
	if err != nil {
		o.lastCycleErr = err.Error()
	}
	o.mu.Unlock()

	slog.Info("cycle complete",
		"cycle", cycle,
		"markets", result.MarketsSeen,
		"trades", tradesExecuted,
		"duration_ms", result.Duration.Milliseconds())

	return result
}

func (o *Orchestrator) runCycle(ctx context.Context, result *CycleResult) (int, error) {
	bankroll, err := o.exchange.GetBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching balance: %w", err)
	}

	positions, err := o.exchange.GetPositions(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching positions: %w", err)
	}

	o.riskEngine.UpdateFromPositions(positions, bankroll)
	if o.metrics != nil {
		o.metrics.UpdateAccount(bankroll, o.riskEngine.TotalDailyRisk())
	}
	if o.hub != nil {
		o.hub.BroadcastStatus(o.riskEngine.Status())
		o.hub.BroadcastPositions(positions)
	}

	markets, err := o.exchange.ListSportsMarkets(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching markets: %w", err)
	}
	result.MarketsSeen = len(markets)
	if len(markets) == 0 {
		return 0, nil
	}

	games := extractGames(markets)
	refOdds, err := o.oddsFeed.FetchReferenceOdds(ctx, games)
	if err != nil {
		return 0, fmt.Errorf("fetching reference odds: %w", err)
	}
	fairProbs := odds.ComputeFairProbs(refOdds)

	gamesByID := make(map[string]models.Game, len(games))
	for _, g := range games {
		gamesByID[g.GameID] = g
	}

	trades := 0
	for i := range markets {
		traded, err := o.evaluateMarket(ctx, &markets[i], gamesByID, refOdds, fairProbs, bankroll)
		if err != nil {
			// One bad market must not sink the cycle.
			o.handleError(fmt.Errorf("market %s: %w", markets[i].MarketID, err))
			continue
		}
		if traded {
			trades++
		}
	}

	return trades, nil
}

// evaluateMarket runs the full decision chain for one market and
// reports whether a trade was executed.
func (o *Orchestrator) evaluateMarket(
	ctx context.Context,
	market *models.Market,
	gamesByID map[string]models.Game,
	refOdds map[string]models.ReferenceOdds,
	fairProbs map[string]models.FairProbabilities,
	bankroll decimal.Decimal,
) (bool, error) {
	if !o.marketEligible(market) {
		o.recordDecision(OutcomeIneligible)
		return false, nil
	}

	ref, ok := refOdds[market.GameID]
	if !ok {
		o.recordDecision(OutcomeNoOdds)
		return false, nil
	}
	// Placeholder odds carry no information worth pricing against.
	if ref.IsMock() {
		o.recordDecision(OutcomeMockOdds)
		return false, nil
	}

	fair, ok := fairProbs[market.GameID]
	if !ok {
		o.recordDecision(OutcomeNoOdds)
		return false, nil
	}

	game := gamesByID[market.GameID]
	fairProb, matched := o.fairProbForTeam(market.Team, game, fair)
	if !matched {
		slog.Debug("team match failed, skipping market",
			"market_id", market.MarketID,
			"team", market.Team,
			"team_a", game.TeamA,
			"team_b", game.TeamB)
		o.recordDecision(OutcomeAmbiguousTeam)
		return false, nil
	}

	var researchProb *float64
	confidence := strategy.ConfidenceNone
	if o.researcher != nil {
		res, err := o.researcher.Research(ctx, game, market.Team)
		if err != nil {
			slog.Warn("research unavailable, using fair odds only",
				"game_id", game.GameID, "error", err)
		} else if res != nil {
			researchProb = res.Probability
			confidence = res.Confidence
		}
	}

	marketPrice := market.BestYes
	blended := strategy.Blend(fairProb, researchProb, confidence)
	edge := blended - marketPrice

	if o.metrics != nil {
		o.metrics.RecordEdge(market.League, edge)
	}

	threshold := o.cfg.EdgeThresholdFor(market.League)
	if edge < threshold {
		o.recordDecision(OutcomeBelowEdge)
		return false, nil
	}

	slog.Info("edge opportunity",
		"market_id", market.MarketID,
		"team", market.Team,
		"fair", fmt.Sprintf("%.4f", fairProb),
		"blended", fmt.Sprintf("%.4f", blended),
		"price", fmt.Sprintf("%.4f", marketPrice),
		"edge", fmt.Sprintf("%.4f", edge),
		"threshold", fmt.Sprintf("%.4f", threshold))

	kellyFrac := strategy.KellyFraction(blended, marketPrice, o.cfg.Strategy.KellyFactor, confidence)
	rawStake := decimal.NewFromFloat(kellyFrac).Mul(bankroll)

	stake := o.riskEngine.CapStake(rawStake, market.GameID, market.Team, market.League)
	if !stake.IsPositive() {
		o.recordDecision(OutcomeZeroStake)
		return false, nil
	}

	allowed, reason := o.riskEngine.CanTakeTrade(stake, market.GameID, market.Team, market.League)
	if !allowed {
		if o.metrics != nil {
			o.metrics.RecordRiskRejection(reason)
		}
		o.recordDecision(OutcomeRiskRejected)
		return false, nil
	}

	decision := execution.Decision{
		MarketID:   market.MarketID,
		GameID:     market.GameID,
		Team:       market.Team,
		League:     market.League,
		FairProb:   blended,
		MarketProb: marketPrice,
		Edge:       edge,
		Stake:      stake,
	}
	if o.hub != nil {
		o.hub.BroadcastDecision(decision)
	}

	trade, err := o.executor.Execute(ctx, decision)
	if err != nil {
		return false, err
	}
	if trade == nil {
		o.recordDecision(OutcomeZeroStake)
		return false, nil
	}

	o.recordDecision(OutcomeTraded)
	if o.metrics != nil {
		o.metrics.RecordTrade(string(trade.Mode), trade.League, trade.Stake)
	}
	if o.hub != nil {
		o.hub.BroadcastTrade(trade)
	}
	if o.onTrade != nil {
		o.onTrade(trade)
	}

	return true, nil
}

func (o *Orchestrator) marketEligible(m *models.Market) bool {
	if m.Volume < o.cfg.Runner.MinMarketVolume {
		return false
	}
	if m.Spread > o.cfg.Runner.MaxSpread {
		return false
	}
	if time.Until(m.StartTime) < o.cfg.Runner.MinTimeToStart {
		return false
	}
	return true
}

// fairProbForTeam resolves the market's contract team to one side of
// the game. Ambiguous and failed matches report false so the caller
// skips the market instead of guessing.
func (o *Orchestrator) fairProbForTeam(team string, game models.Game, fair models.FairProbabilities) (float64, bool) {
	switch o.matcher.Match(team, game.TeamA, game.TeamB) {
	case match.MatchedA:
		return fair.TeamAFairProb, true
	case match.MatchedB:
		return fair.TeamBFairProb, true
	default:
		return 0, false
	}
}

func (o *Orchestrator) recordDecision(outcome string) {
	if o.metrics != nil {
		o.metrics.RecordDecision(outcome)
	}
}

func (o *Orchestrator) handleError(err error) {
	slog.Error("pipeline error", "error", err)
	if o.metrics != nil {
		o.metrics.RecordDecision("error")
	}
	if o.hub != nil {
		o.hub.BroadcastError(err, "pipeline")
	}
	if o.onError != nil {
		o.onError(err)
	}
}

// extractGames derives the unique games behind a market list. Team
// names come from the "A vs B" event name, with the market's contract
// team as fallback.
func extractGames(markets []models.Market) []models.Game {
	seen := make(map[string]models.Game)
	for _, m := range markets {
		if _, ok := seen[m.GameID]; ok {
			continue
		}

		teamA, teamB := m.Team, ""
		name := strings.ReplaceAll(m.EventName, " to win", "")
		if idx := strings.Index(name, " vs "); idx > 0 {
			teamA = strings.TrimSpace(name[:idx])
			teamB = strings.TrimSpace(name[idx+4:])
		}

		seen[m.GameID] = models.Game{
			GameID:    m.GameID,
			TeamA:     teamA,
			TeamB:     teamB,
			League:    m.League,
			StartTime: m.StartTime,
		}
	}

	games := make([]models.Game, 0, len(seen))
	for _, g := range seen {
		games = append(games, g)
	}
	return games
}

// Status is a point-in-time pipeline snapshot for the status API.
type Status struct {
	Running      bool        `json:"running"`
	Mode         models.Mode `json:"mode"`
	Cycles       int         `json:"cycles"`
	LastCycleAt  time.Time   `json:"last_cycle_at"`
	MarketsSeen  int         `json:"markets_seen"`
	TradesTotal  int         `json:"trades_total"`
	LastCycleErr string      `json:"last_cycle_error,omitempty"`
	Risk         risk.Status `json:"risk"`
}

// Status returns the current pipeline snapshot.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Status{
		Running:      o.running,
		Mode:         o.cfg.Mode,
		Cycles:       o.cycles,
		LastCycleAt:  o.lastCycleAt,
		MarketsSeen:  o.marketsSeen,
		TradesTotal:  o.tradesTotal,
		LastCycleErr: o.lastCycleErr,
		Risk:         o.riskEngine.Status(),
	}
}
