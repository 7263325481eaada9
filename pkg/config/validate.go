package config

import (
	"errors"
	"fmt"

	"github.com/sharpmismatch/sportsagent/pkg/models"
)

// Validate checks that all values are in range. Defaults must be
// applied first.
func (c *Config) Validate() error {
	if c.Mode != models.ModeShadow && c.Mode != models.ModeLive {
		return fmt.Errorf("mode must be SHADOW or LIVE, got %q", c.Mode)
	}

	if c.Mode == models.ModeLive {
		if c.Exchange.APIKey == "" {
			return errors.New("exchange.api_key is required in LIVE mode")
		}
		if c.Exchange.PrivateKeyPath == "" {
			return errors.New("exchange.private_key_path is required in LIVE mode")
		}
	}

	if c.Strategy.EdgeThreshold <= 0 || c.Strategy.EdgeThreshold >= 1 {
		return fmt.Errorf("strategy.edge_threshold must be in (0, 1), got %v", c.Strategy.EdgeThreshold)
	}
	for league, t := range c.Strategy.LeagueEdgeThresholds {
		if t <= 0 || t >= 1 {
			return fmt.Errorf("strategy.league_edge_thresholds[%s] must be in (0, 1), got %v", league, t)
		}
	}
	if c.Strategy.KellyFactor <= 0 || c.Strategy.KellyFactor > 1 {
		return fmt.Errorf("strategy.kelly_factor must be in (0, 1], got %v", c.Strategy.KellyFactor)
	}
	if c.Strategy.SlippageTolerance < 0 || c.Strategy.SlippageTolerance >= 1 {
		return fmt.Errorf("strategy.slippage_tolerance must be in [0, 1), got %v", c.Strategy.SlippageTolerance)
	}

	for name, pct := range map[string]float64{
		"risk.max_per_bet_pct":    c.Risk.MaxPerBetPct,
		"risk.max_per_game_pct":   c.Risk.MaxPerGamePct,
		"risk.max_daily_risk_pct": c.Risk.MaxDailyRiskPct,
		"risk.max_per_team_pct":   c.Risk.MaxPerTeamPct,
	} {
		if pct <= 0 || pct > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, pct)
		}
	}

	if c.Runner.PollInterval <= 0 {
		return errors.New("runner.poll_interval must be positive")
	}
	if c.Runner.MinMarketVolume < 0 {
		return errors.New("runner.min_market_volume must be >= 0")
	}
	if c.Runner.MaxSpread <= 0 || c.Runner.MaxSpread >= 1 {
		return fmt.Errorf("runner.max_spread must be in (0, 1), got %v", c.Runner.MaxSpread)
	}

	return nil
}
