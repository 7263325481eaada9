// Package config loads and validates the bot configuration.
package config

import (
	"time"

	"github.com/sharpmismatch/sportsagent/pkg/models"
)

// Config is the root configuration for the bot.
type Config struct {
	Mode     models.Mode    `yaml:"mode"`
	Exchange ExchangeConfig `yaml:"exchange"`
	OddsAPI  OddsAPIConfig  `yaml:"odds_api"`
	Research ResearchConfig `yaml:"research"`
	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`
	Runner   RunnerConfig   `yaml:"runner"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// ExchangeConfig holds exchange API settings.
type ExchangeConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`          // API key ID (for KALSHI-ACCESS-KEY header)
	PrivateKeyPath string `yaml:"private_key_path"` // Path to RSA private key PEM file
}

// OddsAPIConfig holds reference odds feed settings.
type OddsAPIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// ResearchConfig holds LLM research settings.
type ResearchConfig struct {
	PerplexityAPIKey string        `yaml:"perplexity_api_key"`
	PerplexityModel  string        `yaml:"perplexity_model"`
	OpenAIAPIKey     string        `yaml:"openai_api_key"`
	OpenAIModel      string        `yaml:"openai_model"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
}

// StrategyConfig holds edge and sizing parameters.
type StrategyConfig struct {
	EdgeThreshold        float64            `yaml:"edge_threshold"`
	LeagueEdgeThresholds map[string]float64 `yaml:"league_edge_thresholds"`
	KellyFactor          float64            `yaml:"kelly_factor"`
	SlippageTolerance    float64            `yaml:"slippage_tolerance"`
}

// RiskConfig holds exposure caps as fractions of bankroll.
type RiskConfig struct {
	MaxPerBetPct    float64 `yaml:"max_per_bet_pct"`
	MaxPerGamePct   float64 `yaml:"max_per_game_pct"`
	MaxDailyRiskPct float64 `yaml:"max_daily_risk_pct"`
	MaxPerTeamPct   float64 `yaml:"max_per_team_pct"`
}

// RunnerConfig holds polling and eligibility settings.
type RunnerConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	MinMarketVolume int           `yaml:"min_market_volume"`
	MaxSpread       float64       `yaml:"max_spread"`
	MinTimeToStart  time.Duration `yaml:"min_time_to_start"`
}

// HTTPConfig holds the status API listener settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// EdgeThresholdFor returns the edge threshold for a league, falling
// back to the global threshold when no override exists.
func (c *Config) EdgeThresholdFor(league string) float64 {
	if t, ok := c.Strategy.LeagueEdgeThresholds[league]; ok {
		return t
	}
	return c.Strategy.EdgeThreshold
}
