package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultExchangeURL       = "https://api.demo.kalshi.com/trade-api/v2"
	DefaultOddsAPIURL        = "https://api.the-odds-api.com/v4"
	DefaultPerplexityModel   = "sonar-pro"
	DefaultOpenAIModel       = "gpt-4o"
	DefaultResearchCacheTTL  = 6 * time.Hour
	DefaultEdgeThreshold     = 0.07
	DefaultKellyFactor       = 0.25
	DefaultSlippageTolerance = 0.02
	DefaultMaxPerBetPct      = 0.02
	DefaultMaxPerGamePct     = 0.05
	DefaultMaxDailyRiskPct   = 0.10
	DefaultMaxPerTeamPct     = 0.08
	DefaultPollInterval      = 60 * time.Second
	DefaultMinMarketVolume   = 2000
	DefaultMaxSpread         = 0.08
	DefaultMinTimeToStart    = 5 * time.Minute
	DefaultHTTPAddr          = ":8080"
)

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "SHADOW"
	}

	if c.Exchange.BaseURL == "" {
		c.Exchange.BaseURL = DefaultExchangeURL
	}
	if c.OddsAPI.BaseURL == "" {
		c.OddsAPI.BaseURL = DefaultOddsAPIURL
	}

	if c.Research.PerplexityModel == "" {
		c.Research.PerplexityModel = DefaultPerplexityModel
	}
	if c.Research.OpenAIModel == "" {
		c.Research.OpenAIModel = DefaultOpenAIModel
	}
	if c.Research.CacheTTL == 0 {
		c.Research.CacheTTL = DefaultResearchCacheTTL
	}

	if c.Strategy.EdgeThreshold == 0 {
		c.Strategy.EdgeThreshold = DefaultEdgeThreshold
	}
	if c.Strategy.KellyFactor == 0 {
		c.Strategy.KellyFactor = DefaultKellyFactor
	}
	if c.Strategy.SlippageTolerance == 0 {
		c.Strategy.SlippageTolerance = DefaultSlippageTolerance
	}

	if c.Risk.MaxPerBetPct == 0 {
		c.Risk.MaxPerBetPct = DefaultMaxPerBetPct
	}
	if c.Risk.MaxPerGamePct == 0 {
		c.Risk.MaxPerGamePct = DefaultMaxPerGamePct
	}
	if c.Risk.MaxDailyRiskPct == 0 {
		c.Risk.MaxDailyRiskPct = DefaultMaxDailyRiskPct
	}
	if c.Risk.MaxPerTeamPct == 0 {
		c.Risk.MaxPerTeamPct = DefaultMaxPerTeamPct
	}

	if c.Runner.PollInterval == 0 {
		c.Runner.PollInterval = DefaultPollInterval
	}
	if c.Runner.MinMarketVolume == 0 {
		c.Runner.MinMarketVolume = DefaultMinMarketVolume
	}
	if c.Runner.MaxSpread == 0 {
		c.Runner.MaxSpread = DefaultMaxSpread
	}
	if c.Runner.MinTimeToStart == 0 {
		c.Runner.MinTimeToStart = DefaultMinTimeToStart
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
}
