// sportsbotd is the sports trading bot daemon. It polls exchange
// sports markets, de-vigs sportsbook odds, blends in LLM research, and
// sizes risk-capped fractional-Kelly stakes in shadow or live mode.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharpmismatch/sportsagent/pkg/config"
	"github.com/sharpmismatch/sportsagent/pkg/exchange"
	"github.com/sharpmismatch/sportsagent/pkg/execution"
	"github.com/sharpmismatch/sportsagent/pkg/match"
	"github.com/sharpmismatch/sportsagent/pkg/metrics"
	"github.com/sharpmismatch/sportsagent/pkg/models"
	"github.com/sharpmismatch/sportsagent/pkg/oddsfeed"
	"github.com/sharpmismatch/sportsagent/pkg/research"
	"github.com/sharpmismatch/sportsagent/pkg/risk"
	"github.com/sharpmismatch/sportsagent/pkg/runner"
	"github.com/sharpmismatch/sportsagent/pkg/streaming"

	"github.com/shopspring/decimal"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file")
	httpAddr   = flag.String("http", "", "HTTP listen address (overrides config)")
	modeFlag   = flag.String("mode", "", "Trading mode: SHADOW or LIVE (overrides config)")
	runOnce    = flag.Bool("once", false, "Run a single cycle and exit")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	app, err := newApp(cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go app.hub.Run(ctx)

	app.orch.OnTrade(func(trade *models.Trade) {
		slog.Info("trade executed",
			"mode", trade.Mode,
			"team", trade.Team,
			"league", trade.League,
			"stake", trade.Stake.StringFixed(2),
			"quantity", trade.Quantity,
			"limit_price", fmt.Sprintf("%.2f", trade.LimitPrice),
			"edge", fmt.Sprintf("%.4f", trade.Edge))
	})

	if *runOnce {
		result := app.orch.RunOnce(ctx)
		if result.Err != nil {
			slog.Error("cycle failed", "error", result.Err)
			os.Exit(1)
		}
		slog.Info("single cycle finished",
			"markets", result.MarketsSeen, "trades", result.TradesExecuted)
		return
	}

	srv := app.httpServer(cfg.HTTP.Addr)
	go func() {
		slog.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := app.orch.Run(ctx); err != nil && err != context.Canceled {
			slog.Error("orchestrator stopped", "error", err)
		}
	}()

	slog.Info("bot running",
		"mode", cfg.Mode,
		"poll_interval", cfg.Runner.PollInterval,
		"http", cfg.HTTP.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadAndValidate(*configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if *modeFlag != "" {
		cfg.Mode = models.Mode(*modeFlag)
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type app struct {
	cfg      *config.Config
	exchange runner.ExchangeClient
	executor *execution.Executor
	orch     *runner.Orchestrator
	metrics  *metrics.EngineMetrics
	hub      *streaming.Hub
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		metrics: metrics.New(),
		hub:     streaming.NewHub(),
	}

	// Exchange: signed client when credentials are configured, a
	// deterministic mock otherwise. Live mode requires credentials,
	// enforced at config validation.
	var placer execution.OrderPlacer
	if cfg.Exchange.APIKey != "" && cfg.Exchange.PrivateKeyPath != "" {
		creds, err := exchange.LoadCredentials(cfg.Exchange.APIKey, cfg.Exchange.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("loading exchange credentials: %w", err)
		}
		var opts []exchange.ClientOption
		if cfg.Exchange.BaseURL != "" {
			opts = append(opts, exchange.WithBaseURL(cfg.Exchange.BaseURL))
		}
		client := exchange.NewClient(creds, opts...)
		a.exchange = client
		placer = client
		slog.Info("exchange client initialized",
			"base_url", cfg.Exchange.BaseURL,
			"authenticated", client.Authenticated())
	} else {
		mock := exchange.NewMock(time.Now().UnixNano())
		a.exchange = mock
		placer = mock
		slog.Info("no exchange credentials, using mock exchange")
	}

	matcher := match.NewMatcher(nil)

	var feedOpts []oddsfeed.ClientOption
	if cfg.OddsAPI.BaseURL != "" {
		feedOpts = append(feedOpts, oddsfeed.WithBaseURL(cfg.OddsAPI.BaseURL))
	}
	oddsClient := oddsfeed.NewClient(cfg.OddsAPI.APIKey, matcher, feedOpts...)
	if cfg.OddsAPI.APIKey == "" {
		slog.Info("no odds API key, reference odds will be mocked")
	}

	researcher := buildResearcher(cfg, a.metrics)
	if researcher == nil {
		slog.Info("no research API keys, decisions will use fair odds only")
	}

	a.executor = execution.NewExecutor(cfg.Mode, cfg.Strategy.SlippageTolerance, placer)

	engine := risk.NewEngine(risk.Limits{
		MaxPerBetPct:    decimal.NewFromFloat(cfg.Risk.MaxPerBetPct),
		MaxPerGamePct:   decimal.NewFromFloat(cfg.Risk.MaxPerGamePct),
		MaxDailyRiskPct: decimal.NewFromFloat(cfg.Risk.MaxDailyRiskPct),
		MaxPerTeamPct:   decimal.NewFromFloat(cfg.Risk.MaxPerTeamPct),
	})

	a.orch = runner.New(cfg, a.exchange, oddsClient, researcher, a.executor, engine, matcher, a.metrics, a.hub)
	return a, nil
}

// buildResearcher wires the LLM providers in fallback order:
// Perplexity first for fresh sports context, OpenAI as backup. Returns
// nil when no key is configured.
func buildResearcher(cfg *config.Config, m *metrics.EngineMetrics) runner.Researcher {
	var clients []research.LLMClient
	if cfg.Research.PerplexityAPIKey != "" {
		clients = append(clients, research.NewChatClient(
			"perplexity",
			research.PerplexityBaseURL,
			cfg.Research.PerplexityAPIKey,
			cfg.Research.PerplexityModel,
		))
	}
	if cfg.Research.OpenAIAPIKey != "" {
		clients = append(clients, research.NewChatClient(
			"openai",
			research.OpenAIBaseURL,
			cfg.Research.OpenAIAPIKey,
			cfg.Research.OpenAIModel,
		))
	}
	if len(clients) == 0 {
		return nil
	}
	engine := research.NewEngine(clients, research.NewCache(cfg.Research.CacheTTL, nil))
	engine.SetMetrics(m)
	return engine
}

func (a *app) httpServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, a.orch.Status())
	})

	r.Get("/positions", func(w http.ResponseWriter, req *http.Request) {
		positions, err := a.exchange.GetPositions(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, positions)
	})

	r.Get("/trades", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, a.executor.Trades())
	})

	r.Handle("/metrics", promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{}))
	r.Get("/ws", a.hub.ServeWS)

	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}
