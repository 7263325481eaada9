// Package metrics provides Prometheus metrics for the betting engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// EngineMetrics collects and exposes pipeline Prometheus metrics.
type EngineMetrics struct {
	registry *prometheus.Registry

	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration *prometheus.HistogramVec
	MarketsSeen   prometheus.Gauge

	// Decision metrics
	DecisionsTotal *prometheus.CounterVec
	EdgeObserved   *prometheus.HistogramVec
	StakeSize      *prometheus.HistogramVec

	// Trade metrics
	TradesTotal *prometheus.CounterVec
	TradeVolume *prometheus.CounterVec

	// Risk metrics
	RiskRejections *prometheus.CounterVec
	Bankroll       prometheus.Gauge
	TotalExposure  prometheus.Gauge

	// Research metrics
	ResearchTotal   *prometheus.CounterVec
	ResearchLatency *prometheus.HistogramVec
}

// New creates a metrics collector with its own registry.
func New() *EngineMetrics {
	registry := prometheus.NewRegistry()

	m := &EngineMetrics{
		registry: registry,

		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsagent_cycles_total",
				Help: "Total number of pipeline cycles run",
			},
			[]string{"status"},
		),
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sportsagent_cycle_duration_seconds",
				Help:    "Pipeline cycle duration",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~400s
			},
			[]string{},
		),
		MarketsSeen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sportsagent_markets_seen",
				Help: "Markets fetched in the latest cycle",
			},
		),

		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsagent_decisions_total",
				Help: "Market decisions by outcome",
			},
			[]string{"outcome"},
		),
		EdgeObserved: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sportsagent_edge_observed",
				Help:    "Edge on markets that passed eligibility",
				Buckets: prometheus.LinearBuckets(-0.2, 0.04, 11), // -0.2 to 0.2
			},
			[]string{"league"},
		),
		StakeSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sportsagent_stake_usd",
				Help:    "Capped stake size in USD",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"league"},
		),

		TradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsagent_trades_total",
				Help: "Trades executed by mode",
			},
			[]string{"mode", "league"},
		),
		TradeVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsagent_trade_volume_usd",
				Help: "Total staked volume in USD",
			},
			[]string{"mode"},
		),

		RiskRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsagent_risk_rejections_total",
				Help: "Trades rejected by the risk engine",
			},
			[]string{"limit"},
		),
		Bankroll: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sportsagent_bankroll_usd",
				Help: "Account balance in USD",
			},
		),
		TotalExposure: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sportsagent_total_exposure_usd",
				Help: "Worst-case open exposure in USD",
			},
		),

		ResearchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsagent_research_total",
				Help: "Research calls by provider and status",
			},
			[]string{"provider", "status"},
		),
		ResearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sportsagent_research_latency_seconds",
				Help:    "Research call latency",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~100s
			},
			[]string{"provider"},
		),
	}

	m.registerAll()

	return m
}

func (m *EngineMetrics) registerAll() {
	m.registry.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.MarketsSeen,
		m.DecisionsTotal,
		m.EdgeObserved,
		m.StakeSize,
		m.TradesTotal,
		m.TradeVolume,
		m.RiskRejections,
		m.Bankroll,
		m.TotalExposure,
		m.ResearchTotal,
		m.ResearchLatency,
	)
}

// Registry returns the prometheus registry for HTTP exposure.
func (m *EngineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordCycle records one pipeline cycle.
func (m *EngineMetrics) RecordCycle(status string, durationSec float64, marketsSeen int) {
	m.CyclesTotal.WithLabelValues(status).Inc()
	if durationSec > 0 {
		m.CycleDuration.WithLabelValues().Observe(durationSec)
	}
	m.MarketsSeen.Set(float64(marketsSeen))
}

// RecordDecision records the outcome of evaluating one market.
func (m *EngineMetrics) RecordDecision(outcome string) {
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordEdge records the edge seen on an eligible market.
func (m *EngineMetrics) RecordEdge(league string, edge float64) {
	m.EdgeObserved.WithLabelValues(league).Observe(edge)
}

// RecordTrade records an executed trade.
func (m *EngineMetrics) RecordTrade(mode, league string, stake decimal.Decimal) {
	m.TradesTotal.WithLabelValues(mode, league).Inc()
	m.TradeVolume.WithLabelValues(mode).Add(DecimalToFloat64(stake))
	m.StakeSize.WithLabelValues(league).Observe(DecimalToFloat64(stake))
}

// RecordRiskRejection counts a rejection by the limit that fired.
func (m *EngineMetrics) RecordRiskRejection(limit string) {
	m.RiskRejections.WithLabelValues(limit).Inc()
}

// UpdateAccount updates bankroll and exposure gauges.
func (m *EngineMetrics) UpdateAccount(bankroll, exposure decimal.Decimal) {
	m.Bankroll.Set(DecimalToFloat64(bankroll))
	m.TotalExposure.Set(DecimalToFloat64(exposure))
}

// RecordResearch records a research call.
func (m *EngineMetrics) RecordResearch(provider, status string, latencySec float64) {
	m.ResearchTotal.WithLabelValues(provider, status).Inc()
	if latencySec > 0 {
		m.ResearchLatency.WithLabelValues(provider).Observe(latencySec)
	}
}

// DecimalToFloat64 safely converts decimal.Decimal to float64 for metrics.
func DecimalToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
