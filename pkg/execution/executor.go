// Package execution turns sized decisions into exchange orders, or
// journal entries when running in shadow mode.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sharpmismatch/sportsagent/pkg/models"
)

// Decision is a fully sized trade the risk engine already approved.
type Decision struct {
	MarketID   string
	GameID     string
	Team       string
	League     string
	FairProb   float64 // blended probability used for sizing
	MarketProb float64
	Edge       float64
	Stake      decimal.Decimal
}

// OrderPlacer places YES limit orders on the exchange.
type OrderPlacer interface {
	PlaceYesOrder(ctx context.Context, marketID string, price float64, count int) (string, error)
}

// Executor converts decisions into limit orders. In shadow mode the
// trade is journaled without touching the exchange.
type Executor struct {
	mode     models.Mode
	slippage float64 // added to the market price when setting the limit
	placer   OrderPlacer

	mu     sync.RWMutex
	trades []models.Trade
}

// NewExecutor creates an executor. The placer may be nil in shadow
// mode.
func NewExecutor(mode models.Mode, slippageTolerance float64, placer OrderPlacer) *Executor {
	return &Executor{
		mode:     mode,
		slippage: slippageTolerance,
		placer:   placer,
	}
}

// Execute sizes the order from the decision's stake and places it. A
// stake too small to buy a single contract produces no trade and a nil
// Trade with nil error.
func (e *Executor) Execute(ctx context.Context, d Decision) (*models.Trade, error) {
	limitPrice := math.Min(1.0, d.MarketProb+e.slippage)
	if limitPrice <= 0 {
		return nil, fmt.Errorf("market %s: limit price %.4f not positive", d.MarketID, limitPrice)
	}

	stake, _ := d.Stake.Float64()
	quantity := int(stake / limitPrice)
	if quantity <= 0 {
		slog.Debug("stake below one contract, skipping",
			"market_id", d.MarketID,
			"stake", d.Stake.StringFixed(2),
			"limit_price", fmt.Sprintf("%.4f", limitPrice))
		return nil, nil
	}

	trade := models.Trade{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		MarketID:   d.MarketID,
		GameID:     d.GameID,
		Team:       d.Team,
		League:     d.League,
		FairProb:   d.FairProb,
		MarketProb: d.MarketProb,
		Edge:       d.Edge,
		Stake:      d.Stake,
		Quantity:   quantity,
		LimitPrice: limitPrice,
		Mode:       e.mode,
	}

	if e.mode == models.ModeLive {
		if e.placer == nil {
			return nil, fmt.Errorf("live mode without an order placer")
		}
		orderID, err := e.placer.PlaceYesOrder(ctx, d.MarketID, limitPrice, quantity)
		if err != nil {
			return nil, fmt.Errorf("placing order on %s: %w", d.MarketID, err)
		}
		trade.OrderID = orderID
	} else {
		slog.Info("shadow trade",
			"market_id", d.MarketID,
			"team", d.Team,
			"quantity", quantity,
			"limit_price", fmt.Sprintf("%.4f", limitPrice),
			"stake", d.Stake.StringFixed(2),
			"edge", fmt.Sprintf("%.4f", d.Edge))
	}

	e.mu.Lock()
	e.trades = append(e.trades, trade)
	e.mu.Unlock()

	return &trade, nil
}

// Trades returns a copy of the journal, newest last.
func (e *Executor) Trades() []models.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.Trade, len(e.trades))
	copy(out, e.trades)
	return out
}
