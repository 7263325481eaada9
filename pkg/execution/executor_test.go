package execution

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sharpmismatch/sportsagent/pkg/models"
)

type fakePlacer struct {
	orderID  string
	err      error
	marketID string
	price    float64
	count    int
	calls    int
}

func (f *fakePlacer) PlaceYesOrder(ctx context.Context, marketID string, price float64, count int) (string, error) {
	f.calls++
	f.marketID = marketID
	f.price = price
	f.count = count
	if f.err != nil {
		return "", f.err
	}
	return f.orderID, nil
}

func decision() Decision {
	return Decision{
		MarketID:   "mkt-1",
		GameID:     "gm-1",
		Team:       "Lakers",
		League:     "NBA",
		FairProb:   0.60,
		MarketProb: 0.50,
		Edge:       0.10,
		Stake:      decimal.NewFromInt(200),
	}
}

func TestExecuteShadow(t *testing.T) {
	e := NewExecutor(models.ModeShadow, 0.02, nil)

	trade, err := e.Execute(context.Background(), decision())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if trade == nil {
		t.Fatal("expected a trade")
	}

	// Limit price 0.52, quantity floor(200/0.52) = 384.
	if math.Abs(trade.LimitPrice-0.52) > 1e-9 {
		t.Errorf("LimitPrice = %v, want 0.52", trade.LimitPrice)
	}
	if trade.Quantity != 384 {
		t.Errorf("Quantity = %d, want 384", trade.Quantity)
	}
	if trade.Mode != models.ModeShadow {
		t.Errorf("Mode = %q, want SHADOW", trade.Mode)
	}
	if trade.OrderID != "" {
		t.Errorf("OrderID = %q, want empty in shadow mode", trade.OrderID)
	}
	if trade.ID == "" {
		t.Error("trade ID not set")
	}

	if got := e.Trades(); len(got) != 1 || got[0].ID != trade.ID {
		t.Errorf("journal = %v, want single trade %s", got, trade.ID)
	}
}

func TestExecuteLive(t *testing.T) {
	placer := &fakePlacer{orderID: "ord-9"}
	e := NewExecutor(models.ModeLive, 0.02, placer)

	trade, err := e.Execute(context.Background(), decision())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if trade.OrderID != "ord-9" {
		t.Errorf("OrderID = %q, want ord-9", trade.OrderID)
	}
	if placer.marketID != "mkt-1" || placer.count != 384 {
		t.Errorf("placer got (%s, %d), want (mkt-1, 384)", placer.marketID, placer.count)
	}
	if math.Abs(placer.price-0.52) > 1e-9 {
		t.Errorf("placer price = %v, want 0.52", placer.price)
	}
}

func TestExecuteLivePlacerError(t *testing.T) {
	placer := &fakePlacer{err: errors.New("insufficient balance")}
	e := NewExecutor(models.ModeLive, 0.02, placer)

	if _, err := e.Execute(context.Background(), decision()); err == nil {
		t.Fatal("expected error from placer")
	}
	if len(e.Trades()) != 0 {
		t.Error("failed order must not be journaled")
	}
}

func TestExecuteZeroQuantitySkipped(t *testing.T) {
	e := NewExecutor(models.ModeShadow, 0.02, nil)

	d := decision()
	d.Stake = decimal.NewFromFloat(0.30) // less than one contract at 0.52

	trade, err := e.Execute(context.Background(), d)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if trade != nil {
		t.Errorf("trade = %+v, want nil", trade)
	}
	if len(e.Trades()) != 0 {
		t.Error("skipped decision must not be journaled")
	}
}

func TestExecuteLimitPriceCappedAtOne(t *testing.T) {
	e := NewExecutor(models.ModeShadow, 0.05, nil)

	d := decision()
	d.MarketProb = 0.98

	trade, err := e.Execute(context.Background(), d)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if trade.LimitPrice != 1.0 {
		t.Errorf("LimitPrice = %v, want 1.0", trade.LimitPrice)
	}
}
