package exchange

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sharpmismatch/sportsagent/pkg/models"
)

// Mock serves synthetic markets and a fixed bankroll so shadow mode
// works without API keys. Orders are never accepted.
type Mock struct {
	Bankroll decimal.Decimal
	rng      *rand.Rand
}

// NewMock creates a mock exchange with a $10,000 bankroll.
func NewMock(seed int64) *Mock {
	return &Mock{
		Bankroll: decimal.NewFromInt(10000),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// GetBalance returns the fixed mock bankroll.
func (m *Mock) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	return m.Bankroll, nil
}

// GetPositions returns no positions.
func (m *Mock) GetPositions(ctx context.Context) ([]models.Position, error) {
	return nil, nil
}

var mockGames = []struct {
	teamA, teamB, league string
}{
	{"Lakers", "Warriors", "NBA"},
	{"Chiefs", "Bills", "NFL"},
	{"Man City", "Liverpool", "EPL"},
}

// ListSportsMarkets generates one synthetic market per mock game.
func (m *Mock) ListSportsMarkets(ctx context.Context) ([]models.Market, error) {
	markets := make([]models.Market, 0, len(mockGames))
	for i, g := range mockGames {
		yesPrice := clamp(0.45+m.rng.Float64()*0.2-0.1, 0.01, 0.99)
		markets = append(markets, models.Market{
			MarketID:  fmt.Sprintf("market_%d", i),
			EventName: fmt.Sprintf("%s vs %s", g.teamA, g.teamB),
			GameID:    fmt.Sprintf("%s_%s_%s_%d", g.league, g.teamA, g.teamB, i),
			League:    g.league,
			Team:      g.teamA,
			BestYes:   yesPrice,
			BestNo:    clamp(1.0-yesPrice, 0.01, 0.99),
			Volume:    1000 + m.rng.Intn(9000),
			Spread:    0.02 + m.rng.Float64()*0.08,
			StartTime: time.Now().Add(2 * time.Hour),
			Title:     fmt.Sprintf("%s to win vs %s", g.teamA, g.teamB),
		})
	}
	return markets, nil
}

// PlaceYesOrder always fails; the mock exchange takes no orders.
func (m *Mock) PlaceYesOrder(ctx context.Context, marketID string, price float64, count int) (string, error) {
	return "", fmt.Errorf("mock exchange does not accept orders")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
