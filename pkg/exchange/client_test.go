package exchange

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestGetBalanceConvertsCents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio/balance" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"balance": 1000000}`))
	}))
	defer srv.Close()

	c := NewClient(nil, WithBaseURL(srv.URL))
	bal, err := c.GetBalance(context.Background())
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("balance = %s, want 10000", bal)
	}
}

func TestGetPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"positions": [
			{"ticker": "KXNBAGAME-25NOV20SACMEM-SAC", "position": 100, "average_price": 55, "current_yes_price": 60, "unrealized_pnl": 500},
			{"ticker": "KXNFLGAME-25NOV23KCBUF-KC", "position": 0, "average_price": 40}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(nil, WithBaseURL(srv.URL))
	positions, err := c.GetPositions(context.Background())
	if err != nil {
		t.Fatalf("GetPositions: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("len = %d, want 1 (zero positions dropped)", len(positions))
	}

	p := positions[0]
	if p.GameID != "KXNBAGAME-25NOV20SACMEM" {
		t.Errorf("GameID = %q", p.GameID)
	}
	if p.AveragePrice != 0.55 {
		t.Errorf("AveragePrice = %v, want 0.55", p.AveragePrice)
	}
	if p.League != "NBA" {
		t.Errorf("League = %q, want NBA", p.League)
	}
	if !p.MaxLoss.Equal(decimal.NewFromInt(55)) {
		t.Errorf("MaxLoss = %s, want 55", p.MaxLoss)
	}
}

func TestListSportsMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("series_ticker") != "KXNBAGAME" {
			w.Write([]byte(`{"markets": []}`))
			return
		}
		w.Write([]byte(`{"markets": [
			{"ticker": "KXNBAGAME-25NOV20SACMEM-SAC", "event_ticker": "KXNBAGAME-25NOV20SACMEM",
			 "title": "Sacramento vs Memphis Winner?", "yes_bid": 45, "yes_ask": 48, "no_bid": 52,
			 "volume": 5000, "close_time": "2026-03-01T19:00:00Z"},
			{"ticker": "KXMVENBASINGLEGAME-X-Y", "title": "combo", "yes_bid": 50, "no_bid": 50}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(nil, WithBaseURL(srv.URL))
	markets, err := c.ListSportsMarkets(context.Background())
	if err != nil {
		t.Fatalf("ListSportsMarkets: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("len = %d, want 1 (multivariate market dropped)", len(markets))
	}

	m := markets[0]
	if m.Team != "Sacramento" {
		t.Errorf("Team = %q, want Sacramento", m.Team)
	}
	if m.GameID != "KXNBAGAME-25NOV20SACMEM" {
		t.Errorf("GameID = %q", m.GameID)
	}
	if m.BestYes != 0.45 {
		t.Errorf("BestYes = %v, want 0.45", m.BestYes)
	}
	if math.Abs(m.Spread-0.03) > 1e-9 {
		t.Errorf("Spread = %v, want 0.03", m.Spread)
	}
	if m.League != "NBA" {
		t.Errorf("League = %q, want NBA", m.League)
	}
}

func TestPlaceYesOrder(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/portfolio/orders" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"order": {"order_id": "ord-123"}}`))
	}))
	defer srv.Close()

	c := NewClient(nil, WithBaseURL(srv.URL))
	orderID, err := c.PlaceYesOrder(context.Background(), "KXNBAGAME-25NOV20SACMEM-SAC", 0.47, 100)
	if err != nil {
		t.Fatalf("PlaceYesOrder: %v", err)
	}
	if orderID != "ord-123" {
		t.Errorf("orderID = %q, want ord-123", orderID)
	}
	want := `{"ticker":"KXNBAGAME-25NOV20SACMEM-SAC","action":"buy","side":"yes","type":"limit","count":100,"price":47}`
	if gotBody != want {
		t.Errorf("body = %s, want %s", gotBody, want)
	}
}

func TestParseTicker(t *testing.T) {
	tests := []struct {
		ticker   string
		title    string
		wantGame string
		wantTeam string
	}{
		{"KXNBAGAME-25NOV20SACMEM-SAC", "Sacramento vs Memphis Winner?", "KXNBAGAME-25NOV20SACMEM", "Sacramento"},
		{"KXNBAGAME-25NOV20SACMEM-MEM", "Sacramento vs Memphis Winner?", "KXNBAGAME-25NOV20SACMEM", "Memphis"},
		{"KXNFLGAME-25NOV23KCBUF-KC", "Kansas City vs Buffalo Winner?", "KXNFLGAME-25NOV23KCBUF", "Kansas City"},
		{"SHORT", "", "SHORT", ""},
		{"A-B-XYZ", "no separator here", "A-B", "XYZ"},
	}
	for _, tt := range tests {
		game, team := parseTicker(tt.ticker, tt.title)
		if game != tt.wantGame || team != tt.wantTeam {
			t.Errorf("parseTicker(%q, %q) = (%q, %q), want (%q, %q)",
				tt.ticker, tt.title, game, team, tt.wantGame, tt.wantTeam)
		}
	}
}
