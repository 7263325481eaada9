package exchange

// API payloads. Prices and money amounts arrive in cents.

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type apiPosition struct {
	Ticker          string `json:"ticker"`
	Position        int    `json:"position"`
	AveragePrice    int    `json:"average_price"`
	CurrentYesPrice int    `json:"current_yes_price"`
	UnrealizedPnL   int64  `json:"unrealized_pnl"`
}

type positionsResponse struct {
	Positions []apiPosition `json:"positions"`
}

type apiMarket struct {
	Ticker                 string `json:"ticker"`
	EventTicker            string `json:"event_ticker"`
	Title                  string `json:"title"`
	Subtitle               string `json:"subtitle"`
	YesBid                 int    `json:"yes_bid"`
	YesAsk                 int    `json:"yes_ask"`
	NoBid                  int    `json:"no_bid"`
	Volume                 int    `json:"volume"`
	ExpectedExpirationTime string `json:"expected_expiration_time"`
	ExpirationTime         string `json:"expiration_time"`
	CloseTime              string `json:"close_time"`
	Status                 string `json:"status"`
}

type marketsResponse struct {
	Markets []apiMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

type orderRequest struct {
	Ticker string `json:"ticker"`
	Action string `json:"action"`
	Side   string `json:"side"`
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Price  int    `json:"price"`
}

type orderResponse struct {
	OrderID string `json:"order_id"`
	Order   struct {
		OrderID string `json:"order_id"`
	} `json:"order"`
}
