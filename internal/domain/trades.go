package domain

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeType separates delivery trades from intraday (trading) ones.
type TradeType string

const (
	TradeTypeDelivery TradeType = "D"
	TradeTypeTrading  TradeType = "T"
)

// TradeRecord is one executed trade as it appears on a bill.
// When the record comes from bill notes, Amount is the persisted value and
// is kept even if it disagrees with Quantity*Price.
type TradeRecord struct {
	Security         string    `json:"security"`
	Side             Side      `json:"side"`
	Quantity         float64   `json:"quantity"`
	Price            float64   `json:"price"`
	Amount           float64   `json:"amount"`
	TradeType        TradeType `json:"trade_type,omitempty"`
	BrokerageRatePct float64   `json:"brokerage_rate_pct,omitempty"`
	BrokerageAmount  float64   `json:"brokerage_amount,omitempty"`
}

// SecurityGroup holds the trades of one security. Subtotal is the sum of
// trade amounts and never includes brokerage.
type SecurityGroup struct {
	Security string        `json:"security"`
	Trades   []TradeRecord `json:"trades"`
	Subtotal float64       `json:"subtotal"`
}
