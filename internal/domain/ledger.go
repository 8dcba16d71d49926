package domain

import "time"

// ReferenceType classifies a ledger entry economically.
type ReferenceType string

const (
	RefClientSettlement ReferenceType = "client_settlement"
	RefCarryForward     ReferenceType = "carry_forward"
	RefBrokerage        ReferenceType = "brokerage"
	RefBrokerBrokerage  ReferenceType = "broker_brokerage"
)

// BrokerPartyKey is the group key used for entries without a party.
const BrokerPartyKey = "broker"

// LedgerEntry is one posted ledger line. A nil PartyID marks a broker-level entry.
type LedgerEntry struct {
	ID            string        `json:"id"`
	Date          time.Time     `json:"entry_date"`
	PartyID       *string       `json:"party_id"`
	Particulars   string        `json:"particulars"`
	DebitAmount   float64       `json:"debit_amount"`
	CreditAmount  float64       `json:"credit_amount"`
	Balance       float64       `json:"balance"`
	ReferenceType ReferenceType `json:"reference_type"`
	CreatedAt     time.Time     `json:"created_at"`
}

// PartyKey returns the party id, or BrokerPartyKey for broker-level entries.
func (e LedgerEntry) PartyKey() string {
	if e.PartyID == nil {
		return BrokerPartyKey
	}
	return *e.PartyID
}

// LedgerGroup buckets the entries of one party on one date.
// The *Balance fields hold the balance of the last entry of their category.
type LedgerGroup struct {
	Date             string        `json:"date"`
	PartyKey         string        `json:"party_key"`
	TradeBuy         float64       `json:"trade_buy"`
	TradeSell        float64       `json:"trade_sell"`
	TradeBalance     float64       `json:"trade_balance"`
	CFBuy            float64       `json:"cf_buy"`
	CFSell           float64       `json:"cf_sell"`
	CFBalance        float64       `json:"cf_balance"`
	BrokerageTotal   float64       `json:"brokerage_total"`
	BrokerageBalance float64       `json:"brokerage_balance"`
	NetProfit        float64       `json:"net_profit"`
	Entries          []LedgerEntry `json:"entries"`
}

// LedgerTotals sums the category accumulators over many groups.
type LedgerTotals struct {
	NumGroups      int     `json:"num_groups"`
	TradeBuy       float64 `json:"trade_buy"`
	TradeSell      float64 `json:"trade_sell"`
	CFBuy          float64 `json:"cf_buy"`
	CFSell         float64 `json:"cf_sell"`
	BrokerageTotal float64 `json:"brokerage_total"`
	NetProfit      float64 `json:"net_profit"`
}

// LedgerReport is the grouped view of a ledger with its grand totals.
type LedgerReport struct {
	Groups []LedgerGroup `json:"groups"`
	Totals LedgerTotals  `json:"totals"`
}
