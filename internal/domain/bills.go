package domain

import "time"

// BillType tells party bills apart from broker bills.
type BillType string

const (
	BillTypeParty  BillType = "party"
	BillTypeBroker BillType = "broker"
)

// SummarySource records which input a BillSummary was rebuilt from.
type SummarySource string

const (
	SourceItems SummarySource = "items"
	SourceNotes SummarySource = "notes"
	SourceStub  SummarySource = "stub"
)

// BillHeader carries the fields shared by every bill variant.
type BillHeader struct {
	ID          string    `json:"id"`
	Number      string    `json:"bill_number"`
	TotalAmount float64   `json:"total_amount"`
	Notes       string    `json:"notes,omitempty"`
	BillDate    time.Time `json:"bill_date"`
}

// Bill is either a PartyBill or a BrokerBill.
type Bill interface {
	Header() BillHeader
	Type() BillType
	// Counterparty returns the code and stored display name of whoever is billed.
	Counterparty() (code, name string)

	isBill()
}

// PartyBill is a bill raised on a client.
type PartyBill struct {
	BillHeader
	PartyCode string `json:"party_code"`
	PartyName string `json:"party_name,omitempty"`
}

func (b PartyBill) Header() BillHeader                { return b.BillHeader }
func (b PartyBill) Type() BillType                    { return BillTypeParty }
func (b PartyBill) Counterparty() (code, name string) { return b.PartyCode, b.PartyName }
func (PartyBill) isBill()                             {}

// BrokerBill is the brokerage bill raised on a broker. Its net amount is the
// brokerage collected, not the traded value.
type BrokerBill struct {
	BillHeader
	BrokerCode string `json:"broker_code"`
	BrokerName string `json:"broker_name,omitempty"`
}

func (b BrokerBill) Header() BillHeader                { return b.BillHeader }
func (b BrokerBill) Type() BillType                    { return BillTypeBroker }
func (b BrokerBill) Counterparty() (code, name string) { return b.BrokerCode, b.BrokerName }
func (BrokerBill) isBill()                             {}

// LineItem is a normalized bill line as stored.
type LineItem struct {
	Description      string    `json:"description"`
	Quantity         float64   `json:"quantity"`
	Rate             float64   `json:"rate"`
	Amount           float64   `json:"amount"`
	ClientCode       string    `json:"client_code,omitempty"`
	CompanyCode      string    `json:"company_code,omitempty"`
	TradeType        TradeType `json:"trade_type,omitempty"`
	BrokerageRatePct float64   `json:"brokerage_rate_pct,omitempty"`
	BrokerageAmount  float64   `json:"brokerage_amount,omitempty"`
}

// BillTotals are the money figures of a reconciled bill.
type BillTotals struct {
	BuyAmount               float64 `json:"buy_amount"`
	SellAmount              float64 `json:"sell_amount"`
	TransactionValue        float64 `json:"transaction_value"`
	DeliveryAmount          float64 `json:"delivery_amount"`
	TradingAmount           float64 `json:"trading_amount"`
	DeliveryBrokerageAmount float64 `json:"delivery_brokerage_amount"`
	TradingBrokerageAmount  float64 `json:"trading_brokerage_amount"`
	TotalBrokerage          float64 `json:"total_brokerage"`
	NetAmount               float64 `json:"net_amount"`
}

// BillSummary is the canonical in-memory view of a bill handed to renderers.
// Renderers must treat it as read-only.
type BillSummary struct {
	BillNumber   string          `json:"bill_number"`
	BillDate     time.Time       `json:"bill_date"`
	PartyCode    string          `json:"party_code"`
	PartyName    string          `json:"party_name"`
	BillType     BillType        `json:"bill_type"`
	Source       SummarySource   `json:"source"`
	Totals       BillTotals      `json:"totals"`
	Transactions []SecurityGroup `json:"transactions"`
}
