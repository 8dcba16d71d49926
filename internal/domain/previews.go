package domain

// PreviewItem is one row of a CSV bill import.
type PreviewItem struct {
	SecurityName     string  `json:"securityName"`
	Side             Side    `json:"side"`
	Quantity         float64 `json:"quantity"`
	Price            float64 `json:"price"`
	Amount           float64 `json:"amount"`
	ClientID         string  `json:"clientId"`
	CompanyCode      string  `json:"company_code"`
	CompanyName      string  `json:"company_name"`
	Type             string  `json:"type"`
	BrokerageRatePct float64 `json:"brokerage_rate_pct"`
	BrokerageAmount  float64 `json:"brokerage_amount"`
}

// PreviewSummary is the pre-aggregated header of a bill preview.
type PreviewSummary struct {
	TotalQuantity  float64 `json:"totalQuantity"`
	TotalAmount    float64 `json:"totalAmount"`
	TotalBrokerage float64 `json:"totalBrokerage"`
	NumClients     int     `json:"numClients"`
	NumCompanies   int     `json:"numCompanies"`
	NumItems       int     `json:"numItems"`
}

// BillPreview is the per-broker bill built from one CSV batch. A consolidated
// bill has the same shape.
type BillPreview struct {
	BrokerID string         `json:"brokerId"`
	Clients  []string       `json:"clients"`
	Items    []PreviewItem  `json:"items"`
	Summary  PreviewSummary `json:"summary"`
}

// ClientSubtotal is the client-wise view of a consolidated broker bill.
type ClientSubtotal struct {
	ClientID  string        `json:"clientId"`
	Amount    float64       `json:"amount"`
	Brokerage float64       `json:"brokerage"`
	Items     []PreviewItem `json:"items"`
}

// ConsolidatedBill pairs a merged broker bill with its client-wise view.
type ConsolidatedBill struct {
	Bill    BillPreview      `json:"bill"`
	Clients []ClientSubtotal `json:"clients"`
}
