package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"brokerage-billing/internal/domain"
	"brokerage-billing/internal/logger"
)

// UnknownSecurity names item groups whose security cannot be derived.
const UnknownSecurity = "Unknown Security"

// BillReconciler rebuilds one canonical BillSummary from a bill header and
// whatever detail survives for it: normalized items first, then the notes
// narrative, then the header alone.
type BillReconciler struct {
	names NameResolver
}

// NewBillReconciler creates a reconciler. A nil resolver never finds a name.
func NewBillReconciler(names NameResolver) *BillReconciler {
	return &BillReconciler{names: names}
}

// Reconcile returns a NotFoundError when the bill is nil or carries no
// identifier; any other gap in the data degrades the summary instead.
func (r *BillReconciler) Reconcile(ctx context.Context, bill domain.Bill, items []domain.LineItem) (*domain.BillSummary, error) {
	if bill == nil {
		return nil, &domain.NotFoundError{Resource: "bill"}
	}
	h := bill.Header()
	if strings.TrimSpace(h.ID) == "" && strings.TrimSpace(h.Number) == "" {
		return nil, &domain.NotFoundError{Resource: "bill"}
	}

	number := h.Number
	if number == "" {
		number = h.ID
	}
	summary := &domain.BillSummary{
		BillNumber: number,
		BillDate:   h.BillDate,
		BillType:   bill.Type(),
	}
	code, storedName := bill.Counterparty()
	summary.PartyCode = code

	switch {
	case len(items) > 0:
		summary.Source = domain.SourceItems
		summary.PartyName = r.displayName(ctx, code, storedName)
		summary.Transactions, summary.Totals = summarizeItems(items)
		summary.Totals.NetAmount = netAmount(bill, summary.Totals)
	case strings.TrimSpace(h.Notes) != "":
		summary.Source = domain.SourceNotes
		summary.PartyName = r.displayName(ctx, code, storedName)
		isBroker := bill.Type() == domain.BillTypeBroker || DetectBrokerBill(h.Notes)
		parsed := ParseNotes(h.Notes, isBroker)
		if len(parsed.Skipped) > 0 {
			logger.Debug(ctx, "Skipped unparsable note lines",
				"bill_number", number,
				"skipped", len(parsed.Skipped),
			)
		}
		summary.Transactions = parsed.Groups()
		summary.Totals = totalsFromLabels(parsed.Labels)
		summary.Totals.NetAmount = netAmount(bill, summary.Totals)
	default:
		summary.Source = domain.SourceStub
		summary.PartyName = storedName
		if summary.PartyName == "" {
			summary.PartyName = code
		}
		summary.Transactions = []domain.SecurityGroup{}
		summary.Totals.NetAmount = h.TotalAmount
	}

	return summary, nil
}

// displayName falls back to the stored name, then to the raw code.
func (r *BillReconciler) displayName(ctx context.Context, code, storedName string) string {
	if code == "" {
		return storedName
	}
	if r.names != nil {
		if name, ok := r.names.Resolve(code); ok {
			return name
		}
	}
	logger.Warn(ctx, "Display name lookup failed, using fallback", "code", code)
	if storedName != "" {
		return storedName
	}
	return code
}

func netAmount(bill domain.Bill, totals domain.BillTotals) float64 {
	if bill.Type() == domain.BillTypeBroker {
		return totals.TotalBrokerage
	}
	return bill.Header().TotalAmount
}

func summarizeItems(items []domain.LineItem) ([]domain.SecurityGroup, domain.BillTotals) {
	var (
		value, buy, sell          decimal.Decimal
		delivery, trading         decimal.Decimal
		deliveryBrkg, tradingBrkg decimal.Decimal
	)
	trades := make([]domain.TradeRecord, 0, len(items))

	for _, it := range items {
		amount := dec(it.Amount)
		brokerage := dec(it.BrokerageAmount)
		side := itemSide(it.Description)
		tradeType := domain.TradeType(strings.ToUpper(strings.TrimSpace(string(it.TradeType))))

		rate := it.BrokerageRatePct
		if rate == 0 {
			rate = brokerageRate(brokerage, amount)
		}
		trades = append(trades, domain.TradeRecord{
			Security:         itemSecurity(it),
			Side:             side,
			Quantity:         it.Quantity,
			Price:            it.Rate,
			Amount:           it.Amount,
			TradeType:        tradeType,
			BrokerageRatePct: rate,
			BrokerageAmount:  it.BrokerageAmount,
		})

		value = value.Add(amount)
		switch side {
		case domain.SideBuy:
			buy = buy.Add(amount)
		case domain.SideSell:
			sell = sell.Add(amount)
		}
		switch tradeType {
		case domain.TradeTypeDelivery:
			delivery = delivery.Add(amount)
			deliveryBrkg = deliveryBrkg.Add(brokerage)
		case domain.TradeTypeTrading:
			trading = trading.Add(amount)
			tradingBrkg = tradingBrkg.Add(brokerage)
		}
	}

	totals := domain.BillTotals{
		BuyAmount:               buy.InexactFloat64(),
		SellAmount:              sell.InexactFloat64(),
		TransactionValue:        value.InexactFloat64(),
		DeliveryAmount:          delivery.InexactFloat64(),
		TradingAmount:           trading.InexactFloat64(),
		DeliveryBrokerageAmount: deliveryBrkg.InexactFloat64(),
		TradingBrokerageAmount:  tradingBrkg.InexactFloat64(),
		TotalBrokerage:          deliveryBrkg.Add(tradingBrkg).InexactFloat64(),
	}
	return groupTrades(trades), totals
}

func totalsFromLabels(labels NotesLabels) domain.BillTotals {
	totals := domain.BillTotals{
		TransactionValue:        labels.Value(LabelTransactionValue),
		BuyAmount:               labels.Value(LabelBuyValue),
		SellAmount:              labels.Value(LabelSellValue),
		DeliveryAmount:          labels.Value(LabelDeliveryAmount),
		TradingAmount:           labels.Value(LabelTradingAmount),
		DeliveryBrokerageAmount: labels.Value(LabelDeliveryBrokerage),
		TradingBrokerageAmount:  labels.Value(LabelTradingBrokerage),
	}
	if labels.Has(LabelTotalBrokerage) {
		totals.TotalBrokerage = labels.Value(LabelTotalBrokerage)
	} else {
		totals.TotalBrokerage = dec(totals.DeliveryBrokerageAmount).Add(dec(totals.TradingBrokerageAmount)).InexactFloat64()
	}
	return totals
}

// itemSecurity strips a leading BUY/SELL token from the description and falls
// back to the company code, then to UnknownSecurity.
func itemSecurity(it domain.LineItem) string {
	desc := strings.TrimSpace(it.Description)
	if _, rest, ok := cutSidePrefix(desc); ok {
		desc = strings.TrimSpace(rest)
	}
	if desc != "" {
		return desc
	}
	if code := strings.TrimSpace(it.CompanyCode); code != "" {
		return code
	}
	return UnknownSecurity
}

func itemSide(description string) domain.Side {
	side, _, _ := cutSidePrefix(strings.TrimSpace(description))
	return side
}

func cutSidePrefix(desc string) (domain.Side, string, bool) {
	for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
		prefix := string(side) + " "
		if len(desc) >= len(prefix) && strings.EqualFold(desc[:len(prefix)], prefix) {
			return side, desc[len(prefix):], true
		}
	}
	return "", desc, false
}
