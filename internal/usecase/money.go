package usecase

import (
	"github.com/shopspring/decimal"

	"brokerage-billing/internal/domain"
)

var hundred = decimal.NewFromInt(100)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// brokerageRate returns brokerage as a percentage of amount, 0 when amount is not positive.
func brokerageRate(brokerage, amount decimal.Decimal) float64 {
	if !amount.IsPositive() {
		return 0
	}
	return brokerage.Div(amount).Mul(hundred).InexactFloat64()
}

// groupTrades groups trades by security in first-seen order.
func groupTrades(trades []domain.TradeRecord) []domain.SecurityGroup {
	groups := []domain.SecurityGroup{}
	index := make(map[string]int)
	subtotals := []decimal.Decimal{}

	for _, t := range trades {
		i, ok := index[t.Security]
		if !ok {
			i = len(groups)
			index[t.Security] = i
			groups = append(groups, domain.SecurityGroup{Security: t.Security})
			subtotals = append(subtotals, decimal.Zero)
		}
		groups[i].Trades = append(groups[i].Trades, t)
		subtotals[i] = subtotals[i].Add(dec(t.Amount))
	}
	for i := range groups {
		groups[i].Subtotal = subtotals[i].InexactFloat64()
	}
	return groups
}
