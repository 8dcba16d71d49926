package usecase

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"brokerage-billing/internal/domain"
)

// SortLedgerEntries returns a copy ordered by (Date, CreatedAt), keeping the
// input order for ties.
func SortLedgerEntries(entries []domain.LedgerEntry) []domain.LedgerEntry {
	sorted := make([]domain.LedgerEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

type ledgerBucket struct {
	group               domain.LedgerGroup
	tradeBuy, tradeSell decimal.Decimal
	cfBuy, cfSell       decimal.Decimal
	brokerage           decimal.Decimal
}

// GroupLedger buckets entries by (date, party) and accumulates each bucket per
// economic category. Balances are last-write-wins, so entries are sorted by
// (Date, CreatedAt) first. An empty filter keeps every reference type.
func GroupLedger(entries []domain.LedgerEntry, filter domain.ReferenceType) []domain.LedgerGroup {
	var buckets []*ledgerBucket
	index := make(map[[2]string]*ledgerBucket)

	for _, e := range SortLedgerEntries(entries) {
		if filter != "" && e.ReferenceType != filter {
			continue
		}

		key := [2]string{e.Date.Format(time.DateOnly), e.PartyKey()}
		b, ok := index[key]
		if !ok {
			b = &ledgerBucket{group: domain.LedgerGroup{Date: key[0], PartyKey: key[1]}}
			index[key] = b
			buckets = append(buckets, b)
		}
		b.group.Entries = append(b.group.Entries, e)

		switch e.ReferenceType {
		case domain.RefClientSettlement:
			b.tradeBuy = b.tradeBuy.Add(dec(e.DebitAmount))
			b.tradeSell = b.tradeSell.Add(dec(e.CreditAmount))
			b.group.TradeBalance = e.Balance
		case domain.RefCarryForward:
			b.cfBuy = b.cfBuy.Add(dec(e.DebitAmount))
			b.cfSell = b.cfSell.Add(dec(e.CreditAmount))
			b.group.CFBalance = e.Balance
		case domain.RefBrokerage, domain.RefBrokerBrokerage:
			b.brokerage = b.brokerage.Add(decimal.Max(dec(e.DebitAmount), dec(e.CreditAmount)))
			b.group.BrokerageBalance = e.Balance
		}
	}

	groups := make([]domain.LedgerGroup, 0, len(buckets))
	for _, b := range buckets {
		g := b.group
		g.TradeBuy = b.tradeBuy.InexactFloat64()
		g.TradeSell = b.tradeSell.InexactFloat64()
		g.CFBuy = b.cfBuy.InexactFloat64()
		g.CFSell = b.cfSell.InexactFloat64()
		g.BrokerageTotal = b.brokerage.InexactFloat64()
		g.NetProfit = b.tradeSell.Sub(b.tradeBuy).Sub(b.brokerage).Add(b.cfSell).Sub(b.cfBuy).InexactFloat64()
		groups = append(groups, g)
	}
	return groups
}

// SummarizeLedger sums the category totals of the groups.
func SummarizeLedger(groups []domain.LedgerGroup) domain.LedgerTotals {
	var tradeBuy, tradeSell, cfBuy, cfSell, brokerage, profit decimal.Decimal
	for _, g := range groups {
		tradeBuy = tradeBuy.Add(dec(g.TradeBuy))
		tradeSell = tradeSell.Add(dec(g.TradeSell))
		cfBuy = cfBuy.Add(dec(g.CFBuy))
		cfSell = cfSell.Add(dec(g.CFSell))
		brokerage = brokerage.Add(dec(g.BrokerageTotal))
		profit = profit.Add(dec(g.NetProfit))
	}
	return domain.LedgerTotals{
		NumGroups:      len(groups),
		TradeBuy:       tradeBuy.InexactFloat64(),
		TradeSell:      tradeSell.InexactFloat64(),
		CFBuy:          cfBuy.InexactFloat64(),
		CFSell:         cfSell.InexactFloat64(),
		BrokerageTotal: brokerage.InexactFloat64(),
		NetProfit:      profit.InexactFloat64(),
	}
}
