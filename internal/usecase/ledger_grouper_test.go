package usecase_test

import (
	"testing"
	"time"

	"brokerage-billing/internal/domain"
	"brokerage-billing/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ledgerDay = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func ledgerEntry(id, party string, day int, at time.Duration, ref domain.ReferenceType, debit, credit, balance float64) domain.LedgerEntry {
	e := domain.LedgerEntry{
		ID:            id,
		Date:          ledgerDay.AddDate(0, 0, day),
		DebitAmount:   debit,
		CreditAmount:  credit,
		Balance:       balance,
		ReferenceType: ref,
		CreatedAt:     ledgerDay.AddDate(0, 0, day).Add(at),
	}
	if party != "" {
		e.PartyID = &party
	}
	return e
}

func TestGroupLedger(t *testing.T) {
	entries := []domain.LedgerEntry{
		ledgerEntry("L1", "P001", 0, time.Hour, domain.RefClientSettlement, 1000, 0, -1000),
		ledgerEntry("L2", "P001", 0, 2*time.Hour, domain.RefClientSettlement, 0, 1500, 500),
		ledgerEntry("L3", "P001", 0, 3*time.Hour, domain.RefBrokerage, 12.5, 0, 487.5),
		ledgerEntry("L4", "P001", 0, 4*time.Hour, domain.RefCarryForward, 200, 50, 337.5),
		ledgerEntry("L5", "P001", 0, 5*time.Hour, domain.ReferenceType("adjustment"), 999, 999, 0),
		ledgerEntry("L6", "", 0, time.Hour, domain.RefBrokerBrokerage, 0, 7.25, 7.25),
		ledgerEntry("L7", "P001", 1, time.Hour, domain.RefClientSettlement, 300, 0, -300),
	}

	groups := usecase.GroupLedger(entries, "")
	require.Len(t, groups, 3)

	p1 := groups[0]
	assert.Equal(t, "2025-09-01", p1.Date)
	assert.Equal(t, "P001", p1.PartyKey)
	assert.InDelta(t, 1000, p1.TradeBuy, 0.001)
	assert.InDelta(t, 1500, p1.TradeSell, 0.001)
	assert.InDelta(t, 500, p1.TradeBalance, 0.001)
	assert.InDelta(t, 200, p1.CFBuy, 0.001)
	assert.InDelta(t, 50, p1.CFSell, 0.001)
	assert.InDelta(t, 337.5, p1.CFBalance, 0.001)
	assert.InDelta(t, 12.5, p1.BrokerageTotal, 0.001)
	assert.InDelta(t, 487.5, p1.BrokerageBalance, 0.001)
	// 1500 - 1000 - 12.5 + 50 - 200
	assert.InDelta(t, 337.5, p1.NetProfit, 0.001)
	require.Len(t, p1.Entries, 5)
	assert.Equal(t, "L5", p1.Entries[4].ID)

	broker := groups[1]
	assert.Equal(t, domain.BrokerPartyKey, broker.PartyKey)
	assert.InDelta(t, 7.25, broker.BrokerageTotal, 0.001)
	assert.InDelta(t, -7.25, broker.NetProfit, 0.001)

	next := groups[2]
	assert.Equal(t, "2025-09-02", next.Date)
	assert.InDelta(t, 300, next.TradeBuy, 0.001)
	assert.InDelta(t, -300, next.TradeBalance, 0.001)
}

func TestGroupLedger_UnsortedInput(t *testing.T) {
	sorted := []domain.LedgerEntry{
		ledgerEntry("L1", "P001", 0, time.Hour, domain.RefClientSettlement, 100, 0, -100),
		ledgerEntry("L2", "P001", 0, 2*time.Hour, domain.RefClientSettlement, 0, 40, -60),
		ledgerEntry("L3", "P001", 0, 3*time.Hour, domain.RefClientSettlement, 10, 0, -70),
		ledgerEntry("L4", "P002", 1, time.Hour, domain.RefCarryForward, 5, 0, -5),
	}
	shuffled := []domain.LedgerEntry{sorted[3], sorted[2], sorted[0], sorted[1]}

	want := usecase.GroupLedger(sorted, "")
	got := usecase.GroupLedger(shuffled, "")
	assert.Equal(t, want, got)

	require.Len(t, got, 2)
	assert.InDelta(t, -70, got[0].TradeBalance, 0.001)
	assert.Equal(t, "L1", got[0].Entries[0].ID)

	// the caller's slice is left untouched
	assert.Equal(t, "L4", shuffled[0].ID)
}

func TestGroupLedger_TradeBalanceIsLastSettlement(t *testing.T) {
	var entries []domain.LedgerEntry
	for i := 0; i < 20; i++ {
		ref := domain.RefClientSettlement
		if i%3 == 0 {
			ref = domain.RefBrokerage
		}
		entries = append(entries, ledgerEntry("L", "P001", i%2, time.Duration(i)*time.Minute, ref, float64(i), 0, float64(i*10)))
	}

	for _, g := range usecase.GroupLedger(entries, "") {
		var last *domain.LedgerEntry
		for i := range g.Entries {
			if g.Entries[i].ReferenceType == domain.RefClientSettlement {
				last = &g.Entries[i]
			}
		}
		require.NotNil(t, last)
		assert.Equal(t, last.Balance, g.TradeBalance)
	}
}

func TestGroupLedger_Filter(t *testing.T) {
	entries := []domain.LedgerEntry{
		ledgerEntry("L1", "P001", 0, time.Hour, domain.RefClientSettlement, 1000, 0, -1000),
		ledgerEntry("L2", "P001", 0, 2*time.Hour, domain.RefBrokerage, 10, 0, -1010),
		ledgerEntry("L3", "P002", 0, time.Hour, domain.RefClientSettlement, 0, 20, 20),
	}

	tests := []struct {
		name       string
		filter     domain.ReferenceType
		wantGroups int
		wantIDs    []string
	}{
		{name: "no filter", filter: "", wantGroups: 2, wantIDs: []string{"L1", "L2", "L3"}},
		{name: "brokerage only", filter: domain.RefBrokerage, wantGroups: 1, wantIDs: []string{"L2"}},
		{name: "unmatched filter", filter: domain.RefCarryForward, wantGroups: 0, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := usecase.GroupLedger(entries, tt.filter)
			assert.Len(t, groups, tt.wantGroups)
			var ids []string
			for _, g := range groups {
				for _, e := range g.Entries {
					ids = append(ids, e.ID)
				}
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSummarizeLedger(t *testing.T) {
	groups := []domain.LedgerGroup{
		{TradeBuy: 1000, TradeSell: 1500, BrokerageTotal: 12.5, CFBuy: 200, CFSell: 50, NetProfit: 337.5},
		{TradeBuy: 0.1, TradeSell: 0.2, BrokerageTotal: 0.05, NetProfit: 0.05},
	}

	got := usecase.SummarizeLedger(groups)
	assert.Equal(t, 2, got.NumGroups)
	assert.Equal(t, 1000.1, got.TradeBuy)
	assert.Equal(t, 1500.2, got.TradeSell)
	assert.Equal(t, 200.0, got.CFBuy)
	assert.Equal(t, 50.0, got.CFSell)
	assert.Equal(t, 12.55, got.BrokerageTotal)
	assert.Equal(t, 337.55, got.NetProfit)

	assert.Equal(t, domain.LedgerTotals{}, usecase.SummarizeLedger(nil))
}

func BenchmarkGroupLedger(b *testing.B) {
	var entries []domain.LedgerEntry
	refs := []domain.ReferenceType{domain.RefClientSettlement, domain.RefCarryForward, domain.RefBrokerage}
	for i := 0; i < 1000; i++ {
		party := "P00" + string(rune('0'+i%10))
		entries = append(entries, ledgerEntry("L", party, i%30, time.Duration(i)*time.Second, refs[i%3], 100, 50, float64(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		usecase.GroupLedger(entries, "")
	}
}
