package usecase_test

import (
	"context"
	"testing"
	"time"

	"brokerage-billing/internal/domain"
	"brokerage-billing/internal/usecase"
	mock_usecase "brokerage-billing/internal/usecase/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const partyNotes = `PARTY BILL
Bill Number: PB-7
Party Code: P001
Party Name: Asha Traders

Total Transaction Value: ₹45,000.00
Total Buy Value: ₹25,000.00
Total Sell Value: ₹20,000.00
Delivery Amount: ₹25,000.00
Trading Amount: ₹20,000.00
Delivery Brokerage: ₹25.00
Trading Brokerage: ₹10.00
Net Amount: ₹45,035.00

DETAILED TRANSACTIONS
=====================

RELIANCE:
1. BUY 10 units @ ₹2,500.00 = ₹25,000.00 (Delivery) (Brokerage: ₹25.00)

TCS:
1. SELL 5 units @ ₹4,000.00 = ₹20,000.00 (Trading) (Brokerage: ₹10.00)
Subtotal - ₹20,000.00

----------------------------------------
Generated on: 2025-09-01 10:00:00
`

func TestBillReconciler_Reconcile(t *testing.T) {
	billDate := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		bill        domain.Bill
		items       []domain.LineItem
		setupMock   func(m *mock_usecase.MockNameResolver)
		wantSource  domain.SummarySource
		wantNumber  string
		wantName    string
		wantTotals  domain.BillTotals
		wantGroups  []string
		wantNumTrds int
	}{
		{
			name: "broker bill from items splits delivery and trading",
			bill: domain.BrokerBill{
				BillHeader: domain.BillHeader{ID: "b-2", Number: "BB-1", TotalAmount: 3000, BillDate: billDate},
				BrokerCode: "BRK01",
			},
			items: []domain.LineItem{
				{Description: "BUY RELIANCE", Quantity: 10, Rate: 100, Amount: 1000, TradeType: "D", BrokerageAmount: 10},
				{Description: "SELL TCS", Quantity: 20, Rate: 100, Amount: 2000, TradeType: "T", BrokerageAmount: 40},
			},
			setupMock: func(m *mock_usecase.MockNameResolver) {
				m.EXPECT().Resolve("BRK01").Return("Northside Securities", true)
			},
			wantSource: domain.SourceItems,
			wantNumber: "BB-1",
			wantName:   "Northside Securities",
			wantTotals: domain.BillTotals{
				BuyAmount:               1000,
				SellAmount:              2000,
				TransactionValue:        3000,
				DeliveryAmount:          1000,
				TradingAmount:           2000,
				DeliveryBrokerageAmount: 10,
				TradingBrokerageAmount:  40,
				TotalBrokerage:          50,
				NetAmount:               50,
			},
			wantGroups:  []string{"RELIANCE", "TCS"},
			wantNumTrds: 2,
		},
		{
			name: "party bill from items nets to the stored total",
			bill: domain.PartyBill{
				BillHeader: domain.BillHeader{ID: "b-1", TotalAmount: 45035},
				PartyCode:  "P001",
				PartyName:  "Asha Traders",
			},
			items: []domain.LineItem{
				{Description: "buy RELIANCE", Amount: 25000, TradeType: " d ", BrokerageAmount: 25},
				{Description: "BUY RELIANCE", Amount: 10, BrokerageAmount: 0},
				{Description: "SELL TCS", Amount: 20000, TradeType: "T", BrokerageAmount: 10},
			},
			setupMock: func(m *mock_usecase.MockNameResolver) {
				m.EXPECT().Resolve("P001").Return("", false)
			},
			wantSource: domain.SourceItems,
			wantNumber: "b-1",
			wantName:   "Asha Traders",
			wantTotals: domain.BillTotals{
				BuyAmount:               25010,
				SellAmount:              20000,
				TransactionValue:        45010,
				DeliveryAmount:          25000,
				TradingAmount:           20000,
				DeliveryBrokerageAmount: 25,
				TradingBrokerageAmount:  10,
				TotalBrokerage:          35,
				NetAmount:               45035,
			},
			wantGroups:  []string{"RELIANCE", "TCS"},
			wantNumTrds: 3,
		},
		{
			name: "notes narrative when items are missing",
			bill: domain.PartyBill{
				BillHeader: domain.BillHeader{ID: "b-7", Number: "PB-7", TotalAmount: 45035, Notes: partyNotes},
				PartyCode:  "P001",
			},
			setupMock: func(m *mock_usecase.MockNameResolver) {
				m.EXPECT().Resolve("P001").Return("", false)
			},
			wantSource: domain.SourceNotes,
			wantNumber: "PB-7",
			wantName:   "P001",
			wantTotals: domain.BillTotals{
				BuyAmount:               25000,
				SellAmount:              20000,
				TransactionValue:        45000,
				DeliveryAmount:          25000,
				TradingAmount:           20000,
				DeliveryBrokerageAmount: 25,
				TradingBrokerageAmount:  10,
				TotalBrokerage:          35,
				NetAmount:               45035,
			},
			wantGroups:  []string{"RELIANCE", "TCS"},
			wantNumTrds: 2,
		},
		{
			name: "broker narrative nets to its total brokerage label",
			bill: domain.PartyBill{
				BillHeader: domain.BillHeader{ID: "b-8", TotalAmount: 999, Notes: "BROKER BILL\nTotal Brokerage: ₹50.00\n\nBROKERAGE TRANSACTIONS\nINFY:\n1. BUY 100 units @ ₹10.00 = ₹1000.00 (Delivery) (Brokerage: ₹10.00)\n"},
			},
			wantSource:  domain.SourceNotes,
			wantNumber:  "b-8",
			wantName:    "",
			wantTotals:  domain.BillTotals{TotalBrokerage: 50, NetAmount: 999},
			wantGroups:  []string{"INFY"},
			wantNumTrds: 1,
		},
		{
			name: "stub when neither items nor notes exist",
			bill: domain.PartyBill{
				BillHeader: domain.BillHeader{ID: "b-9", TotalAmount: 1234.5},
				PartyCode:  "P009",
			},
			wantSource: domain.SourceStub,
			wantNumber: "b-9",
			wantName:   "P009",
			wantTotals: domain.BillTotals{NetAmount: 1234.5},
			wantGroups: []string{},
		},
		{
			name: "stub keeps the stored broker name",
			bill: domain.BrokerBill{
				BillHeader: domain.BillHeader{ID: "b-10", Number: "BB-10", TotalAmount: 75, Notes: "  \n"},
				BrokerCode: "BRK02",
				BrokerName: "Eastgate Capital",
			},
			wantSource: domain.SourceStub,
			wantNumber: "BB-10",
			wantName:   "Eastgate Capital",
			wantTotals: domain.BillTotals{NetAmount: 75},
			wantGroups: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			names := mock_usecase.NewMockNameResolver(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(names)
			}

			r := usecase.NewBillReconciler(names)
			got, err := r.Reconcile(context.Background(), tt.bill, tt.items)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSource, got.Source)
			assert.Equal(t, tt.wantNumber, got.BillNumber)
			assert.Equal(t, tt.wantName, got.PartyName)
			assert.Equal(t, tt.bill.Type(), got.BillType)
			assert.Equal(t, tt.bill.Header().BillDate, got.BillDate)
			assertTotalsInDelta(t, tt.wantTotals, got.Totals)

			require.NotNil(t, got.Transactions)
			securities := make([]string, 0, len(got.Transactions))
			numTrades := 0
			for _, g := range got.Transactions {
				securities = append(securities, g.Security)
				numTrades += len(g.Trades)
			}
			assert.Equal(t, tt.wantGroups, securities)
			assert.Equal(t, tt.wantNumTrds, numTrades)
		})
	}
}

func TestBillReconciler_Reconcile_NotFound(t *testing.T) {
	r := usecase.NewBillReconciler(nil)
	ctx := context.Background()

	t.Run("nil bill", func(t *testing.T) {
		got, err := r.Reconcile(ctx, nil, nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, got)
	})

	t.Run("bill without identifier", func(t *testing.T) {
		got, err := r.Reconcile(ctx, domain.PartyBill{BillHeader: domain.BillHeader{ID: " ", TotalAmount: 10}}, []domain.LineItem{{Amount: 10}})
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
		assert.Equal(t, "bill", nf.Resource)
		assert.Nil(t, got)
	})
}

func TestBillReconciler_ItemDerivation(t *testing.T) {
	r := usecase.NewBillReconciler(usecase.NameMap{})
	bill := domain.PartyBill{BillHeader: domain.BillHeader{ID: "b-1"}}
	items := []domain.LineItem{
		{Description: "sell  TCS", Quantity: 5, Rate: 4000, Amount: 20000, BrokerageAmount: 20},
		{Description: "", CompanyCode: "INFY", Amount: 100, BrokerageRatePct: 0.5, BrokerageAmount: 0.5},
		{Description: "   ", Amount: 50},
		{Description: "RELIANCE", Amount: 70},
	}

	got, err := r.Reconcile(context.Background(), bill, items)
	require.NoError(t, err)
	require.Len(t, got.Transactions, 4)

	tcs := got.Transactions[0].Trades[0]
	assert.Equal(t, "TCS", tcs.Security)
	assert.Equal(t, domain.SideSell, tcs.Side)
	assert.InDelta(t, 4000, tcs.Price, 1e-9)
	assert.InDelta(t, 0.1, tcs.BrokerageRatePct, 1e-9)

	infy := got.Transactions[1].Trades[0]
	assert.Equal(t, "INFY", infy.Security)
	assert.InDelta(t, 0.5, infy.BrokerageRatePct, 1e-9)

	assert.Equal(t, usecase.UnknownSecurity, got.Transactions[2].Security)

	rel := got.Transactions[3].Trades[0]
	assert.Equal(t, "RELIANCE", rel.Security)
	assert.Equal(t, domain.Side(""), rel.Side)

	// only BUY/SELL lines count towards the side totals
	assert.InDelta(t, 20220, got.Totals.TransactionValue, 1e-9)
	assert.InDelta(t, 20000, got.Totals.SellAmount, 1e-9)
	assert.Zero(t, got.Totals.BuyAmount)
}

func TestBillReconciler_GroupingConservesValue(t *testing.T) {
	r := usecase.NewBillReconciler(usecase.NameMap{"P001": "Asha Traders"})
	bill := domain.PartyBill{BillHeader: domain.BillHeader{ID: "b-1"}, PartyCode: "P001"}

	securities := []string{"BUY RELIANCE", "SELL TCS", "BUY INFY", "SELL RELIANCE", ""}
	var items []domain.LineItem
	want := 0.0
	for i := 0; i < 50; i++ {
		amount := float64(i)*101.37 + 0.01
		items = append(items, domain.LineItem{Description: securities[i%len(securities)], Amount: amount})
		want += amount
	}

	got, err := r.Reconcile(context.Background(), bill, items)
	require.NoError(t, err)
	assert.Equal(t, "Asha Traders", got.PartyName)

	sum := 0.0
	for _, g := range got.Transactions {
		sum += g.Subtotal
	}
	assert.InDelta(t, want, sum, 0.001)
	assert.InDelta(t, want, got.Totals.TransactionValue, 0.001)
}

func TestBillReconciler_Idempotent(t *testing.T) {
	r := usecase.NewBillReconciler(usecase.NameMap{"BRK01": "Northside Securities"})
	ctx := context.Background()

	inputs := []struct {
		bill  domain.Bill
		items []domain.LineItem
	}{
		{
			bill: domain.BrokerBill{BillHeader: domain.BillHeader{ID: "b-2"}, BrokerCode: "BRK01"},
			items: []domain.LineItem{
				{Description: "BUY RELIANCE", Amount: 1000, TradeType: "D", BrokerageAmount: 10},
				{Description: "SELL TCS", Amount: 2000, TradeType: "T", BrokerageAmount: 40},
			},
		},
		{
			bill: domain.PartyBill{BillHeader: domain.BillHeader{ID: "b-7", Notes: partyNotes}, PartyCode: "P001"},
		},
		{
			bill: domain.PartyBill{BillHeader: domain.BillHeader{ID: "b-9", TotalAmount: 12}},
		},
	}

	for _, in := range inputs {
		first, err := r.Reconcile(ctx, in.bill, in.items)
		require.NoError(t, err)
		second, err := r.Reconcile(ctx, in.bill, in.items)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func assertTotalsInDelta(t *testing.T, want, got domain.BillTotals) {
	t.Helper()
	assert.InDelta(t, want.BuyAmount, got.BuyAmount, 0.001, "BuyAmount")
	assert.InDelta(t, want.SellAmount, got.SellAmount, 0.001, "SellAmount")
	assert.InDelta(t, want.TransactionValue, got.TransactionValue, 0.001, "TransactionValue")
	assert.InDelta(t, want.DeliveryAmount, got.DeliveryAmount, 0.001, "DeliveryAmount")
	assert.InDelta(t, want.TradingAmount, got.TradingAmount, 0.001, "TradingAmount")
	assert.InDelta(t, want.DeliveryBrokerageAmount, got.DeliveryBrokerageAmount, 0.001, "DeliveryBrokerageAmount")
	assert.InDelta(t, want.TradingBrokerageAmount, got.TradingBrokerageAmount, 0.001, "TradingBrokerageAmount")
	assert.InDelta(t, want.TotalBrokerage, got.TotalBrokerage, 0.001, "TotalBrokerage")
	assert.InDelta(t, want.NetAmount, got.NetAmount, 0.001, "NetAmount")
}
