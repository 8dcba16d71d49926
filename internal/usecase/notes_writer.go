package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"

	"brokerage-billing/internal/domain"
)

// WriteNotes renders a summary in the legacy narrative format read by ParseNotes.
// Trades without a BUY/SELL side are written as-is and will not parse back.
func WriteNotes(s domain.BillSummary, generatedAt time.Time) string {
	var b strings.Builder

	broker := s.BillType == domain.BillTypeBroker
	title, who, section := "PARTY BILL", "Party", detailedSectionHeader
	if broker {
		title, who, section = "BROKER BILL", "Broker", brokerageSectionHeader
	}

	fmt.Fprintln(&b, title)
	fmt.Fprintf(&b, "Bill Number: %s\n", s.BillNumber)
	if !s.BillDate.IsZero() {
		fmt.Fprintf(&b, "Bill Date: %s\n", s.BillDate.Format(time.DateOnly))
	}
	fmt.Fprintf(&b, "%s Code: %s\n", who, s.PartyCode)
	fmt.Fprintf(&b, "%s Name: %s\n", who, s.PartyName)
	fmt.Fprintln(&b)

	t := s.Totals
	for _, l := range []struct {
		label NotesLabel
		value float64
	}{
		{LabelTransactionValue, t.TransactionValue},
		{LabelBuyValue, t.BuyAmount},
		{LabelSellValue, t.SellAmount},
		{LabelDeliveryAmount, t.DeliveryAmount},
		{LabelTradingAmount, t.TradingAmount},
		{LabelDeliveryBrokerage, t.DeliveryBrokerageAmount},
		{LabelTradingBrokerage, t.TradingBrokerageAmount},
		{LabelTotalBrokerage, t.TotalBrokerage},
		{LabelNetAmount, t.NetAmount},
	} {
		fmt.Fprintf(&b, "%s: %s\n", l.label, rupees(l.value))
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, section)
	fmt.Fprintln(&b, strings.Repeat("=", len(section)))
	fmt.Fprintln(&b)
	for _, g := range s.Transactions {
		fmt.Fprintf(&b, "%s:\n", g.Security)
		for i, tr := range g.Trades {
			fmt.Fprintf(&b, "%d. %s %s units @ %s = %s", i+1, tr.Side,
				strconv.FormatFloat(tr.Quantity, 'f', -1, 64), rupeePrice(tr.Price), rupees(tr.Amount))
			switch tr.TradeType {
			case domain.TradeTypeDelivery:
				b.WriteString(" (Delivery)")
			case domain.TradeTypeTrading:
				b.WriteString(" (Trading)")
			}
			if tr.BrokerageAmount != 0 {
				fmt.Fprintf(&b, " (Brokerage: %s)", rupees(tr.BrokerageAmount))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	fmt.Fprintln(&b, strings.Repeat("-", 40))
	fmt.Fprintf(&b, "Generated on: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

var inr = money.GetCurrency(money.INR)

// rupees formats v as "₹1,234.50", rounded to paise.
func rupees(v float64) string {
	paise := dec(v).Round(int32(inr.Fraction)).Shift(int32(inr.Fraction))
	return inr.Formatter().Format(paise.IntPart())
}

// rupeePrice formats a unit price with every decimal it carries, never fewer
// than two, so prices below a paisa survive a re-parse.
func rupeePrice(v float64) string {
	d := dec(v)
	places := inr.Fraction
	if exp := int(-d.Exponent()); exp > places {
		places = exp
	}
	f := money.NewFormatter(places, inr.Decimal, inr.Thousand, inr.Grapheme, inr.Template)
	return f.Format(d.Shift(int32(places)).IntPart())
}
