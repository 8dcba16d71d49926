package usecase

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"brokerage-billing/internal/domain"
)

const (
	detailedSectionHeader  = "DETAILED TRANSACTIONS"
	brokerageSectionHeader = "BROKERAGE TRANSACTIONS"
)

const numberPattern = `[0-9][0-9,]*(?:\.[0-9]+)?`

var (
	tradeLinePattern = regexp.MustCompile(
		`^(\d+)\.\s*(?i:(BUY|SELL))\s+(` + numberPattern + `)\s+units?\s*@\s*₹\s*(` + numberPattern + `)` +
			`\s*=\s*₹\s*(` + numberPattern + `)` +
			`(?:\s*\((?i:(Delivery|Trading))\))?` +
			`(?:\s*\(Brokerage:\s*₹\s*(` + numberPattern + `)\))?`)
	ordinalPattern = regexp.MustCompile(`^\d+\.`)
	labelPattern   = regexp.MustCompile(`^([A-Za-z][A-Za-z ]*?)\s*:\s*₹\s*(` + numberPattern + `)\s*$`)
	rulePattern    = regexp.MustCompile(`^[=\-]{3,}$`)
)

// SkipReason explains why a line inside the transactions section produced no record.
type SkipReason string

const (
	SkipUnrecognized  SkipReason = "unrecognized"
	SkipOrphanTrade   SkipReason = "trade_without_security"
	SkipInvalidNumber SkipReason = "invalid_number"
)

// ParseSkip is a non-fatal parse miss. Line is 1-based within the notes.
type ParseSkip struct {
	Line   int        `json:"line"`
	Text   string     `json:"text"`
	Reason SkipReason `json:"reason"`
}

// NotesLabel names a labeled money line of the narrative ("Total Brokerage: ₹...").
type NotesLabel string

const (
	LabelTransactionValue  NotesLabel = "Total Transaction Value"
	LabelBuyValue          NotesLabel = "Total Buy Value"
	LabelSellValue         NotesLabel = "Total Sell Value"
	LabelDeliveryAmount    NotesLabel = "Delivery Amount"
	LabelTradingAmount     NotesLabel = "Trading Amount"
	LabelDeliveryBrokerage NotesLabel = "Delivery Brokerage"
	LabelTradingBrokerage  NotesLabel = "Trading Brokerage"
	LabelTotalBrokerage    NotesLabel = "Total Brokerage"
	LabelNetAmount         NotesLabel = "Net Amount"
)

var knownLabels = map[string]NotesLabel{}

func init() {
	for _, l := range []NotesLabel{
		LabelTransactionValue, LabelBuyValue, LabelSellValue,
		LabelDeliveryAmount, LabelTradingAmount,
		LabelDeliveryBrokerage, LabelTradingBrokerage, LabelTotalBrokerage,
		LabelNetAmount,
	} {
		knownLabels[strings.ToLower(string(l))] = l
	}
}

// NotesLabels holds the labeled money lines found in a narrative.
type NotesLabels map[NotesLabel]float64

// Value returns the labeled value, or 0 when the label is absent.
func (l NotesLabels) Value(label NotesLabel) float64 {
	return l[label]
}

func (l NotesLabels) Has(label NotesLabel) bool {
	_, ok := l[label]
	return ok
}

// NotesResult is the outcome of parsing one bill narrative.
type NotesResult struct {
	Trades       []domain.TradeRecord
	Skipped      []ParseSkip
	SectionFound bool
	IsBrokerBill bool
	Labels       NotesLabels
}

// Groups returns the trades grouped by security, in first-seen order.
func (r NotesResult) Groups() []domain.SecurityGroup {
	return groupTrades(r.Trades)
}

type lineKind int

const (
	lineSkip lineKind = iota
	lineSecurityHeader
	lineTrade
	lineSentinel
)

type classifiedLine struct {
	kind     lineKind
	security string
	trade    domain.TradeRecord
	reason   SkipReason
}

// ParseNotes recovers trade records from a legacy bill narrative.
// isBrokerBill selects which transactions header is looked for first.
// It never fails: unknown lines are reported in Skipped and parsing continues.
func ParseNotes(notes string, isBrokerBill bool) NotesResult {
	result := NotesResult{
		Trades:       []domain.TradeRecord{},
		IsBrokerBill: isBrokerBill,
		Labels:       NotesLabels{},
	}
	if strings.TrimSpace(notes) == "" {
		return result
	}

	lines := splitLines(notes)
	result.Labels = extractLabels(lines)

	headerIdx := findSection(lines, isBrokerBill)
	if headerIdx < 0 {
		return result
	}
	result.SectionFound = true

	var current string
	for i := headerIdx + 1; i < len(lines); i++ {
		raw := lines[i]
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		// the header's own underline
		if i-headerIdx <= 2 && rulePattern.MatchString(trimmed) {
			continue
		}

		cl := classifyLine(trimmed)
		switch cl.kind {
		case lineSentinel:
			return result
		case lineSecurityHeader:
			current = cl.security
		case lineTrade:
			if current == "" {
				result.Skipped = append(result.Skipped, ParseSkip{Line: i + 1, Text: trimmed, Reason: SkipOrphanTrade})
				continue
			}
			trade := cl.trade
			trade.Security = current
			result.Trades = append(result.Trades, trade)
		default:
			result.Skipped = append(result.Skipped, ParseSkip{Line: i + 1, Text: trimmed, Reason: cl.reason})
		}
	}
	return result
}

// DetectBrokerBill reports whether the narrative's title line marks a broker bill.
func DetectBrokerBill(notes string) bool {
	for _, line := range splitLines(notes) {
		if t := strings.TrimSpace(line); t != "" {
			return strings.Contains(strings.ToUpper(t), "BROKER")
		}
	}
	return false
}

func splitLines(notes string) []string {
	lines := strings.Split(notes, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

// findSection returns the index of the first line naming either section.
// Broker bills prefer the brokerage section wherever it appears.
func findSection(lines []string, isBrokerBill bool) int {
	if isBrokerBill {
		for i, l := range lines {
			if strings.Contains(l, brokerageSectionHeader) {
				return i
			}
		}
	}
	for i, l := range lines {
		if strings.Contains(l, detailedSectionHeader) || strings.Contains(l, brokerageSectionHeader) {
			return i
		}
	}
	return -1
}

func isSentinel(trimmed string) bool {
	return strings.HasPrefix(trimmed, "---") ||
		strings.Contains(trimmed, "Generated on:") ||
		strings.Contains(trimmed, "Bill Number:")
}

func classifyLine(trimmed string) classifiedLine {
	if isSentinel(trimmed) {
		return classifiedLine{kind: lineSentinel}
	}
	if m := tradeLinePattern.FindStringSubmatch(trimmed); m != nil {
		trade, ok := tradeFromMatch(m)
		if !ok {
			return classifiedLine{kind: lineSkip, reason: SkipInvalidNumber}
		}
		return classifiedLine{kind: lineTrade, trade: trade}
	}
	if len(trimmed) > 1 && strings.HasSuffix(trimmed, ":") && !ordinalPattern.MatchString(trimmed) {
		return classifiedLine{kind: lineSecurityHeader, security: strings.TrimSpace(strings.TrimSuffix(trimmed, ":"))}
	}
	return classifiedLine{kind: lineSkip, reason: SkipUnrecognized}
}

// m: full, ordinal, side, quantity, price, amount, trade type, brokerage
func tradeFromMatch(m []string) (domain.TradeRecord, bool) {
	qty, err1 := parseAmount(m[3])
	price, err2 := parseAmount(m[4])
	amount, err3 := parseAmount(m[5])
	if err1 != nil || err2 != nil || err3 != nil {
		return domain.TradeRecord{}, false
	}
	brokerage := decimal.Zero
	if m[7] != "" {
		b, err := parseAmount(m[7])
		if err != nil {
			return domain.TradeRecord{}, false
		}
		brokerage = b
	}

	trade := domain.TradeRecord{
		Side:             domain.Side(strings.ToUpper(m[2])),
		Quantity:         qty.InexactFloat64(),
		Price:            price.InexactFloat64(),
		Amount:           amount.InexactFloat64(),
		BrokerageAmount:  brokerage.InexactFloat64(),
		BrokerageRatePct: brokerageRate(brokerage, amount),
	}
	switch strings.ToLower(m[6]) {
	case "delivery":
		trade.TradeType = domain.TradeTypeDelivery
	case "trading":
		trade.TradeType = domain.TradeTypeTrading
	}
	return trade, true
}

func extractLabels(lines []string) NotesLabels {
	labels := NotesLabels{}
	for _, l := range lines {
		m := labelPattern.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			continue
		}
		label, ok := knownLabels[strings.ToLower(m[1])]
		if !ok {
			continue
		}
		v, err := parseAmount(m[2])
		if err != nil {
			continue
		}
		labels[label] = v.InexactFloat64()
	}
	return labels
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}
