package usecase

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"brokerage-billing/internal/domain"
)

// NormalizeBrokerID trims and upper-cases a broker identifier.
func NormalizeBrokerID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// NormalizeClientID trims and upper-cases a client code.
func NormalizeClientID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// AggregateByBroker merges previews sharing a normalized broker identity.
// Every broker in the input gets its own consolidated bill.
func AggregateByBroker(previews []domain.BillPreview) map[string]*domain.BillPreview {
	batches := make(map[string][]domain.BillPreview)
	for _, p := range previews {
		id := NormalizeBrokerID(p.BrokerID)
		batches[id] = append(batches[id], p)
	}

	out := make(map[string]*domain.BillPreview, len(batches))
	for id, batch := range batches {
		out[id] = mergePreviews(id, batch)
	}
	return out
}

// AggregateFirstBroker merges only the previews whose broker identity matches
// the first preview's; previews of other brokers are left out.
func AggregateFirstBroker(previews []domain.BillPreview) (*domain.BillPreview, bool) {
	if len(previews) == 0 {
		return nil, false
	}
	id := NormalizeBrokerID(previews[0].BrokerID)
	var batch []domain.BillPreview
	for _, p := range previews {
		if NormalizeBrokerID(p.BrokerID) == id {
			batch = append(batch, p)
		}
	}
	return mergePreviews(id, batch), true
}

// BrokerIDs returns the map keys in sorted order.
func BrokerIDs(bills map[string]*domain.BillPreview) []string {
	ids := make([]string, 0, len(bills))
	for id := range bills {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// mergePreviews sums the quantities and money of the batch, while client and
// company counts are recomputed from the merged state.
func mergePreviews(brokerID string, batch []domain.BillPreview) *domain.BillPreview {
	merged := &domain.BillPreview{
		BrokerID: brokerID,
		Clients:  []string{},
		Items:    []domain.PreviewItem{},
	}

	seenClients := make(map[string]bool)
	var qty, amount, brokerage decimal.Decimal
	for _, p := range batch {
		for _, c := range p.Clients {
			c = NormalizeClientID(c)
			if c == "" || seenClients[c] {
				continue
			}
			seenClients[c] = true
			merged.Clients = append(merged.Clients, c)
		}
		merged.Items = append(merged.Items, p.Items...)

		qty = qty.Add(dec(p.Summary.TotalQuantity))
		amount = amount.Add(dec(p.Summary.TotalAmount))
		brokerage = brokerage.Add(dec(p.Summary.TotalBrokerage))
		merged.Summary.NumItems += p.Summary.NumItems
	}

	companies := make(map[string]bool)
	for _, it := range merged.Items {
		if code := strings.TrimSpace(it.CompanyCode); code != "" {
			companies[code] = true
		}
	}

	merged.Summary.TotalQuantity = qty.InexactFloat64()
	merged.Summary.TotalAmount = amount.InexactFloat64()
	merged.Summary.TotalBrokerage = brokerage.InexactFloat64()
	merged.Summary.NumClients = len(merged.Clients)
	merged.Summary.NumCompanies = len(companies)
	return merged
}

// ClientWise groups the bill's items by normalized client id, in first-seen order.
func ClientWise(bill *domain.BillPreview) []domain.ClientSubtotal {
	out := []domain.ClientSubtotal{}
	if bill == nil {
		return out
	}

	index := make(map[string]int)
	var amounts, brokerages []decimal.Decimal
	for _, it := range bill.Items {
		id := NormalizeClientID(it.ClientID)
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, domain.ClientSubtotal{ClientID: id})
			amounts = append(amounts, decimal.Zero)
			brokerages = append(brokerages, decimal.Zero)
		}
		out[i].Items = append(out[i].Items, it)
		amounts[i] = amounts[i].Add(dec(it.Amount))
		brokerages[i] = brokerages[i].Add(dec(it.BrokerageAmount))
	}
	for i := range out {
		out[i].Amount = amounts[i].InexactFloat64()
		out[i].Brokerage = brokerages[i].InexactFloat64()
	}
	return out
}

// Consolidate pairs every merged bill with its client-wise view, ordered by broker id.
func Consolidate(bills map[string]*domain.BillPreview) []domain.ConsolidatedBill {
	out := make([]domain.ConsolidatedBill, 0, len(bills))
	for _, id := range BrokerIDs(bills) {
		out = append(out, domain.ConsolidatedBill{
			Bill:    *bills[id],
			Clients: ClientWise(bills[id]),
		})
	}
	return out
}
