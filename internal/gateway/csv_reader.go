package gateway

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"brokerage-billing/internal/domain"
)

var previewColumns = []string{
	"broker_id", "client_id", "security_name", "side", "quantity", "price", "amount",
	"company_code", "company_name", "type", "brokerage_rate_pct", "brokerage_amount",
}

var ledgerColumns = []string{
	"id", "entry_date", "party_id", "particulars", "debit_amount", "credit_amount",
	"balance", "reference_type", "created_at",
}

// csvRecord gives access to a CSV row by header name.
type csvRecord struct {
	columns map[string]int
	fields  []string
}

func (r csvRecord) get(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// number parses an optional numeric column; blank means zero.
func (r csvRecord) number(name string) (decimal.Decimal, error) {
	v := strings.ReplaceAll(r.get(name), ",", "")
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not parse %s '%s': %w", name, v, err)
	}
	return d, nil
}

// readCSV opens path, checks that the header names every required column and
// calls fn for each data row. Row errors are prefixed with path:line.
func readCSV(path string, required []string, fn func(rec csvRecord) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range required {
		if _, ok := columns[c]; !ok {
			return fmt.Errorf("missing column %s in %s", c, path)
		}
	}

	line := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("error reading record from %s: %w", path, err)
		}
		if err := fn(csvRecord{columns: columns, fields: fields}); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
}

// CSVPreviewRepository reads bill previews from CSV imports.
type CSVPreviewRepository struct{}

// NewCSVPreviewRepository creates a new repository instance.
func NewCSVPreviewRepository() *CSVPreviewRepository {
	return &CSVPreviewRepository{}
}

// GetBillPreviews returns one preview per broker identity found in each file,
// in file order and then first-seen order within a file.
func (r *CSVPreviewRepository) GetBillPreviews(ctx context.Context, paths []string) ([]domain.BillPreview, error) {
	var previews []domain.BillPreview

	for _, path := range paths {
		var batch []*previewBuilder
		index := make(map[string]*previewBuilder)

		err := readCSV(path, previewColumns, func(rec csvRecord) error {
			item, err := previewItemFromRecord(rec)
			if err != nil {
				return err
			}
			brokerID := rec.get("broker_id")
			b, ok := index[brokerID]
			if !ok {
				b = newPreviewBuilder(brokerID)
				index[brokerID] = b
				batch = append(batch, b)
			}
			b.add(item)
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, b := range batch {
			previews = append(previews, b.build())
		}
	}
	return previews, nil
}

func previewItemFromRecord(rec csvRecord) (domain.PreviewItem, error) {
	qty, err := rec.number("quantity")
	if err != nil {
		return domain.PreviewItem{}, err
	}
	price, err := rec.number("price")
	if err != nil {
		return domain.PreviewItem{}, err
	}
	amount, err := rec.number("amount")
	if err != nil {
		return domain.PreviewItem{}, err
	}
	if amount.IsZero() {
		amount = qty.Mul(price)
	}
	rate, err := rec.number("brokerage_rate_pct")
	if err != nil {
		return domain.PreviewItem{}, err
	}
	brokerage, err := rec.number("brokerage_amount")
	if err != nil {
		return domain.PreviewItem{}, err
	}
	if brokerage.IsZero() && !rate.IsZero() {
		brokerage = amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	}

	return domain.PreviewItem{
		SecurityName:     rec.get("security_name"),
		Side:             domain.Side(strings.ToUpper(rec.get("side"))),
		Quantity:         qty.InexactFloat64(),
		Price:            price.InexactFloat64(),
		Amount:           amount.InexactFloat64(),
		ClientID:         rec.get("client_id"),
		CompanyCode:      rec.get("company_code"),
		CompanyName:      rec.get("company_name"),
		Type:             strings.ToUpper(rec.get("type")),
		BrokerageRatePct: rate.InexactFloat64(),
		BrokerageAmount:  brokerage.InexactFloat64(),
	}, nil
}

type previewBuilder struct {
	preview                domain.BillPreview
	clients, companies     map[string]bool
	qty, amount, brokerage decimal.Decimal
}

func newPreviewBuilder(brokerID string) *previewBuilder {
	return &previewBuilder{
		preview: domain.BillPreview{
			BrokerID: brokerID,
			Clients:  []string{},
			Items:    []domain.PreviewItem{},
		},
		clients:   make(map[string]bool),
		companies: make(map[string]bool),
	}
}

func (b *previewBuilder) add(item domain.PreviewItem) {
	b.preview.Items = append(b.preview.Items, item)
	if item.ClientID != "" && !b.clients[item.ClientID] {
		b.clients[item.ClientID] = true
		b.preview.Clients = append(b.preview.Clients, item.ClientID)
	}
	if item.CompanyCode != "" {
		b.companies[item.CompanyCode] = true
	}
	b.qty = b.qty.Add(decimal.NewFromFloat(item.Quantity))
	b.amount = b.amount.Add(decimal.NewFromFloat(item.Amount))
	b.brokerage = b.brokerage.Add(decimal.NewFromFloat(item.BrokerageAmount))
}

func (b *previewBuilder) build() domain.BillPreview {
	p := b.preview
	p.Summary = domain.PreviewSummary{
		TotalQuantity:  b.qty.InexactFloat64(),
		TotalAmount:    b.amount.InexactFloat64(),
		TotalBrokerage: b.brokerage.InexactFloat64(),
		NumClients:     len(b.clients),
		NumCompanies:   len(b.companies),
		NumItems:       len(p.Items),
	}
	return p
}

// CSVLedgerRepository reads ledger entries from a CSV export.
type CSVLedgerRepository struct{}

// NewCSVLedgerRepository creates a new repository instance.
func NewCSVLedgerRepository() *CSVLedgerRepository {
	return &CSVLedgerRepository{}
}

// GetLedgerEntries reads entries in file order. A blank party_id marks a
// broker-level entry.
func (r *CSVLedgerRepository) GetLedgerEntries(ctx context.Context, path string) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry

	err := readCSV(path, ledgerColumns, func(rec csvRecord) error {
		date, err := time.Parse(time.DateOnly, rec.get("entry_date"))
		if err != nil {
			return fmt.Errorf("could not parse entry_date '%s': %w", rec.get("entry_date"), err)
		}

		var createdAt time.Time
		if v := rec.get("created_at"); v != "" {
			createdAt, err = time.Parse(time.RFC3339, v)
			if err != nil {
				return fmt.Errorf("could not parse created_at '%s': %w", v, err)
			}
		}

		amounts := make(map[string]float64, 3)
		for _, col := range []string{"debit_amount", "credit_amount", "balance"} {
			d, err := rec.number(col)
			if err != nil {
				return err
			}
			amounts[col] = d.InexactFloat64()
		}

		entry := domain.LedgerEntry{
			ID:            rec.get("id"),
			Date:          date,
			Particulars:   rec.get("particulars"),
			DebitAmount:   amounts["debit_amount"],
			CreditAmount:  amounts["credit_amount"],
			Balance:       amounts["balance"],
			ReferenceType: domain.ReferenceType(strings.ToLower(rec.get("reference_type"))),
			CreatedAt:     createdAt,
		}
		if party := rec.get("party_id"); party != "" {
			entry.PartyID = &party
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
