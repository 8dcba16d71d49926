package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"brokerage-billing/internal/domain"
)

// billRecord is a bill as stored, with party and broker fields side by side.
type billRecord struct {
	ID          string            `json:"id"`
	BillNumber  string            `json:"bill_number"`
	BillType    string            `json:"bill_type"`
	PartyCode   string            `json:"party_code"`
	PartyName   string            `json:"party_name"`
	BrokerCode  string            `json:"broker_code"`
	BrokerName  string            `json:"broker_name"`
	TotalAmount float64           `json:"total_amount"`
	Notes       string            `json:"notes"`
	BillDate    string            `json:"bill_date"`
	Items       []domain.LineItem `json:"items"`
}

type billDocument struct {
	Bills []billRecord `json:"bills"`
}

// JSONBillStore serves bills and their line items from a JSON export.
// The file is read on every call.
type JSONBillStore struct {
	path string
}

// NewJSONBillStore creates a store reading from path.
func NewJSONBillStore(path string) *JSONBillStore {
	return &JSONBillStore{path: path}
}

// GetBill returns the bill whose id or bill number equals id.
func (s *JSONBillStore) GetBill(ctx context.Context, id string) (domain.Bill, error) {
	rec, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return toDomainBill(rec)
}

// GetBillItems returns the stored line items of the bill, possibly none.
func (s *JSONBillStore) GetBillItems(ctx context.Context, id string) ([]domain.LineItem, error) {
	rec, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return rec.Items, nil
}

func (s *JSONBillStore) find(id string) (billRecord, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return billRecord{}, fmt.Errorf("failed to open bill store %s: %w", s.path, err)
	}
	var doc billDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return billRecord{}, fmt.Errorf("failed to parse bill store %s: %w", s.path, err)
	}
	for _, rec := range doc.Bills {
		if rec.ID == id || (rec.BillNumber != "" && rec.BillNumber == id) {
			return rec, nil
		}
	}
	return billRecord{}, &domain.NotFoundError{Resource: "bill", ID: id}
}

func toDomainBill(rec billRecord) (domain.Bill, error) {
	header := domain.BillHeader{
		ID:          rec.ID,
		Number:      rec.BillNumber,
		TotalAmount: rec.TotalAmount,
		Notes:       rec.Notes,
	}
	if rec.BillDate != "" {
		d, err := time.Parse(time.DateOnly, rec.BillDate)
		if err != nil {
			return nil, fmt.Errorf("could not parse bill_date '%s' of bill %s: %w", rec.BillDate, rec.ID, err)
		}
		header.BillDate = d
	}

	switch domain.BillType(strings.ToLower(strings.TrimSpace(rec.BillType))) {
	case domain.BillTypeBroker:
		return domain.BrokerBill{BillHeader: header, BrokerCode: rec.BrokerCode, BrokerName: rec.BrokerName}, nil
	case domain.BillTypeParty, "":
		return domain.PartyBill{BillHeader: header, PartyCode: rec.PartyCode, PartyName: rec.PartyName}, nil
	default:
		return nil, fmt.Errorf("unknown bill_type '%s' for bill %s", rec.BillType, rec.ID)
	}
}
