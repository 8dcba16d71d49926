package usecase

import (
	"context"

	"brokerage-billing/internal/domain"
)

// NameResolver maps a party or broker code to its display name.
// The usecase layer depends on this interface, not on a concrete directory.
//
//go:generate mockgen -destination=mocks/mock_interface.go -source=interface.go
type NameResolver interface {
	Resolve(code string) (string, bool)
}

// BillRepository fetches bill headers and their normalized line items.
type BillRepository interface {
	GetBill(ctx context.Context, id string) (domain.Bill, error)
	GetBillItems(ctx context.Context, id string) ([]domain.LineItem, error)
}

// PreviewRepository loads the per-broker bill previews built from CSV imports.
type PreviewRepository interface {
	GetBillPreviews(ctx context.Context, paths []string) ([]domain.BillPreview, error)
}

// LedgerRepository loads posted ledger entries.
type LedgerRepository interface {
	GetLedgerEntries(ctx context.Context, path string) ([]domain.LedgerEntry, error)
}

// NameMap is a NameResolver backed by an in-memory map.
type NameMap map[string]string

func (m NameMap) Resolve(code string) (string, bool) {
	name, ok := m[code]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
