package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brokerage-billing/internal/domain"
	"brokerage-billing/internal/logger"
)

// BillingUseCase fetches data through the repositories and hands it to the
// pure reconciliation and aggregation functions.
type BillingUseCase struct {
	bills      BillRepository
	previews   PreviewRepository
	ledger     LedgerRepository
	reconciler *BillReconciler
}

// NewBillingUseCase creates a new instance of the usecase.
func NewBillingUseCase(bills BillRepository, previews PreviewRepository, ledger LedgerRepository, names NameResolver) *BillingUseCase {
	return &BillingUseCase{
		bills:      bills,
		previews:   previews,
		ledger:     ledger,
		reconciler: NewBillReconciler(names),
	}
}

// ReconcileBill loads a bill and its items and rebuilds its summary.
// A failure to load items is logged and the notes or stub path is used instead.
func (uc *BillingUseCase) ReconcileBill(ctx context.Context, id string) (*domain.BillSummary, error) {
	op := logger.StartOperation(ctx, "usecase.ReconcileBill", "bill_id", id)
	ctx = op.Context()

	if strings.TrimSpace(id) == "" {
		err := &domain.NotFoundError{Resource: "bill"}
		op.EndWithError(err)
		return nil, err
	}

	bill, err := uc.bills.GetBill(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = &domain.NotFoundError{Resource: "bill", ID: id}
		}
		err = fmt.Errorf("could not get bill: %w", err)
		op.EndWithError(err)
		return nil, err
	}

	items, err := uc.bills.GetBillItems(ctx, id)
	if err != nil {
		logger.Warn(ctx, "Could not get bill items, falling back to notes", "bill_id", id, "error", err)
		items = nil
	}

	summary, err := uc.reconciler.Reconcile(ctx, bill, items)
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}

	op.End("source", string(summary.Source), "groups", len(summary.Transactions))
	return summary, nil
}

// ConsolidatePreviews merges the previews read from the CSV imports. With
// firstOnly set, only the broker of the first preview is kept.
func (uc *BillingUseCase) ConsolidatePreviews(ctx context.Context, paths []string, firstOnly bool) ([]domain.ConsolidatedBill, error) {
	op := logger.StartOperation(ctx, "usecase.ConsolidatePreviews", "files", len(paths), "first_only", firstOnly)
	ctx = op.Context()

	previews, err := uc.previews.GetBillPreviews(ctx, paths)
	if err != nil {
		err = fmt.Errorf("could not get bill previews: %w", err)
		op.EndWithError(err)
		return nil, err
	}

	bills := AggregateByBroker(previews)
	if firstOnly {
		first, ok := AggregateFirstBroker(previews)
		if !ok {
			op.End("brokers", 0)
			return []domain.ConsolidatedBill{}, nil
		}
		if len(bills) > 1 {
			logger.Warn(ctx, "Previews of other brokers left out of the consolidated bill",
				"broker_id", first.BrokerID,
				"excluded_brokers", len(bills)-1,
			)
		}
		bills = map[string]*domain.BillPreview{first.BrokerID: first}
	}

	out := Consolidate(bills)
	op.End("brokers", len(out))
	return out, nil
}

// GroupLedger loads ledger entries and groups them by date and party.
func (uc *BillingUseCase) GroupLedger(ctx context.Context, path string, filter domain.ReferenceType) (*domain.LedgerReport, error) {
	op := logger.StartOperation(ctx, "usecase.GroupLedger", "path", path, "reference_type", string(filter))
	ctx = op.Context()

	entries, err := uc.ledger.GetLedgerEntries(ctx, path)
	if err != nil {
		err = fmt.Errorf("could not get ledger entries: %w", err)
		op.EndWithError(err)
		return nil, err
	}

	groups := GroupLedger(entries, filter)
	report := &domain.LedgerReport{
		Groups: groups,
		Totals: SummarizeLedger(groups),
	}
	op.End("entries", len(entries), "groups", len(groups))
	return report, nil
}
