package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"brokerage-billing/internal/config"
	"brokerage-billing/internal/domain"
	"brokerage-billing/internal/gateway"
	"brokerage-billing/internal/logger"
	"brokerage-billing/internal/usecase"
)

// configFrom returns the config handed to Commander.Execute.
func configFrom(args []interface{}) *config.Config {
	if len(args) > 0 {
		if cfg, ok := args[0].(*config.Config); ok {
			return cfg
		}
	}
	cfg := config.Default()
	return &cfg
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate JSON report: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

func fail(ctx context.Context, command string, err error) subcommands.ExitStatus {
	logger.ErrorWithErr(ctx, "Command failed", err, "command", command)
	return subcommands.ExitFailure
}

// --- billCmd ---

type billCmd struct {
	store     string
	id        string
	directory string
	notes     bool
}

func (*billCmd) Name() string     { return "bill" }
func (*billCmd) Synopsis() string { return "rebuild one bill summary from its items, notes or header" }
func (*billCmd) Usage() string {
	return `bill -id <bill_id> [-store bills.json] [-directory names.yaml] [-notes]

  Loads the bill from the JSON bill store and prints its reconciled summary.
  Display names are looked up in the directory when one is given.
`
}

func (c *billCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.store, "store", "", "Path to the JSON bill store (defaults to inputs.bill_store).")
	f.StringVar(&c.id, "id", "", "Bill id or bill number.")
	f.StringVar(&c.directory, "directory", "", "Path to the YAML party/broker name directory (defaults to directory.path).")
	f.BoolVar(&c.notes, "notes", false, "Also print the bill in the legacy narrative format.")
}

func (c *billCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg := configFrom(args)
	store := firstNonEmpty(c.store, cfg.Inputs.BillStore)
	directory := firstNonEmpty(c.directory, cfg.Directory.Path)
	if store == "" || c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id and a bill store (-store or inputs.bill_store) are required.")
		return subcommands.ExitUsageError
	}

	var names usecase.NameResolver = usecase.NameMap{}
	if directory != "" {
		dir, err := gateway.LoadDirectory(directory)
		if err != nil {
			return fail(ctx, c.Name(), err)
		}
		names = dir
	}
	billing := usecase.NewBillingUseCase(gateway.NewJSONBillStore(store), nil, nil, names)

	summary, err := billing.ReconcileBill(ctx, c.id)
	if err != nil {
		return fail(ctx, c.Name(), fmt.Errorf("bill reconciliation failed: %w", err))
	}
	if err := printJSON(summary); err != nil {
		return fail(ctx, c.Name(), err)
	}
	if c.notes {
		fmt.Println()
		fmt.Print(usecase.WriteNotes(*summary, time.Now()))
	}
	return subcommands.ExitSuccess
}

// --- brokerCmd ---

type brokerCmd struct {
	csv   string
	first bool
}

func (*brokerCmd) Name() string     { return "broker" }
func (*brokerCmd) Synopsis() string { return "consolidate broker bill previews from CSV imports" }
func (*brokerCmd) Usage() string {
	return `broker -csv <a.csv,b.csv> [-first]

  Merges the bill previews of every broker found in the CSV files into one
  consolidated bill per broker, with a client-wise breakdown.
`
}

func (c *brokerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.csv, "csv", "", "Comma-separated list of bill preview CSV files.")
	f.BoolVar(&c.first, "first", false, "Keep only the broker of the first preview.")
}

func (c *brokerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.csv == "" {
		fmt.Fprintln(os.Stderr, "Error: -csv is required.")
		return subcommands.ExitUsageError
	}
	paths := strings.Split(c.csv, ",")

	billing := usecase.NewBillingUseCase(nil, gateway.NewCSVPreviewRepository(), nil, nil)
	bills, err := billing.ConsolidatePreviews(ctx, paths, c.first)
	if err != nil {
		return fail(ctx, c.Name(), fmt.Errorf("broker consolidation failed: %w", err))
	}
	if err := printJSON(bills); err != nil {
		return fail(ctx, c.Name(), err)
	}
	return subcommands.ExitSuccess
}

// --- ledgerCmd ---

type ledgerCmd struct {
	csv     string
	refType string
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "group ledger entries by date and party" }
func (*ledgerCmd) Usage() string {
	return `ledger [-csv ledger.csv] [-type <reference_type>]

  Groups the ledger export by (date, party) and prints per-group trade,
  carry-forward and brokerage figures with grand totals.
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.csv, "csv", "", "Path to the ledger CSV export (defaults to inputs.ledger_csv).")
	f.StringVar(&c.refType, "type", "", "Only group entries of this reference type, e.g. client_settlement.")
}

func (c *ledgerCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg := configFrom(args)
	path := firstNonEmpty(c.csv, cfg.Inputs.LedgerCSV)
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: a ledger CSV (-csv or inputs.ledger_csv) is required.")
		return subcommands.ExitUsageError
	}

	billing := usecase.NewBillingUseCase(nil, nil, gateway.NewCSVLedgerRepository(), nil)
	filter := domain.ReferenceType(strings.ToLower(strings.TrimSpace(c.refType)))
	report, err := billing.GroupLedger(ctx, path, filter)
	if err != nil {
		return fail(ctx, c.Name(), fmt.Errorf("ledger grouping failed: %w", err))
	}
	if err := printJSON(report); err != nil {
		return fail(ctx, c.Name(), err)
	}
	return subcommands.ExitSuccess
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
