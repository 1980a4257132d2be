/*
main.go - Bulk hand receipt generator

PURPOSE:
  Offline counterpart of POST /api/receipts/batch. Reads a CSV or XLSX
  table, detects the payee/amount/work columns, renders one hand receipt
  per valid row and writes them to a ZIP archive with summary.csv.

COMMAND-LINE FLAGS:
  -in       Input table (.csv or .xlsx, required)
  -out      Output archive (default: receipts.zip)
  -payee    Payee column override
  -amount   Amount column override
  -work     Work column override
  -date     Receipt date printed on every receipt
  -db       SQLite path; when set every receipt is recorded
  -workers  Parallel rows (default: CALC_BATCH_WORKERS)

EXIT STATUS:
  0 when every row rendered, 1 on a fatal error, 2 when some rows were
  invalid (the archive is still written).

EXAMPLES:
  ./receipts -in payees.xlsx -out march.zip -date 31/03/2025
  ./receipts -in payees.csv -amount "Cheque Amount" -db ./calc.db
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pwdtools/calc-engine/batch"
	"github.com/pwdtools/calc-engine/config"
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/pwdtools/calc-engine/observability"
	"github.com/pwdtools/calc-engine/store/sqlite"
)

const exitInvalidRows = 2

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "receipts: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return 0, err
	}

	in := flag.String("in", "", "input table (.csv or .xlsx)")
	out := flag.String("out", "receipts.zip", "output archive")
	payee := flag.String("payee", "", "payee column override")
	amount := flag.String("amount", "", "amount column override")
	work := flag.String("work", "", "work column override")
	date := flag.String("date", "", "receipt date")
	dbPath := flag.String("db", "", "SQLite database path; empty skips recording")
	workers := flag.Int("workers", cfg.BatchWorkers, "parallel rows")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return 0, errors.New("-in is required")
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	policy, err := cfg.Words()
	if err != nil {
		return 0, err
	}

	table, err := readTable(*in)
	if err != nil {
		return 0, err
	}

	m := batch.DetectColumns(table.Headers).Override(batch.Mapping{Payee: *payee, Amount: *amount, Work: *work})
	if err := m.Validate(table.Headers); err != nil {
		return 0, fmt.Errorf("column mapping: %w (headers: %s)", err, strings.Join(table.Headers, ", "))
	}

	var ledger *generic.Ledger
	if *dbPath != "" {
		store, err := sqlite.New(*dbPath)
		if err != nil {
			return 0, fmt.Errorf("initialize database: %w", err)
		}
		defer store.Close()
		ledger = generic.NewLedger(store)
	}

	gen := batch.NewGenerator(document.NewBuilder(policy), ledger, logger)
	gen.Workers = *workers
	if *date != "" {
		d, err := generic.ParseDate("date", *date)
		if err != nil {
			return 0, err
		}
		gen.Date = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b, err := gen.GenerateTable(ctx, table, m)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(*out)
	if err != nil {
		return 0, err
	}
	if err := b.Archive(f); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	fmt.Printf("batch %s: %d rows, %d rendered, %d invalid -> %s\n",
		b.ID, len(b.Results), b.Rendered(), b.Invalid(), *out)
	for _, res := range b.Failures() {
		fmt.Printf("  %s\n", res.Reason)
	}
	if b.Invalid() > 0 {
		return exitInvalidRows, nil
	}
	return 0, nil
}

func readTable(path string) (*batch.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return batch.ReadCSV(f)
	case ".xlsx":
		return batch.ReadXLSX(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q, want .csv or .xlsx", ext)
	}
}
