// Package main bulk-imports stock report rows from CSV into the catalog and
// ledger. Each row becomes an item (created or updated) plus its initial,
// purchase, and issue ledger entries dated at the report start.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/ledger_repo"
	"stockledger/pkg/logger"
)

// Expected CSV columns, by header name.
const (
	colItemName    = "Item Name"
	colCategory    = "Category"
	colDescription = "DESCRIPTION"
	colOpening     = "Opening Stock"
	colPurchases   = "Purchases"
	colIssued      = "Issued"
	colUnitPrice   = "Unit Price"
	colStartDate   = "Report Start Date"
)

func main() {
	_ = godotenv.Load()

	var (
		path   = flag.String("file", "", "path to the CSV file to import")
		dryRun = flag.Bool("dry-run", false, "parse and validate without writing")
	)
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: importer -file report.csv [-dry-run]")
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	imp := &importer{
		txManager: txManager,
		catalog:   catalog.NewService(catalog_repo.NewCatalogRepo(txManager)),
		ledger:    ledger.NewService(ledger_repo.NewLedgerRepo(txManager)),
		log:       log.WithComponent("importer"),
		dryRun:    *dryRun,
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalw("failed to open file", "path", *path, "error", err)
	}
	defer f.Close()

	imported, skipped, err := imp.run(ctx, f)
	if err != nil {
		log.Fatalw("import failed", "error", err)
	}
	log.Infow("import complete", "imported", imported, "skipped", skipped, "dry_run", *dryRun)
}

type importer struct {
	txManager *postgres.TxManager
	catalog   *catalog.Service
	ledger    *ledger.Service
	log       *logger.Logger
	dryRun    bool
}

type row struct {
	itemName    string
	category    string
	description string
	opening     types.Quantity
	purchases   types.Quantity
	issued      types.Quantity
	unitPrice   types.Money
	startDate   time.Time
}

func (imp *importer) run(ctx context.Context, r io.Reader) (imported, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return 0, 0, err
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return imported, skipped, fmt.Errorf("line %d: %w", line, err)
		}

		parsed, err := parseRow(record, cols)
		if err != nil {
			imp.log.Warnw("skipping malformed row", "line", line, "error", err)
			skipped++
			continue
		}
		if imp.dryRun {
			imported++
			continue
		}

		if err := imp.importRow(ctx, parsed); err != nil {
			return imported, skipped, fmt.Errorf("line %d (%s): %w", line, parsed.itemName, err)
		}
		imported++
	}
	return imported, skipped, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colItemName, colCategory, colOpening, colUnitPrice, colStartDate} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	return cols, nil
}

func parseRow(record []string, cols map[string]int) (row, error) {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var (
		parsed row
		err    error
	)
	parsed.itemName = get(colItemName)
	if parsed.itemName == "" {
		return row{}, fmt.Errorf("empty item name")
	}
	parsed.category = get(colCategory)
	if parsed.category == "" {
		parsed.category = "Uncategorized"
	}
	parsed.description = get(colDescription)

	if parsed.opening, err = parseQuantity(get(colOpening)); err != nil {
		return row{}, fmt.Errorf("opening stock: %w", err)
	}
	if parsed.purchases, err = parseQuantity(get(colPurchases)); err != nil {
		return row{}, fmt.Errorf("purchases: %w", err)
	}
	if parsed.issued, err = parseQuantity(get(colIssued)); err != nil {
		return row{}, fmt.Errorf("issued: %w", err)
	}
	if parsed.unitPrice, err = parseQuantity(get(colUnitPrice)); err != nil {
		return row{}, fmt.Errorf("unit price: %w", err)
	}
	parsed.startDate, err = time.ParseInLocation("2006-01-02", get(colStartDate), time.UTC)
	if err != nil {
		return row{}, fmt.Errorf("report start date: %w", err)
	}
	return parsed, nil
}

func parseQuantity(s string) (types.Quantity, error) {
	if s == "" {
		return types.Zero(), nil
	}
	// Spreadsheets export thousands separators.
	return types.NewMoneyFromString(strings.ReplaceAll(s, ",", ""))
}

// importRow writes one CSV row as an item and its ledger entries, all in one
// transaction so a failed row leaves nothing behind.
func (imp *importer) importRow(ctx context.Context, parsed row) error {
	return imp.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		category, err := imp.catalog.EnsureCategory(ctx, parsed.category)
		if err != nil {
			return err
		}

		closing := parsed.opening.Add(parsed.purchases).Sub(parsed.issued)
		item, err := imp.catalog.UpsertItem(ctx, &catalog.Item{
			Name:        parsed.itemName,
			Description: parsed.description,
			CategoryID:  category.ID,
			Quantity:    closing,
			UnitPrice:   parsed.unitPrice,
			CreatedAt:   parsed.startDate,
			UpdatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		price := parsed.unitPrice
		if !parsed.opening.IsZero() {
			if err := imp.appendEntry(ctx, item.ID, ledger.KindInitial, parsed.opening, &price, parsed.startDate); err != nil {
				return err
			}
		}
		if !parsed.purchases.IsZero() {
			if err := imp.appendEntry(ctx, item.ID, ledger.KindPurchase, parsed.purchases, &price, parsed.startDate); err != nil {
				return err
			}
		}
		if !parsed.issued.IsZero() {
			// Imported totals carry no per-issue destination; book them against
			// a Headquarters request so they classify like regular issues.
			req := &ledger.Request{Location: ledger.LocationHeadquarters, Reference: "bulk import"}
			if err := imp.ledger.RecordIssueRequest(ctx, req); err != nil {
				return err
			}
			if err := imp.ledger.Append(ctx, &ledger.Entry{
				ItemID:     item.ID,
				Kind:       ledger.KindIssue,
				Quantity:   parsed.issued.Neg(),
				RequestID:  &req.ID,
				Note:       "bulk import",
				OccurredAt: parsed.startDate,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (imp *importer) appendEntry(ctx context.Context, itemID id.ID, kind ledger.Kind, qty types.Quantity, price *types.Money, occurredAt time.Time) error {
	return imp.ledger.Append(ctx, &ledger.Entry{
		ItemID:     itemID,
		Kind:       kind,
		Quantity:   qty,
		UnitPrice:  price,
		Note:       "bulk import",
		OccurredAt: occurredAt,
	})
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
