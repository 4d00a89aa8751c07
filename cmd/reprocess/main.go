// Package main repairs an item's opening-stock history. It replaces the
// item's initial ledger entries with a single corrected entry, then
// recomputes the denormalized quantity from the ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/ledger_repo"
	"stockledger/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		itemName = flag.String("item", "", "exact name of the item to reprocess")
		quantity = flag.String("quantity", "", "corrected opening quantity")
		price    = flag.String("price", "", "corrected opening unit price")
		date     = flag.String("date", "", "opening date, YYYY-MM-DD")
	)
	flag.Parse()
	if *itemName == "" || *quantity == "" || *price == "" || *date == "" {
		fmt.Fprintln(os.Stderr, "usage: reprocess -item NAME -quantity QTY -price PRICE -date YYYY-MM-DD")
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	qty, err := types.NewMoneyFromString(*quantity)
	if err != nil {
		log.Fatalw("invalid quantity", "value", *quantity, "error", err)
	}
	unitPrice, err := types.NewMoneyFromString(*price)
	if err != nil {
		log.Fatalw("invalid price", "value", *price, "error", err)
	}
	occurredAt, err := time.ParseInLocation("2006-01-02", *date, time.UTC)
	if err != nil {
		log.Fatalw("invalid date", "value", *date, "error", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	catalogRepo := catalog_repo.NewCatalogRepo(txManager)
	ledgerService := ledger.NewService(ledgerRepo)

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := catalogRepo.GetItemByName(ctx, *itemName)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("item %q not found", *itemName)
		}

		removed, err := ledgerRepo.DeleteByItemAndKind(ctx, item.ID, ledger.KindInitial)
		if err != nil {
			return err
		}
		log.Infow("removed initial entries", "item", item.Name, "count", removed)

		if err := ledgerService.Append(ctx, &ledger.Entry{
			ItemID:     item.ID,
			Kind:       ledger.KindInitial,
			Quantity:   qty,
			UnitPrice:  &unitPrice,
			Note:       "opening stock correction",
			OccurredAt: occurredAt,
		}); err != nil {
			return err
		}

		// Bring the display quantity back in line with the repaired ledger.
		total, err := ledgerRepo.SumQuantity(ctx, item.ID)
		if err != nil {
			return err
		}
		item.Quantity = total
		item.UnitPrice = unitPrice
		item.UpdatedAt = time.Now().UTC()
		if err := catalogRepo.UpdateItem(ctx, item); err != nil {
			return err
		}

		log.Infow("item reprocessed", "item", item.Name, "quantity", total)
		return nil
	})
	if err != nil {
		log.Fatalw("reprocess failed", "error", err)
	}
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
