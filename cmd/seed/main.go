// Package main provides a CLI tool for seeding a demo stock ledger.
//
// It loads one barcode with a snapshot of 10 on 2024-01-01, a purchase of 5,
// a sale of 3 and a return of 1 after it. The stock report then shows 13.
package main

import (
	"context"
	"fmt"
	"os"

	"stockledger/internal/config"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/register_repo"
	"stockledger/pkg/logger"
)

type demoItem struct {
	barcode string
	name    string
}

var demoItems = []demoItem{
	{barcode: "4600000000012", name: "Green Tea 500ml"},
	{barcode: "4600000000029", name: "Rye Bread"},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalw("failed to load database config", "error", err)
	}

	poolCfg := postgres.DefaultPoolConfig(dbCfg.URL)
	poolCfg.MaxConns = dbCfg.MaxConns
	poolCfg.MinConns = dbCfg.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool).WithStatementTimeout(dbCfg.StatementTimeout)
	if err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return seed(ctx, txm)
	}); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	log.Infow("demo data seeded", "items", len(demoItems))
}

func seed(ctx context.Context, txm *postgres.TxManager) error {
	snapDate := types.NewDate(2024, 1, 1)
	ledgerDate := types.NewDate(2024, 1, 10)
	tea := demoItems[0].barcode

	queries := make([]postgres.BatchQuery, 0, len(demoItems)+3)
	for _, it := range demoItems {
		queries = append(queries, postgres.BatchQuery{
			SQL: `INSERT INTO items (barcode, item_name) VALUES ($1, $2)
				ON CONFLICT (barcode) DO UPDATE SET item_name = EXCLUDED.item_name`,
			Args: []any{it.barcode, it.name},
		})
	}
	queries = append(queries,
		postgres.BatchQuery{
			SQL:  `INSERT INTO purchases (barcode, qty, purchase_date) VALUES ($1, $2, $3)`,
			Args: []any{tea, 5, ledgerDate.Time()},
		},
		postgres.BatchQuery{
			SQL:  `INSERT INTO sales (barcode, qty, sale_date) VALUES ($1, $2, $3)`,
			Args: []any{tea, 3, ledgerDate.Time()},
		},
		postgres.BatchQuery{
			SQL:  `INSERT INTO sale_returns (barcode, return_qty, created_at) VALUES ($1, $2, $3)`,
			Args: []any{tea, 1, ledgerDate.Time()},
		},
	)

	if err := postgres.NewBatchExecutor(txm).ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("insert demo ledger: %w", err)
	}

	repo := register_repo.NewStockRepo(txm)
	if err := repo.LockSnapshots(ctx); err != nil {
		return err
	}
	exists, err := repo.SnapshotExists(ctx, snapDate)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = repo.InsertSnapshot(ctx, snapDate, []stock.SnapshotRow{
		{Barcode: tea, StockQty: 10},
		{Barcode: demoItems[1].barcode, StockQty: 4},
	})
	return err
}
