// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/domain/catalogs/item"
	"stockledger/internal/infrastructure/storage/postgres"
)

const itemsTable = "items"

// Compile-time check that ItemRepo implements item.Repository.
var _ item.Repository = (*ItemRepo)(nil)

// ItemRepo reads the item master.
type ItemRepo struct {
	txm        *postgres.TxManager
	selectCols []string
}

// NewItemRepo creates a new item repository.
func NewItemRepo(txm *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[item.Item](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *ItemRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// FindByBarcodes loads all matching items with a single ANY($1) query.
func (r *ItemRepo) FindByBarcodes(ctx context.Context, barcodes []string) ([]item.Item, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}

	q := r.Builder().
		Select(r.selectCols...).
		From(itemsTable).
		Where(squirrel.Expr("barcode = ANY(?)", barcodes))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var items []item.Item
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", itemsTable, err)
	}

	return items, nil
}
