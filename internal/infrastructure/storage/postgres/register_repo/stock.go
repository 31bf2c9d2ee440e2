// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	snapshotsTable   = "stock_snapshots"
	purchasesTable   = "purchases"
	salesTable       = "sales"
	saleReturnsTable = "sale_returns"

	// snapshotLockKey is the pg_advisory_xact_lock key serializing snapshot writers.
	snapshotLockKey int64 = 0x5354_4f43_4b53_4e50
)

// Compile-time check that StockRepo implements stock.Repository.
var _ stock.Repository = (*StockRepo)(nil)

// ledgerSource describes one ledger table. For a timestamptz dateColumn
// (timestamp set) day bounds are compared as day starts, so the plain column
// index serves the range.
type ledgerSource struct {
	table      string
	qtyColumn  string
	dateColumn string
	timestamp  bool
	softDelete bool
}

var (
	purchasesSource = ledgerSource{table: purchasesTable, qtyColumn: "qty", dateColumn: "purchase_date", softDelete: true}
	salesSource     = ledgerSource{table: salesTable, qtyColumn: "qty", dateColumn: "sale_date", softDelete: true}
	returnsSource   = ledgerSource{table: saleReturnsTable, qtyColumn: "return_qty", dateColumn: "created_at", timestamp: true}
)

// applyWindow restricts q to After < day <= Through.
func (src ledgerSource) applyWindow(q squirrel.SelectBuilder, window stock.LedgerWindow) squirrel.SelectBuilder {
	if src.timestamp {
		q = q.Where(squirrel.Expr(src.dateColumn+" >= ?::date + 1", window.After.Time()))
		if window.Through != nil {
			q = q.Where(squirrel.Expr(src.dateColumn+" < ?::date + 1", window.Through.Time()))
		}
		return q
	}

	q = q.Where(squirrel.Gt{src.dateColumn: window.After.Time()})
	if window.Through != nil {
		q = q.Where(squirrel.LtOrEq{src.dateColumn: window.Through.Time()})
	}
	return q
}

// barcodeQty is one grouped sum row.
type barcodeQty struct {
	Barcode string `db:"barcode"`
	Qty     int64  `db:"qty"`
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm      *postgres.TxManager
	inserter *postgres.BatchInserter
	builder  squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:      txm,
		inserter: postgres.NewBatchInserter(txm),
		builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// LatestSnapshotDate returns the latest snap_date (not after asOf when set).
func (r *StockRepo) LatestSnapshotDate(ctx context.Context, asOf *types.Date) (types.Date, error) {
	q := r.builder.
		Select().
		Column(squirrel.Expr("COALESCE(MAX(snap_date), ?::date)", types.BeginningOfTime.Time())).
		From(snapshotsTable)
	if asOf != nil {
		q = q.Where(squirrel.LtOrEq{"snap_date": asOf.Time()})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Date{}, fmt.Errorf("build latest snapshot query: %w", err)
	}

	var latest time.Time
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&latest); err != nil {
		return types.Date{}, fmt.Errorf("select latest snapshot date: %w", err)
	}

	return types.DateOf(latest), nil
}

// SnapshotQuantities sums stock_qty per barcode for one snap_date.
func (r *StockRepo) SnapshotQuantities(ctx context.Context, date types.Date) (map[string]int64, error) {
	q := r.builder.
		Select("barcode", "SUM(stock_qty)::bigint AS qty").
		From(snapshotsTable).
		Where(squirrel.Eq{"snap_date": date.Time()}).
		GroupBy("barcode")

	rows, err := r.selectSums(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select snapshot quantities: %w", err)
	}
	return rows, nil
}

// LedgerDeltas reads the three ledger sums. The first failing read aborts.
func (r *StockRepo) LedgerDeltas(ctx context.Context, window stock.LedgerWindow) (stock.Ledger, error) {
	purchases, err := r.ledgerSums(ctx, purchasesSource, window)
	if err != nil {
		return stock.Ledger{}, err
	}
	sales, err := r.ledgerSums(ctx, salesSource, window)
	if err != nil {
		return stock.Ledger{}, err
	}
	returns, err := r.ledgerSums(ctx, returnsSource, window)
	if err != nil {
		return stock.Ledger{}, err
	}

	return stock.Ledger{Purchases: purchases, Sales: sales, Returns: returns}, nil
}

func (r *StockRepo) ledgerSums(ctx context.Context, src ledgerSource, window stock.LedgerWindow) (map[string]int64, error) {
	q := r.builder.
		Select("barcode", fmt.Sprintf("SUM(%s)::bigint AS qty", src.qtyColumn)).
		From(src.table)
	q = src.applyWindow(q, window)
	if src.softDelete {
		q = q.Where("NOT COALESCE(is_deleted, FALSE)")
	}
	q = q.GroupBy("barcode")

	sums, err := r.selectSums(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select %s deltas: %w", src.table, err)
	}
	return sums, nil
}

func (r *StockRepo) selectSums(ctx context.Context, q squirrel.SelectBuilder) (map[string]int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []barcodeQty
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, err
	}

	sums := make(map[string]int64, len(rows))
	for _, row := range rows {
		sums[row.Barcode] += row.Qty
	}
	return sums, nil
}

// LockSnapshots takes a transaction-scoped advisory lock.
func (r *StockRepo) LockSnapshots(ctx context.Context) error {
	tx := r.txm.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("lock snapshots: %w", postgres.ErrNoTransaction)
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", snapshotLockKey); err != nil {
		return fmt.Errorf("lock snapshots: %w", err)
	}
	return nil
}

// SnapshotExists reports whether any snapshot row exists for date.
func (r *StockRepo) SnapshotExists(ctx context.Context, date types.Date) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM stock_snapshots WHERE snap_date = $1)`

	var exists bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, date.Time()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check snapshot exists: %w", err)
	}
	return exists, nil
}

// InsertSnapshot copies rows into stock_snapshots with snap_date = date.
// A unique violation on (snap_date, barcode) is reported as SNAPSHOT_EXISTS.
func (r *StockRepo) InsertSnapshot(ctx context.Context, date types.Date, rows []stock.SnapshotRow) (int64, error) {
	columns := append([]string{"snap_date"}, postgres.ExtractDBColumns[stock.SnapshotRow]()...)

	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = append([]any{date.Time()}, postgres.RowValues(row)...)
	}

	n, err := r.inserter.CopyFromSlice(ctx, snapshotsTable, columns, values)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return 0, apperror.NewSnapshotExists(date.String()).
				WithDetail("constraint", postgres.ConstraintName(err)).
				WithCause(err)
		}
		return 0, fmt.Errorf("copy snapshot rows: %w", err)
	}
	return n, nil
}
