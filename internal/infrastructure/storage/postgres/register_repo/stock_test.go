package register_repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/storage/postgres"
)

type StockRepoTestSuite struct {
	suite.Suite
	mock pgxmock.PgxPoolIface
	txm  *postgres.TxManager
	repo *StockRepo
	ctx  context.Context
}

func (s *StockRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(s.T(), err)
	s.mock = mock
	s.txm = postgres.NewTxManagerFromDB(mock).WithStatementTimeout(0)
	s.repo = NewStockRepo(s.txm)
	s.ctx = context.Background()
}

func (s *StockRepoTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestStockRepoTestSuite(t *testing.T) {
	suite.Run(t, new(StockRepoTestSuite))
}

func date(s string) types.Date {
	d, err := types.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func q(sql string) string { return "^" + regexp.QuoteMeta(sql) + "$" }

func (s *StockRepoTestSuite) TestLatestSnapshotDate_Now() {
	s.mock.ExpectQuery(q("SELECT COALESCE(MAX(snap_date), $1::date) FROM stock_snapshots")).
		WithArgs(types.BeginningOfTime.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).
			AddRow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	got, err := s.repo.LatestSnapshotDate(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal("2024-01-01", got.String())
}

func (s *StockRepoTestSuite) TestLatestSnapshotDate_AsOf() {
	asOf := date("2024-01-31")
	s.mock.ExpectQuery(q("SELECT COALESCE(MAX(snap_date), $1::date) FROM stock_snapshots WHERE snap_date <= $2")).
		WithArgs(types.BeginningOfTime.Time(), asOf.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(types.BeginningOfTime.Time()))

	got, err := s.repo.LatestSnapshotDate(s.ctx, &asOf)
	s.Require().NoError(err)
	s.True(got.Equal(types.BeginningOfTime))
}

func (s *StockRepoTestSuite) TestSnapshotQuantities_SumsPerBarcode() {
	base := date("2024-01-01")
	s.mock.ExpectQuery(q("SELECT barcode, SUM(stock_qty)::bigint AS qty FROM stock_snapshots WHERE snap_date = $1 GROUP BY barcode")).
		WithArgs(base.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"barcode", "qty"}).
			AddRow("123", int64(10)).
			AddRow("456", int64(-2)))

	got, err := s.repo.SnapshotQuantities(s.ctx, base)
	s.Require().NoError(err)
	s.Equal(map[string]int64{"123": 10, "456": -2}, got)
}

func (s *StockRepoTestSuite) TestLedgerDeltas_OpenWindow() {
	base := date("2024-01-01")

	s.mock.ExpectQuery(q("SELECT barcode, SUM(qty)::bigint AS qty FROM purchases WHERE purchase_date > $1 AND NOT COALESCE(is_deleted, FALSE) GROUP BY barcode")).
		WithArgs(base.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"barcode", "qty"}).AddRow("123", int64(5)))
	s.mock.ExpectQuery(q("SELECT barcode, SUM(qty)::bigint AS qty FROM sales WHERE sale_date > $1 AND NOT COALESCE(is_deleted, FALSE) GROUP BY barcode")).
		WithArgs(base.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"barcode", "qty"}).AddRow("123", int64(3)))
	s.mock.ExpectQuery(q("SELECT barcode, SUM(return_qty)::bigint AS qty FROM sale_returns WHERE created_at >= $1::date + 1 GROUP BY barcode")).
		WithArgs(base.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"barcode", "qty"}).AddRow("123", int64(1)))

	got, err := s.repo.LedgerDeltas(s.ctx, stock.LedgerWindow{After: base})
	s.Require().NoError(err)
	s.Equal(stock.Ledger{
		Purchases: map[string]int64{"123": 5},
		Sales:     map[string]int64{"123": 3},
		Returns:   map[string]int64{"123": 1},
	}, got)
}

func (s *StockRepoTestSuite) TestLedgerDeltas_BoundedWindow() {
	base := date("2024-01-01")
	end := date("2024-01-20")

	s.mock.ExpectQuery(q("SELECT barcode, SUM(qty)::bigint AS qty FROM purchases WHERE purchase_date > $1 AND purchase_date <= $2 AND NOT COALESCE(is_deleted, FALSE) GROUP BY barcode")).
		WithArgs(base.Time(), end.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"barcode", "qty"}))
	s.mock.ExpectQuery(q("SELECT barcode, SUM(qty)::bigint AS qty FROM sales WHERE sale_date > $1 AND sale_date <= $2 AND NOT COALESCE(is_deleted, FALSE) GROUP BY barcode")).
		WithArgs(base.Time(), end.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"barcode", "qty"}))
	s.mock.ExpectQuery(q("SELECT barcode, SUM(return_qty)::bigint AS qty FROM sale_returns WHERE created_at >= $1::date + 1 AND created_at < $2::date + 1 GROUP BY barcode")).
		WithArgs(base.Time(), end.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"barcode", "qty"}).AddRow("789", int64(2)))

	got, err := s.repo.LedgerDeltas(s.ctx, stock.LedgerWindow{After: base, Through: &end})
	s.Require().NoError(err)
	s.Empty(got.Purchases)
	s.Empty(got.Sales)
	s.Equal(map[string]int64{"789": 2}, got.Returns)
}

func (s *StockRepoTestSuite) TestLedgerDeltas_FailureAborts() {
	base := date("2024-01-01")

	s.mock.ExpectQuery(`FROM purchases`).
		WithArgs(base.Time()).
		WillReturnError(errors.New("connection reset"))

	_, err := s.repo.LedgerDeltas(s.ctx, stock.LedgerWindow{After: base})
	s.Require().Error(err)
	s.Contains(err.Error(), "select purchases deltas")
}

func (s *StockRepoTestSuite) TestSnapshotExists() {
	d := date("2024-01-31")
	s.mock.ExpectQuery(q("SELECT EXISTS (SELECT 1 FROM stock_snapshots WHERE snap_date = $1)")).
		WithArgs(d.Time()).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.repo.SnapshotExists(s.ctx, d)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StockRepoTestSuite) TestLockAndInsertSnapshot_InTransaction() {
	d := date("2024-01-31")

	s.mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadWrite})
	s.mock.ExpectExec(q("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(snapshotLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	s.mock.ExpectCopyFrom(pgx.Identifier{"stock_snapshots"}, []string{"snap_date", "barcode", "stock_qty"}).
		WillReturnResult(2)
	s.mock.ExpectCommit()

	var inserted int64
	err := s.txm.RunInTransaction(s.ctx, func(ctx context.Context) error {
		if err := s.repo.LockSnapshots(ctx); err != nil {
			return err
		}
		var err error
		inserted, err = s.repo.InsertSnapshot(ctx, d, []stock.SnapshotRow{
			{Barcode: "123", StockQty: 13},
			{Barcode: "456", StockQty: 0},
		})
		return err
	})
	s.Require().NoError(err)
	s.Equal(int64(2), inserted)
}

func (s *StockRepoTestSuite) TestInsertSnapshot_UniqueViolation() {
	d := date("2024-01-31")

	s.mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadWrite})
	s.mock.ExpectCopyFrom(pgx.Identifier{"stock_snapshots"}, []string{"snap_date", "barcode", "stock_qty"}).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ux_stock_snapshots_date_barcode"})
	s.mock.ExpectRollback()

	err := s.txm.RunInTransaction(s.ctx, func(ctx context.Context) error {
		_, err := s.repo.InsertSnapshot(ctx, d, []stock.SnapshotRow{{Barcode: "123", StockQty: 13}})
		return err
	})
	s.True(apperror.IsCode(err, apperror.CodeSnapshotExists))

	var appErr *apperror.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal("ux_stock_snapshots_date_barcode", appErr.Details["constraint"])
}

func (s *StockRepoTestSuite) TestLockSnapshots_RequiresTransaction() {
	err := s.repo.LockSnapshots(s.ctx)
	s.ErrorIs(err, postgres.ErrNoTransaction)
}

func (s *StockRepoTestSuite) TestInsertSnapshot_RequiresTransaction() {
	_, err := s.repo.InsertSnapshot(s.ctx, date("2024-01-31"), []stock.SnapshotRow{{Barcode: "1", StockQty: 1}})
	s.ErrorIs(err, postgres.ErrNoTransaction)
}
