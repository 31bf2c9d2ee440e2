package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"stockledger/internal/core/security"
	"stockledger/internal/core/types"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

type RouterTestSuite struct {
	suite.Suite
	mock   pgxmock.PgxPoolIface
	router http.Handler
}

func (s *RouterTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(s.T(), err)
	s.mock = mock

	txm := postgres.NewTxManagerFromDB(mock).WithStatementTimeout(0)
	auditSvc, err := postgres.NewAuditService(txm)
	require.NoError(s.T(), err)
	gate, err := security.NewPasswordGateFromPlain("letmein")
	require.NoError(s.T(), err)

	s.router = NewRouter(RouterConfig{
		TxManager: txm,
		Logger:    logger.NewNop(),
		Confirmer: gate,
		Audit:     auditSvc,
	})
}

func (s *RouterTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sums(pairs ...any) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"barcode", "qty"})
	for i := 0; i < len(pairs); i += 2 {
		rows.AddRow(pairs[i], pairs[i+1])
	}
	return rows
}

func (s *RouterTestSuite) call(method, path, body string) map[string]any {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// expectAggregation mocks baseline selection, ledger reads and name lookup.
// Every read is bounded: the report by today, snapshots by end_date.
func (s *RouterTestSuite) expectAggregation(base time.Time, sales int64) {
	s.mock.ExpectQuery(`SELECT COALESCE\(MAX\(snap_date\), \$1::date\) FROM stock_snapshots WHERE snap_date <= \$2`).
		WithArgs(types.BeginningOfTime.Time(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(base))

	s.mock.ExpectQuery(`FROM stock_snapshots WHERE snap_date = \$1 GROUP BY barcode`).
		WithArgs(base).
		WillReturnRows(sums("123", int64(10)))
	s.mock.ExpectQuery(`FROM purchases WHERE purchase_date > \$1 AND purchase_date <= \$2`).
		WillReturnRows(sums("123", int64(5)))
	s.mock.ExpectQuery(`FROM sales WHERE sale_date > \$1 AND sale_date <= \$2`).
		WillReturnRows(sums("123", sales))
	s.mock.ExpectQuery(`FROM sale_returns WHERE created_at >= \$1::date \+ 1 AND created_at < \$2::date \+ 1`).
		WillReturnRows(sums("123", int64(1)))
	s.mock.ExpectQuery(`FROM items WHERE barcode = ANY\(\$1\)`).
		WithArgs([]string{"123"}).
		WillReturnRows(pgxmock.NewRows([]string{"barcode", "item_name"}).AddRow("123", "Green Tea 500ml"))
}

func (s *RouterTestSuite) TestStockReport() {
	s.mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	s.expectAggregation(day(2024, 1, 1), 3)
	s.mock.ExpectCommit()

	body := s.call(http.MethodGet, "/api/stock-report", "")

	s.Equal(true, body["success"])
	s.Equal([]any{
		map[string]any{"barcode": "123", "item_name": "Green Tea 500ml", "stock_qty": float64(13)},
	}, body["rows"])
}

func (s *RouterTestSuite) TestStockReport_SoftDeletedSaleExcludedBySQL() {
	s.mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	// the deleted sale is filtered by NOT COALESCE(is_deleted, FALSE), so no sales row
	s.mock.ExpectQuery(`FROM stock_snapshots WHERE snap_date <= \$2$`).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(day(2024, 1, 1)))
	s.mock.ExpectQuery(`FROM stock_snapshots WHERE snap_date = \$1`).
		WillReturnRows(sums("123", int64(10)))
	s.mock.ExpectQuery(`FROM purchases .* AND NOT COALESCE\(is_deleted, FALSE\)`).
		WillReturnRows(sums("123", int64(5)))
	s.mock.ExpectQuery(`FROM sales .* AND NOT COALESCE\(is_deleted, FALSE\)`).
		WillReturnRows(sums())
	s.mock.ExpectQuery(`FROM sale_returns`).
		WillReturnRows(sums("123", int64(1)))
	s.mock.ExpectQuery(`FROM items`).
		WillReturnRows(pgxmock.NewRows([]string{"barcode", "item_name"}))
	s.mock.ExpectCommit()

	body := s.call(http.MethodGet, "/api/stock-report", "")

	s.Equal([]any{
		map[string]any{"barcode": "123", "item_name": "(unknown item)", "stock_qty": float64(16)},
	}, body["rows"])
}

func (s *RouterTestSuite) TestSnapshotPreview_MissingEndDate() {
	body := s.call(http.MethodPost, "/api/snapshot-preview", `{}`)

	s.Equal(false, body["success"])
	s.Equal("end_date is required", body["error"])
}

func (s *RouterTestSuite) TestSnapshotCreate() {
	s.mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadWrite})
	s.mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(day(2024, 1, 31)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	s.expectAggregation(day(2024, 1, 1), 3)
	s.mock.ExpectCopyFrom(pgx.Identifier{"stock_snapshots"}, []string{"snap_date", "barcode", "stock_qty"}).
		WillReturnResult(1)
	s.mock.ExpectExec(`INSERT INTO sys_audit`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	s.mock.ExpectCommit()

	body := s.call(http.MethodPost, "/api/snapshot-create",
		`{"start_date":"2024-01-01","end_date":"2024-01-31","password":"letmein"}`)

	s.Equal(map[string]any{"success": true, "inserted": float64(1)}, body)
}

func (s *RouterTestSuite) TestSnapshotCreate_ExistingDateRolledBack() {
	s.mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadWrite})
	s.mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	s.mock.ExpectRollback()

	body := s.call(http.MethodPost, "/api/snapshot-create", `{"end_date":"2024-01-31","password":"letmein"}`)

	s.Equal(false, body["success"])
	s.Equal("SNAPSHOT_EXISTS", body["code"])
}

func (s *RouterTestSuite) TestSnapshotCreate_WrongPasswordNoTransaction() {
	body := s.call(http.MethodPost, "/api/snapshot-create", `{"end_date":"2024-01-31","password":"nope"}`)

	s.Equal(false, body["success"])
	s.Equal("UNAUTHORIZED", body["code"])
}
