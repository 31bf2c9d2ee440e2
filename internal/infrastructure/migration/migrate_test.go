package migration

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/migrations"
)

func TestDriverURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/pos?sslmode=disable", "pgx5://u:p@localhost:5432/pos?sslmode=disable"},
		{"postgresql://localhost/pos", "pgx5://localhost/pos"},
		{"pgx5://localhost/pos", "pgx5://localhost/pos"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DriverURL(tt.in))
	}
}

func TestEmbeddedMigrations_Paired(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	sort.Strings(names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups[strings.TrimSuffix(n, ".up.sql")] = true
		case strings.HasSuffix(n, ".down.sql"):
			downs[strings.TrimSuffix(n, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", n)
		}
	}
	assert.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)

	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
}

func TestEmbeddedMigrations_SnapshotUniqueness(t *testing.T) {
	body, err := fs.ReadFile(migrations.FS, "000001_stock_ledger.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "ON stock_snapshots (snap_date, barcode)")
}

func TestEmbeddedMigrations_FoldsDuplicateSnapshotsBeforeUniqueIndex(t *testing.T) {
	body, err := fs.ReadFile(migrations.FS, "000001_stock_ledger.up.sql")
	require.NoError(t, err)
	sql := string(body)

	fold := strings.Index(sql, "HAVING COUNT(*) > 1")
	del := strings.Index(sql, "DELETE FROM stock_snapshots")
	reinsert := strings.Index(sql, "INSERT INTO stock_snapshots")
	index := strings.Index(sql, "CREATE UNIQUE INDEX")

	require.NotEqual(t, -1, fold)
	require.NotEqual(t, -1, del)
	require.NotEqual(t, -1, reinsert)
	require.NotEqual(t, -1, index)
	assert.Less(t, fold, del)
	assert.Less(t, del, reinsert)
	assert.Less(t, reinsert, index)
	assert.Contains(t, sql, "SUM(stock_qty)")
}
