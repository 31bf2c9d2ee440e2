package stock

import (
	"context"

	"stockledger/internal/core/types"
)

// Repository defines the stock register store.
// All methods run inside the transaction carried by ctx, if any.
type Repository interface {
	// LatestSnapshotDate returns the latest snap_date, or the latest one not after
	// asOf when asOf is set. Returns types.BeginningOfTime when none exists.
	LatestSnapshotDate(ctx context.Context, asOf *types.Date) (types.Date, error)

	// SnapshotQuantities returns stock_qty summed per barcode for one snap_date.
	SnapshotQuantities(ctx context.Context, date types.Date) (map[string]int64, error)

	// LedgerDeltas returns purchase, sale and return sums inside the window,
	// ignoring soft-deleted purchases and sales.
	LedgerDeltas(ctx context.Context, window LedgerWindow) (Ledger, error)

	// LockSnapshots serializes snapshot writers until the transaction ends.
	LockSnapshots(ctx context.Context) error

	// SnapshotExists reports whether any row exists for date.
	SnapshotExists(ctx context.Context, date types.Date) (bool, error)

	// InsertSnapshot writes rows with snap_date = date and returns the count.
	InsertSnapshot(ctx context.Context, date types.Date, rows []SnapshotRow) (int64, error)
}

// NameResolver maps barcodes to display names in one batched lookup.
type NameResolver interface {
	ResolveNames(ctx context.Context, barcodes []string) (map[string]string, error)
}

// Confirmer checks the operator confirmation password.
type Confirmer interface {
	Confirm(password string) bool
}
