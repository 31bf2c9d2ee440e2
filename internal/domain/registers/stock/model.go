// Package stock reconstructs on-hand stock from the latest snapshot plus
// the purchase, sale and return ledger recorded after it.
package stock

import (
	"stockledger/internal/core/types"
)

// Position is the net quantity of one item.
type Position struct {
	Barcode  string `json:"barcode"`
	ItemName string `json:"item_name"`
	StockQty int64  `json:"stock_qty"`
}

// SnapshotRow is one persisted checkpoint row.
type SnapshotRow struct {
	Barcode  string `db:"barcode"`
	StockQty int64  `db:"stock_qty"`
}

// LedgerWindow bounds the ledger read.
// Rows dated strictly after After are included; Through is inclusive and
// nil means "now".
type LedgerWindow struct {
	After   types.Date
	Through *types.Date
}

// Ledger holds per-barcode summed deltas, unsigned.
type Ledger struct {
	Purchases map[string]int64
	Sales     map[string]int64
	Returns   map[string]int64
}

// PreviewRequest is the input of a snapshot preview.
type PreviewRequest struct {
	EndDate string
}

// CreateSnapshotRequest is the input of snapshot creation.
type CreateSnapshotRequest struct {
	StartDate string
	EndDate   string
	Password  string
}
