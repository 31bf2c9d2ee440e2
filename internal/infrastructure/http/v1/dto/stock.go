package dto

import (
	"stockledger/internal/domain/registers/stock"
)

// StockRow is one item line in stock responses.
type StockRow struct {
	Barcode  string `json:"barcode"`
	ItemName string `json:"item_name"`
	StockQty int64  `json:"stock_qty"`
}

// FromPositions converts domain positions to response rows.
// Never returns nil so an empty result encodes as [].
func FromPositions(positions []stock.Position) []StockRow {
	rows := make([]StockRow, len(positions))
	for i, p := range positions {
		rows[i] = StockRow{Barcode: p.Barcode, ItemName: p.ItemName, StockQty: p.StockQty}
	}
	return rows
}

// StockRowsResponse is returned by the stock report and the snapshot preview.
type StockRowsResponse struct {
	Success bool       `json:"success"`
	Rows    []StockRow `json:"rows"`
}

// SnapshotPreviewRequest is the body of POST /api/snapshot-preview.
type SnapshotPreviewRequest struct {
	EndDate string `json:"end_date"`
}

// ToDomain converts to the service input.
func (r SnapshotPreviewRequest) ToDomain() stock.PreviewRequest {
	return stock.PreviewRequest{EndDate: r.EndDate}
}

// SnapshotCreateRequest is the body of POST /api/snapshot-create.
type SnapshotCreateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Password  string `json:"password"`
}

// ToDomain converts to the service input.
func (r SnapshotCreateRequest) ToDomain() stock.CreateSnapshotRequest {
	return stock.CreateSnapshotRequest{
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Password:  r.Password,
	}
}

// SnapshotCreateResponse reports the number of snapshot rows written.
type SnapshotCreateResponse struct {
	Success  bool  `json:"success"`
	Inserted int64 `json:"inserted"`
}
