package stock

import (
	"sort"

	"stockledger/internal/domain/catalogs/item"
)

// buildPositions joins quantities with names, sorted by barcode.
func buildPositions(net map[string]int64, names map[string]string) []Position {
	out := make([]Position, 0, len(net))
	for barcode, qty := range net {
		name, ok := names[barcode]
		if !ok {
			name = item.UnknownItemName
		}
		out = append(out, Position{Barcode: barcode, ItemName: name, StockQty: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Barcode < out[j].Barcode })
	return out
}

// NonZero drops positions whose quantity is exactly zero. Order is preserved.
func NonZero(positions []Position) []Position {
	out := make([]Position, 0, len(positions))
	for _, p := range positions {
		if p.StockQty != 0 {
			out = append(out, p)
		}
	}
	return out
}

func barcodesOf(net map[string]int64) []string {
	out := make([]string, 0, len(net))
	for barcode := range net {
		out = append(out, barcode)
	}
	sort.Strings(out)
	return out
}

func snapshotRows(positions []Position) []SnapshotRow {
	rows := make([]SnapshotRow, len(positions))
	for i, p := range positions {
		rows[i] = SnapshotRow{Barcode: p.Barcode, StockQty: p.StockQty}
	}
	return rows
}
