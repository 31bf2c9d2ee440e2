// Package item provides the item master (barcode -> display name) lookup.
package item

// UnknownItemName is shown for barcodes that have no item master record.
const UnknownItemName = "(unknown item)"

// Item is a read-only item master record.
type Item struct {
	Barcode string `db:"barcode" json:"barcode"`
	Name    string `db:"item_name" json:"item_name"`
}
