package item

import (
	"context"
)

// Repository defines read access to the item master.
type Repository interface {
	// FindByBarcodes returns the items whose barcode is in the set, in one query.
	// Barcodes without a master record are simply absent from the result.
	FindByBarcodes(ctx context.Context, barcodes []string) ([]Item, error)
}
