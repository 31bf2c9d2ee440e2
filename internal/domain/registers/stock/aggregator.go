package stock

// Aggregate merges baseline quantities with ledger deltas.
// Purchases and returns add, sales subtract. Barcodes that only appear in
// the ledger start from zero. Negative results are kept.
func Aggregate(baseline map[string]int64, ledger Ledger) map[string]int64 {
	net := make(map[string]int64, len(baseline)+len(ledger.Purchases))
	for barcode, qty := range baseline {
		net[barcode] = qty
	}

	apply(net, ledger.Purchases, 1)
	apply(net, ledger.Sales, -1)
	apply(net, ledger.Returns, 1)

	return net
}

func apply(net, deltas map[string]int64, sign int64) {
	for barcode, qty := range deltas {
		net[barcode] += sign * qty
	}
}
