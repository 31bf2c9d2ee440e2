package item

import (
	"context"
	"fmt"
)

// Resolver maps barcodes to display names with a single batched lookup.
type Resolver struct {
	repo Repository
}

// NewResolver creates a new item name resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveNames returns a name for every requested barcode.
// Barcodes missing from the master resolve to UnknownItemName.
func (r *Resolver) ResolveNames(ctx context.Context, barcodes []string) (map[string]string, error) {
	names := make(map[string]string, len(barcodes))
	if len(barcodes) == 0 {
		return names, nil
	}

	items, err := r.repo.FindByBarcodes(ctx, dedupe(barcodes))
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	for _, it := range items {
		if _, seen := names[it.Barcode]; !seen && it.Name != "" {
			names[it.Barcode] = it.Name
		}
	}

	for _, b := range barcodes {
		if _, ok := names[b]; !ok {
			names[b] = UnknownItemName
		}
	}

	return names, nil
}

func dedupe(barcodes []string) []string {
	seen := make(map[string]struct{}, len(barcodes))
	out := make([]string, 0, len(barcodes))
	for _, b := range barcodes {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}
