// Package quotecart keeps the per-session quote cart: an ordered set of product
// option lines that is loaded from and written back to a key-value store.
package quotecart

import "context"

// Option is one purchasable variant of a product as reported by the catalog.
type Option struct {
	Label     string
	MinQty    int
	Available bool
}

// Product is the catalog read model the cart consumes.
type Product struct {
	Slug    string
	Name    string
	Options []Option
}

// Line is a single cart entry. Name, MinQty and Available are snapshots taken
// when the line was created.
type Line struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Option    string `json:"option"`
	MinQty    int    `json:"min_qty"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
}

// Storage is the durable key-value collaborator. Get reports found=false for
// keys that were never written.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
