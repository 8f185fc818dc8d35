// Package cart models the session-scoped cart: a multiset of product ids
// where repetition of an id encodes quantity. The cart has no existence
// independent of its session and may reference products that have since been
// deleted from the catalog.
package cart

import "context"

// Store defines session-scoped cart storage. Ids passed in must already be
// normalized (see product.NormalizeID). Clear on an empty cart is a no-op.
type Store interface {
	Get(ctx context.Context, sessionID string) ([]string, error)
	Add(ctx context.Context, sessionID, productID string) (count int, err error)
	Remove(ctx context.Context, sessionID, productID string) error
	Clear(ctx context.Context, sessionID string) error
}

// Collapse counts occurrences of each distinct id in the cart sequence.
// Order among distinct ids is irrelevant; only counts matter.
func Collapse(ids []string) map[string]int {
	counts := make(map[string]int, len(ids))
	for _, id := range ids {
		counts[id]++
	}
	return counts
}
