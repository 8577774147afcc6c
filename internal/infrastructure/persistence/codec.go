package persistence

import (
	"encoding/json"
	"time"

	cartapp "github.com/shopfront/cartengine/internal/application/cart"
	"github.com/shopfront/cartengine/internal/domain/cart"
)

// persistedSnapshot is the on-disk JSON shape. It mirrors cartapp.Snapshot
// but is decoded field by field so a partially corrupt payload degrades to
// safe defaults instead of failing the whole load. This defensive
// normalization is the documented recovery path from corrupted or partial
// persisted state, not an optimization.
type persistedSnapshot struct {
	Items      json.RawMessage `json:"items"`
	Coupon     json.RawMessage `json:"appliedCoupon"`
	LastSyncAt json.RawMessage `json:"lastSyncAt"`
}

// encodeSnapshot serializes a snapshot for storage.
func encodeSnapshot(snap cartapp.Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// decodeSnapshot deserializes a stored snapshot. Only a payload that is not
// JSON at all is an error; individually malformed fields reset to their safe
// defaults: no items, no coupon, zero sync time.
func decodeSnapshot(data []byte) (*cartapp.Snapshot, error) {
	var raw persistedSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, cartapp.ErrSnapshotCorrupt
	}

	snap := &cartapp.Snapshot{Items: make([]*cart.LineItem, 0)}

	if len(raw.Items) > 0 {
		var items []*cart.LineItem
		if err := json.Unmarshal(raw.Items, &items); err == nil {
			for _, item := range items {
				if item != nil {
					snap.Items = append(snap.Items, item)
				}
			}
		}
	}

	if len(raw.Coupon) > 0 {
		var coupon cart.Coupon
		if err := json.Unmarshal(raw.Coupon, &coupon); err == nil && coupon.Validate() == nil {
			snap.Coupon = &coupon
		}
	}

	if len(raw.LastSyncAt) > 0 {
		var at time.Time
		if err := json.Unmarshal(raw.LastSyncAt, &at); err == nil {
			snap.LastSyncAt = at
		}
	}

	return snap, nil
}
