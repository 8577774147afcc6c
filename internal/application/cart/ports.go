package cart

import (
	"context"
	"time"

	"github.com/shopfront/cartengine/internal/domain/cart"
)

// Snapshot is the durable cart payload written through on every successful
// mutation. Transient flags (loading, syncing, locked) are intentionally not
// part of the snapshot; rehydration resets them to safe defaults.
type Snapshot struct {
	Items      []*cart.LineItem `json:"items"`
	Coupon     *cart.Coupon     `json:"appliedCoupon,omitempty"`
	LastSyncAt time.Time        `json:"lastSyncAt"`
}

// SnapshotStore is the durable key-value persistence boundary. Load returns
// (nil, nil) when no snapshot exists yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// SessionProvider resolves the authenticated user for sync attempts. An empty
// user ID means no session: the cart stays usable anonymously and syncs are
// skipped, not failed.
type SessionProvider interface {
	CurrentUser(ctx context.Context) (string, error)
}

// SyncItem is the outbound row shape sent to the cart-sync endpoint.
type SyncItem struct {
	ProductID     string `json:"productId"`
	Quantity      int    `json:"quantity"`
	SelectedColor string `json:"selectedColor,omitempty"`
	SelectedSize  string `json:"selectedSize,omitempty"`
}

// ServerItem is a cart row as returned by the server.
type ServerItem struct {
	ID            string               `json:"id"`
	ProductID     string               `json:"productId"`
	Quantity      int                  `json:"quantity"`
	SelectedColor string               `json:"selectedColor,omitempty"`
	SelectedSize  string               `json:"selectedSize,omitempty"`
	Product       cart.ProductSnapshot `json:"product"`
}

// MergeResult is the server's reply to a bidirectional merge. FinalCart is
// nil when the server omitted it, which callers must treat as a no-op rather
// than an empty cart.
type MergeResult struct {
	Success   bool
	FinalCart []ServerItem
}

// SyncClient is the cart-sync endpoint boundary.
type SyncClient interface {
	// MergeCart sends the local items and returns the server's merged view.
	MergeCart(ctx context.Context, userID string, items []SyncItem) (*MergeResult, error)
	// PushCart overwrites the server-held cart with the local items.
	PushCart(ctx context.Context, userID string, items []SyncItem) error
	// FetchCart returns the server-held cart rows.
	FetchCart(ctx context.Context, userID string) ([]ServerItem, error)
}
