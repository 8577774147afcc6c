package cart

import (
	"time"

	"github.com/google/uuid"
)

// State is the root cart aggregate: the ordered line items (insertion order is
// display order), the single applied coupon slot, the transient flags and the
// last successful reconciliation timestamp.
//
// The transient flags are never persisted; rehydration resets them to safe
// defaults.
type State struct {
	Items      []*LineItem
	Coupon     *Coupon
	Locked     bool
	Loading    bool
	Syncing    bool
	LastSyncAt time.Time
}

// NewState creates an empty cart state.
func NewState() *State {
	return &State{Items: make([]*LineItem, 0)}
}

// ItemByID finds a line item by its local identifier.
func (s *State) ItemByID(id uuid.UUID) (*LineItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return nil, false
}

// ItemByKey finds a line item by its identity key.
func (s *State) ItemByKey(key IdentityKey) (*LineItem, bool) {
	for _, item := range s.Items {
		if item.Key() == key {
			return item, true
		}
	}
	return nil, false
}

// RemoveByID removes a line item, preserving the order of the remaining
// items. It reports whether a line was removed.
func (s *State) RemoveByID(id uuid.UUID) bool {
	for i, item := range s.Items {
		if item.ID == id {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Totals derives the current pricing totals.
func (s *State) Totals() Totals {
	return CalculateTotals(s.Items, s.Coupon)
}

// CopyItems returns a shallow copy of the item slice so callers can iterate
// without holding the store's lock.
func (s *State) CopyItems() []*LineItem {
	out := make([]*LineItem, len(s.Items))
	copy(out, s.Items)
	return out
}
