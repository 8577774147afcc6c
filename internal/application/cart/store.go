package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopfront/cartengine/internal/domain/cart"
)

// Store is the cart state container. It owns every mutation entry point,
// routes all quantity changes through the quantity guard, and writes a
// persistence snapshot after each successful mutation.
//
// Rejected mutations (locked cart, non-positive quantities, oversized
// requests) are silent no-ops with a diagnostic log: they are expected UI
// races such as double-clicks, not caller errors.
type Store struct {
	mu        sync.Mutex
	state     *cart.State
	snapshots SnapshotStore
	logger    *zap.Logger
}

// NewStore creates an empty cart store backed by the given snapshot store.
func NewStore(snapshots SnapshotStore, logger *zap.Logger) *Store {
	return &Store{
		state:     cart.NewState(),
		snapshots: snapshots,
		logger:    logger.Named("cart.store"),
	}
}

// Hydrate loads the persisted snapshot, if any, into the store. Quantities
// pass through the stored-value guard and transient flags reset to safe
// defaults. A missing snapshot leaves the cart empty; a load failure keeps
// the cart usable and is only logged.
func (s *Store) Hydrate(ctx context.Context) error {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		s.logger.Error("snapshot load failed, starting with empty cart", zap.Error(err))
		return err
	}
	if snap == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := snap.Items
	if items == nil {
		items = make([]*cart.LineItem, 0)
	}
	corrections := cart.SweepQuantities(items)
	for _, c := range corrections {
		s.logCorrection("rehydrated quantity corrected", c)
	}

	s.state = cart.NewState()
	s.state.Items = items
	s.state.Coupon = snap.Coupon
	s.state.LastSyncAt = snap.LastSyncAt
	return nil
}

// AddItem adds the requested quantity of a product variant to the cart. If a
// line with the same identity key exists, the quantity accumulates onto it
// subject to the guard; otherwise a new line is created. Locked carts and
// invalid quantities make this a logged no-op.
func (s *Store) AddItem(ctx context.Context, productID string, quantity int, color, size string, product cart.ProductSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Locked {
		s.logger.Warn("add rejected, cart is locked", zap.String("product_id", productID))
		return
	}
	if err := cart.ValidateRequestQuantity(quantity); err != nil {
		s.logger.Warn("add rejected by quantity guard",
			zap.String("product_id", productID),
			zap.Int("requested", quantity),
			zap.Error(err),
		)
		return
	}

	key := cart.IdentityKey{ProductID: productID, Color: color, Size: size}
	if existing, ok := s.state.ItemByKey(key); ok {
		next, reason := cart.AccumulateQuantity(existing.Quantity, quantity)
		if reason != "" {
			s.logCorrection("accumulated quantity corrected", cart.QuantityCorrection{
				LineID:    existing.ID.String(),
				ProductID: productID,
				From:      existing.Quantity + quantity,
				To:        next,
				Reason:    reason,
			})
		}
		existing.Quantity = next
		s.persist(ctx)
		return
	}

	item, err := cart.NewLineItem(productID, quantity, color, size, product)
	if err != nil {
		s.logger.Warn("add rejected", zap.String("product_id", productID), zap.Error(err))
		return
	}
	s.state.Items = append(s.state.Items, item)
	s.persist(ctx)
}

// UpdateQuantity sets a line's quantity directly. Non-positive values remove
// the line; values above the hard ceiling are rejected as erroneous input.
func (s *Store) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, lineID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Locked {
		s.logger.Warn("update rejected, cart is locked", zap.String("line_id", lineID.String()))
		return
	}
	if err := cart.ValidateRequestQuantity(quantity); err != nil {
		s.logger.Warn("update rejected by quantity guard",
			zap.String("line_id", lineID.String()),
			zap.Int("requested", quantity),
			zap.Error(err),
		)
		return
	}
	item, ok := s.state.ItemByID(lineID)
	if !ok {
		s.logger.Warn("update ignored, line not found", zap.String("line_id", lineID.String()))
		return
	}
	item.Quantity = quantity
	s.persist(ctx)
}

// RemoveItem removes a line from the cart. No-ops while locked.
func (s *Store) RemoveItem(ctx context.Context, lineID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Locked {
		s.logger.Warn("remove rejected, cart is locked", zap.String("line_id", lineID.String()))
		return
	}
	if !s.state.RemoveByID(lineID) {
		s.logger.Warn("remove ignored, line not found", zap.String("line_id", lineID.String()))
		return
	}
	s.persist(ctx)
}

// ClearCart empties the items and clears the coupon. No-ops while locked.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Locked {
		s.logger.Warn("clear rejected, cart is locked")
		return
	}
	s.clearLocked(ctx)
}

// ClearCartAfterPayment empties the cart and force-unlocks it. This is the
// only operation allowed to bypass the lock: it is the authoritative
// "transaction finished" signal, so it must succeed even mid-payment-capture.
func (s *Store) ClearCartAfterPayment(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Locked = false
	s.clearLocked(ctx)
	s.logger.Info("cart cleared after payment capture")
}

func (s *Store) clearLocked(ctx context.Context) {
	s.state.Items = make([]*cart.LineItem, 0)
	s.state.Coupon = nil
	s.persist(ctx)
}

// ApplyCoupon replaces the single active coupon slot. Eligibility is assumed
// pre-validated by the caller; only structural validity is checked here.
func (s *Store) ApplyCoupon(ctx context.Context, coupon cart.Coupon) error {
	if err := coupon.Validate(); err != nil {
		s.logger.Warn("coupon rejected", zap.String("code", coupon.Code), zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Locked {
		s.logger.Warn("coupon rejected, cart is locked", zap.String("code", coupon.Code))
		return nil
	}
	s.state.Coupon = &coupon
	s.persist(ctx)
	return nil
}

// RemoveCoupon clears the coupon slot. No-ops while locked.
func (s *Store) RemoveCoupon(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Locked {
		s.logger.Warn("coupon removal rejected, cart is locked")
		return
	}
	s.state.Coupon = nil
	s.persist(ctx)
}

// LockCart blocks item mutations, bracketing a payment-processing window.
func (s *Store) LockCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Locked = true
	s.logger.Info("cart locked for payment")
}

// UnlockCart re-enables item mutations.
func (s *Store) UnlockCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Locked = false
	s.logger.Info("cart unlocked")
}

// CheckCartHealth sweeps every line through the stored-value guard and
// reports whether any line was corrected. Corrections persist immediately.
func (s *Store) CheckCartHealth(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	corrections := cart.SweepQuantities(s.state.Items)
	if len(corrections) == 0 {
		return false
	}
	for _, c := range corrections {
		s.logCorrection("health sweep corrected quantity", c)
	}
	s.persist(ctx)
	return true
}

// ReplaceItems swaps the item list wholesale, stamps the reconciliation time
// and persists. This is the sync coordinator's merge-commit path; it applies
// even while the cart is locked, since a payment lock only blocks new item
// mutations.
func (s *Store) ReplaceItems(ctx context.Context, items []*cart.LineItem, syncedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items == nil {
		items = make([]*cart.LineItem, 0)
	}
	s.state.Items = items
	s.state.LastSyncAt = syncedAt
	s.persist(ctx)
}

// Items returns a copy of the current line items in display order.
func (s *Store) Items() []*cart.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CopyItems()
}

// SyncItems returns the current items in the outbound wire shape.
func (s *Store) SyncItems() []SyncItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SyncItem, 0, len(s.state.Items))
	for _, item := range s.state.Items {
		out = append(out, SyncItem{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			SelectedColor: item.SelectedColor,
			SelectedSize:  item.SelectedSize,
		})
	}
	return out
}

// Totals derives the current pricing totals.
func (s *Store) Totals() cart.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Totals()
}

// Coupon returns the applied coupon, if any.
func (s *Store) Coupon() *cart.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Coupon == nil {
		return nil
	}
	c := *s.state.Coupon
	return &c
}

// IsLocked reports whether the cart is locked for payment.
func (s *Store) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Locked
}

// IsSyncing reports whether a reconciliation is in flight.
func (s *Store) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Syncing
}

// LastSyncAt returns the time of the last successful reconciliation.
func (s *Store) LastSyncAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastSyncAt
}

func (s *Store) setSyncing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Syncing = v
}

// persist writes the snapshot through. The in-memory state is the source of
// truth within a session, so a failed write is logged and the mutation still
// stands.
func (s *Store) persist(ctx context.Context) {
	snap := Snapshot{
		Items:      s.state.CopyItems(),
		Coupon:     s.state.Coupon,
		LastSyncAt: s.state.LastSyncAt,
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.logger.Error("snapshot write failed", zap.Error(err))
	}
}

func (s *Store) logCorrection(msg string, c cart.QuantityCorrection) {
	fields := []zap.Field{
		zap.String("line_id", c.LineID),
		zap.String("product_id", c.ProductID),
		zap.Int("from", c.From),
		zap.Int("to", c.To),
		zap.String("reason", string(c.Reason)),
	}
	// Hard resets point at corrupt state and log louder than soft caps.
	if c.Reason == cart.CorrectionAccumulationReset || c.Reason == cart.CorrectionStoredReset {
		s.logger.Error(msg, fields...)
		return
	}
	s.logger.Warn(msg, fields...)
}
