package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopfront/cartengine/internal/domain/cart"
)

// SyncCoordinatorConfig holds sync scheduling configuration
type SyncCoordinatorConfig struct {
	// DebounceWindow is the quiet period a debounced sync waits for. Bursts
	// of requests inside the window collapse into the last one.
	DebounceWindow time.Duration
	// MinSyncInterval skips a new merge when the last successful one
	// completed more recently than this, independent of the debounce window.
	MinSyncInterval time.Duration
}

// DefaultSyncCoordinatorConfig returns default configuration
func DefaultSyncCoordinatorConfig() SyncCoordinatorConfig {
	return SyncCoordinatorConfig{
		DebounceWindow:  1 * time.Second,
		MinSyncInterval: 2 * time.Second,
	}
}

// Validate validates the configuration
func (c *SyncCoordinatorConfig) Validate() error {
	if c.DebounceWindow <= 0 {
		return ErrInvalidSyncConfig
	}
	if c.MinSyncInterval < 0 {
		return ErrInvalidSyncConfig
	}
	return nil
}

// SyncCoordinator reconciles the local cart with the server-held cart. It
// debounces bursts of sync requests, guarantees at most one reconciliation in
// flight (later triggers are dropped, not queued — the running sync picks up
// the latest local state anyway), throttles merge frequency, and merges
// server rows back through the quantity guard with identity-key
// deduplication.
type SyncCoordinator struct {
	config  SyncCoordinatorConfig
	store   *Store
	client  SyncClient
	session SessionProvider
	logger  *zap.Logger

	mu    sync.Mutex
	timer *time.Timer

	syncing atomic.Bool
	opID    atomic.Value // string, current operation ID for diagnostics

	now func() time.Time
}

// NewSyncCoordinator creates a sync coordinator for the given store.
func NewSyncCoordinator(config SyncCoordinatorConfig, store *Store, client SyncClient, session SessionProvider, logger *zap.Logger) (*SyncCoordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SyncCoordinator{
		config:  config,
		store:   store,
		client:  client,
		session: session,
		logger:  logger.Named("cart.sync"),
		now:     time.Now,
	}, nil
}

// ScheduleSync arms (or re-arms) the debounce timer. Re-invoking before the
// timer fires cancels the pending sync and reschedules it, so only the last
// request within a burst executes.
func (c *SyncCoordinator) ScheduleSync(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.config.DebounceWindow, func() {
		// The trigger context is long gone when the timer fires; the sync
		// runs on its own context and cannot be canceled mid-flight.
		if err := c.SyncNow(context.Background()); err != nil {
			c.logger.Error("debounced sync failed", zap.Error(err))
		}
	})
	c.logger.Debug("sync scheduled", zap.Duration("debounce_window", c.config.DebounceWindow))
}

// CancelScheduledSync drops a pending debounced sync, if any. An in-flight
// sync is unaffected: it runs to completion and releases its own lock.
func (c *SyncCoordinator) CancelScheduledSync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// SyncNow performs a bidirectional merge with the server-held cart. The
// session precheck, single-flight guard and minimum-interval throttle all
// turn the call into a logged no-op rather than an error; only a failed
// network round trip surfaces as an error, with local state left untouched.
func (c *SyncCoordinator) SyncNow(ctx context.Context) error {
	userID, ok := c.currentUser(ctx)
	if !ok {
		return nil
	}

	if interval := c.now().Sub(c.store.LastSyncAt()); interval < c.config.MinSyncInterval {
		c.logger.Debug("sync skipped, last sync too recent", zap.Duration("since_last", interval))
		return nil
	}

	opID, acquired := c.acquire()
	if !acquired {
		return nil
	}
	defer c.release(opID)
	started := c.now()

	local := c.store.SyncItems()
	result, err := c.client.MergeCart(ctx, userID, local)
	if err != nil {
		c.logger.Error("merge sync failed, keeping local cart",
			zap.String("op_id", opID),
			zap.Error(err),
		)
		return err
	}
	if result == nil || !result.Success || result.FinalCart == nil {
		// Losing a cart is worse than a stale cart: a malformed reply keeps
		// the local items untouched.
		c.logger.Warn("malformed merge reply, keeping local cart", zap.String("op_id", opID))
		return nil
	}

	merged := c.mergeRows(opID, result.FinalCart)
	c.store.ReplaceItems(ctx, merged, c.now())
	c.logger.Info("cart reconciled",
		zap.String("op_id", opID),
		zap.Int("server_rows", len(result.FinalCart)),
		zap.Int("merged_lines", len(merged)),
		zap.Duration("duration", c.now().Sub(started)),
	)
	return nil
}

// PushToServer overwrites the server-held cart with the local items. No merge
// is performed back into local state.
func (c *SyncCoordinator) PushToServer(ctx context.Context) error {
	userID, ok := c.currentUser(ctx)
	if !ok {
		return nil
	}
	opID, acquired := c.acquire()
	if !acquired {
		return nil
	}
	defer c.release(opID)
	started := c.now()

	if err := c.client.PushCart(ctx, userID, c.store.SyncItems()); err != nil {
		c.logger.Error("push sync failed", zap.String("op_id", opID), zap.Error(err))
		return err
	}
	c.logger.Info("local cart pushed to server",
		zap.String("op_id", opID),
		zap.Duration("duration", c.now().Sub(started)),
	)
	return nil
}

// LoadFromServer fetches the server-held cart and overwrites local state
// unconditionally — the "log in on a new device" path. Rows still pass the
// stored-value quantity guard, but no deduplication is performed.
func (c *SyncCoordinator) LoadFromServer(ctx context.Context) error {
	userID, ok := c.currentUser(ctx)
	if !ok {
		return nil
	}
	opID, acquired := c.acquire()
	if !acquired {
		return nil
	}
	defer c.release(opID)
	started := c.now()

	rows, err := c.client.FetchCart(ctx, userID)
	if err != nil {
		c.logger.Error("pull sync failed, keeping local cart", zap.String("op_id", opID), zap.Error(err))
		return err
	}

	items := make([]*cart.LineItem, 0, len(rows))
	for _, row := range rows {
		item := c.toLineItem(opID, row)
		if item != nil {
			items = append(items, item)
		}
	}
	c.store.ReplaceItems(ctx, items, c.now())
	c.logger.Info("local cart replaced from server",
		zap.String("op_id", opID),
		zap.Int("lines", len(items)),
		zap.Duration("duration", c.now().Sub(started)),
	)
	return nil
}

// currentUser runs the session precheck shared by every sync variant. A
// missing session or a failed lookup skips the sync; the cart remains usable
// anonymously and local-only.
func (c *SyncCoordinator) currentUser(ctx context.Context) (string, bool) {
	userID, err := c.session.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("session lookup failed, sync skipped", zap.Error(err))
		return "", false
	}
	if userID == "" {
		c.logger.Debug("no session, sync skipped")
		return "", false
	}
	return userID, true
}

// acquire takes the single-flight sync lock. A second trigger while one sync
// is active is dropped, not deferred: the in-flight sync already reads the
// latest local state.
func (c *SyncCoordinator) acquire() (string, bool) {
	if !c.syncing.CompareAndSwap(false, true) {
		c.logger.Debug("sync already in flight, request dropped",
			zap.String("active_op_id", c.activeOpID()),
		)
		return "", false
	}
	opID := uuid.New().String()
	c.opID.Store(opID)
	c.store.setSyncing(true)
	c.logger.Debug("sync lock acquired", zap.String("op_id", opID))
	return opID, true
}

// release drops the sync lock. It runs deferred so an error during the
// network call or merge still releases the lock.
func (c *SyncCoordinator) release(opID string) {
	c.store.setSyncing(false)
	c.opID.Store("")
	c.syncing.Store(false)
	c.logger.Debug("sync lock released", zap.String("op_id", opID))
}

func (c *SyncCoordinator) activeOpID() string {
	if v, ok := c.opID.Load().(string); ok {
		return v
	}
	return ""
}

// mergeRows converts, quantity-checks and deduplicates the server's rows.
// When two rows collapse to the same identity key, the lower strictly
// positive quantity wins: an inflated duplicate is more likely the error.
func (c *SyncCoordinator) mergeRows(opID string, rows []ServerItem) []*cart.LineItem {
	merged := make([]*cart.LineItem, 0, len(rows))
	byKey := make(map[cart.IdentityKey]*cart.LineItem, len(rows))

	for _, row := range rows {
		item := c.toLineItem(opID, row)
		if item == nil {
			continue
		}
		existing, ok := byKey[item.Key()]
		if !ok {
			merged = append(merged, item)
			byKey[item.Key()] = item
			continue
		}
		c.logger.Warn("duplicate line in merge reply",
			zap.String("op_id", opID),
			zap.String("product_id", item.ProductID),
			zap.Int("kept_quantity", existing.Quantity),
			zap.Int("dropped_quantity", item.Quantity),
		)
		if item.Quantity > 0 && item.Quantity < existing.Quantity {
			existing.Quantity = item.Quantity
		}
	}
	return merged
}

// toLineItem converts a server row into the local line-item shape, applying
// the stored-value quantity guard. Rows without a product ID are dropped.
func (c *SyncCoordinator) toLineItem(opID string, row ServerItem) *cart.LineItem {
	if row.ProductID == "" {
		c.logger.Warn("server row without product ID dropped", zap.String("op_id", opID))
		return nil
	}
	quantity, reason := cart.SanitizeStoredQuantity(row.Quantity)
	if reason != "" {
		c.logger.Warn("server row quantity corrected",
			zap.String("op_id", opID),
			zap.String("product_id", row.ProductID),
			zap.Int("from", row.Quantity),
			zap.Int("to", quantity),
			zap.String("reason", string(reason)),
		)
	}
	item, err := cart.NewLineItem(row.ProductID, quantity, row.SelectedColor, row.SelectedSize, row.Product)
	if err != nil {
		c.logger.Warn("server row dropped", zap.String("op_id", opID), zap.Error(err))
		return nil
	}
	return item
}
