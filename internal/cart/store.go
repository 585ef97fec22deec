// Package cart owns the canonical, deduplicated cart for each device and
// keeps the local snapshot and the remote account cart eventually
// consistent. The policy is local-first: the snapshot is the source of
// truth, remote sync is best-effort and never blocks a mutation.
package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/servicehubhq/cart-service/internal/api/middleware"
	"github.com/servicehubhq/cart-service/internal/errors"
	"github.com/servicehubhq/cart-service/internal/events"
	"github.com/servicehubhq/cart-service/internal/gateway"
	"github.com/servicehubhq/cart-service/internal/metrics"
	"github.com/servicehubhq/cart-service/internal/models"
	"github.com/servicehubhq/cart-service/internal/store"
)

type Store struct {
	local       store.LocalStore
	remote      gateway.SyncGateway
	notifier    *events.Notifier
	syncTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(local store.LocalStore, remote gateway.SyncGateway, notifier *events.Notifier, syncTimeout time.Duration) *Store {
	return &Store{
		local:       local,
		remote:      remote,
		notifier:    notifier,
		syncTimeout: syncTimeout,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockDevice serializes the snapshot-mutate-commit sequence for one device.
// Without it two concurrent mutations read the same snapshot and the later
// write drops the earlier one. Carts for different devices stay independent.
func (s *Store) lockDevice(deviceID string) func() {

	s.mu.Lock()
	lock, ok := s.locks[deviceID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[deviceID] = lock
	}
	s.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}

// Deduplicate collapses entries sharing a (productId, selectedPlan) key,
// keeping the first-seen position and the larger quantity. Quantities are
// NOT summed here: duplicates in a persisted cart are the residue of
// historical bugs, not intent, unlike an explicit repeated AddItem.
// Malformed items are dropped rather than failing the whole pass.
func Deduplicate(items []models.CartLineItem) []models.CartLineItem {

	out := make([]models.CartLineItem, 0, len(items))
	index := make(map[models.LineKey]int, len(items))

	for _, item := range items {

		if !item.Valid() {
			continue
		}

		if at, ok := index[item.Key()]; ok {
			if item.Quantity > out[at].Quantity {
				out[at].Quantity = item.Quantity
			}

			continue
		}

		index[item.Key()] = len(out)
		out = append(out, item)
	}

	return out
}

// Merge reconciles a remote cart with a local one. Remote-derived entries
// come first in their original order; a local entry with the same key
// overwrites the quantity (local wins), a new local entry is appended.
func Merge(remoteItems, localItems []models.CartLineItem) []models.CartLineItem {

	merged := Deduplicate(remoteItems)

	index := make(map[models.LineKey]int, len(merged))
	for at, item := range merged {
		index[item.Key()] = at
	}

	for _, item := range Deduplicate(localItems) {

		if at, ok := index[item.Key()]; ok {
			merged[at].Quantity = item.Quantity

			continue
		}

		index[item.Key()] = len(merged)
		merged = append(merged, item)
	}

	return merged
}

// Load reads the device snapshot and, for an authenticated session, merges
// it with the remote cart. A failed remote fetch degrades to the local
// cart alone; it is retried on the next Load, never in the background.
func (s *Store) Load(ctx context.Context, sess models.Session) ([]models.CartLineItem, error) {

	logger := middleware.LoggerFromContext(ctx)

	defer s.lockDevice(sess.DeviceID)()

	localItems, err := s.local.Read(ctx, sess.DeviceID)
	if err != nil {
		return nil, errors.StorageError("Failed to read cart snapshot").WithError(err)
	}

	items := Deduplicate(localItems)
	metrics.RecordMergeDropped(len(localItems) - len(items))

	merged := false

	if sess.Authenticated {

		remoteItems, err := s.remote.FetchCart(ctx)
		if err != nil {
			// recoverable: local cart stays usable with a degraded backend
			metrics.RecordSyncFailure("fetch")
			logger.Warn("Remote cart fetch failed, falling back to local cart",
				slog.String("device_id", sess.DeviceID),
				slog.String("error", err.Error()))
		} else {
			items = Merge(remoteItems, items)
			merged = true
		}
	}

	if err := s.local.Write(ctx, sess.DeviceID, items); err != nil {
		return nil, errors.StorageError("Failed to persist cart snapshot").WithError(err)
	}

	s.notifier.Publish(events.CartChanged{DeviceID: sess.DeviceID})
	metrics.RecordCartMutation("load")

	// Push only when the remote cart actually took part in the merge;
	// replaying a local-only cart over an unfetched remote one could
	// clobber items added from another device.
	if merged {
		s.pushAsync(ctx, items)
	}

	return items, nil
}

// AddItem inserts the item or, when an entry with the same key exists, sums
// the quantities. An intentional second add of the same plan accumulates,
// in contrast to Deduplicate.
func (s *Store) AddItem(ctx context.Context, sess models.Session, item models.CartLineItem) ([]models.CartLineItem, error) {

	if !item.Valid() {
		return nil, errors.InvalidMergeStateError("Line item is missing productId or selectedPlan")
	}

	if item.Quantity < 1 {
		item.Quantity = 1
	}

	defer s.lockDevice(sess.DeviceID)()

	items, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}

	found := false

	for at := range items {
		if items[at].Key() == item.Key() {
			items[at].Quantity += item.Quantity
			found = true

			break
		}
	}

	if !found {
		items = append(items, item)
	}

	if err := s.commit(ctx, sess, items, "add"); err != nil {
		return nil, err
	}

	return items, nil
}

// UpdateQuantity applies a delta to the matching entry, never letting the
// quantity fall below 1. Removal goes through RemoveItem.
func (s *Store) UpdateQuantity(ctx context.Context, sess models.Session, productID, selectedPlan string, delta int) ([]models.CartLineItem, error) {

	defer s.lockDevice(sess.DeviceID)()

	items, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}

	key := models.LineKey{ProductID: productID, SelectedPlan: selectedPlan}
	found := false

	for at := range items {
		if items[at].Key() == key {
			items[at].Quantity = max(1, items[at].Quantity+delta)
			found = true

			break
		}
	}

	if !found {
		return nil, errors.NotFoundError("Item not found in the cart")
	}

	if err := s.commit(ctx, sess, items, "update"); err != nil {
		return nil, err
	}

	return items, nil
}

// RemoveItem deletes the matching entry. Removing an absent key is a no-op
// and triggers no persistence or notification.
func (s *Store) RemoveItem(ctx context.Context, sess models.Session, productID, selectedPlan string) ([]models.CartLineItem, error) {

	defer s.lockDevice(sess.DeviceID)()

	items, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}

	key := models.LineKey{ProductID: productID, SelectedPlan: selectedPlan}
	kept := items[:0:0]

	for _, item := range items {
		if item.Key() != key {
			kept = append(kept, item)
		}
	}

	if len(kept) == len(items) {
		return items, nil
	}

	if err := s.commit(ctx, sess, kept, "remove"); err != nil {
		return nil, err
	}

	return kept, nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context, sess models.Session) error {
	defer s.lockDevice(sess.DeviceID)()

	return s.commit(ctx, sess, []models.CartLineItem{}, "clear")
}

// snapshot reads and defensively deduplicates the current device cart.
func (s *Store) snapshot(ctx context.Context, sess models.Session) ([]models.CartLineItem, error) {

	items, err := s.local.Read(ctx, sess.DeviceID)
	if err != nil {
		return nil, errors.StorageError("Failed to read cart snapshot").WithError(err)
	}

	deduped := Deduplicate(items)
	metrics.RecordMergeDropped(len(items) - len(deduped))

	return deduped, nil
}

// commit persists the cart, notifies observers and, for authenticated
// sessions, pushes the full cart to the remote endpoint fire-and-forget.
func (s *Store) commit(ctx context.Context, sess models.Session, items []models.CartLineItem, operation string) error {

	if err := s.local.Write(ctx, sess.DeviceID, items); err != nil {
		return errors.StorageError("Failed to persist cart snapshot").WithError(err)
	}

	s.notifier.Publish(events.CartChanged{DeviceID: sess.DeviceID})
	metrics.RecordCartMutation(operation)

	if sess.Authenticated {
		s.pushAsync(ctx, items)
	}

	return nil
}

// pushAsync replaces the remote cart without blocking the caller. A failed
// push is logged and counted, never retried inline and never rolled back:
// the local snapshot already reflects the user's intent.
func (s *Store) pushAsync(ctx context.Context, items []models.CartLineItem) {

	logger := middleware.LoggerFromContext(ctx)

	// Detach from the request lifecycle but keep context values (bearer
	// token, trace) so the push survives the response being written.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.syncTimeout)

	go func() {
		defer cancel()

		if err := s.remote.ReplaceCart(pushCtx, items); err != nil {
			metrics.RecordSyncFailure("replace")
			logger.Warn("Remote cart push failed, local cart remains authoritative",
				slog.String("error", err.Error()))
		}
	}()
}
