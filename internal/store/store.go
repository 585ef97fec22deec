// Package store persists per-device cart snapshots. A snapshot is the JSON
// array of line items the storefront previously kept in browser storage
// under the "checkoutItems" key; any backend must round-trip that
// representation losslessly.
package store

import (
	"context"

	"github.com/servicehubhq/cart-service/internal/models"
)

type LocalStore interface {
	// Read returns the snapshot for the device, or an empty cart when none
	// exists yet.
	Read(ctx context.Context, deviceID string) ([]models.CartLineItem, error)
	Write(ctx context.Context, deviceID string, items []models.CartLineItem) error
	Delete(ctx context.Context, deviceID string) error
}

// SnapshotCounter is implemented by backends that can report how many
// snapshots they hold. The dashboard stats poller consumes it.
type SnapshotCounter interface {
	ActiveSnapshots(ctx context.Context) (int64, error)
}

const SnapshotKeyPrefix = "checkoutItems"

func SnapshotKey(deviceID string) string {
	return SnapshotKeyPrefix + ":" + deviceID
}
