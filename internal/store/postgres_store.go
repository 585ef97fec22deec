package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/servicehubhq/cart-service/internal/models"
	"github.com/servicehubhq/cart-service/internal/utils"
)

// postgresStore keeps snapshots in a single table with a JSONB items
// column, one row per device.
type postgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) LocalStore {
	return &postgresStore{DB: db}
}

func (p *postgresStore) Read(ctx context.Context, deviceID string) ([]models.CartLineItem, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT items
		FROM cart_snapshots
		WHERE device_id = $1
	`

	var itemsJSON []byte

	err := p.DB.QueryRowContext(dbCtx, query, deviceID).Scan(&itemsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return []models.CartLineItem{}, nil
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	var items []models.CartLineItem
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot items: %w", err)
	}

	return items, nil
}

func (p *postgresStore) Write(ctx context.Context, deviceID string, items []models.CartLineItem) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if items == nil {
		items = []models.CartLineItem{}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot items: %w", err)
	}

	query := `
		INSERT INTO cart_snapshots (device_id, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id)
		DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
	`

	if _, err := p.DB.ExecContext(dbCtx, query, deviceID, itemsJSON, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

func (p *postgresStore) Delete(ctx context.Context, deviceID string) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		DELETE FROM cart_snapshots
		WHERE device_id = $1
	`

	// deleting an absent snapshot is not an error
	if _, err := p.DB.ExecContext(dbCtx, query, deviceID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}

func (p *postgresStore) ActiveSnapshots(ctx context.Context) (int64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var count int64

	err := p.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM cart_snapshots`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}

	return count, nil
}
