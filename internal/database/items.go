package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lendit/internal/models"
)

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (owner_id, name, description, available, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		item.OwnerID,
		item.Name,
		item.Description,
		item.Available,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	query := `SELECT id, owner_id, name, description, available FROM items WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.Available,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

func (db *DB) GetItems(ctx context.Context) ([]*models.Item, error) {
	query := `SELECT id, owner_id, name, description, available FROM items ORDER BY id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		var item models.Item
		err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.Available)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SeedItems upserts the configured item list, keeping seed ids stable.
func (db *DB) SeedItems(ctx context.Context, items []models.Item) error {
	query := `INSERT INTO items (id, owner_id, name, description, available, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  owner_id = excluded.owner_id,
                  name = excluded.name,
                  description = excluded.description,
                  available = excluded.available,
                  updated_at = excluded.updated_at`

	now := time.Now().UTC()
	for _, item := range items {
		_, err := db.ExecContext(ctx, query,
			item.ID, item.OwnerID, item.Name, item.Description, item.Available, now, now)
		if err != nil {
			return fmt.Errorf("failed to seed item %d: %w", item.ID, err)
		}
	}
	return nil
}
