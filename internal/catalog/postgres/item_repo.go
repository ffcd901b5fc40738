// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

// Package postgres implements catalog repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/shopspring/decimal"

	"github.com/vitrina/vitrina/internal/auth"
	"github.com/vitrina/vitrina/internal/catalog"
)

// poolIface is the subset of pgxpool.Pool used by repositories, allowing
// test substitution with pgxmock.
type poolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ItemRepository implements catalog.ItemRepository using PostgreSQL.
type ItemRepository struct {
	pool poolIface
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(pool poolIface) *ItemRepository {
	return &ItemRepository{pool: pool}
}

const itemColumns = `id, name, price::text, photo_url, photo_key, owner_id, owner_email, created_at`

// Create stores a new item.
func (r *ItemRepository) Create(ctx context.Context, item *catalog.Item) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO items (id, name, price, photo_url, photo_key, owner_id, owner_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		item.ID.String(),
		item.Name,
		item.Price.String(),
		item.PhotoURL,
		item.PhotoKey,
		item.OwnerID.String(),
		item.OwnerEmail,
		item.CreatedAt,
	)
	if err != nil {
		return oops.Code("ITEM_CREATE_FAILED").
			With("item_id", item.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an item by ID.
func (r *ItemRepository) GetByID(ctx context.Context, id ulid.ULID) (*catalog.Item, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id = $1
	`, id.String())

	item, err := r.scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ITEM_NOT_FOUND").
			With("item_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ITEM_GET_FAILED").
			With("item_id", id.String()).
			Wrap(err)
	}
	return item, nil
}

// List returns all items, newest first.
func (r *ItemRepository) List(ctx context.Context) ([]*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, oops.Code("ITEM_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	return r.collectItems(rows)
}

// ListByOwner returns the items owned by one account, newest first.
func (r *ItemRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID.String())
	if err != nil {
		return nil, oops.Code("ITEM_LIST_FAILED").
			With("owner_id", ownerID.String()).
			Wrap(err)
	}
	defer rows.Close()

	return r.collectItems(rows)
}

// Update rewrites the mutable fields of an item.
func (r *ItemRepository) Update(ctx context.Context, item *catalog.Item) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE items
		SET name = $2, price = $3, photo_url = $4, photo_key = $5
		WHERE id = $1
	`,
		item.ID.String(),
		item.Name,
		item.Price.String(),
		item.PhotoURL,
		item.PhotoKey,
	)
	if err != nil {
		return oops.Code("ITEM_UPDATE_FAILED").
			With("item_id", item.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ITEM_NOT_FOUND").
			With("item_id", item.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes an item.
func (r *ItemRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM items WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("ITEM_DELETE_FAILED").
			With("item_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ITEM_NOT_FOUND").
			With("item_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func (r *ItemRepository) collectItems(rows pgx.Rows) ([]*catalog.Item, error) {
	var items []*catalog.Item
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, oops.Code("ITEM_SCAN_FAILED").Wrap(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ITEM_LIST_FAILED").
			With("operation", "iterate items").
			Wrap(err)
	}
	return items, nil
}

// scanItem scans one row. Price travels as text so numeric precision
// survives the round trip. Callers handle pgx.ErrNoRows.
func (r *ItemRepository) scanItem(row pgx.Row) (*catalog.Item, error) {
	var (
		idStr      string
		name       string
		priceStr   string
		photoURL   *string
		photoKey   *string
		ownerIDStr string
		ownerEmail string
		createdAt  time.Time
	)

	err := row.Scan(&idStr, &name, &priceStr, &photoURL, &photoKey, &ownerIDStr, &ownerEmail, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ITEM_SCAN_FAILED").Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ITEM_INVALID_ID").With("id", idStr).Wrap(err)
	}
	ownerID, err := ulid.Parse(ownerIDStr)
	if err != nil {
		return nil, oops.Code("ITEM_INVALID_OWNER").With("owner_id", ownerIDStr).Wrap(err)
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, oops.Code("ITEM_INVALID_PRICE").With("price", priceStr).Wrap(err)
	}

	return &catalog.Item{
		ID:         id,
		Name:       name,
		Price:      price,
		PhotoURL:   photoURL,
		PhotoKey:   photoKey,
		OwnerID:    ownerID,
		OwnerEmail: ownerEmail,
		CreatedAt:  createdAt,
	}, nil
}

// Compile-time interface check.
var _ catalog.ItemRepository = (*ItemRepository)(nil)
