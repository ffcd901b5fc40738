// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package catalog

import (
	"context"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/shopspring/decimal"

	"github.com/vitrina/vitrina/internal/auth"
)

// MaxItemNameLength bounds the sanitized item name.
const MaxItemNameLength = 120

// Item is a catalog record. OwnerEmail is denormalized so listings can
// show attribution without a join against accounts.
type Item struct {
	ID         ulid.ULID
	Name       string
	Price      decimal.Decimal
	PhotoURL   *string
	PhotoKey   *string
	OwnerID    ulid.ULID
	OwnerEmail string
	CreatedAt  time.Time
}

// PhotoUpload is an image attached to a create or update.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ItemInput carries the raw fields of a create or update. Price arrives as
// the string the form submitted; parsing and validation happen here, not in
// the presentation layer.
type ItemInput struct {
	Name  string
	Price string
	Photo *PhotoUpload
}

// ParsePrice parses a submitted price string into a non-negative decimal.
func ParsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, oops.Code("CATALOG_INVALID_PRICE").
			With("price", s).
			Wrap(&auth.ValidationError{Field: "price", Message: "must be a number"})
	}
	if price.IsNegative() {
		return decimal.Zero, oops.Code("CATALOG_INVALID_PRICE").
			With("price", s).
			Wrap(&auth.ValidationError{Field: "price", Message: "cannot be negative"})
	}
	return price, nil
}

// ValidateItemName checks a sanitized item name.
func ValidateItemName(name string) error {
	if name == "" {
		return &auth.ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if len(name) > MaxItemNameLength {
		return &auth.ValidationError{Field: "name", Message: "is too long"}
	}
	return nil
}

// ItemRepository manages item persistence.
type ItemRepository interface {
	// Create stores a new item.
	Create(ctx context.Context, item *Item) error

	// GetByID retrieves an item by ID. Returns auth.ErrNotFound (wrapped)
	// when no item exists.
	GetByID(ctx context.Context, id ulid.ULID) (*Item, error)

	// List returns all items, newest first.
	List(ctx context.Context) ([]*Item, error)

	// ListByOwner returns the items owned by one account, newest first.
	ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*Item, error)

	// Update rewrites the mutable fields of an item.
	Update(ctx context.Context, item *Item) error

	// Delete removes an item.
	Delete(ctx context.Context, id ulid.ULID) error
}
