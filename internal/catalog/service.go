// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vitrina/vitrina/internal/auth"
	"github.com/vitrina/vitrina/internal/blob"
	"github.com/vitrina/vitrina/internal/observability"
	"github.com/vitrina/vitrina/pkg/errutil"
)

// Service manages catalog items: scoped reads, owner-checked writes, and
// photo attachment lifecycle.
type Service struct {
	items   ItemRepository
	photos  blob.Store
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService creates the catalog service. The metrics handle may be nil;
// item write counters are then skipped.
func NewService(items ItemRepository, photos blob.Store, logger *slog.Logger, metrics *observability.Metrics) (*Service, error) {
	if items == nil {
		return nil, oops.Code("CATALOG_SERVICE_INVALID").Errorf("item repository is required")
	}
	if photos == nil {
		return nil, oops.Code("CATALOG_SERVICE_INVALID").Errorf("photo store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		items:   items,
		photos:  photos,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// List returns the items the identity may see: everything for admins and
// anonymous readers, own items for signed-in users.
func (s *Service) List(ctx context.Context, identity *auth.Identity) ([]*Item, error) {
	var (
		items []*Item
		err   error
	)
	if Visibility(identity) == ScopeAll {
		items, err = s.items.List(ctx)
	} else {
		items, err = s.items.ListByOwner(ctx, identity.ID)
	}
	if err != nil {
		return nil, oops.Code("CATALOG_LIST_FAILED").Wrap(err)
	}
	return items, nil
}

// Create validates the input, uploads the photo when present, and stores a
// new item owned by the identity.
func (s *Service) Create(ctx context.Context, identity *auth.Identity, input ItemInput) (*Item, error) {
	if !CanCreate(identity) {
		return nil, oops.Code("CATALOG_PERMISSION_DENIED").
			Wrap(auth.ErrPermissionDenied)
	}

	name := auth.Sanitize(input.Name)
	if err := ValidateItemName(name); err != nil {
		return nil, oops.Code("CATALOG_INVALID_NAME").Wrap(err)
	}
	price, err := ParsePrice(input.Price)
	if err != nil {
		return nil, err
	}

	item := &Item{
		ID:         ulid.Make(),
		Name:       name,
		Price:      price,
		OwnerID:    identity.ID,
		OwnerEmail: identity.Email,
		CreatedAt:  s.now().UTC(),
	}

	if input.Photo != nil {
		url, key, uploadErr := s.uploadPhoto(ctx, input.Photo)
		if uploadErr != nil {
			return nil, uploadErr
		}
		item.PhotoURL = &url
		item.PhotoKey = &key
	}

	if err := s.items.Create(ctx, item); err != nil {
		s.countWrite("create_failed")
		// The item row never existed; don't leave its photo orphaned.
		if item.PhotoKey != nil {
			s.discardPhoto(ctx, *item.PhotoKey)
		}
		return nil, oops.Code("CATALOG_CREATE_FAILED").Wrap(err)
	}

	s.countWrite("create")
	s.logger.Info("item created",
		"item_id", item.ID.String(),
		"owner_id", item.OwnerID.String())
	return item, nil
}

// Update rewrites an item's fields. Existence resolves before permission,
// so a missing item reports auth.ErrNotFound and a foreign one
// auth.ErrPermissionDenied. A new photo replaces the old blob.
func (s *Service) Update(ctx context.Context, identity *auth.Identity, id ulid.ULID, input ItemInput) (*Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, oops.Code("CATALOG_ITEM_NOT_FOUND").
				With("item_id", id.String()).
				Wrap(err)
		}
		return nil, oops.Code("CATALOG_UPDATE_FAILED").Wrap(err)
	}

	if !CanModify(identity, item.OwnerID) {
		return nil, oops.Code("CATALOG_PERMISSION_DENIED").
			With("item_id", id.String()).
			Wrap(auth.ErrPermissionDenied)
	}

	name := auth.Sanitize(input.Name)
	if err := ValidateItemName(name); err != nil {
		return nil, oops.Code("CATALOG_INVALID_NAME").Wrap(err)
	}
	price, err := ParsePrice(input.Price)
	if err != nil {
		return nil, err
	}

	item.Name = name
	item.Price = price

	oldKey := item.PhotoKey
	if input.Photo != nil {
		url, key, uploadErr := s.uploadPhoto(ctx, input.Photo)
		if uploadErr != nil {
			return nil, uploadErr
		}
		item.PhotoURL = &url
		item.PhotoKey = &key
	}

	if err := s.items.Update(ctx, item); err != nil {
		s.countWrite("update_failed")
		return nil, oops.Code("CATALOG_UPDATE_FAILED").
			With("item_id", id.String()).
			Wrap(err)
	}

	if input.Photo != nil && oldKey != nil {
		s.discardPhoto(ctx, *oldKey)
	}

	s.countWrite("update")
	return item, nil
}

// Delete removes an item. The photo blob delete is best effort: a storage
// failure is logged and swallowed so the record deletion stands.
func (s *Service) Delete(ctx context.Context, identity *auth.Identity, id ulid.ULID) error {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return oops.Code("CATALOG_ITEM_NOT_FOUND").
				With("item_id", id.String()).
				Wrap(err)
		}
		return oops.Code("CATALOG_DELETE_FAILED").Wrap(err)
	}

	if !CanModify(identity, item.OwnerID) {
		return oops.Code("CATALOG_PERMISSION_DENIED").
			With("item_id", id.String()).
			Wrap(auth.ErrPermissionDenied)
	}

	if err := s.items.Delete(ctx, id); err != nil {
		s.countWrite("delete_failed")
		return oops.Code("CATALOG_DELETE_FAILED").
			With("item_id", id.String()).
			Wrap(err)
	}

	if item.PhotoKey != nil {
		s.discardPhoto(ctx, *item.PhotoKey)
	}

	s.countWrite("delete")
	s.logger.Info("item deleted",
		"item_id", id.String(),
		"deleted_by", identity.ID.String())
	return nil
}

func (s *Service) uploadPhoto(ctx context.Context, photo *PhotoUpload) (url, key string, err error) {
	key = blob.ObjectKey(photo.Filename, s.now())
	url, err = s.photos.Upload(ctx, key, photo.Body, photo.ContentType)
	if err != nil {
		return "", "", oops.Code("CATALOG_PHOTO_UPLOAD_FAILED").
			With("key", key).
			Wrap(err)
	}
	return url, key, nil
}

func (s *Service) discardPhoto(ctx context.Context, key string) {
	if err := s.photos.Delete(ctx, key); err != nil {
		errutil.LogWarn(s.logger, "photo delete failed", err)
	}
}

func (s *Service) countWrite(operation string) {
	if s.metrics != nil {
		s.metrics.ItemWrites.WithLabelValues(operation).Inc()
	}
}
