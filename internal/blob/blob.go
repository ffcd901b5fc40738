// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

// Package blob stores item photos in an S3-compatible object store.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store persists photo blobs under generated keys.
type Store interface {
	// Upload writes the body under key and returns the public URL.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)

	// Delete removes the blob at key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds a date-prefixed object key for an uploaded file. The
// original filename contributes only its extension; the name itself is a
// fresh ULID so uploads never collide or leak user-chosen names.
func ObjectKey(filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("photos/%04d/%02d/%02d/%s%s",
		now.Year(), now.Month(), now.Day(), ulid.Make().String(), ext)
}
