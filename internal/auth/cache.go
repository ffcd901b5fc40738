// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package auth

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

// FileSessionCache stores the session blob in a single file, created with
// 0600 permissions. Writes replace the file wholesale.
type FileSessionCache struct {
	path string
}

// NewFileSessionCache creates a cache at the given path. Parent directories
// are created on first Store.
func NewFileSessionCache(path string) (*FileSessionCache, error) {
	if path == "" {
		return nil, oops.Code("SESSION_CACHE_PATH_REQUIRED").Errorf("session cache path is required")
	}
	return &FileSessionCache{path: path}, nil
}

// Load returns the persisted blob, or wrapped ErrNotFound when absent.
func (c *FileSessionCache) Load() ([]byte, error) {
	blob, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("SESSION_CACHE_EMPTY").
				With("path", c.path).
				Wrap(ErrNotFound)
		}
		return nil, oops.Code("SESSION_CACHE_READ_FAILED").
			With("path", c.path).
			Wrap(err)
	}
	return blob, nil
}

// Store overwrites the persisted blob.
func (c *FileSessionCache) Store(blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return oops.Code("SESSION_CACHE_WRITE_FAILED").
			With("path", c.path).
			Wrap(err)
	}
	if err := os.WriteFile(c.path, blob, 0o600); err != nil {
		return oops.Code("SESSION_CACHE_WRITE_FAILED").
			With("path", c.path).
			Wrap(err)
	}
	return nil
}

// Clear removes the persisted blob. A missing file is not an error.
func (c *FileSessionCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return oops.Code("SESSION_CACHE_CLEAR_FAILED").
			With("path", c.path).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ SessionCache = (*FileSessionCache)(nil)
