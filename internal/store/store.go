// Package store is the record store client: a hierarchical, path-addressed
// JSON database. Paths look like "users/{uid}" or "schools/{name}/staff/{id}".
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrStore marks every failure returned by a Store. Callers do not need
// finer distinctions.
var ErrStore = errors.New("record store")

// ErrInvalidPath is returned (wrapped together with ErrStore) for empty paths
// and segments containing reserved characters.
var ErrInvalidPath = errors.New("invalid path")

type Store interface {
	// Read returns the JSON value at path, or found=false if nothing is stored there.
	Read(ctx context.Context, path string) (value json.RawMessage, found bool, err error)
	// Write overwrites the value at path. A nil value deletes it.
	Write(ctx context.Context, path string, value any) error
	// Patch merges the given keys into the object at path. Only top-level keys
	// of partial are merged; each replaces the existing child. A nil entry deletes that child.
	Patch(ctx context.Context, path string, partial map[string]any) error
	Delete(ctx context.Context, path string) error
}

// Pinger is implemented by stores that sit on a network connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadInto decodes the value at path into dst.
func ReadInto(ctx context.Context, s Store, path string, dst any) (bool, error) {
	raw, found, err := s.Read(ctx, path)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, wrap("decode", path, err)
	}
	return true, nil
}
