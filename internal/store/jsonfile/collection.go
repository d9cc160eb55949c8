// Package jsonfile persists each record kind as one JSON file under a
// configurable root directory. Every operation rewrites the whole
// collection; there is no cross-task locking, so concurrent saves are
// last-write-wins at the file level. Unparsable files read as empty
// collections on purpose: the panel stays available and the next save
// replaces the corrupt data.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
)

// collection is the shared whole-file read/modify/write machinery behind
// the typed stores.
type collection[T any] struct {
	path string
	idOf func(T) string
}

func newCollection[T any](root, file string, idOf func(T) string) collection[T] {
	return collection[T]{
		path: filepath.Join(root, file),
		idOf: idOf,
	}
}

// getAll returns the persisted records in insertion order. A missing or
// corrupt file reads as an empty collection.
func (c collection[T]) getAll(_ context.Context) ([]T, error) {
	if err := ensureDir(filepath.Dir(c.path)); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil
	}
	return items, nil
}

func (c collection[T]) get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	items, err := c.getAll(ctx)
	if err != nil {
		return zero, false, err
	}
	item, found := lo.Find(items, func(it T) bool { return c.idOf(it) == id })
	if !found {
		return zero, false, nil
	}
	return item, true, nil
}

// save replaces the record with the same id in place, or appends it, then
// rewrites the file.
func (c collection[T]) save(ctx context.Context, item T) error {
	items, err := c.getAll(ctx)
	if err != nil {
		return err
	}
	_, idx, found := lo.FindIndexOf(items, func(it T) bool { return c.idOf(it) == c.idOf(item) })
	if found {
		items[idx] = item
	} else {
		items = append(items, item)
	}
	return c.writeAll(items)
}

// delete removes the matching record. Deleting an absent id is a no-op,
// never an error.
func (c collection[T]) delete(ctx context.Context, id string) error {
	items, err := c.getAll(ctx)
	if err != nil {
		return err
	}
	filtered := lo.Filter(items, func(it T, _ int) bool { return c.idOf(it) != id })
	return c.writeAll(filtered)
}

func (c collection[T]) writeAll(items []T) error {
	if err := ensureDir(filepath.Dir(c.path)); err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(c.path), err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(c.path), err)
	}
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	return nil
}
