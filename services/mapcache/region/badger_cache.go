// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package region

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/hexframe/hexmap/services/mapcache/coord"
	"github.com/hexframe/hexmap/services/mapcache/store"
)

// CacheConfig configures the local embedded tile cache.
type CacheConfig struct {
	// Path is the directory for BadgerDB files. Required unless InMemory.
	Path string

	// InMemory enables in-memory mode (tests).
	InMemory bool

	// SyncWrites enables synchronous writes. Off by default: the cache is
	// a mirror and can always be refilled from the remote.
	SyncWrites bool

	// Logger for cache operations. Defaults to slog.Default().
	Logger *slog.Logger
}

// BadgerCache persists loaded tiles keyed by coordinate-id.
//
// # Description
//
// A write-through mirror of the normalized store, used to repaint the last
// known map before the first network round-trip completes. Keys are the
// canonical coordinate-ids, values are JSON-encoded TileRecords, so
// InvalidateRegion is a straight key-prefix drop.
//
// # Thread Safety
//
// Safe for concurrent use; BadgerDB transactions provide isolation.
type BadgerCache struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenCache opens (or creates) the local tile cache.
func OpenCache(cfg CacheConfig) (*BadgerCache, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("%w: Path required unless InMemory", ErrCacheConfig)
	}
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening tile cache: %w", err)
	}
	return &BadgerCache{db: db, logger: cfg.Logger}, nil
}

// Close releases the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// Put upserts records in a single transaction.
func (c *BadgerCache) Put(records []store.TileRecord) error {
	return c.db.Update(func(txn *badger.Txn) error {
		for _, r := range records {
			buf, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encoding tile %s: %w", r.CoordID(), err)
			}
			if err := txn.Set([]byte(r.CoordID()), buf); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the cached record at a coordinate-id, if present.
func (c *BadgerCache) Get(coordID string) (store.TileRecord, bool, error) {
	var rec store.TileRecord
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(coordID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.TileRecord{}, false, nil
	}
	if err != nil {
		return store.TileRecord{}, false, err
	}
	return rec, true, nil
}

// LoadPrefix returns every cached record whose coordinate-id starts with
// the given coordinate-prefix.
func (c *BadgerCache) LoadPrefix(coordPrefix string) ([]store.TileRecord, error) {
	var out []store.TileRecord
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(coordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec store.TileRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// InvalidateRegion drops every cached record under a coordinate-prefix.
// The prefix must itself be a valid coordinate-id; it and all descendants
// are removed.
func (c *BadgerCache) InvalidateRegion(ctx context.Context, coordPrefix string) error {
	if _, err := coord.Parse(coordPrefix); err != nil {
		return err
	}
	var keys [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(coordPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Debug("region invalidated",
		slog.String("prefix", coordPrefix),
		slog.Int("dropped", len(keys)))
	return nil
}

// InvalidateAll drops the whole cache.
func (c *BadgerCache) InvalidateAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.DropAll()
}
