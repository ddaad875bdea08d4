// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package region covers the bulk-load side of the tile lifecycle: fetching
// regions from the remote query service, mirroring them into a local
// embedded cache, and invalidating by coordinate-prefix.
//
// Coordinate-ids nest lexically — every descendant id extends its
// ancestor's id with ",d" segments — so coordinate-prefix invalidation maps
// directly onto key-prefix deletion in the embedded store.
package region

import (
	"context"
	"log/slog"

	"github.com/hexframe/hexmap/services/mapcache/coord"
	"github.com/hexframe/hexmap/services/mapcache/store"
)

// QueryService fetches tiles from the remote authority. Injected; the
// transport is out of scope.
type QueryService interface {
	// LoadRegion returns the tile at centerCoordID plus descendants down to
	// the requested depth.
	LoadRegion(ctx context.Context, centerCoordID string, depth int) ([]store.TileRecord, error)

	// LoadItemChildren returns the direct children of a tile.
	LoadItemChildren(ctx context.Context, coordID string) ([]store.TileRecord, error)

	// PrefetchRegion warms the server-side cache for a region. Fire and
	// forget from the client's perspective.
	PrefetchRegion(ctx context.Context, centerCoordID string) error
}

// Invalidator drops locally persisted tiles.
type Invalidator interface {
	InvalidateRegion(ctx context.Context, coordPrefix string) error
	InvalidateAll(ctx context.Context) error
}

// NopInvalidator is the default when no local persistence is configured.
type NopInvalidator struct{}

func (NopInvalidator) InvalidateRegion(context.Context, string) error { return nil }
func (NopInvalidator) InvalidateAll(context.Context) error            { return nil }

// Loader populates the normalized store from a QueryService, writing
// through to an optional local cache.
type Loader struct {
	store  *store.Store
	query  QueryService
	cache  *BadgerCache // may be nil
	logger *slog.Logger
}

// NewLoader wires a loader. cache and logger may be nil.
func NewLoader(st *store.Store, query QueryService, cache *BadgerCache, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: st, query: query, cache: cache, logger: logger}
}

// LoadRegion fetches a region, inserts it into the store, and recenters on
// centerCoordID.
func (l *Loader) LoadRegion(ctx context.Context, centerCoordID string, depth int) ([]store.TileRecord, error) {
	if _, err := coord.Parse(centerCoordID); err != nil {
		return nil, err
	}
	records, err := l.query.LoadRegion(ctx, centerCoordID, depth)
	if err != nil {
		return nil, err
	}
	if _, err := l.store.Dispatch(store.InsertItems{Items: records}); err != nil {
		return nil, err
	}
	if _, err := l.store.Dispatch(store.SetCenter{CoordID: centerCoordID}); err != nil {
		return nil, err
	}
	l.writeThrough(records)
	l.logger.Debug("region loaded",
		slog.String("center", centerCoordID),
		slog.Int("tiles", len(records)))
	return records, nil
}

// LoadItemChildren fetches and inserts the direct children of a tile.
func (l *Loader) LoadItemChildren(ctx context.Context, coordID string) ([]store.TileRecord, error) {
	if _, err := coord.Parse(coordID); err != nil {
		return nil, err
	}
	records, err := l.query.LoadItemChildren(ctx, coordID)
	if err != nil {
		return nil, err
	}
	if _, err := l.store.Dispatch(store.InsertItems{Items: records}); err != nil {
		return nil, err
	}
	l.writeThrough(records)
	return records, nil
}

// PrefetchRegion forwards to the query service.
func (l *Loader) PrefetchRegion(ctx context.Context, centerCoordID string) error {
	return l.query.PrefetchRegion(ctx, centerCoordID)
}

func (l *Loader) writeThrough(records []store.TileRecord) {
	if l.cache == nil || len(records) == 0 {
		return
	}
	if err := l.cache.Put(records); err != nil {
		// Local persistence is best-effort; the in-memory store is the
		// source of truth for rendering.
		l.logger.Warn("local cache write failed", slog.Any("error", err))
	}
}
