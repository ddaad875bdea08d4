// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package region

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexframe/hexmap/services/mapcache/coord"
	"github.com/hexframe/hexmap/services/mapcache/store"
)

func openTestCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := OpenCache(CacheConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func tile(id string, dbID int64, title string) store.TileRecord {
	c := coord.MustParse(id)
	return store.TileRecord{
		Coord:   c,
		DBID:    dbID,
		Depth:   c.Depth(),
		OwnerID: c.OwnerID,
		Title:   title,
	}
}

func TestCachePutGetRoundTrip(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Put([]store.TileRecord{tile("1,0:1", 10, "root")}))

	got, ok, err := c.Get("1,0:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(10), got.DBID)
	assert.Equal(t, "root", got.Title)
	assert.Equal(t, "1,0:1", got.CoordID())

	t.Run("missing key reports not found without error", func(t *testing.T) {
		_, ok, err := c.Get("1,0:9")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestInvalidateRegionDropsSubtreeOnly(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put([]store.TileRecord{
		tile("1,0:1", 1, "root"),
		tile("1,0:1,2", 2, "child"),
		tile("1,0:1,0,-3", 3, "composed"),
		tile("1,0:2", 4, "sibling"),
	}))

	require.NoError(t, c.InvalidateRegion(context.Background(), "1,0:1"))

	for _, id := range []string{"1,0:1", "1,0:1,2", "1,0:1,0,-3"} {
		_, ok, err := c.Get(id)
		require.NoError(t, err)
		assert.False(t, ok, "expected %s to be invalidated", id)
	}
	_, ok, err := c.Get("1,0:2")
	require.NoError(t, err)
	assert.True(t, ok, "sibling outside the prefix must survive")
}

func TestInvalidateRegionRejectsMalformedPrefix(t *testing.T) {
	c := openTestCache(t)
	err := c.InvalidateRegion(context.Background(), "not-a-coordinate")
	assert.ErrorIs(t, err, coord.ErrMalformedID)
}

func TestInvalidateAll(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put([]store.TileRecord{tile("1,0:1", 1, "a"), tile("2,0:", 2, "b")}))
	require.NoError(t, c.InvalidateAll(context.Background()))

	got, err := c.LoadPrefix("1,0:")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// fakeQuery is a canned QueryService.
type fakeQuery struct {
	regions  map[string][]store.TileRecord
	children map[string][]store.TileRecord
	prefetch []string
}

func (f *fakeQuery) LoadRegion(_ context.Context, id string, _ int) ([]store.TileRecord, error) {
	return f.regions[id], nil
}

func (f *fakeQuery) LoadItemChildren(_ context.Context, id string) ([]store.TileRecord, error) {
	return f.children[id], nil
}

func (f *fakeQuery) PrefetchRegion(_ context.Context, id string) error {
	f.prefetch = append(f.prefetch, id)
	return nil
}

func TestLoaderPopulatesStoreAndCache(t *testing.T) {
	st := store.New()
	cache := openTestCache(t)
	query := &fakeQuery{regions: map[string][]store.TileRecord{
		"1,0:1": {tile("1,0:1", 1, "root"), tile("1,0:1,2", 2, "child")},
	}}
	loader := NewLoader(st, query, cache, nil)

	records, err := loader.LoadRegion(context.Background(), "1,0:1", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	assert.True(t, st.Has("1,0:1,2"))
	assert.Equal(t, "1,0:1", st.State().CenterCoordID)

	_, ok, err := cache.Get("1,0:1,2")
	require.NoError(t, err)
	assert.True(t, ok, "loader must write through to the local cache")
}

func TestLoaderRejectsMalformedCenter(t *testing.T) {
	loader := NewLoader(store.New(), &fakeQuery{}, nil, nil)
	_, err := loader.LoadRegion(context.Background(), "bogus", 1)
	assert.ErrorIs(t, err, coord.ErrMalformedID)
}
