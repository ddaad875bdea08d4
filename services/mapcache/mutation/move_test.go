// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexframe/hexmap/services/mapcache/events"
	"github.com/hexframe/hexmap/services/mapcache/gateway"
	"github.com/hexframe/hexmap/services/mapcache/store"
)

// removeLog records every REMOVE_ITEM the store sees, by coordinate-id.
func removeLog(st *store.Store) map[string]int {
	counts := make(map[string]int)
	st.SetObserver(func(a store.Action) {
		if rm, ok := a.(store.RemoveItem); ok {
			counts[rm.CoordID]++
		}
	})
	return counts
}

func TestMoveSubtreeScenario(t *testing.T) {
	// A parent at 1,0:1 with a regular child at 1,0:1,2 and a composition
	// container at 1,0:1,0 is moved to the empty slot 1,0:3. The server
	// reports the parent and the regular child at their new addresses.
	st := store.New()
	seed(t, st,
		tile("1,0:1", 1, "parent"),
		tile("1,0:1,2", 2, "child"),
		tile("1,0:1,0", 3, "container"),
	)
	gw := &fakeGateway{moveFn: func(in gateway.MoveInput) (gateway.MoveResult, error) {
		return gateway.MoveResult{
			MovedItemID: 1,
			ModifiedItems: []gateway.ModifiedItem{
				{ID: 1, Coordinates: "1,0:3", Title: "parent", OwnerID: 1},
				{ID: 2, Coordinates: "1,0:3,2", Title: "child", OwnerID: 1},
			},
		}, nil
	}}
	em := &countingEmitter{}
	c := newTestCoordinator(t, st, gw, em)
	removes := removeLog(st)

	outcome, err := c.MoveItem(context.Background(), "1,0:1", "1,0:3")
	require.NoError(t, err)
	assert.Equal(t, ModeMove, outcome.Mode)

	// Old addresses removed at least once each.
	assert.GreaterOrEqual(t, removes["1,0:1"], 1)
	assert.GreaterOrEqual(t, removes["1,0:1,2"], 1)

	// New records present, old gone.
	assert.True(t, st.Has("1,0:3"))
	assert.True(t, st.Has("1,0:3,2"))
	assert.False(t, st.Has("1,0:1"))
	assert.False(t, st.Has("1,0:1,2"))
	assert.False(t, st.Has("1,0:1,0"))
	// The payload never mentions the container, so its rebased guess at
	// 1,0:3,0 does not survive finalize either.
	assert.False(t, st.Has("1,0:3,0"))

	evs := em.all()
	require.Len(t, evs, 1)
	assert.Equal(t, events.TileMoved{
		TileID:      1,
		TileName:    "parent",
		FromCoordID: "1,0:1",
		ToCoordID:   "1,0:3",
	}, evs[0].Payload)
}

func TestMoveChildlessTileRemoveCount(t *testing.T) {
	st := store.New()
	seed(t, st, tile("1,0:1", 1, "loner"))
	gw := &fakeGateway{moveFn: func(gateway.MoveInput) (gateway.MoveResult, error) {
		return gateway.MoveResult{
			MovedItemID:   1,
			ModifiedItems: []gateway.ModifiedItem{{ID: 1, Coordinates: "1,0:4", Title: "loner", OwnerID: 1}},
		}, nil
	}}
	c := newTestCoordinator(t, st, gw, nil)
	removes := removeLog(st)

	_, err := c.MoveItem(context.Background(), "1,0:1", "1,0:4")
	require.NoError(t, err)

	// One optimistic removal plus one finalize removal for the single
	// coordinate-id, nothing else.
	assert.Equal(t, 2, removes["1,0:1"])
	for id, n := range removes {
		if id != "1,0:1" {
			assert.Zero(t, n, "unexpected REMOVE_ITEM for %s", id)
		}
	}
}

func TestMoveOntoOccupiedTargetSwaps(t *testing.T) {
	st := store.New()
	seed(t, st,
		tile("1,0:1", 1, "alpha"),
		tile("1,0:1,2", 2, "alpha child"),
		tile("1,0:3", 3, "beta"),
		tile("1,0:3,5", 4, "beta child"),
	)
	gw := &fakeGateway{moveFn: func(gateway.MoveInput) (gateway.MoveResult, error) {
		return gateway.MoveResult{
			MovedItemID: 1,
			ModifiedItems: []gateway.ModifiedItem{
				{ID: 1, Coordinates: "1,0:3", Title: "alpha", OwnerID: 1},
				{ID: 2, Coordinates: "1,0:3,2", Title: "alpha child", OwnerID: 1},
				{ID: 3, Coordinates: "1,0:1", Title: "beta", OwnerID: 1},
				{ID: 4, Coordinates: "1,0:1,5", Title: "beta child", OwnerID: 1},
			},
		}, nil
	}}
	em := &countingEmitter{}
	c := newTestCoordinator(t, st, gw, em)

	outcome, err := c.MoveItem(context.Background(), "1,0:1", "1,0:3")
	require.NoError(t, err)
	assert.Equal(t, ModeSwap, outcome.Mode)

	// Symmetric subtree rebase: both roots and both children exchanged.
	got, _ := st.Get("1,0:3")
	assert.Equal(t, "alpha", got.Title)
	got, _ = st.Get("1,0:1")
	assert.Equal(t, "beta", got.Title)
	got, _ = st.Get("1,0:3,2")
	assert.Equal(t, "alpha child", got.Title)
	got, _ = st.Get("1,0:1,5")
	assert.Equal(t, "beta child", got.Title)

	evs := em.all()
	require.Len(t, evs, 1, "a swap emits exactly one event, never tile_moved as well")
	assert.Equal(t, events.TilesSwapped{
		Tile1ID:   1,
		Tile1Name: "alpha",
		Tile2ID:   3,
		Tile2Name: "beta",
	}, evs[0].Payload)
}

func TestMoveFailureRollsBackVerbatim(t *testing.T) {
	st := store.New()
	seed(t, st,
		tile("1,0:1", 1, "root"),
		tile("1,0:1,2", 2, "child"),
		tile("1,0:3", 3, "target occupant"),
	)
	boom := errors.New("gateway down")
	gw := &fakeGateway{moveFn: func(gateway.MoveInput) (gateway.MoveResult, error) {
		return gateway.MoveResult{}, boom
	}}
	em := &countingEmitter{}
	c := newTestCoordinator(t, st, gw, em)

	before := st.State()
	_, err := c.MoveItem(context.Background(), "1,0:1", "1,0:3")

	assert.ErrorIs(t, err, ErrRemoteRejected)
	assert.ErrorIs(t, err, boom)
	assert.True(t, st.State().Equal(before), "store must deep-equal its pre-move state")
	assert.Empty(t, em.all(), "zero events on failure")
}

func TestMoveOptimisticStateVisibleToGateway(t *testing.T) {
	// The optimistic apply must land before the gateway call starts.
	st := store.New()
	seed(t, st, tile("1,0:1", 1, "root"))
	var sawDuringCall bool
	gw := &fakeGateway{}
	gw.moveFn = func(gateway.MoveInput) (gateway.MoveResult, error) {
		sawDuringCall = st.Has("1,0:2") && !st.Has("1,0:1")
		return gateway.MoveResult{
			MovedItemID:   1,
			ModifiedItems: []gateway.ModifiedItem{{ID: 1, Coordinates: "1,0:2", Title: "root", OwnerID: 1}},
		}, nil
	}
	c := newTestCoordinator(t, st, gw, nil)

	_, err := c.MoveItem(context.Background(), "1,0:1", "1,0:2")
	require.NoError(t, err)
	assert.True(t, sawDuringCall, "gateway must observe the provisional state")
}

func TestMoveInsertsUnknownAuthoritativeDescendants(t *testing.T) {
	// The server reports a descendant the client never loaded. Finalize
	// inserts it anyway instead of failing the operation.
	st := store.New()
	seed(t, st, tile("1,0:1", 1, "root"))
	gw := &fakeGateway{moveFn: func(gateway.MoveInput) (gateway.MoveResult, error) {
		return gateway.MoveResult{
			MovedItemID: 1,
			ModifiedItems: []gateway.ModifiedItem{
				{ID: 1, Coordinates: "1,0:3", Title: "root", OwnerID: 1},
				{ID: 99, Coordinates: "1,0:3,6", Title: "never loaded", OwnerID: 1},
			},
		}, nil
	}}
	c := newTestCoordinator(t, st, gw, nil)

	_, err := c.MoveItem(context.Background(), "1,0:1", "1,0:3")
	require.NoError(t, err)

	got, ok := st.Get("1,0:3,6")
	require.True(t, ok)
	assert.Equal(t, int64(99), got.DBID)
	assert.Equal(t, "1,0:3", got.ParentCoordID)
}

func TestMoveServerNormalizationWins(t *testing.T) {
	// The server compacts the moved child into a different slot than the
	// client's naive rebase guessed. The authoritative address must win.
	st := store.New()
	seed(t, st,
		tile("1,0:1", 1, "root"),
		tile("1,0:1,5", 2, "child"),
	)
	gw := &fakeGateway{moveFn: func(gateway.MoveInput) (gateway.MoveResult, error) {
		return gateway.MoveResult{
			MovedItemID: 1,
			ModifiedItems: []gateway.ModifiedItem{
				{ID: 1, Coordinates: "1,0:2", Title: "root", OwnerID: 1},
				{ID: 2, Coordinates: "1,0:2,1", Title: "child", OwnerID: 1}, // compacted from slot 5 to 1
			},
		}, nil
	}}
	c := newTestCoordinator(t, st, gw, nil)

	_, err := c.MoveItem(context.Background(), "1,0:1", "1,0:2")
	require.NoError(t, err)

	assert.True(t, st.Has("1,0:2,1"), "authoritative slot present")
	got, _ := st.Get("1,0:2,1")
	assert.Equal(t, int64(2), got.DBID)
	// The naive rebase guessed slot 5; once the server says otherwise the
	// guess must be cleared, not left as a second record for the same tile.
	assert.False(t, st.Has("1,0:2,5"), "unconfirmed optimistic address cleared")
	assert.Equal(t, 2, st.Len())
}

func TestMoveValidation(t *testing.T) {
	st := store.New()
	seed(t, st, tile("1,0:1", 1, "root"), tile("1,0:1,2", 2, "child"))
	gw := &fakeGateway{}
	c := newTestCoordinator(t, st, gw, nil)

	t.Run("source equals target", func(t *testing.T) {
		_, err := c.MoveItem(context.Background(), "1,0:1", "1,0:1")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("target inside source subtree", func(t *testing.T) {
		_, err := c.MoveItem(context.Background(), "1,0:1", "1,0:1,3")
		assert.ErrorIs(t, err, ErrMoveIntoOwnSubtree)
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := c.MoveItem(context.Background(), "1,0:5", "1,0:6")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	assert.Zero(t, gw.callCount())
}
