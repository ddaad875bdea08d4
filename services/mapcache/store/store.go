// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"slices"
	"strings"
	"sync"

	"github.com/hexframe/hexmap/services/mapcache/coord"
)

// Observer receives every dispatched action, in dispatch order. Used by
// tests to assert on the action log and by telemetry to count transitions.
type Observer func(Action)

// Store wraps the current State behind a mutex.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Returned State values are
// immutable snapshots: transitions clone containers, so readers never see
// in-place mutation.
//
// # Ownership
//
// The mutation coordinator is the only component that dispatches structural
// actions; everything else reads. Restore exists solely for the
// coordinator's rollback path and deliberately bypasses the action log: a
// rollback is "as if the edit never happened", not another edit.
type Store struct {
	mu       sync.RWMutex
	state    State
	observer Observer
}

// New creates a store with an empty state.
func New() *Store {
	return &Store{state: NewState()}
}

// NewWithState creates a store seeded with an initial state.
func NewWithState(s State) *Store {
	if s.ItemsByCoordID == nil {
		s.ItemsByCoordID = make(map[string]TileRecord)
	}
	if s.ExpandedDBIDs == nil {
		s.ExpandedDBIDs = make(map[int64]struct{})
	}
	return &Store{state: s}
}

// SetObserver installs the action observer. Pass nil to remove it.
func (st *Store) SetObserver(fn Observer) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.observer = fn
}

// Dispatch applies one action and returns the resulting state.
func (st *Store) Dispatch(a Action) (State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	next, err := Reduce(st.state, a)
	if err != nil {
		return st.state, err
	}
	st.state = next
	if st.observer != nil {
		st.observer(a)
	}
	return next, nil
}

// State returns the current state snapshot.
func (st *Store) State() State {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state
}

// Restore replaces the whole state. Rollback-only; see the type comment.
func (st *Store) Restore(s State) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = s
}

// Get returns the record at a coordinate-id.
func (st *Store) Get(id string) (TileRecord, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	r, ok := st.state.ItemsByCoordID[id]
	return r, ok
}

// Has reports whether a coordinate-id is occupied.
func (st *Store) Has(id string) bool {
	_, ok := st.Get(id)
	return ok
}

// Len returns the number of cached records.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.state.ItemsByCoordID)
}

// Subtree returns root's record plus every cached descendant, ordered by
// ascending depth then id so parents precede children. The slice is a copy.
func (st *Store) Subtree(root coord.Coord) []TileRecord {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []TileRecord
	for _, r := range st.state.ItemsByCoordID {
		if coord.WithinSubtree(r.Coord, root) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b TileRecord) int {
		if d := a.Coord.Depth() - b.Coord.Depth(); d != 0 {
			return d
		}
		return strings.Compare(a.CoordID(), b.CoordID())
	})
	return out
}
