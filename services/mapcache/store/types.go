// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store holds the normalized client-side tile cache.
//
// State is an immutable value: every transition clones the containers it
// touches and returns a new State, which makes snapshot and rollback a
// plain value copy. Store wraps the current State behind a mutex and
// applies transitions through a closed Action union, so tests can observe
// the exact action log a mutation produced.
//
// The store validates nothing beyond "keys are well-formed coordinate-ids".
// Tree-level invariants (subtree coherence, stale-id cleanup) belong to the
// mutation coordinator, the only writer.
package store

import (
	"maps"

	"github.com/hexframe/hexmap/services/mapcache/coord"
)

// UIState carries presentation-only flags. It is irrelevant to mutation
// correctness and is never consulted by the coordinator.
type UIState struct {
	Dragging bool `json:"dragging"`
	DragOver bool `json:"drag_over"`
	Hovered  bool `json:"hovered"`
	Selected bool `json:"selected"`
}

// TileRecord is one cached tile.
type TileRecord struct {
	// Coord is the tile's hierarchical address; Coord.ID() is the store key.
	Coord coord.Coord `json:"coord"`

	// DBID is the server-side identifier. Provisional records created
	// optimistically carry a negative DBID until the authoritative one
	// arrives.
	DBID int64 `json:"db_id"`

	// ParentCoordID is the parent's coordinate-id. Empty for root tiles
	// and for records whose parent is intentionally unloaded.
	ParentCoordID string `json:"parent_coord_id,omitempty"`

	Depth       int    `json:"depth"`
	OwnerID     int64  `json:"owner_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	PreviewText string `json:"preview_text,omitempty"`
	Link        string `json:"link,omitempty"`
	ColorTag    string `json:"color_tag,omitempty"`

	UI UIState `json:"ui"`
}

// CoordID returns the store key for this record.
func (r TileRecord) CoordID() string {
	return r.Coord.ID()
}

// Equal reports field-by-field equality. Needed because Coord carries a
// path slice, which rules out plain == comparison.
func (r TileRecord) Equal(other TileRecord) bool {
	return r.Coord.Equal(other.Coord) &&
		r.DBID == other.DBID &&
		r.ParentCoordID == other.ParentCoordID &&
		r.Depth == other.Depth &&
		r.OwnerID == other.OwnerID &&
		r.Title == other.Title &&
		r.Content == other.Content &&
		r.PreviewText == other.PreviewText &&
		r.Link == other.Link &&
		r.ColorTag == other.ColorTag &&
		r.UI == other.UI
}

// State is the normalized cache state. Treat values as immutable: all
// transitions return a new State and never modify the receiver's maps.
type State struct {
	ItemsByCoordID      map[string]TileRecord
	CenterCoordID       string
	ExpandedDBIDs       map[int64]struct{}
	CompositionExpanded bool
}

// NewState returns an empty state with allocated containers.
func NewState() State {
	return State{
		ItemsByCoordID: make(map[string]TileRecord),
		ExpandedDBIDs:  make(map[int64]struct{}),
	}
}

// Clone returns a deep-enough copy: container maps are cloned, records are
// value types. Used for snapshots.
func (s State) Clone() State {
	out := s
	out.ItemsByCoordID = maps.Clone(s.ItemsByCoordID)
	out.ExpandedDBIDs = maps.Clone(s.ExpandedDBIDs)
	return out
}

// Equal reports deep equality of two states. Used by rollback tests.
func (s State) Equal(other State) bool {
	if s.CenterCoordID != other.CenterCoordID ||
		s.CompositionExpanded != other.CompositionExpanded {
		return false
	}
	if len(s.ItemsByCoordID) != len(other.ItemsByCoordID) {
		return false
	}
	for id, rec := range s.ItemsByCoordID {
		got, ok := other.ItemsByCoordID[id]
		if !ok || !rec.Equal(got) {
			return false
		}
	}
	return maps.Equal(s.ExpandedDBIDs, other.ExpandedDBIDs)
}

func (s State) withItems(records []TileRecord) State {
	out := s
	out.ItemsByCoordID = maps.Clone(s.ItemsByCoordID)
	if out.ItemsByCoordID == nil {
		out.ItemsByCoordID = make(map[string]TileRecord, len(records))
	}
	for _, r := range records {
		out.ItemsByCoordID[r.CoordID()] = r
	}
	return out
}

func (s State) withoutItem(id string) State {
	out := s
	out.ItemsByCoordID = maps.Clone(s.ItemsByCoordID)
	delete(out.ItemsByCoordID, id)
	return out
}

func (s State) withCenter(id string) State {
	out := s
	out.CenterCoordID = id
	return out
}

func (s State) withExpansion(dbID int64, expanded bool) State {
	out := s
	out.ExpandedDBIDs = maps.Clone(s.ExpandedDBIDs)
	if out.ExpandedDBIDs == nil {
		out.ExpandedDBIDs = make(map[int64]struct{}, 1)
	}
	if expanded {
		out.ExpandedDBIDs[dbID] = struct{}{}
	} else {
		delete(out.ExpandedDBIDs, dbID)
	}
	return out
}

func (s State) withCompositionExpansion(expanded bool) State {
	out := s
	out.CompositionExpanded = expanded
	return out
}
