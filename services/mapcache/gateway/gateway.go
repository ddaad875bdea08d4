// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gateway declares the remote mutation authority the map cache
// talks to.
//
// The transport is out of scope: callers inject an implementation (HTTP,
// RPC, in-process test double). From the coordinator's perspective every
// operation is idempotent — at most one call is in flight per logical edit
// — and an error means "nothing happened server-side", so rollback can
// restore the pre-edit snapshot without inspecting partial results.
package gateway

import "context"

// CreateInput describes a new tile to persist.
type CreateInput struct {
	// Coords is the canonical coordinate-id of the slot being filled.
	Coords string `json:"coords"`

	// ParentID is the database id of the parent tile, when known. Zero for
	// root tiles.
	ParentID int64 `json:"parentId,omitempty"`

	Title    string `json:"title"`
	Content  string `json:"content"`
	Link     string `json:"link,omitempty"`
	ColorTag string `json:"colorTag,omitempty"`
}

// CreateResult is the authoritative outcome of a create.
type CreateResult struct {
	ID int64 `json:"id"`
	// Title as normalized by the server (trimming, length caps).
	Title string `json:"title"`
}

// UpdateInput carries the edited fields. Nil pointers mean "unchanged".
type UpdateInput struct {
	Coords   string  `json:"coords"`
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Link     *string `json:"link,omitempty"`
	ColorTag *string `json:"colorTag,omitempty"`
}

// UpdateResult acknowledges an update.
type UpdateResult struct {
	Success bool `json:"success"`
}

// DeleteInput names the subtree root to delete.
type DeleteInput struct {
	Coords string `json:"coords"`
}

// DeleteResult acknowledges a delete.
type DeleteResult struct {
	Success bool `json:"success"`
}

// MoveInput names the source subtree and target slot of a move. When the
// target is occupied the server performs a swap of the two subtrees.
type MoveInput struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ModifiedItem is one tile whose coordinates changed as a side effect of a
// move, carrying its final (server-authoritative) address.
type ModifiedItem struct {
	ID          int64  `json:"id"`
	Coordinates string `json:"coordinates"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	PreviewText string `json:"previewText,omitempty"`
	Link        string `json:"link,omitempty"`
	ColorTag    string `json:"colorTag,omitempty"`
	Depth       int    `json:"depth"`
	ParentID    int64  `json:"parentId,omitempty"`
	OwnerID     int64  `json:"ownerId"`
}

// MoveResult is the authoritative outcome of a move or swap. ModifiedItems
// lists every tile the server re-addressed: the moved root, all of its
// descendants, and — for swaps — the displaced subtree. The list may cover
// tiles the client never had loaded.
type MoveResult struct {
	MovedItemID   int64          `json:"movedItemId"`
	ModifiedItems []ModifiedItem `json:"modifiedItems"`
}

// Mutations is the remote mutation authority.
//
// Implementations own their timeouts; a timeout surfaces as a returned
// error like any other rejection. There is no partial-success shape.
type Mutations interface {
	CreateItem(ctx context.Context, in CreateInput) (CreateResult, error)
	UpdateItem(ctx context.Context, in UpdateInput) (UpdateResult, error)
	DeleteItem(ctx context.Context, in DeleteInput) (DeleteResult, error)
	MoveItem(ctx context.Context, in MoveInput) (MoveResult, error)
}
