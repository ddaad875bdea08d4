// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package events defines the map cache's domain events and the emitter
// contract.
//
// The payload set is a closed union: each structural edit that succeeds
// produces exactly one event, failures produce none. Emission is
// fire-and-forget; the coordinator never blocks on, or observes errors
// from, an emitter.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies the map cache as the origin of every event it emits.
const Source = "map_cache"

// Type discriminates event payloads on the wire.
type Type string

const (
	TypeTileCreated  Type = "tile_created"
	TypeTileUpdated  Type = "tile_updated"
	TypeTileDeleted  Type = "tile_deleted"
	TypeTileMoved    Type = "tile_moved"
	TypeTilesSwapped Type = "tiles_swapped"
)

// Payload is the sealed union of event payloads. The unexported method
// keeps the set closed so switches over payloads stay exhaustive.
type Payload interface {
	EventType() Type
	isPayload()
}

// TileCreated reports a successfully persisted create.
type TileCreated struct {
	TileID   int64  `json:"tileId"`
	TileName string `json:"tileName"`
}

// TileUpdated reports a successfully persisted content update.
type TileUpdated struct {
	TileID   int64  `json:"tileId"`
	TileName string `json:"tileName"`
}

// TileDeleted reports a successfully persisted subtree delete. ID and name
// come from the pre-delete snapshot's root record.
type TileDeleted struct {
	TileID   int64  `json:"tileId"`
	TileName string `json:"tileName"`
}

// TileMoved reports a plain move into empty space.
type TileMoved struct {
	TileID      int64  `json:"tileId"`
	TileName    string `json:"tileName"`
	FromCoordID string `json:"fromCoordId"`
	ToCoordID   string `json:"toCoordId"`
}

// TilesSwapped reports a move onto an occupied coordinate, which exchanges
// the two subtrees.
type TilesSwapped struct {
	Tile1ID   int64  `json:"tile1Id"`
	Tile1Name string `json:"tile1Name"`
	Tile2ID   int64  `json:"tile2Id"`
	Tile2Name string `json:"tile2Name"`
}

func (TileCreated) EventType() Type  { return TypeTileCreated }
func (TileUpdated) EventType() Type  { return TypeTileUpdated }
func (TileDeleted) EventType() Type  { return TypeTileDeleted }
func (TileMoved) EventType() Type    { return TypeTileMoved }
func (TilesSwapped) EventType() Type { return TypeTilesSwapped }

func (TileCreated) isPayload()  {}
func (TileUpdated) isPayload()  {}
func (TileDeleted) isPayload()  {}
func (TileMoved) isPayload()    {}
func (TilesSwapped) isPayload() {}

// Event is the envelope delivered to emitters.
type Event struct {
	// ID uniquely identifies this emission.
	ID string `json:"id"`

	// Type mirrors Payload.EventType for consumers that route before
	// unmarshalling.
	Type Type `json:"type"`

	// Source is always "map_cache" for events built by this package.
	Source string `json:"source"`

	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent wraps a payload in a fully populated envelope.
func NewEvent(p Payload) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      p.EventType(),
		Source:    Source,
		Payload:   p,
		Timestamp: time.Now().UTC(),
	}
}

// Emitter receives domain events. Implementations must not block for long;
// the coordinator calls Emit synchronously on its success path.
type Emitter interface {
	Emit(Event)
}

// NopEmitter discards every event. It is the default collaborator when no
// bus is configured, so call sites never null-check.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}
