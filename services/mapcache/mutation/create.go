// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutation

import (
	"context"
	"log/slog"
	"time"

	"github.com/hexframe/hexmap/services/mapcache/coord"
	"github.com/hexframe/hexmap/services/mapcache/events"
	"github.com/hexframe/hexmap/services/mapcache/gateway"
	"github.com/hexframe/hexmap/services/mapcache/store"
)

// CreateItem creates a tile in the first free child slot of the parent,
// probing NW, NE, E, SE, SW, W. Returns ErrSubtreeFull when all six slots
// are occupied.
func (c *Coordinator) CreateItem(ctx context.Context, parentCoordID string, fields CreateFields) (store.TileRecord, error) {
	parent, err := c.parseID("parentCoordId", parentCoordID)
	if err != nil {
		return store.TileRecord{}, err
	}
	if err := c.checkFields(fields); err != nil {
		return store.TileRecord{}, err
	}
	target, ok := coord.FirstFreeChild(parent, c.store.Has)
	if !ok {
		return store.TileRecord{}, ErrSubtreeFull
	}
	return c.createAt(ctx, target, fields)
}

// CreateItemAt creates a tile at an explicit coordinate, e.g. a composition
// container in its reserved slot. The slot must be empty.
func (c *Coordinator) CreateItemAt(ctx context.Context, coordID string, fields CreateFields) (store.TileRecord, error) {
	target, err := c.parseID("coordId", coordID)
	if err != nil {
		return store.TileRecord{}, err
	}
	if err := c.checkFields(fields); err != nil {
		return store.TileRecord{}, err
	}
	if c.store.Has(target.ID()) {
		return store.TileRecord{}, ErrSlotOccupied
	}
	return c.createAt(ctx, target, fields)
}

func (c *Coordinator) createAt(ctx context.Context, target coord.Coord, fields CreateFields) (store.TileRecord, error) {
	start := time.Now()
	ctx, span := c.tracer.StartEdit(ctx, "create", target.ID(), "")
	var opErr error
	defer func() { c.tracer.End(span, opErr) }()

	release, err := c.locks.acquire(ctx, target)
	if err != nil {
		opErr = err
		return store.TileRecord{}, err
	}
	defer release()

	// Re-check under the lock: a concurrent create may have claimed the
	// slot between probing and acquiring.
	if c.store.Has(target.ID()) {
		opErr = ErrSlotOccupied
		return store.TileRecord{}, ErrSlotOccupied
	}

	var parentID string
	var parentDBID int64
	if parent, ok := coord.ParentOf(target); ok {
		parentID = parent.ID()
		if rec, ok := c.store.Get(parentID); ok {
			parentDBID = rec.DBID
		}
	}

	// Optimistic apply: a provisional record with a negative database id.
	provisional := store.TileRecord{
		Coord:         target,
		DBID:          c.nextProvisionalID(),
		ParentCoordID: parentID,
		Depth:         target.Depth(),
		OwnerID:       target.OwnerID,
		Title:         fields.Title,
		Content:       fields.Content,
		Link:          fields.Link,
		ColorTag:      fields.ColorTag,
	}
	if _, err := c.store.Dispatch(store.InsertItems{Items: []store.TileRecord{provisional}}); err != nil {
		opErr = err
		return store.TileRecord{}, err
	}

	res, err := c.gateway.CreateItem(ctx, gateway.CreateInput{
		Coords:   target.ID(),
		ParentID: parentDBID,
		Title:    fields.Title,
		Content:  fields.Content,
		Link:     fields.Link,
		ColorTag: fields.ColorTag,
	})
	if err != nil {
		// Rollback: the provisional record is the whole optimistic patch.
		if _, derr := c.store.Dispatch(store.RemoveItem{CoordID: target.ID()}); derr != nil {
			c.logger.Error("create rollback failed",
				slog.String("coord", target.ID()), slog.Any("error", derr))
		}
		recordRollback(ctx, "create")
		recordMutation(ctx, "create", "rejected", start, 1)
		opErr = &RemoteError{Op: "createItem", Err: err}
		return store.TileRecord{}, opErr
	}

	// Finalize: authoritative id and server-normalized title, same slot.
	final := provisional
	final.DBID = res.ID
	final.Title = res.Title
	if _, err := c.store.Dispatch(store.InsertItems{Items: []store.TileRecord{final}}); err != nil {
		opErr = err
		return store.TileRecord{}, err
	}

	c.emitter.Emit(events.NewEvent(events.TileCreated{TileID: final.DBID, TileName: final.Title}))
	recordMutation(ctx, "create", "ok", start, 1)
	c.logger.Info("tile created",
		slog.String("coord", target.ID()),
		slog.Int64("db_id", final.DBID))
	return final, nil
}
