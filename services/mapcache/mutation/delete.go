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

	"github.com/hexframe/hexmap/services/mapcache/events"
	"github.com/hexframe/hexmap/services/mapcache/gateway"
	"github.com/hexframe/hexmap/services/mapcache/store"
)

// DeleteItem removes the tile at coordID together with every cached
// descendant: deleting a tile deletes what it contains.
func (c *Coordinator) DeleteItem(ctx context.Context, coordID string) error {
	root, err := c.parseID("coordId", coordID)
	if err != nil {
		return err
	}

	start := time.Now()
	ctx, span := c.tracer.StartEdit(ctx, "delete", coordID, "")
	var opErr error
	defer func() { c.tracer.End(span, opErr) }()

	release, err := c.locks.acquire(ctx, root)
	if err != nil {
		opErr = err
		return err
	}
	defer release()

	rootRecord, ok := c.store.Get(root.ID())
	if !ok {
		opErr = ErrNotFound
		return ErrNotFound
	}

	// Snapshot the whole subtree before touching anything.
	snapshot := c.store.Subtree(root)

	// Optimistic apply: drop the subtree.
	if err := c.removeAll(snapshot); err != nil {
		opErr = err
		return err
	}

	res, err := c.gateway.DeleteItem(ctx, gateway.DeleteInput{Coords: root.ID()})
	if err != nil || !res.Success {
		if err == nil {
			err = ErrRemoteRejected
		}
		if _, derr := c.store.Dispatch(store.InsertItems{Items: snapshot}); derr != nil {
			c.logger.Error("delete rollback failed",
				slog.String("coord", coordID), slog.Any("error", derr))
		}
		recordRollback(ctx, "delete")
		recordMutation(ctx, "delete", "rejected", start, len(snapshot))
		opErr = &RemoteError{Op: "deleteItem", Err: err}
		return opErr
	}

	c.emitter.Emit(events.NewEvent(events.TileDeleted{
		TileID:   rootRecord.DBID,
		TileName: rootRecord.Title,
	}))
	recordMutation(ctx, "delete", "ok", start, len(snapshot))
	c.logger.Info("tile deleted",
		slog.String("coord", coordID),
		slog.Int("subtree_size", len(snapshot)))
	return nil
}
