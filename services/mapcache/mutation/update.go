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

// UpdateItem merges the given fields into the tile at coordID.
func (c *Coordinator) UpdateItem(ctx context.Context, coordID string, fields UpdateFields) (store.TileRecord, error) {
	target, err := c.parseID("coordId", coordID)
	if err != nil {
		return store.TileRecord{}, err
	}
	if fields.empty() {
		return store.TileRecord{}, validationf("fields", "at least one field must be set")
	}
	if err := c.checkFields(fields); err != nil {
		return store.TileRecord{}, err
	}

	start := time.Now()
	ctx, span := c.tracer.StartEdit(ctx, "update", coordID, "")
	var opErr error
	defer func() { c.tracer.End(span, opErr) }()

	release, err := c.locks.acquire(ctx, target)
	if err != nil {
		opErr = err
		return store.TileRecord{}, err
	}
	defer release()

	snapshot, ok := c.store.Get(target.ID())
	if !ok {
		opErr = ErrNotFound
		return store.TileRecord{}, ErrNotFound
	}

	// Optimistic apply: merge in place.
	merged := snapshot
	if fields.Title != nil {
		merged.Title = *fields.Title
	}
	if fields.Content != nil {
		merged.Content = *fields.Content
	}
	if fields.Link != nil {
		merged.Link = *fields.Link
	}
	if fields.ColorTag != nil {
		merged.ColorTag = *fields.ColorTag
	}
	if _, err := c.store.Dispatch(store.InsertItems{Items: []store.TileRecord{merged}}); err != nil {
		opErr = err
		return store.TileRecord{}, err
	}

	res, err := c.gateway.UpdateItem(ctx, gateway.UpdateInput{
		Coords:   target.ID(),
		Title:    fields.Title,
		Content:  fields.Content,
		Link:     fields.Link,
		ColorTag: fields.ColorTag,
	})
	if err != nil || !res.Success {
		if err == nil {
			err = ErrRemoteRejected
		}
		if _, derr := c.store.Dispatch(store.InsertItems{Items: []store.TileRecord{snapshot}}); derr != nil {
			c.logger.Error("update rollback failed",
				slog.String("coord", coordID), slog.Any("error", derr))
		}
		recordRollback(ctx, "update")
		recordMutation(ctx, "update", "rejected", start, 1)
		opErr = &RemoteError{Op: "updateItem", Err: err}
		return store.TileRecord{}, opErr
	}

	c.emitter.Emit(events.NewEvent(events.TileUpdated{TileID: merged.DBID, TileName: merged.Title}))
	recordMutation(ctx, "update", "ok", start, 1)
	c.logger.Info("tile updated", slog.String("coord", coordID), slog.Int64("db_id", merged.DBID))
	return merged, nil
}
