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

// MoveMode distinguishes a plain move into empty space from a swap of two
// occupied coordinates.
type MoveMode string

const (
	ModeMove MoveMode = "move"
	ModeSwap MoveMode = "swap"
)

// MoveOutcome reports what a completed move did.
type MoveOutcome struct {
	Mode   MoveMode
	Result gateway.MoveResult
}

// MoveItem moves the subtree rooted at sourceCoordID to targetCoordID.
//
// Occupancy of the target decides the mode at initiation time, judged
// purely from the local store: occupied means the two subtrees are
// swapped (symmetric rebase), empty means a plain move. If the local
// occupancy belief is stale, the authoritative response corrects the
// outcome during finalize.
//
// Finalize removes every coordinate-id either subtree held before the
// move, clears any optimistically guessed address the server did not
// confirm, then inserts the server's ModifiedItems at their final
// addresses. The deliberate double removal of pre-move ids guards
// against partial optimistic coverage: a descendant that was never
// loaded locally may still appear in the authoritative payload as moved.
func (c *Coordinator) MoveItem(ctx context.Context, sourceCoordID, targetCoordID string) (MoveOutcome, error) {
	src, err := c.parseID("sourceCoordId", sourceCoordID)
	if err != nil {
		return MoveOutcome{}, err
	}
	tgt, err := c.parseID("targetCoordId", targetCoordID)
	if err != nil {
		return MoveOutcome{}, err
	}
	if src.Equal(tgt) {
		return MoveOutcome{}, validationf("targetCoordId", "source and target are the same coordinate")
	}
	if coord.IsDescendantOf(tgt, src) {
		return MoveOutcome{}, ErrMoveIntoOwnSubtree
	}

	start := time.Now()
	ctx, span := c.tracer.StartEdit(ctx, "move", sourceCoordID, targetCoordID)
	var opErr error
	defer func() { c.tracer.End(span, opErr) }()

	release, err := c.locks.acquire(ctx, src, tgt)
	if err != nil {
		opErr = err
		return MoveOutcome{}, err
	}
	defer release()

	srcRoot, ok := c.store.Get(src.ID())
	if !ok {
		opErr = ErrNotFound
		return MoveOutcome{}, ErrNotFound
	}
	srcSnap := c.store.Subtree(src)

	mode := ModeMove
	var tgtSnap []store.TileRecord
	if c.store.Has(tgt.ID()) {
		mode = ModeSwap
		if coord.IsDescendantOf(src, tgt) {
			opErr = ErrMoveIntoOwnSubtree
			return MoveOutcome{}, opErr
		}
		tgtSnap = c.store.Subtree(tgt)
	}

	// The immutable state value is the rollback snapshot; Restore makes the
	// failure path byte-for-byte identical to the pre-move cache.
	preMove := c.store.State()

	optimisticIDs, err := c.applyOptimisticMove(src, tgt, srcSnap, tgtSnap)
	if err != nil {
		c.store.Restore(preMove)
		opErr = err
		return MoveOutcome{}, err
	}

	res, err := c.gateway.MoveItem(ctx, gateway.MoveInput{Source: src.ID(), Target: tgt.ID()})
	if err != nil {
		c.store.Restore(preMove)
		recordRollback(ctx, "move")
		recordMutation(ctx, "move", "rejected", start, len(srcSnap)+len(tgtSnap))
		opErr = &RemoteError{Op: "moveItem", Err: err}
		return MoveOutcome{}, opErr
	}

	if err := c.finalizeMove(ctx, srcSnap, tgtSnap, optimisticIDs, res); err != nil {
		opErr = err
		return MoveOutcome{}, err
	}

	movedID := res.MovedItemID
	if movedID == 0 {
		movedID = srcRoot.DBID
	}
	switch mode {
	case ModeSwap:
		tgtRoot := tgtSnap[0]
		c.emitter.Emit(events.NewEvent(events.TilesSwapped{
			Tile1ID:   movedID,
			Tile1Name: srcRoot.Title,
			Tile2ID:   tgtRoot.DBID,
			Tile2Name: tgtRoot.Title,
		}))
	default:
		c.emitter.Emit(events.NewEvent(events.TileMoved{
			TileID:      movedID,
			TileName:    srcRoot.Title,
			FromCoordID: sourceCoordID,
			ToCoordID:   targetCoordID,
		}))
	}

	recordMutation(ctx, "move", "ok", start, len(srcSnap)+len(tgtSnap))
	c.logger.Info("tile moved",
		slog.String("mode", string(mode)),
		slog.String("from", sourceCoordID),
		slog.String("to", targetCoordID),
		slog.Int("modified_items", len(res.ModifiedItems)))
	return MoveOutcome{Mode: mode, Result: res}, nil
}

// applyOptimisticMove rebases the source subtree onto the target prefix,
// and for swaps the target subtree onto the source prefix, then swaps the
// store contents accordingly. It returns the coordinate-ids it inserted
// so finalize can clear any guess the server does not confirm.
func (c *Coordinator) applyOptimisticMove(src, tgt coord.Coord, srcSnap, tgtSnap []store.TileRecord) ([]string, error) {
	rebased := make([]store.TileRecord, 0, len(srcSnap)+len(tgtSnap))
	for _, r := range srcSnap {
		moved, err := rebaseRecord(r, src, tgt)
		if err != nil {
			return nil, err
		}
		rebased = append(rebased, moved)
	}
	for _, r := range tgtSnap {
		moved, err := rebaseRecord(r, tgt, src)
		if err != nil {
			return nil, err
		}
		rebased = append(rebased, moved)
	}

	if err := c.removeAll(srcSnap); err != nil {
		return nil, err
	}
	if err := c.removeAll(tgtSnap); err != nil {
		return nil, err
	}
	if _, err := c.store.Dispatch(store.InsertItems{Items: rebased}); err != nil {
		return nil, err
	}
	ids := make([]string, len(rebased))
	for i, r := range rebased {
		ids[i] = r.CoordID()
	}
	return ids, nil
}

// finalizeMove clears every pre-move coordinate-id of both subtrees and
// every unconfirmed optimistic address, then inserts the authoritative
// records. The server's addressing wins outright: an optimistic guess the
// payload does not confirm would otherwise linger as a ghost record.
func (c *Coordinator) finalizeMove(ctx context.Context, srcSnap, tgtSnap []store.TileRecord, optimisticIDs []string, res gateway.MoveResult) error {
	if err := c.removeAll(srcSnap); err != nil {
		return err
	}
	if err := c.removeAll(tgtSnap); err != nil {
		return err
	}

	knownDBIDs := make(map[int64]struct{}, len(srcSnap)+len(tgtSnap))
	for _, r := range srcSnap {
		knownDBIDs[r.DBID] = struct{}{}
	}
	for _, r := range tgtSnap {
		knownDBIDs[r.DBID] = struct{}{}
	}

	authoritative := make([]store.TileRecord, 0, len(res.ModifiedItems))
	for _, item := range res.ModifiedItems {
		parsed, err := coord.Parse(item.Coordinates)
		if err != nil {
			// A coordinate we cannot even key on: skip it rather than fail
			// the whole finalize; the rest of the payload still applies.
			recordInconsistency(ctx, "move")
			c.logger.Warn("authoritative item has malformed coordinates",
				slog.Int64("db_id", item.ID),
				slog.String("coordinates", item.Coordinates),
				slog.Any("error", err))
			continue
		}
		if _, known := knownDBIDs[item.ID]; !known {
			// An unloaded descendant the server reports as moved. Expected
			// with partial local coverage: insert it anyway.
			recordInconsistency(ctx, "move")
			c.logger.Warn("authoritative item was never cached locally",
				slog.Int64("db_id", item.ID),
				slog.String("coordinates", item.Coordinates))
		}
		rec := store.TileRecord{
			Coord:       parsed,
			DBID:        item.ID,
			Depth:       parsed.Depth(),
			OwnerID:     item.OwnerID,
			Title:       item.Title,
			Content:     item.Content,
			PreviewText: item.PreviewText,
			Link:        item.Link,
			ColorTag:    item.ColorTag,
		}
		if parent, ok := coord.ParentOf(parsed); ok {
			rec.ParentCoordID = parent.ID()
		}
		// Keep presentation flags from the optimistic record at the same
		// address, so selection does not flicker on finalize.
		if cur, ok := c.store.Get(parsed.ID()); ok {
			rec.UI = cur.UI
		}
		authoritative = append(authoritative, rec)
	}

	// Drop optimistic guesses the payload did not confirm. Ids the pre-move
	// removals above already cleared are skipped so the removal log stays
	// one-for-one with actual transitions.
	confirmed := make(map[string]struct{}, len(authoritative))
	for _, r := range authoritative {
		confirmed[r.CoordID()] = struct{}{}
	}
	cleared := make(map[string]struct{}, len(srcSnap)+len(tgtSnap))
	for _, r := range srcSnap {
		cleared[r.CoordID()] = struct{}{}
	}
	for _, r := range tgtSnap {
		cleared[r.CoordID()] = struct{}{}
	}
	for _, id := range optimisticIDs {
		if _, ok := confirmed[id]; ok {
			continue
		}
		if _, ok := cleared[id]; ok {
			continue
		}
		if _, err := c.store.Dispatch(store.RemoveItem{CoordID: id}); err != nil {
			return err
		}
	}

	if len(authoritative) == 0 {
		return nil
	}
	_, err := c.store.Dispatch(store.InsertItems{Items: authoritative})
	return err
}
