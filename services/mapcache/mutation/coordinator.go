// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package mutation implements the map cache's structural-edit coordinator.
//
// Every edit — create, update, delete, move — follows the same three-phase
// protocol:
//
//	snapshot → optimistic apply → await gateway → finalize | rollback
//
// The optimistic patch lands in the normalized store synchronously, so the
// UI repaints before the network round-trip; the gateway call is the only
// suspension point. On success the authoritative payload replaces the
// optimistic guess and exactly one domain event fires. On rejection the
// pre-edit snapshot is restored verbatim before the error reaches the
// caller, and no event fires: callers always observe a consistent cache.
//
// # Concurrency
//
// The coordinator owns the store. A coordinate-prefix lock serializes edits
// whose source/target subtrees overlap; edits over disjoint subtrees run
// concurrently. Once an edit passes its lock, its snapshot and optimistic
// apply complete before the gateway call starts, so a later edit over the
// same subtree always sees the earlier one's outcome.
//
// There is no cancellation of an in-flight gateway call: an edit that has
// applied its optimistic patch always reaches finalize or rollback.
// Timeouts are the gateway implementation's concern and surface here as
// rejections.
package mutation

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/hexframe/hexmap/services/mapcache/coord"
	"github.com/hexframe/hexmap/services/mapcache/events"
	"github.com/hexframe/hexmap/services/mapcache/gateway"
	"github.com/hexframe/hexmap/services/mapcache/store"
)

// Config wires a Coordinator.
type Config struct {
	// Store is the normalized tile cache. Required.
	Store *store.Store

	// Gateway is the remote mutation authority. Required.
	Gateway gateway.Mutations

	// Emitter receives domain events. Optional; nil means no emission.
	Emitter events.Emitter

	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// TracingEnabled turns on OpenTelemetry spans per edit.
	TracingEnabled bool
}

// Coordinator applies structural edits to the store and reconciles them
// with the remote authority.
//
// # Thread Safety
//
// All methods are safe for concurrent use; overlapping-subtree edits are
// serialized internally.
type Coordinator struct {
	store    *store.Store
	gateway  gateway.Mutations
	emitter  events.Emitter
	locks    *subtreeLocks
	logger   *slog.Logger
	tracer   *Tracer
	validate *validator.Validate

	// provisionalSeq counts down so optimistic records never collide with
	// server-assigned (positive) database ids.
	provisionalSeq atomic.Int64
}

// New creates a coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, validationf("Store", "required")
	}
	if cfg.Gateway == nil {
		return nil, validationf("Gateway", "required")
	}
	if cfg.Emitter == nil {
		cfg.Emitter = events.NopEmitter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Coordinator{
		store:    cfg.Store,
		gateway:  cfg.Gateway,
		emitter:  cfg.Emitter,
		locks:    newSubtreeLocks(),
		logger:   cfg.Logger,
		tracer:   NewTracer(cfg.Logger, cfg.TracingEnabled),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// CreateFields is the caller-supplied content of a new tile.
type CreateFields struct {
	Title    string `validate:"required,max=255"`
	Content  string `validate:"max=65536"`
	Link     string `validate:"omitempty,url"`
	ColorTag string `validate:"omitempty,max=32"`
}

// UpdateFields carries the edited fields of an existing tile. Nil pointers
// leave the field unchanged; at least one must be set.
type UpdateFields struct {
	Title    *string `validate:"omitempty,max=255"`
	Content  *string `validate:"omitempty,max=65536"`
	Link     *string `validate:"omitempty,url"`
	ColorTag *string `validate:"omitempty,max=32"`
}

func (f UpdateFields) empty() bool {
	return f.Title == nil && f.Content == nil && f.Link == nil && f.ColorTag == nil
}

// -----------------------------------------------------------------------------
// Shared helpers
// -----------------------------------------------------------------------------

func (c *Coordinator) parseID(field, id string) (coord.Coord, error) {
	parsed, err := coord.Parse(id)
	if err != nil {
		return coord.Coord{}, validationf(field, "%v", err)
	}
	return parsed, nil
}

func (c *Coordinator) checkFields(v any) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return validationf(fe.Field(), "failed %q constraint", fe.Tag())
	}
	return validationf("", "%v", err)
}

func (c *Coordinator) nextProvisionalID() int64 {
	return c.provisionalSeq.Add(-1)
}

// removeAll dispatches one RemoveItem per record. Idempotent: absent ids
// reduce to no-ops but still appear in the action log.
func (c *Coordinator) removeAll(records []store.TileRecord) error {
	for _, r := range records {
		if _, err := c.store.Dispatch(store.RemoveItem{CoordID: r.CoordID()}); err != nil {
			return err
		}
	}
	return nil
}

// rebaseRecord re-addresses one cached record from the old subtree root to
// the new one, recomputing the derived fields that depend on position.
func rebaseRecord(r store.TileRecord, oldRoot, newRoot coord.Coord) (store.TileRecord, error) {
	moved, err := coord.Rebase(r.Coord, oldRoot, newRoot)
	if err != nil {
		return store.TileRecord{}, err
	}
	r.Coord = moved
	r.Depth = moved.Depth()
	if parent, ok := coord.ParentOf(moved); ok {
		r.ParentCoordID = parent.ID()
	} else {
		r.ParentCoordID = ""
	}
	return r, nil
}
