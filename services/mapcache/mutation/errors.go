// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutation

import (
	"errors"
	"fmt"
)

// Sentinel errors for the mutation coordinator.
var (
	// ErrValidation marks failures surfaced before any optimistic apply:
	// malformed coordinate-ids, missing required fields, impossible edits.
	// The store is untouched when this is returned.
	ErrValidation = errors.New("mutation validation failed")

	// ErrRemoteRejected marks a gateway rejection. The optimistic patch has
	// already been rolled back by the time callers see it.
	ErrRemoteRejected = errors.New("remote mutation rejected")

	// ErrNotFound indicates the edited coordinate-id has no cached record.
	ErrNotFound = errors.New("no tile at coordinate")

	// ErrSubtreeFull indicates all six child slots of the parent are taken.
	ErrSubtreeFull = errors.New("no free child slot under parent")

	// ErrSlotOccupied indicates an explicit create targeted an occupied
	// coordinate.
	ErrSlotOccupied = errors.New("coordinate already occupied")

	// ErrMoveIntoOwnSubtree indicates a move whose target lies inside the
	// source subtree, which would detach the subtree from the tree.
	ErrMoveIntoOwnSubtree = errors.New("cannot move tile into its own subtree")
)

// ValidationError carries field-level detail for a pre-flight failure.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RemoteError wraps the gateway's rejection with the operation that failed.
// errors.Is(err, ErrRemoteRejected) holds, and Unwrap exposes the cause.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemoteRejected }

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
