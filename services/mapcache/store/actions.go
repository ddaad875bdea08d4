// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import "fmt"

// Kind names a reducer action. The string values form the stable action-log
// vocabulary tests assert against.
type Kind string

const (
	KindInsertItems             Kind = "INSERT_ITEMS"
	KindRemoveItem              Kind = "REMOVE_ITEM"
	KindSetCenter               Kind = "SET_CENTER"
	KindSetExpansion            Kind = "SET_EXPANSION"
	KindSetCompositionExpansion Kind = "SET_COMPOSITION_EXPANSION"
)

// Action is the closed union of reducer transitions. The unexported method
// seals the set: adding a variant means extending Reduce, and the compiler
// flags every switch that misses it.
type Action interface {
	Kind() Kind
	isAction()
}

// InsertItems inserts or replaces records keyed by their coordinate-ids.
type InsertItems struct {
	Items []TileRecord
}

// RemoveItem deletes the record at CoordID. Removing an absent id is a
// no-op, which keeps finalize-phase cleanup idempotent.
type RemoveItem struct {
	CoordID string
}

// SetCenter moves the focused (center) coordinate.
type SetCenter struct {
	CoordID string
}

// SetExpansion toggles a tile's expansion flag, keyed by database id so the
// flag survives coordinate rewrites during moves.
type SetExpansion struct {
	DBID     int64
	Expanded bool
}

// SetCompositionExpansion toggles the global composition-visibility flag.
type SetCompositionExpansion struct {
	Expanded bool
}

func (InsertItems) Kind() Kind             { return KindInsertItems }
func (RemoveItem) Kind() Kind              { return KindRemoveItem }
func (SetCenter) Kind() Kind               { return KindSetCenter }
func (SetExpansion) Kind() Kind            { return KindSetExpansion }
func (SetCompositionExpansion) Kind() Kind { return KindSetCompositionExpansion }

func (InsertItems) isAction()             {}
func (RemoveItem) isAction()              {}
func (SetCenter) isAction()               {}
func (SetExpansion) isAction()            {}
func (SetCompositionExpansion) isAction() {}

// Reduce applies one action to a state, returning the next state.
//
// The only validation performed is key well-formedness; anything deeper is
// the coordinator's job.
func Reduce(s State, a Action) (State, error) {
	switch act := a.(type) {
	case InsertItems:
		for _, r := range act.Items {
			if err := checkKey(r.CoordID()); err != nil {
				return s, err
			}
		}
		return s.withItems(act.Items), nil
	case RemoveItem:
		if err := checkKey(act.CoordID); err != nil {
			return s, err
		}
		return s.withoutItem(act.CoordID), nil
	case SetCenter:
		if err := checkKey(act.CoordID); err != nil {
			return s, err
		}
		return s.withCenter(act.CoordID), nil
	case SetExpansion:
		return s.withExpansion(act.DBID, act.Expanded), nil
	case SetCompositionExpansion:
		return s.withCompositionExpansion(act.Expanded), nil
	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}
