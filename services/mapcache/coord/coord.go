// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package coord implements the hierarchical hexagonal coordinate system.
//
// A tile's position is a tree address: an owner, a group, and a path of
// directional steps from that owner's root tile. The canonical string form
//
//	owner,group:d1,d2,...,dN
//
// is the sole key used by the map cache; Parse and Coord.ID are strict
// inverses for every syntactically valid id. A root tile has an empty path
// and still carries the trailing colon ("1,0:"), so no special case leaks
// into parsing.
//
// Beyond the six primary child slots, every tile has a reserved composition
// slot (direction 0) holding a container tile, and that container has six
// reserved composed slots addressed by negative directions. The composition
// subtree is a secondary nesting concept, distinct from the primary 6-ary
// tree, but it lives in the same address space and needs no special handling
// in subtree operations.
//
// All functions are pure; the package holds no state.
package coord

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------------
// Directions
// -----------------------------------------------------------------------------

// Direction is a single step in a coordinate path.
//
// Primary directions 1..6 address the six hexagonal children in the fixed
// NW, NE, E, SE, SW, W order. Direction 0 addresses the composition
// container slot. Negative directions -1..-6 address the composed child
// slots under a composition container, mirroring the primary order.
type Direction int8

const (
	Composition Direction = 0
	NorthWest   Direction = 1
	NorthEast   Direction = 2
	East        Direction = 3
	SouthEast   Direction = 4
	SouthWest   Direction = 5
	West        Direction = 6
)

// PrimaryDirections is the fixed child iteration order. The order is part
// of the contract: first-free-slot allocation and child enumeration both
// depend on it being stable.
var PrimaryDirections = [6]Direction{NorthWest, NorthEast, East, SouthEast, SouthWest, West}

// Valid reports whether d is inside the legal direction range (-6..6).
func (d Direction) Valid() bool {
	return d >= -6 && d <= 6
}

// IsPrimary reports whether d addresses one of the six regular child slots.
func (d Direction) IsPrimary() bool {
	return d >= 1 && d <= 6
}

// IsComposed reports whether d addresses a composed child slot.
func (d Direction) IsComposed() bool {
	return d >= -6 && d <= -1
}

// -----------------------------------------------------------------------------
// Coord
// -----------------------------------------------------------------------------

// Coord is a tile's hierarchical address.
//
// Two coordinates are in an ancestor/descendant relationship iff they share
// OwnerID and GroupID and one path is a proper positional prefix of the
// other. Depth is len(Path).
type Coord struct {
	OwnerID int64
	GroupID int64
	Path    []Direction
}

// New builds a Coord, cloning the path so callers can reuse their slice.
func New(ownerID, groupID int64, path ...Direction) Coord {
	return Coord{OwnerID: ownerID, GroupID: groupID, Path: slices.Clone(path)}
}

// ID returns the canonical coordinate-id string.
//
// Inverse of Parse for every valid coordinate.
func (c Coord) ID() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(c.OwnerID, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(c.GroupID, 10))
	b.WriteByte(':')
	for i, d := range c.Path {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(d)))
	}
	return b.String()
}

// Depth returns the tree depth of the coordinate (path length).
func (c Coord) Depth() int {
	return len(c.Path)
}

// IsRoot reports whether the coordinate addresses a root (user) tile.
func (c Coord) IsRoot() bool {
	return len(c.Path) == 0
}

// Equal reports structural equality.
func (c Coord) Equal(other Coord) bool {
	return c.OwnerID == other.OwnerID &&
		c.GroupID == other.GroupID &&
		slices.Equal(c.Path, other.Path)
}

// Parse decodes a canonical coordinate-id.
//
// Outputs:
//   - Coord: the decoded coordinate.
//   - error: ErrMalformedID for structural problems, ErrBadDirection for
//     path segments outside -6..6. Both are wrapped with position detail.
//
// Only canonical spellings are accepted: Parse and Coord.ID are strict
// inverses, so ids like "1,0:+1" or "1,0:01" are rejected even though
// their numbers parse.
func Parse(id string) (Coord, error) {
	head, tail, ok := strings.Cut(id, ":")
	if !ok {
		return Coord{}, fmt.Errorf("%w: %q missing ':'", ErrMalformedID, id)
	}
	ownerStr, groupStr, ok := strings.Cut(head, ",")
	if !ok {
		return Coord{}, fmt.Errorf("%w: %q missing owner,group", ErrMalformedID, id)
	}
	ownerID, err := strconv.ParseInt(ownerStr, 10, 64)
	if err != nil {
		return Coord{}, fmt.Errorf("%w: owner %q", ErrMalformedID, ownerStr)
	}
	groupID, err := strconv.ParseInt(groupStr, 10, 64)
	if err != nil {
		return Coord{}, fmt.Errorf("%w: group %q", ErrMalformedID, groupStr)
	}
	c := Coord{OwnerID: ownerID, GroupID: groupID}
	if tail != "" {
		segments := strings.Split(tail, ",")
		c.Path = make([]Direction, len(segments))
		for i, seg := range segments {
			n, err := strconv.ParseInt(seg, 10, 8)
			if err != nil {
				return Coord{}, fmt.Errorf("%w: segment %d %q", ErrMalformedID, i, seg)
			}
			d := Direction(n)
			if !d.Valid() {
				return Coord{}, fmt.Errorf("%w: segment %d is %d", ErrBadDirection, i, n)
			}
			c.Path[i] = d
		}
	}
	if c.ID() != id {
		return Coord{}, fmt.Errorf("%w: %q is not canonical", ErrMalformedID, id)
	}
	return c, nil
}

// MustParse is Parse that panics on error. Intended for tests and
// compile-time-constant ids.
func MustParse(id string) Coord {
	c, err := Parse(id)
	if err != nil {
		panic(err)
	}
	return c
}

// ValidID reports whether id is a syntactically valid coordinate-id.
func ValidID(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// -----------------------------------------------------------------------------
// Tree relations
// -----------------------------------------------------------------------------

// ParentOf returns the parent coordinate.
//
// The second return is false iff c is a root tile (empty path), which has
// no parent.
func ParentOf(c Coord) (Coord, bool) {
	if len(c.Path) == 0 {
		return Coord{}, false
	}
	return Coord{
		OwnerID: c.OwnerID,
		GroupID: c.GroupID,
		Path:    slices.Clone(c.Path[:len(c.Path)-1]),
	}, true
}

// ChildCoords returns the six primary children in NW, NE, E, SE, SW, W order.
func ChildCoords(c Coord) [6]Coord {
	var out [6]Coord
	for i, d := range PrimaryDirections {
		out[i] = child(c, d)
	}
	return out
}

// CompositionContainerOf returns the child occupying the reserved
// composition slot (direction 0).
func CompositionContainerOf(c Coord) Coord {
	return child(c, Composition)
}

// ComposedChildrenOf returns the six composed children of c's composition
// container, at the reserved negative-index slots, mirroring the primary
// order.
func ComposedChildrenOf(c Coord) [6]Coord {
	container := CompositionContainerOf(c)
	var out [6]Coord
	for i, d := range PrimaryDirections {
		out[i] = child(container, -d)
	}
	return out
}

func child(c Coord, d Direction) Coord {
	path := make([]Direction, len(c.Path)+1)
	copy(path, c.Path)
	path[len(c.Path)] = d
	return Coord{OwnerID: c.OwnerID, GroupID: c.GroupID, Path: path}
}

// IsDescendantOf reports whether candidate sits strictly below ancestor:
// same owner and group, and ancestor's path is a proper positional prefix
// of candidate's.
func IsDescendantOf(candidate, ancestor Coord) bool {
	if candidate.OwnerID != ancestor.OwnerID || candidate.GroupID != ancestor.GroupID {
		return false
	}
	if len(candidate.Path) <= len(ancestor.Path) {
		return false
	}
	return slices.Equal(candidate.Path[:len(ancestor.Path)], ancestor.Path)
}

// WithinSubtree reports whether c is root itself or one of its descendants.
func WithinSubtree(c, root Coord) bool {
	return c.Equal(root) || IsDescendantOf(c, root)
}

// Rebase re-addresses old from oldPrefix's subtree into newPrefix's subtree,
// keeping the path suffix below oldPrefix byte-for-byte unchanged. This is
// the primitive that re-addresses an entire subtree after a move: relative
// structure inside the subtree is preserved exactly, and depth changes only
// by the difference between the two prefix lengths.
//
// Returns ErrNotDescendant if old is not oldPrefix or one of its
// descendants.
func Rebase(old, oldPrefix, newPrefix Coord) (Coord, error) {
	if !WithinSubtree(old, oldPrefix) {
		return Coord{}, fmt.Errorf("%w: %s not under %s", ErrNotDescendant, old.ID(), oldPrefix.ID())
	}
	suffix := old.Path[len(oldPrefix.Path):]
	path := make([]Direction, 0, len(newPrefix.Path)+len(suffix))
	path = append(path, newPrefix.Path...)
	path = append(path, suffix...)
	return Coord{OwnerID: newPrefix.OwnerID, GroupID: newPrefix.GroupID, Path: path}, nil
}

// FirstFreeChild returns the first primary child of parent whose
// coordinate-id is not occupied, probing in the fixed NW, NE, E, SE, SW, W
// order. The second return is false when all six slots are taken.
func FirstFreeChild(parent Coord, occupied func(id string) bool) (Coord, bool) {
	for _, c := range ChildCoords(parent) {
		if !occupied(c.ID()) {
			return c, true
		}
	}
	return Coord{}, false
}
