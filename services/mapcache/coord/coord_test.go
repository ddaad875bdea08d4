// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	ids := []string{
		"1,0:",
		"1,0:1",
		"1,0:1,2",
		"1,0:1,0",
		"1,0:1,0,-3",
		"42,7:6,5,4,3,2,1",
		"-1,0:2",
		"7,3:0,-1,-6",
	}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			c, err := Parse(id)
			require.NoError(t, err)
			assert.Equal(t, id, c.ID(), "format(parse(id)) must return id")

			again, err := Parse(c.ID())
			require.NoError(t, err)
			assert.True(t, c.Equal(again), "parse(format(c)) must return c")
		})
	}
}

func TestParseRejectsMalformedIDs(t *testing.T) {
	cases := map[string]string{
		"no colon":            "1,0",
		"no group":            "1:2,3",
		"empty":               "",
		"non-numeric owner":   "a,0:1",
		"non-numeric segment": "1,0:1,x",
		"direction too large": "1,0:7",
		"direction too small": "1,0:-7",
	}
	for name, id := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(id)
			assert.Error(t, err, "id %q should not parse", id)
		})
	}
}

func TestParseRejectsNonCanonicalSpellings(t *testing.T) {
	// The numbers parse, but the spelling differs from what ID() emits, so
	// accepting them would break the Parse/ID round trip.
	cases := map[string]string{
		"plus-signed segment":  "1,0:+1",
		"zero-padded segment":  "1,0:01",
		"plus-signed owner":    "+1,0:1",
		"negative-zero group":  "1,-0:1",
		"zero-padded owner":    "01,0:1",
		"space after comma":    "1, 0:1",
		"trailing empty extra": "1,0:1,",
	}
	for name, id := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(id)
			assert.ErrorIs(t, err, ErrMalformedID, "id %q should not parse", id)
		})
	}
}

func TestParentOf(t *testing.T) {
	t.Run("root has no parent", func(t *testing.T) {
		_, ok := ParentOf(MustParse("1,0:"))
		assert.False(t, ok)
	})

	t.Run("parent strips last segment", func(t *testing.T) {
		parent, ok := ParentOf(MustParse("1,0:1,2,3"))
		require.True(t, ok)
		assert.Equal(t, "1,0:1,2", parent.ID())
	})

	t.Run("composed child parent is the container", func(t *testing.T) {
		parent, ok := ParentOf(MustParse("1,0:1,0,-2"))
		require.True(t, ok)
		assert.Equal(t, "1,0:1,0", parent.ID())
	})
}

func TestChildCoordsOrder(t *testing.T) {
	children := ChildCoords(MustParse("1,0:2"))
	want := []string{"1,0:2,1", "1,0:2,2", "1,0:2,3", "1,0:2,4", "1,0:2,5", "1,0:2,6"}
	for i, c := range children {
		assert.Equal(t, want[i], c.ID())
	}
}

func TestCompositionRelations(t *testing.T) {
	base := MustParse("1,0:3")

	container := CompositionContainerOf(base)
	assert.Equal(t, "1,0:3,0", container.ID())

	composed := ComposedChildrenOf(base)
	want := []string{"1,0:3,0,-1", "1,0:3,0,-2", "1,0:3,0,-3", "1,0:3,0,-4", "1,0:3,0,-5", "1,0:3,0,-6"}
	for i, c := range composed {
		assert.Equal(t, want[i], c.ID())
		assert.True(t, IsDescendantOf(c, container))
		assert.True(t, IsDescendantOf(c, base))
	}
}

func TestIsDescendantOf(t *testing.T) {
	t.Run("proper prefix is descendant", func(t *testing.T) {
		assert.True(t, IsDescendantOf(MustParse("1,0:1,2,3"), MustParse("1,0:1")))
	})

	t.Run("self is not a descendant", func(t *testing.T) {
		assert.False(t, IsDescendantOf(MustParse("1,0:1"), MustParse("1,0:1")))
	})

	t.Run("positional mismatch is not a descendant", func(t *testing.T) {
		assert.False(t, IsDescendantOf(MustParse("1,0:2,1"), MustParse("1,0:1")))
	})

	t.Run("different owner is never a descendant", func(t *testing.T) {
		assert.False(t, IsDescendantOf(MustParse("2,0:1,2"), MustParse("1,0:1")))
	})

	t.Run("everything under the root is a descendant of it", func(t *testing.T) {
		assert.True(t, IsDescendantOf(MustParse("1,0:5"), MustParse("1,0:")))
	})
}

func TestRebase(t *testing.T) {
	t.Run("moves the root itself", func(t *testing.T) {
		got, err := Rebase(MustParse("1,0:1"), MustParse("1,0:1"), MustParse("1,0:3"))
		require.NoError(t, err)
		assert.Equal(t, "1,0:3", got.ID())
	})

	t.Run("preserves the suffix exactly", func(t *testing.T) {
		got, err := Rebase(MustParse("1,0:1,2,5"), MustParse("1,0:1"), MustParse("1,0:3"))
		require.NoError(t, err)
		assert.Equal(t, "1,0:3,2,5", got.ID())
	})

	t.Run("depth shifts by prefix length difference", func(t *testing.T) {
		got, err := Rebase(MustParse("1,0:1,2"), MustParse("1,0:1"), MustParse("1,0:4,6"))
		require.NoError(t, err)
		assert.Equal(t, "1,0:4,6,2", got.ID())
		assert.Equal(t, 3, got.Depth())
	})

	t.Run("composed suffix survives rebase", func(t *testing.T) {
		got, err := Rebase(MustParse("1,0:1,0,-2"), MustParse("1,0:1"), MustParse("1,0:3"))
		require.NoError(t, err)
		assert.Equal(t, "1,0:3,0,-2", got.ID())
	})

	t.Run("rejects coordinates outside the subtree", func(t *testing.T) {
		_, err := Rebase(MustParse("1,0:2"), MustParse("1,0:1"), MustParse("1,0:3"))
		assert.ErrorIs(t, err, ErrNotDescendant)
	})

	t.Run("rebased descendants land under the new prefix", func(t *testing.T) {
		root := MustParse("1,0:1")
		target := MustParse("1,0:3")
		for _, id := range []string{"1,0:1,2", "1,0:1,2,4", "1,0:1,0", "1,0:1,0,-1"} {
			got, err := Rebase(MustParse(id), root, target)
			require.NoError(t, err)
			assert.True(t, WithinSubtree(got, target), "rebased %s = %s", id, got.ID())
		}
	})
}

func TestFirstFreeChild(t *testing.T) {
	parent := MustParse("1,0:1")

	t.Run("prefers NW when empty", func(t *testing.T) {
		c, ok := FirstFreeChild(parent, func(string) bool { return false })
		require.True(t, ok)
		assert.Equal(t, "1,0:1,1", c.ID())
	})

	t.Run("skips occupied slots in order", func(t *testing.T) {
		taken := map[string]bool{"1,0:1,1": true, "1,0:1,2": true}
		c, ok := FirstFreeChild(parent, func(id string) bool { return taken[id] })
		require.True(t, ok)
		assert.Equal(t, "1,0:1,3", c.ID())
	})

	t.Run("reports a full parent", func(t *testing.T) {
		_, ok := FirstFreeChild(parent, func(string) bool { return true })
		assert.False(t, ok)
	})
}
