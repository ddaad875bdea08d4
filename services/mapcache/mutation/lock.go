// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutation

import (
	"context"
	"sync"

	"github.com/hexframe/hexmap/services/mapcache/coord"
)

// subtreeLocks serializes structural edits whose subtrees overlap.
//
// Two lock requests conflict when any root of one is an ancestor-or-self of
// any root of the other: a delete of "1,0:1" must not interleave with a
// move of "1,0:1,2". Requests over disjoint subtrees proceed concurrently.
//
// Waiters block until the conflicting holder releases; context cancellation
// aborts the wait.
type subtreeLocks struct {
	mu   sync.Mutex
	cond *sync.Cond
	held map[int64][]coord.Coord
	next int64
}

func newSubtreeLocks() *subtreeLocks {
	l := &subtreeLocks{held: make(map[int64][]coord.Coord)}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// acquire blocks until every requested subtree root is conflict-free, then
// claims them. The returned func releases the claim and must always be
// called, typically via defer.
func (l *subtreeLocks) acquire(ctx context.Context, roots ...coord.Coord) (release func(), err error) {
	// Wake this waiter if the context dies while it sits in cond.Wait.
	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.cond.Broadcast()
	})
	defer stop()

	l.mu.Lock()
	defer l.mu.Unlock()
	for l.conflicts(roots) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.cond.Wait()
	}
	id := l.next
	l.next++
	l.held[id] = roots
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, id)
		l.cond.Broadcast()
	}, nil
}

func (l *subtreeLocks) conflicts(roots []coord.Coord) bool {
	for _, heldRoots := range l.held {
		for _, h := range heldRoots {
			for _, r := range roots {
				if coord.WithinSubtree(h, r) || coord.WithinSubtree(r, h) {
					return true
				}
			}
		}
	}
	return false
}
