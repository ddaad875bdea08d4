// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package events

import (
	"log/slog"
	"sync"
)

// Handler consumes one event. Handlers run synchronously on the emitting
// goroutine; slow consumers should hand off internally.
type Handler func(Event)

type subscription struct {
	handler Handler
	only    Type // empty = all types
}

// Bus is a small in-process fan-out emitter.
//
// # Thread Safety
//
// Safe for concurrent use. Subscriptions taken during an Emit do not
// receive that event.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
	logger *slog.Logger
}

// NewBus creates an empty bus. logger may be nil.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subs: make(map[int]subscription), logger: logger}
}

// Subscribe registers a handler for every event type. The returned func
// cancels the subscription.
func (b *Bus) Subscribe(h Handler) (cancel func()) {
	return b.subscribe(subscription{handler: h})
}

// SubscribeType registers a handler for a single event type.
func (b *Bus) SubscribeType(t Type, h Handler) (cancel func()) {
	return b.subscribe(subscription{handler: h, only: t})
}

func (b *Bus) subscribe(s subscription) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = s
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Emit delivers the event to every matching subscriber.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.only == "" || s.only == e.Type {
			targets = append(targets, s.handler)
		}
	}
	b.mu.RUnlock()

	b.logger.Debug("emitting domain event",
		slog.String("type", string(e.Type)),
		slog.Int("subscribers", len(targets)))
	for _, h := range targets {
		h(e)
	}
}
