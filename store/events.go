// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sync"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/merkle"
)

// internal constants
const (
	queueSize = 100
)

// Event - identifiers touched by one successful mutating operation
//
// consumers invalidate or refresh exactly the named entries, never the
// whole projection
type Event struct {
	Checkpoint   uint64
	Accounts     []account.Identifier
	Notes        []merkle.Digest
	Transactions []merkle.Digest
}

// change notification fan-out
//
// publish never blocks a commit: a subscriber that cannot keep up loses
// events and must fall back to reading the store directly
type bus struct {
	sync.Mutex
	subscribers map[int]chan Event
	nextId      int
	closed      bool
}

func newBus() *bus {
	return &bus{
		subscribers: make(map[int]chan Event),
	}
}

func (b *bus) subscribe() (<-chan Event, func()) {
	b.Lock()
	defer b.Unlock()

	id := b.nextId
	b.nextId += 1

	queue := make(chan Event, queueSize)
	if b.closed {
		close(queue)
		return queue, func() {}
	}
	b.subscribers[id] = queue

	cancel := func() {
		b.Lock()
		defer b.Unlock()
		if queue, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(queue)
		}
	}
	return queue, cancel
}

func (b *bus) publish(event Event) {
	b.Lock()
	defer b.Unlock()

	for _, queue := range b.subscribers {
		select {
		case queue <- event:
		default:
			// dropped; subscriber re-reads the store on demand
		}
	}
}

func (b *bus) close() {
	b.Lock()
	defer b.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, queue := range b.subscribers {
		delete(b.subscribers, id)
		close(queue)
	}
}

// Subscribe - receive change events for cache invalidation
//
// the returned cancel function must be called to release the queue
func Subscribe() (<-chan Event, func()) {
	return globalData.bus.subscribe()
}
