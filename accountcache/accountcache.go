// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package accountcache - a read-through projection of account state
//
// entries are invalidated by store change events, so a read after a
// successful mutation always observes that mutation; the expiry is only
// a backstop against a lost event
package accountcache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
	gocache "github.com/patrickmn/go-cache"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/store"
)

// expiry backstop defaults
const (
	DefaultExpiry   = 2 * time.Minute
	cleanupInterval = 5 * time.Minute
)

var globalData struct {
	sync.RWMutex
	log    *logger.L
	cache  *gocache.Cache
	cancel func()
	done   chan struct{}

	// bumped on every invalidation batch; a store read is only
	// cacheable if the generation is unchanged across it
	generation uint64

	// set once during initialise
	initialised bool
}

// Initialise - start the cache and its invalidation listener
func Initialise(expiry time.Duration) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	if 0 == expiry {
		expiry = DefaultExpiry
	}

	globalData.log = logger.New("accountcache")
	globalData.log.Info("starting…")

	globalData.cache = gocache.New(expiry, cleanupInterval)
	globalData.done = make(chan struct{})

	queue, cancel := store.Subscribe()
	globalData.cancel = cancel
	go invalidate(queue, globalData.done)

	globalData.initialised = true

	return nil
}

// Finalise - stop the invalidation listener
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")

	globalData.cancel()
	<-globalData.done

	globalData.initialised = false

	globalData.log.Flush()
	return nil
}

// drop exactly the entries named by each change event
//
// a dropped event upstream only delays refresh until the expiry
// backstop; it can never serve a mutation that did not happen
func invalidate(queue <-chan store.Event, done chan<- struct{}) {
	for event := range queue {
		if 0 == len(event.Accounts) {
			continue
		}
		atomic.AddUint64(&globalData.generation, 1)
		for _, id := range event.Accounts {
			globalData.cache.Delete(id.String())
		}
	}
	close(done)
}

// CurrentState - the latest committed state of one account
//
// reads hit the cache first and fall through to the store; a miss for
// an unknown account is not cached
func CurrentState(id account.Identifier) (*account.Account, error) {
	globalData.RLock()
	defer globalData.RUnlock()

	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	if entry, found := globalData.cache.Get(id.String()); found {
		return entry.(*account.Account), nil
	}

	generation := atomic.LoadUint64(&globalData.generation)

	acc, err := store.GetAccount(id)
	if nil != err {
		return nil, err
	}

	// an invalidation landed during the store read, so the state just
	// read may already be stale; return it but leave the cache empty
	if generation == atomic.LoadUint64(&globalData.generation) {
		globalData.cache.SetDefault(id.String(), acc)
	}
	return acc, nil
}
