// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package syncer - keep the local projection aligned with the chain
//
// a round fetches delta batches from the node, verifies their inclusion
// evidence and hands them to the store; the store is never touched by
// unverified data
package syncer

import (
	"sync"
	"time"

	"github.com/keomprotocol/miden-client/background"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/remote"
)

// default tuning
const (
	DefaultBatchSize = 500
	DefaultInterval  = 15 * time.Second
)

var globalData struct {
	sync.RWMutex
	machine *Machine

	// set once during initialise
	initialised bool
}

// Initialise - build the synchroniser around one node connection
func Initialise(client remote.Client, batchSize int, interval time.Duration) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if 0 == interval {
		interval = DefaultInterval
	}

	globalData.machine = NewMachine(client, batchSize, interval)

	globalData.initialised = true

	return nil
}

// Finalise - shut down the synchroniser
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.machine = nil
	globalData.initialised = false

	return nil
}

// SyncOnce - run one full round synchronously
func SyncOnce() error {
	globalData.RLock()
	m := globalData.machine
	globalData.RUnlock()

	if nil == m {
		return fault.NotInitialised
	}
	return m.SyncOnce()
}

// State - the current machine state name
func State() string {
	globalData.RLock()
	defer globalData.RUnlock()
	if nil == globalData.machine {
		return "Stopped"
	}
	return globalData.machine.State()
}

// Process - the background process handle for the registry
func Process() background.Process {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.machine
}
