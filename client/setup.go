// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package client - assemble the whole client from its subsystems
//
// initialisation order follows the dependency chain: storage, store,
// caches, node connection, synchroniser, pipeline, background processes;
// finalisation runs it backwards
package client

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/keomprotocol/miden-client/accountcache"
	"github.com/keomprotocol/miden-client/background"
	"github.com/keomprotocol/miden-client/configuration"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/mode"
	"github.com/keomprotocol/miden-client/pipeline"
	"github.com/keomprotocol/miden-client/prover"
	"github.com/keomprotocol/miden-client/remote"
	"github.com/keomprotocol/miden-client/storage"
	"github.com/keomprotocol/miden-client/store"
	"github.com/keomprotocol/miden-client/syncer"
)

var globalData struct {
	sync.RWMutex
	log       *logger.L
	node      remote.Client
	ownedNode bool
	pipe      *pipeline.Pipeline
	processes *background.T

	// set once during initialise
	initialised bool
}

// Initialise - bring up every subsystem and start the background
// processes
//
// a nil node dials the configured endpoint; passing one in is for tests
// and embedded deployments that manage their own connection
func Initialise(cfg *configuration.Configuration, node remote.Client, prv prover.Prover) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("client")
	globalData.log.Info("starting…")

	err := mode.Initialise()
	if nil != err {
		return err
	}

	reindex, err := storage.Initialise(cfg.Database, storage.ReadWrite)
	if nil != err {
		return err
	}

	err = store.Initialise(reindex, cfg.Sync.Horizon)
	if nil != err {
		return err
	}

	err = accountcache.Initialise(0)
	if nil != err {
		return err
	}

	if nil == node {
		node, err = remote.NewZmqClient(cfg.Node.Endpoint, cfg.Node.Timeout)
		if nil != err {
			return err
		}
		globalData.ownedNode = true
	}
	globalData.node = node

	err = syncer.Initialise(node, cfg.Sync.BatchSize, cfg.Sync.Interval)
	if nil != err {
		return err
	}

	globalData.pipe = pipeline.New(node, prv, nil)

	// catch up before serving callers; a failed first round is not
	// fatal, the background synchroniser keeps trying
	err = syncer.SyncOnce()
	if nil != err {
		globalData.log.Warnf("initial sync: %s", err)
	}

	processes := background.Processes{
		syncer.Process(),
	}
	if cfg.Reservation.Timeout > 0 {
		processes = append(processes, &reclaimer{
			log:      logger.New("reclaimer"),
			maxAge:   cfg.Reservation.Timeout,
			interval: cfg.Reservation.SweepInterval,
		})
	}
	globalData.processes = background.Start(processes, nil)

	globalData.initialised = true

	return nil
}

// Finalise - stop the background processes and shut everything down
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")

	globalData.processes.Stop()
	_ = syncer.Finalise()
	if globalData.ownedNode {
		_ = globalData.node.Close()
	}
	_ = accountcache.Finalise()
	_ = store.Finalise()
	storage.Finalise()
	_ = mode.Finalise()

	globalData.node = nil
	globalData.ownedNode = false
	globalData.pipe = nil
	globalData.processes = nil
	globalData.initialised = false

	globalData.log.Flush()
	return nil
}

// Pipeline - the transaction pipeline
func Pipeline() *pipeline.Pipeline {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.pipe
}

// Node - the node connection in use
func Node() remote.Client {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.node
}
