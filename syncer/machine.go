// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/mode"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/remote"
	"github.com/keomprotocol/miden-client/store"
)

// various limits
const (
	// whole-round retries after losing a sequence race
	retryLimit = 3

	// pause to limit node bandwidth
	fetchesPerSecond = 10
	fetchBurst       = 5
)

// Machine - the synchronisation state machine
//
// the mutex keeps rounds strictly sequential: the background timer
// cycle and a manual SyncOnce must never interleave their fetch and
// apply steps
type Machine struct {
	sync.Mutex
	log       *logger.L
	client    remote.Client
	verifier  merkle.Verifier
	limiter   *rate.Limiter
	interval  time.Duration
	batchSize int

	reply    *remote.DeltaReply // fetched batch awaiting application
	attempts int                // whole-round retries this cycle
	lastErr  error
	state
}

// NewMachine - build a synchroniser around one node connection
func NewMachine(client remote.Client, batchSize int, interval time.Duration) *Machine {
	m := &Machine{
		log:       logger.New("syncer"),
		client:    client,
		verifier:  merkle.NewVerifier(),
		limiter:   rate.NewLimiter(rate.Limit(fetchesPerSecond), fetchBurst),
		interval:  interval,
		batchSize: batchSize,
	}
	m.nextState(cStateIdle)
	return m
}

// Run - cycle the machine until shutdown
//
// the loop signature fits the background process registry
func (m *Machine) Run(_ interface{}, shutdown <-chan struct{}) {
	log := m.log
	log.Info("starting…")
	timer := time.After(m.interval)
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-timer:
			timer = time.After(m.interval)
			m.start()
		}
	}
	log.Info("shutting down…")
	log.Info("stopped")
}

// SyncOnce - run a single full round synchronously
//
// used at start up to catch up before serving callers, and by manual
// resynchronisation
func (m *Machine) SyncOnce() error {
	return m.start()
}

func (m *Machine) start() error {
	m.Lock()
	defer m.Unlock()

	m.lastErr = nil
	m.attempts = 0
	m.nextState(cStateFetching)
	for !m.transitions() {
	}
	return m.lastErr
}

func (m *Machine) nextState(s state) {
	m.state = s
}

// State - the name of the current machine state, for status display
func (m *Machine) State() string {
	return m.state.String()
}

func (m *Machine) transitions() bool {
	log := m.log
	log.Debugf("current state: %s", m.state)
	stop := false
	switch m.state {

	case cStateIdle:
		stop = true

	case cStateFetching:
		err := m.fetch()
		if nil != err {
			m.fault(err)
			break
		}
		m.nextState(cStateApplying)

	case cStateApplying:
		err := store.ApplySyncDelta(m.asStoreDelta())
		more := m.reply.More
		m.reply = nil

		if fault.StaleSequence == err {
			// lost a race against a local mutation: refetch the whole
			// round against the new local state
			m.attempts += 1
			if m.attempts > retryLimit {
				m.fault(err)
				break
			}
			log.Warnf("sequence race, retry: %d", m.attempts)
			m.nextState(cStateFetching)
			break
		}
		if nil != err {
			m.fault(err)
			break
		}

		if more {
			mode.Set(mode.Resynchronise)
			m.nextState(cStateFetching)
			break
		}
		mode.Set(mode.Normal)
		m.nextState(cStateIdle)

	case cStateFaulted:
		log.Errorf("round failed: %s", m.lastErr)
		m.nextState(cStateIdle)
		stop = true

	default:
		log.Criticalf("unexpected state: %s", m.state)
		m.nextState(cStateIdle)
		stop = true
	}
	return stop
}

func (m *Machine) fault(err error) {
	m.lastErr = err
	m.reply = nil
	m.nextState(cStateFaulted)
}

// request one batch after the stored checkpoint and verify every piece
// of evidence against the reply's chain reference
func (m *Machine) fetch() error {

	err := m.limiter.Wait(context.Background())
	if nil != err {
		return err
	}

	checkpoint, _, err := store.Checkpoint()
	if nil != err {
		return err
	}

	tags, err := store.NoteTags()
	if nil != err {
		return err
	}

	reply, err := m.client.FetchDelta(checkpoint, m.batchSize, tags)
	if nil != err {
		return err
	}

	err = m.verify(reply)
	if nil != err {
		return err
	}

	m.reply = reply
	return nil
}

// an unverifiable update poisons the whole batch: nothing from an
// untrusted reply may reach the store
func (m *Machine) verify(reply *remote.DeltaReply) error {

	for _, update := range reply.Accounts {
		leaf := remote.AccountLeaf(update.Account)
		if !m.verifier.VerifyInclusion(reply.Reference, leaf, update.Evidence.Path, update.Evidence.Index) {
			m.log.Warnf("untrusted account update: %s", update.Account.Identifier)
			return fault.UntrustedDelta
		}
	}
	for _, update := range reply.Notes {
		leaf := remote.NoteLeaf(update.Note)
		if !m.verifier.VerifyInclusion(reply.Reference, leaf, update.Evidence.Path, update.Evidence.Index) {
			m.log.Warnf("untrusted note update: %s", update.Note.Id)
			return fault.UntrustedDelta
		}
	}
	return nil
}

func (m *Machine) asStoreDelta() *store.Delta {

	accounts := []*account.Account(nil)
	for _, update := range m.reply.Accounts {
		accounts = append(accounts, update.Account)
	}
	notes := []*note.Note(nil)
	for _, update := range m.reply.Notes {
		notes = append(notes, update.Note)
	}
	return &store.Delta{
		Checkpoint: m.reply.Checkpoint,
		Previous:   m.reply.Previous,
		Reference:  m.reply.Reference,
		Accounts:   accounts,
		Notes:      notes,
	}
}
