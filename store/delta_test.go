// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/storage"
	"github.com/keomprotocol/miden-client/store"
)

func TestApplyDeltaAdvancesCheckpoint(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	owner := testAccountId(1)
	chain := deltaChain{}

	mustApply(t, chain.next(
		[]*account.Account{testAccount(1, 1)},
		[]*note.Note{
			testNote(1, owner, 100, note.CommittedUnspent),
			testNote(2, owner, 250, note.CommittedUnspent),
		},
	))

	checkpoint, synchronised, err := store.Checkpoint()
	assert.Nil(t, err, "checkpoint error")
	assert.True(t, synchronised, "checkpoint missing after delta")
	assert.Equal(t, uint64(1), checkpoint, "wrong checkpoint")

	acc, err := store.GetAccount(testAccountId(1))
	assert.Nil(t, err, "get account error")
	assert.Equal(t, uint64(1), acc.SequenceNumber, "wrong sequence number")

	spendable, err := store.SpendableNotes(owner, merkle.Digest{})
	assert.Nil(t, err, "spendable notes error")
	assert.Equal(t, 2, len(spendable), "wrong spendable count")
}

func TestReadersIgnoreOpenBatch(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	owner := testAccountId(1)
	n := testNote(1, owner, 777, note.CommittedUnspent)

	// a half-applied batch: the note is written but nothing committed
	trx, err := storage.NewDBTransaction()
	assert.Nil(t, err, "transaction begin error")
	trx.Put(storage.Pool.Notes, n.Id[:], n.Pack())

	_, err = store.GetNote(n.Id)
	assert.Equal(t, fault.NoteNotFound, err, "uncommitted note visible to reader")

	_, synchronised, err := store.Checkpoint()
	assert.Nil(t, err, "checkpoint error")
	assert.False(t, synchronised, "checkpoint moved by an open batch")

	spendable, err := store.SpendableNotes(owner, merkle.Digest{})
	assert.Nil(t, err, "spendable notes error")
	assert.Equal(t, 0, len(spendable), "uncommitted note spendable")

	trx.Abort()

	_, err = store.GetNote(n.Id)
	assert.Equal(t, fault.NoteNotFound, err, "aborted note visible to reader")
}

func TestApplyDeltaIdempotent(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	owner := testAccountId(1)
	chain := deltaChain{}

	delta := chain.next(nil, []*note.Note{testNote(1, owner, 100, note.CommittedUnspent)})
	mustApply(t, delta)

	// a completed re-delivery is ignored without error
	err := store.ApplySyncDelta(delta)
	assert.Nil(t, err, "re-apply error")

	checkpoint, _, err := store.Checkpoint()
	assert.Nil(t, err, "checkpoint error")
	assert.Equal(t, uint64(1), checkpoint, "checkpoint moved on re-apply")
}

func TestApplyDeltaBelowCheckpoint(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	chain := deltaChain{}
	first := chain.next(nil, nil)
	mustApply(t, first)
	mustApply(t, chain.next(nil, nil))

	stale := *first
	stale.Reference = testDigest("some other reference")
	err := store.ApplySyncDelta(&stale)
	assert.Equal(t, fault.CheckpointMismatch, err, "stale delta accepted")
}

func TestApplyDeltaDivergence(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	chain := deltaChain{}
	mustApply(t, chain.next(nil, nil))

	diverged := chain.next(nil, nil)
	diverged.Previous = testDigest("a different history")
	err := store.ApplySyncDelta(diverged)
	assert.Equal(t, fault.ChainDivergence, err, "diverged delta accepted")

	checkpoint, _, err := store.Checkpoint()
	assert.Nil(t, err, "checkpoint error")
	assert.Equal(t, uint64(1), checkpoint, "checkpoint moved on divergence")
}

func TestApplyDeltaStaleSequenceIsAtomic(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	owner := testAccountId(1)
	chain := deltaChain{}
	mustApply(t, chain.next([]*account.Account{testAccount(1, 5)}, nil))

	// equal sequence number: the whole delta is rejected, including the
	// note it carries
	bad := chain.next(
		[]*account.Account{testAccount(1, 5)},
		[]*note.Note{testNote(1, owner, 100, note.CommittedUnspent)},
	)
	err := store.ApplySyncDelta(bad)
	assert.Equal(t, fault.StaleSequence, err, "stale sequence accepted")

	checkpoint, _, err := store.Checkpoint()
	assert.Nil(t, err, "checkpoint error")
	assert.Equal(t, uint64(1), checkpoint, "checkpoint moved on rejected delta")

	_, err = store.GetNote(testDigest("note 1"))
	assert.Equal(t, fault.NoteNotFound, err, "note applied from rejected delta")
}

func TestApplyDeltaPreservesTrackedFlag(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	tracked := testAccount(1, 1)
	tracked.Tracked = true
	err := store.InsertAccount(tracked)
	assert.Nil(t, err, "insert account error")

	chain := deltaChain{}
	mustApply(t, chain.next([]*account.Account{testAccount(1, 2)}, nil))

	acc, err := store.GetAccount(testAccountId(1))
	assert.Nil(t, err, "get account error")
	assert.Equal(t, uint64(2), acc.SequenceNumber, "wrong sequence number")
	assert.True(t, acc.Tracked, "tracked flag lost on remote update")
}

func TestApplyDeltaCommitsExpectedNote(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	owner := testAccountId(1)
	expected := testNote(1, owner, 100, note.Expected)
	err := store.InsertNote(expected)
	assert.Nil(t, err, "insert note error")

	spendable, err := store.SpendableNotes(owner, merkle.Digest{})
	assert.Nil(t, err, "spendable notes error")
	assert.Equal(t, 0, len(spendable), "expected note already spendable")

	chain := deltaChain{}
	mustApply(t, chain.next(nil, []*note.Note{testNote(1, owner, 100, note.CommittedUnspent)}))

	n, err := store.GetNote(expected.Id)
	assert.Nil(t, err, "get note error")
	assert.Equal(t, note.CommittedUnspent, n.State, "wrong state after commit")
	assert.Equal(t, uint64(1), n.CommitHeight, "wrong commit height")

	spendable, err = store.SpendableNotes(owner, merkle.Digest{})
	assert.Nil(t, err, "spendable notes error")
	assert.Equal(t, 1, len(spendable), "committed note not spendable")
}

func TestApplyDeltaIllegalTransition(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	owner := testAccountId(1)
	chain := deltaChain{}
	mustApply(t, chain.next(nil, []*note.Note{testNote(1, owner, 100, note.CommittedSpent)}))

	// spent is terminal; a later unspent observation is illegal
	err := store.ApplySyncDelta(chain.next(nil, []*note.Note{testNote(1, owner, 100, note.CommittedUnspent)}))
	assert.Equal(t, fault.IllegalNoteTransition, err, "resurrected note accepted")
}

func TestApplyDeltaKeepsLocalReservation(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	owner := testAccountId(1)
	chain := deltaChain{}
	mustApply(t, chain.next(nil, []*note.Note{testNote(1, owner, 100, note.CommittedUnspent)}))

	txId := testDigest("transaction 1")
	err := store.ReserveNotes(txId, []merkle.Digest{testDigest("note 1")})
	assert.Nil(t, err, "reserve error")

	// a re-observation of the same unspent note must not clear the
	// local reservation
	mustApply(t, chain.next(nil, []*note.Note{testNote(1, owner, 100, note.CommittedUnspent)}))

	n, err := store.GetNote(testDigest("note 1"))
	assert.Nil(t, err, "get note error")
	assert.Equal(t, note.ConsumedPending, n.State, "reservation lost on re-observation")
	assert.Equal(t, txId, n.ReservedBy, "reserving transaction lost")
}

func TestSubscribeReceivesDeltaEvent(t *testing.T) {
	setup(t, 0)
	defer teardown(t)

	queue, cancel := store.Subscribe()
	defer cancel()

	owner := testAccountId(1)
	chain := deltaChain{}
	mustApply(t, chain.next(
		[]*account.Account{testAccount(1, 1)},
		[]*note.Note{testNote(1, owner, 100, note.CommittedUnspent)},
	))

	event := <-queue
	assert.Equal(t, uint64(1), event.Checkpoint, "wrong event checkpoint")
	assert.Equal(t, []account.Identifier{testAccountId(1)}, event.Accounts, "wrong event accounts")
	assert.Equal(t, []merkle.Digest{testDigest("note 1")}, event.Notes, "wrong event notes")
}
