// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pipeline - drive a transaction from input selection to
// submission
//
// the store owns all state transitions; the pipeline only sequences
// them and talks to the prover and the node
package pipeline

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/accountcache"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/mode"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/prover"
	"github.com/keomprotocol/miden-client/remote"
	"github.com/keomprotocol/miden-client/store"
	"github.com/keomprotocol/miden-client/tracker"
	"github.com/keomprotocol/miden-client/txrecord"
)

// submission retry bounds
const (
	submitAttempts   = 3
	submitRetryDelay = 100 * time.Millisecond
)

// Pipeline - transaction lifecycle driver for one node connection
type Pipeline struct {
	log    *logger.L
	client remote.Client
	prover prover.Prover
	sel    Selector
}

// New - build a pipeline
//
// a nil selector gets the largest value first default
func New(client remote.Client, prv prover.Prover, sel Selector) *Pipeline {
	if nil == sel {
		sel = LargestFirst
	}
	return &Pipeline{
		log:    logger.New("pipeline"),
		client: client,
		prover: prv,
		sel:    sel,
	}
}

// Build - select inputs and record a new transaction
//
// the record and its input reservations commit atomically; a
// fault.NoteAlreadyReserved result means a concurrent builder won the
// inputs and selection must run again
//
// refused while the client is resynchronising: inputs must never be
// selected from a stale projection
func (p *Pipeline) Build(owner account.Identifier, assetId merkle.Digest, recipient merkle.Digest, amount uint64) (*txrecord.Record, error) {

	if mode.IsNot(mode.Normal) {
		return nil, fault.Synchronising
	}

	acc, err := accountcache.CurrentState(owner)
	if nil != err {
		return nil, err
	}

	spendable, err := tracker.Spendable(owner, assetId)
	if nil != err {
		return nil, err
	}

	selected, err := p.sel(spendable, amount)
	if nil != err {
		return nil, err
	}

	consumed := make([]merkle.Digest, len(selected))
	total := uint64(0)
	for i, n := range selected {
		consumed[i] = n.Id
		total += n.Value
	}

	// a custom selector may hand back less than was asked for
	if total < amount {
		return nil, fault.NoSpendableNotes
	}

	checkpoint, _, err := store.Checkpoint()
	if nil != err {
		return nil, err
	}

	txId := transactionId(owner, acc.SequenceNumber+1, consumed, recipient, amount)

	produced := []merkle.Digest{producedNoteId(txId, recipient, amount)}
	change := total - amount
	changeRecipient := merkle.NewDigest(owner.Bytes())
	if change > 0 {
		produced = append(produced, producedNoteId(txId, changeRecipient, change))
	}

	record := &txrecord.Record{
		Id:               txId,
		AccountId:        owner,
		ExpectedSequence: acc.SequenceNumber + 1,
		Consumed:         consumed,
		Produced:         produced,
		Status:           txrecord.Building,
		CreatedAt:        checkpoint,
	}

	err = store.InsertTransaction(record)
	if nil != err {
		return nil, err
	}

	// the change comes back to this account; track it as expected so a
	// later sync round can commit it
	if change > 0 {
		expected := &note.Note{
			Id:        produced[1],
			AssetId:   assetId,
			Value:     change,
			Recipient: changeRecipient,
			Owner:     owner,
			State:     note.Expected,
		}
		err = store.InsertNote(expected)
		if nil != err {
			p.log.Warnf("expected change note: %s  error: %s", expected.Id, err)
		}
	}

	p.log.Infof("built: %s  inputs: %d  amount: %d  change: %d", txId, len(consumed), amount, change)
	return record, nil
}

// Prove - obtain a proof for a building transaction
//
// a definitive prover rejection discards the transaction and releases
// its reservations; a transient failure leaves it building so the call
// can be repeated
func (p *Pipeline) Prove(ctx context.Context, txId merkle.Digest) error {

	record, err := store.GetTransaction(txId)
	if nil != err {
		return err
	}
	if txrecord.Building != record.Status {
		return fault.TransactionNotPending
	}

	proof, err := p.prover.Prove(ctx, &prover.Request{
		TxId:             record.Id,
		AccountId:        record.AccountId,
		ExpectedSequence: record.ExpectedSequence,
		Consumed:         record.Consumed,
		Produced:         record.Produced,
	})
	if prover.IsRejection(err) {
		p.log.Warnf("prove: %s  rejected: %s", txId, err)
		discardErr := store.DiscardTransaction(txId)
		if nil != discardErr {
			return discardErr
		}
		return fault.ProverRejected
	}
	if nil != err {
		return err
	}

	return store.SetProved(txId, proof)
}

// Submit - hand a proven transaction to the node
//
// the record moves to Submitted before the first wire attempt, so a
// crash mid-submit can never leave an accepted transaction looking
// abandoned; when every attempt fails the record stays Submitted and
// fault.SubmissionFailed tells the caller the outcome is unknown until
// synchronisation resolves it
func (p *Pipeline) Submit(txId merkle.Digest) error {

	if mode.IsNot(mode.Normal) {
		return fault.Synchronising
	}

	record, err := store.GetTransaction(txId)
	if nil != err {
		return err
	}
	if txrecord.Proved != record.Status {
		return fault.TransactionNotPending
	}

	checkpoint, _, err := store.Checkpoint()
	if nil != err {
		return err
	}

	err = store.SetSubmitted(txId, checkpoint)
	if nil != err {
		return err
	}

	payload := record.Pack()
	for attempt := 1; attempt <= submitAttempts; attempt += 1 {
		err = p.client.Submit(txId, payload)
		if nil == err {
			p.log.Infof("submitted: %s  attempt: %d", txId, attempt)
			return nil
		}
		p.log.Warnf("submit: %s  attempt: %d  error: %s", txId, attempt, err)
		if attempt < submitAttempts {
			time.Sleep(submitRetryDelay)
		}
	}
	return fault.SubmissionFailed
}

// Abandon - drop a transaction that has not reached the node
//
// a submitted transaction cannot be abandoned: the node may already
// hold it, so its outcome belongs to sync reconciliation
func (p *Pipeline) Abandon(txId merkle.Digest) error {

	record, err := store.GetTransaction(txId)
	if nil != err {
		return err
	}
	if txrecord.Building != record.Status && txrecord.Proved != record.Status {
		return fault.TransactionNotPending
	}
	return store.DiscardTransaction(txId)
}

// Transfer - the whole lifecycle in one call
func (p *Pipeline) Transfer(ctx context.Context, owner account.Identifier, assetId merkle.Digest, recipient merkle.Digest, amount uint64) (*txrecord.Record, error) {

	record, err := p.Build(owner, assetId, recipient, amount)
	if nil != err {
		return nil, err
	}

	err = p.Prove(ctx, record.Id)
	if nil != err {
		return nil, err
	}

	err = p.Submit(record.Id)
	if nil != err {
		return nil, err
	}
	return store.GetTransaction(record.Id)
}

// deterministic transaction identifier over the full intent
func transactionId(owner account.Identifier, sequence uint64, consumed []merkle.Digest, recipient merkle.Digest, amount uint64) merkle.Digest {

	buffer := make([]byte, 0, account.IdentifierLength+8+len(consumed)*merkle.DigestLength+merkle.DigestLength+8)
	buffer = append(buffer, owner.Bytes()...)
	buffer = appendUint64(buffer, sequence)
	for _, id := range consumed {
		buffer = append(buffer, id[:]...)
	}
	buffer = append(buffer, recipient[:]...)
	buffer = appendUint64(buffer, amount)
	return merkle.NewDigest(buffer)
}

// the note commitment the node derives for a produced note
func producedNoteId(txId merkle.Digest, recipient merkle.Digest, value uint64) merkle.Digest {

	buffer := make([]byte, 0, merkle.DigestLength+merkle.DigestLength+8)
	buffer = append(buffer, txId[:]...)
	buffer = append(buffer, recipient[:]...)
	buffer = appendUint64(buffer, value)
	return merkle.NewDigest(buffer)
}

func appendUint64(buffer []byte, value uint64) []byte {
	packed := make([]byte, 8)
	binary.BigEndian.PutUint64(packed, value)
	return append(buffer, packed...)
}
