// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/storage"
	"github.com/keomprotocol/miden-client/store"
)

// test database file
const (
	databaseFileName = "test.leveldb"
	logFileName      = "test.log"
)

// common test setup routines

// remove all files created by test
func removeFiles() {
	os.RemoveAll(databaseFileName)
	os.RemoveAll(logFileName)
}

// configure for testing
func setup(t *testing.T, horizon uint64) {
	removeFiles()

	_ = logger.Initialise(logger.Configuration{
		Directory: ".",
		File:      logFileName,
		Size:      50000,
		Count:     10,
	})

	reindex, err := storage.Initialise(databaseFileName, storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}

	err = store.Initialise(reindex, horizon)
	if nil != err {
		t.Fatalf("store initialise error: %s", err)
	}
}

// post test cleanup
func teardown(t *testing.T) {
	_ = store.Finalise()
	storage.Finalise()
	logger.Finalise()
	removeFiles()
}

// deterministic test identifiers

func testAccountId(seed int) account.Identifier {
	return account.NewIdentifier([]byte(fmt.Sprintf("account %d", seed)))
}

func testDigest(seed string) merkle.Digest {
	return merkle.NewDigest([]byte(seed))
}

func testAccount(seed int, sequence uint64) *account.Account {
	return &account.Account{
		Identifier:     testAccountId(seed),
		SequenceNumber: sequence,
		Commitment:     testDigest(fmt.Sprintf("commitment %d %d", seed, sequence)),
	}
}

func testNote(seed int, owner account.Identifier, value uint64, state note.State) *note.Note {
	return &note.Note{
		Id:        testDigest(fmt.Sprintf("note %d", seed)),
		AssetId:   testDigest("asset"),
		Value:     value,
		Recipient: testDigest(fmt.Sprintf("recipient %d", seed)),
		Owner:     owner,
		State:     state,
	}
}

// a chain of deltas with linked references, mirroring how the
// synchroniser hands verified batches to the store
type deltaChain struct {
	checkpoint uint64
	reference  merkle.Digest
}

func (c *deltaChain) next(accounts []*account.Account, notes []*note.Note) *store.Delta {
	c.checkpoint += 1
	previous := c.reference
	c.reference = testDigest(fmt.Sprintf("chain reference %d", c.checkpoint))
	return &store.Delta{
		Checkpoint: c.checkpoint,
		Previous:   previous,
		Reference:  c.reference,
		Accounts:   accounts,
		Notes:      notes,
	}
}

func mustApply(t *testing.T, delta *store.Delta) {
	err := store.ApplySyncDelta(delta)
	if nil != err {
		t.Fatalf("apply delta %d error: %s", delta.Checkpoint, err)
	}
}
