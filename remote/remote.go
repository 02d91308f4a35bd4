// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package remote - typed access to a rollup node
//
// replies are untrusted input: every update carries inclusion evidence
// and the synchroniser verifies it before anything reaches the store
package remote

import (
	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
)

// Evidence - inclusion evidence for one update
type Evidence struct {
	Path  merkle.Path
	Index uint64
}

// AccountUpdate - one account observation with its evidence
type AccountUpdate struct {
	Account  *account.Account
	Evidence Evidence
}

// NoteUpdate - one note observation with its evidence
type NoteUpdate struct {
	Note     *note.Note
	Evidence Evidence
}

// DeltaReply - one batch of chain updates from the node
//
// Reference is the chain digest at Checkpoint and the root every
// evidence path must resolve to; Previous is the digest the node
// recorded at the requested starting checkpoint
//
// More is set when further batches exist beyond this checkpoint
type DeltaReply struct {
	Checkpoint uint64
	Previous   merkle.Digest
	Reference  merkle.Digest
	Accounts   []AccountUpdate
	Notes      []NoteUpdate
	More       bool
}

// AccountLeaf - the tree leaf committing one account observation
//
// both sides of the protocol derive leaves the same way; the
// synchroniser recomputes them when verifying evidence
func AccountLeaf(acc *account.Account) merkle.Digest {
	return merkle.NewDigest(append(acc.Identifier.Bytes(), acc.Pack()...))
}

// NoteLeaf - the tree leaf committing one note observation
func NoteLeaf(n *note.Note) merkle.Digest {
	return merkle.NewDigest(append(n.Id[:], n.Pack()...))
}

// Client - the node operations the client depends on
type Client interface {

	// FetchDelta - updates relevant to this client after a checkpoint
	//
	// tags scope the reply to notes the client monitors; an empty
	// list requests everything addressed to the client's accounts
	FetchDelta(since uint64, batchSize int, tags []uint64) (*DeltaReply, error)

	// Submit - hand a proven transaction to the node
	//
	// any failure is ambiguous: the node may have accepted the
	// transaction before the connection broke
	Submit(txId merkle.Digest, payload []byte) error

	// Close - release the connection
	Close() error
}
