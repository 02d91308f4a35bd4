// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package prover - delegated proof generation
//
// proof generation is the expensive step of the transaction pipeline
// and runs outside the client; only the interface and its failure
// contract live here
package prover

import (
	"context"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/merkle"
)

// Request - everything the prover needs for one transaction
type Request struct {
	TxId             merkle.Digest
	AccountId        account.Identifier
	ExpectedSequence uint64
	Consumed         []merkle.Digest
	Produced         []merkle.Digest
}

// Rejection - a definitive refusal from the prover
//
// a rejection is terminal for the transaction; transport failures are
// returned as ordinary errors and may be retried
type Rejection struct {
	Reason string
}

// Error - the error interface
func (r *Rejection) Error() string {
	return "prover rejected: " + r.Reason
}

// IsRejection - separate definitive refusals from transient failures
func IsRejection(err error) bool {
	_, ok := err.(*Rejection)
	return ok
}

// Prover - proof generation for one transaction request
type Prover interface {

	// Prove - produce the proof bytes for a request
	//
	// returns *Rejection when the prover definitively refuses the
	// request; any other error is transient
	Prove(ctx context.Context, request *Request) ([]byte, error)
}
