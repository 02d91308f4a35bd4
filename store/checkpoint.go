// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/storage"
)

// keys in the c pool
var (
	checkpointKey    = []byte("height")
	checkpointRefKey = []byte("reference")
)

// Checkpoint - the current sync checkpoint
//
// the boolean is false for a fresh database that has never synchronised
func Checkpoint() (uint64, bool, error) {
	if !globalData.initialised {
		return 0, false, fault.NotInitialised
	}

	height, ok := storage.Pool.Checkpoint.GetN(checkpointKey)
	return height, ok, nil
}

// CheckpointReference - the chain digest recorded at the checkpoint
//
// a remote delta whose previous reference differs signals chain
// divergence
func CheckpointReference() (merkle.Digest, error) {
	var reference merkle.Digest
	if !globalData.initialised {
		return reference, fault.NotInitialised
	}

	packed := storage.Pool.Checkpoint.Get(checkpointRefKey)
	if nil == packed {
		return reference, nil
	}
	err := merkle.DigestFromBytes(&reference, packed)
	return reference, err
}
