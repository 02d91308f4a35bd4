// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

// a state type for the thread
type state int

// state of the synchroniser process
const (
	// waiting for the next cycle
	cStateIdle state = iota

	// request the next delta batch from the node
	cStateFetching state = iota

	// apply a verified batch to the store
	cStateApplying state = iota

	// an unrecoverable condition was observed this round
	cStateFaulted state = iota
)

func (state state) String() string {
	switch state {
	case cStateIdle:
		return "Idle"
	case cStateFetching:
		return "Fetching"
	case cStateApplying:
		return "Applying"
	case cStateFaulted:
		return "Faulted"
	default:
		return "*Unknown*"
	}
}
