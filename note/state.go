// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package note

import (
	"github.com/keomprotocol/miden-client/fault"
)

// State - the lifecycle state flag byte
type State byte

// state codes for flag byte
const (
	// created locally, not yet observed on chain
	Expected State = iota

	// observed on chain and spendable
	CommittedUnspent State = iota

	// observed on chain and consumed
	CommittedSpent State = iota

	// locally reserved for an in-flight transaction, not yet confirmed
	ConsumedPending State = iota

	// end of list (one greater than last item)
	stateLimit State = iota
)

// the central transition table
//
// the store rejects anything not listed here; callers are never trusted
// to transition notes directly
var transitions = [stateLimit][stateLimit]bool{
	Expected: {
		CommittedUnspent: true, // observed by sync
	},
	CommittedUnspent: {
		ConsumedPending: true, // reserved for a local transaction
		CommittedSpent:  true, // confirmed consumption arriving via sync
	},
	ConsumedPending: {
		CommittedSpent:   true, // consuming transaction confirmed
		CommittedUnspent: true, // consuming transaction abandoned or rejected
	},
	CommittedSpent: {}, // terminal
}

// CanTransitionTo - check a single lifecycle transition
func (state State) CanTransitionTo(next State) bool {
	if state >= stateLimit || next >= stateLimit {
		return false
	}
	return transitions[state][next]
}

// IsValid - range check for values read from storage
func (state State) IsValid() bool {
	return state < stateLimit
}

// internal conversion
func toString(state State) ([]byte, error) {
	switch state {
	case Expected:
		return []byte("Expected"), nil
	case CommittedUnspent:
		return []byte("CommittedUnspent"), nil
	case CommittedSpent:
		return []byte("CommittedSpent"), nil
	case ConsumedPending:
		return []byte("ConsumedPending"), nil
	default:
		return []byte{}, fault.IllegalNoteTransition
	}
}

// String - convert a state to its string symbol
func (state State) String() string {
	s, err := toString(state)
	if nil != err {
		return "*Unknown*"
	}
	return string(s)
}

// MarshalText - convert state to text
func (state State) MarshalText() ([]byte, error) {
	return toString(state)
}
