// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txrecord

import (
	"github.com/keomprotocol/miden-client/fault"
)

// Status - the transaction lifecycle flag byte
type Status byte

// status codes for flag byte
const (
	Building  Status = iota
	Proved    Status = iota
	Submitted Status = iota
	Confirmed Status = iota
	Discarded Status = iota

	// end of list (one greater than last item)
	statusLimit Status = iota
)

// legal status transitions
//
// Confirmed and Discarded are terminal; Confirmed is only ever reached
// from Submitted once chain effects are known
var statusTransitions = [statusLimit][statusLimit]bool{
	Building: {
		Proved:    true,
		Discarded: true, // prover rejection or explicit abandon
	},
	Proved: {
		Submitted: true,
		Discarded: true,
	},
	Submitted: {
		Confirmed: true, // effects observed on chain
		Discarded: true, // expiry horizon passed with no observed effect
	},
	Confirmed: {},
	Discarded: {},
}

// CanTransitionTo - check a single status transition
func (status Status) CanTransitionTo(next Status) bool {
	if status >= statusLimit || next >= statusLimit {
		return false
	}
	return statusTransitions[status][next]
}

// IsValid - range check for values read from storage
func (status Status) IsValid() bool {
	return status < statusLimit
}

// IsPending - true while the record holds note reservations
func (status Status) IsPending() bool {
	switch status {
	case Building, Proved, Submitted:
		return true
	default:
		return false
	}
}

// internal conversion
func toString(status Status) ([]byte, error) {
	switch status {
	case Building:
		return []byte("Building"), nil
	case Proved:
		return []byte("Proved"), nil
	case Submitted:
		return []byte("Submitted"), nil
	case Confirmed:
		return []byte("Confirmed"), nil
	case Discarded:
		return []byte("Discarded"), nil
	default:
		return []byte{}, fault.TransactionNotPending
	}
}

// String - convert a status to its string symbol
func (status Status) String() string {
	s, err := toString(status)
	if nil != err {
		return "*Unknown*"
	}
	return string(s)
}

// MarshalText - convert status to text
func (status Status) MarshalText() ([]byte, error) {
	return toString(status)
}
