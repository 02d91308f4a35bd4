// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"encoding/binary"

	"github.com/mr-tron/base58"

	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
)

// IdentifierLength - number of bytes in an account identifier
const IdentifierLength = merkle.DigestLength

// Identifier - content-derived account identifier, immutable for the
// lifetime of the account
type Identifier [IdentifierLength]byte

// NewIdentifier - derive an identifier from initial account content
func NewIdentifier(content []byte) Identifier {
	return Identifier(merkle.NewDigest(content))
}

// Bytes - byte slice of the identifier
func (id Identifier) Bytes() []byte {
	return id[:]
}

// String - base58 encoding of the identifier
func (id Identifier) String() string {
	return base58.Encode(id[:])
}

// MarshalText - convert an identifier to its base58 JSON form
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText - convert base58 text into an identifier
func (id *Identifier) UnmarshalText(s []byte) error {
	buffer, err := base58.Decode(string(s))
	if nil != err {
		return err
	}
	if IdentifierLength != len(buffer) {
		return fault.InvalidRecordLength
	}
	copy(id[:], buffer)
	return nil
}

// Account - the locally projected state of one on-chain account
//
// SequenceNumber only ever moves forward; an update carrying a sequence
// number less than or equal to the stored one is stale and must be
// rejected at the store boundary
type Account struct {
	Identifier     Identifier    `json:"identifier"`
	SequenceNumber uint64        `json:"sequenceNumber,string"`
	Commitment     merkle.Digest `json:"commitment"`
	Tracked        bool          `json:"tracked"`
}

// structure of the packed account record
//
// identifier is the pool key so it is not repeated in the value
const (
	sequenceNumberStart  = 0
	sequenceNumberFinish = sequenceNumberStart + 8

	commitmentStart  = sequenceNumberFinish
	commitmentFinish = commitmentStart + merkle.DigestLength

	flagsStart  = commitmentFinish
	flagsFinish = flagsStart + 1

	// PackedLength - number of bytes in a packed account record
	PackedLength = flagsFinish
)

// flag bits
const (
	trackedFlag = 0x01
)

// Pack - binary record for pool storage
func (account *Account) Pack() []byte {

	buffer := make([]byte, PackedLength)
	binary.BigEndian.PutUint64(buffer[sequenceNumberStart:sequenceNumberFinish], account.SequenceNumber)
	copy(buffer[commitmentStart:commitmentFinish], account.Commitment[:])
	if account.Tracked {
		buffer[flagsStart] |= trackedFlag
	}
	return buffer
}

// Unpack - rebuild an account from its key and packed value
func Unpack(identifier Identifier, buffer []byte) (*Account, error) {

	if PackedLength != len(buffer) {
		return nil, fault.InvalidRecordLength
	}

	account := &Account{
		Identifier:     identifier,
		SequenceNumber: binary.BigEndian.Uint64(buffer[sequenceNumberStart:sequenceNumberFinish]),
		Tracked:        0 != buffer[flagsStart]&trackedFlag,
	}
	copy(account.Commitment[:], buffer[commitmentStart:commitmentFinish])
	return account, nil
}
