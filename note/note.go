// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package note - a unit of transferable value addressed to a recipient
// commitment, consumed exactly once when spent
//
// lifecycle transitions are centralised in the State transition table and
// enforced at the store boundary
package note

import (
	"encoding/binary"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
)

// Note - a locally projected note record
//
// ReservedBy is the zero digest unless State is ConsumedPending, in which
// case it names the reserving transaction
type Note struct {
	Id           merkle.Digest      `json:"id"`
	AssetId      merkle.Digest      `json:"assetId"`
	Value        uint64             `json:"value,string"`
	Recipient    merkle.Digest      `json:"recipient"`
	Owner        account.Identifier `json:"owner"`
	State        State              `json:"state"`
	ReservedBy   merkle.Digest      `json:"reservedBy,omitempty"`
	CommitHeight uint64             `json:"commitHeight,string"`
}

// structure of the packed note record
//
// the note id is the pool key so it is not repeated in the value
const (
	assetIdStart  = 0
	assetIdFinish = assetIdStart + merkle.DigestLength

	valueStart  = assetIdFinish
	valueFinish = valueStart + 8

	recipientStart  = valueFinish
	recipientFinish = recipientStart + merkle.DigestLength

	ownerStart  = recipientFinish
	ownerFinish = ownerStart + account.IdentifierLength

	stateStart  = ownerFinish
	stateFinish = stateStart + 1

	reservedByStart  = stateFinish
	reservedByFinish = reservedByStart + merkle.DigestLength

	commitHeightStart  = reservedByFinish
	commitHeightFinish = commitHeightStart + 8

	// PackedLength - number of bytes in a packed note record
	PackedLength = commitHeightFinish
)

// Pack - binary record for pool storage
func (note *Note) Pack() []byte {

	buffer := make([]byte, PackedLength)
	copy(buffer[assetIdStart:assetIdFinish], note.AssetId[:])
	binary.BigEndian.PutUint64(buffer[valueStart:valueFinish], note.Value)
	copy(buffer[recipientStart:recipientFinish], note.Recipient[:])
	copy(buffer[ownerStart:ownerFinish], note.Owner[:])
	buffer[stateStart] = byte(note.State)
	copy(buffer[reservedByStart:reservedByFinish], note.ReservedBy[:])
	binary.BigEndian.PutUint64(buffer[commitHeightStart:commitHeightFinish], note.CommitHeight)
	return buffer
}

// Unpack - rebuild a note from its key and packed value
func Unpack(id merkle.Digest, buffer []byte) (*Note, error) {

	if PackedLength != len(buffer) {
		return nil, fault.InvalidRecordLength
	}

	state := State(buffer[stateStart])
	if !state.IsValid() {
		return nil, fault.IllegalNoteTransition
	}

	note := &Note{
		Id:           id,
		Value:        binary.BigEndian.Uint64(buffer[valueStart:valueFinish]),
		State:        state,
		CommitHeight: binary.BigEndian.Uint64(buffer[commitHeightStart:commitHeightFinish]),
	}
	copy(note.AssetId[:], buffer[assetIdStart:assetIdFinish])
	copy(note.Recipient[:], buffer[recipientStart:recipientFinish])
	copy(note.Owner[:], buffer[ownerStart:ownerFinish])
	copy(note.ReservedBy[:], buffer[reservedByStart:reservedByFinish])
	return note, nil
}
