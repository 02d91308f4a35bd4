// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package remote

import (
	"encoding/binary"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
)

// wire commands
const (
	commandDelta  = "delta"
	commandSubmit = "submit"
	replyError    = "error"
	replyOK       = "ok"
)

// fixed wire sizes
const (
	headerLength    = 8 + merkle.DigestLength + merkle.DigestLength + 1
	evidenceMinimum = 8 + 2
	countLength     = 2
)

// PackDeltaRequest - encode a delta fetch request
//
// payload layout: since ⧺ batch size ⧺ tag count ⧺ tags
func PackDeltaRequest(since uint64, batchSize int, tags []uint64) []byte {
	buffer := make([]byte, 8+countLength+countLength, 8+countLength+countLength+8*len(tags))
	binary.BigEndian.PutUint64(buffer[:8], since)
	binary.BigEndian.PutUint16(buffer[8:], uint16(batchSize))
	binary.BigEndian.PutUint16(buffer[8+countLength:], uint16(len(tags)))
	for _, tag := range tags {
		entry := make([]byte, 8)
		binary.BigEndian.PutUint64(entry, tag)
		buffer = append(buffer, entry...)
	}
	return buffer
}

// UnpackDeltaRequest - decode a delta fetch request
//
// the node side of the protocol; also used by tests and the local
// loopback node
func UnpackDeltaRequest(buffer []byte) (uint64, int, []uint64, error) {
	if len(buffer) < 8+countLength+countLength {
		return 0, 0, nil, fault.InvalidRecordLength
	}
	since := binary.BigEndian.Uint64(buffer[:8])
	batchSize := int(binary.BigEndian.Uint16(buffer[8:]))
	count := int(binary.BigEndian.Uint16(buffer[8+countLength:]))
	n := 8 + countLength + countLength
	if len(buffer) != n+8*count {
		return 0, 0, nil, fault.InvalidRecordLength
	}
	tags := []uint64(nil)
	for i := 0; i < count; i += 1 {
		tags = append(tags, binary.BigEndian.Uint64(buffer[n:n+8]))
		n += 8
	}
	return since, batchSize, tags, nil
}

// header frame: checkpoint ⧺ previous ⧺ reference ⧺ more flag
func unpackHeader(reply *DeltaReply, buffer []byte) error {
	if headerLength != len(buffer) {
		return fault.InvalidRecordLength
	}
	reply.Checkpoint = binary.BigEndian.Uint64(buffer[:8])
	n := 8
	copy(reply.Previous[:], buffer[n:n+merkle.DigestLength])
	n += merkle.DigestLength
	copy(reply.Reference[:], buffer[n:n+merkle.DigestLength])
	n += merkle.DigestLength
	reply.More = 0 != buffer[n]
	return nil
}

// evidence entry: index ⧺ path count ⧺ path digests
func unpackEvidence(buffer []byte) (Evidence, int, error) {
	evidence := Evidence{}
	if len(buffer) < evidenceMinimum {
		return evidence, 0, fault.InvalidEvidence
	}
	evidence.Index = binary.BigEndian.Uint64(buffer[:8])
	count := int(binary.BigEndian.Uint16(buffer[8:10]))
	n := evidenceMinimum
	if len(buffer) < n+count*merkle.DigestLength {
		return evidence, 0, fault.InvalidEvidence
	}
	if 0 == count {
		return evidence, n, nil
	}
	evidence.Path = make(merkle.Path, count)
	for i := 0; i < count; i += 1 {
		copy(evidence.Path[i][:], buffer[n:n+merkle.DigestLength])
		n += merkle.DigestLength
	}
	return evidence, n, nil
}

// accounts frame: count ⧺ (identifier ⧺ packed account ⧺ evidence)…
func unpackAccounts(buffer []byte) ([]AccountUpdate, error) {
	if len(buffer) < countLength {
		return nil, fault.InvalidRecordLength
	}
	count := int(binary.BigEndian.Uint16(buffer[:countLength]))
	n := countLength

	updates := []AccountUpdate(nil)
	for i := 0; i < count; i += 1 {

		if len(buffer) < n+account.IdentifierLength+account.PackedLength {
			return nil, fault.InvalidRecordLength
		}

		var id account.Identifier
		copy(id[:], buffer[n:n+account.IdentifierLength])
		n += account.IdentifierLength

		acc, err := account.Unpack(id, buffer[n:n+account.PackedLength])
		if nil != err {
			return nil, err
		}
		n += account.PackedLength

		evidence, used, err := unpackEvidence(buffer[n:])
		if nil != err {
			return nil, err
		}
		n += used

		updates = append(updates, AccountUpdate{
			Account:  acc,
			Evidence: evidence,
		})
	}
	if n != len(buffer) {
		return nil, fault.InvalidRecordLength
	}
	return updates, nil
}

// notes frame: count ⧺ (note id ⧺ packed note ⧺ evidence)…
func unpackNotes(buffer []byte) ([]NoteUpdate, error) {
	if len(buffer) < countLength {
		return nil, fault.InvalidRecordLength
	}
	count := int(binary.BigEndian.Uint16(buffer[:countLength]))
	n := countLength

	updates := []NoteUpdate(nil)
	for i := 0; i < count; i += 1 {

		if len(buffer) < n+merkle.DigestLength+note.PackedLength {
			return nil, fault.InvalidRecordLength
		}

		var id merkle.Digest
		copy(id[:], buffer[n:n+merkle.DigestLength])
		n += merkle.DigestLength

		record, err := note.Unpack(id, buffer[n:n+note.PackedLength])
		if nil != err {
			return nil, err
		}
		n += note.PackedLength

		evidence, used, err := unpackEvidence(buffer[n:])
		if nil != err {
			return nil, err
		}
		n += used

		updates = append(updates, NoteUpdate{
			Note:     record,
			Evidence: evidence,
		})
	}
	if n != len(buffer) {
		return nil, fault.InvalidRecordLength
	}
	return updates, nil
}

// UnpackDeltaReply - decode the three payload frames of a delta reply
func UnpackDeltaReply(frames [][]byte) (*DeltaReply, error) {
	if 3 != len(frames) {
		return nil, fault.InvalidRecordLength
	}

	reply := &DeltaReply{}
	err := unpackHeader(reply, frames[0])
	if nil != err {
		return nil, err
	}
	reply.Accounts, err = unpackAccounts(frames[1])
	if nil != err {
		return nil, err
	}
	reply.Notes, err = unpackNotes(frames[2])
	if nil != err {
		return nil, err
	}
	return reply, nil
}

// PackDeltaReply - encode a reply into its three payload frames
//
// the node side of the protocol; also used by tests and the local
// loopback node
func PackDeltaReply(reply *DeltaReply) [][]byte {

	header := make([]byte, headerLength)
	binary.BigEndian.PutUint64(header[:8], reply.Checkpoint)
	n := 8
	copy(header[n:], reply.Previous[:])
	n += merkle.DigestLength
	copy(header[n:], reply.Reference[:])
	n += merkle.DigestLength
	if reply.More {
		header[n] = 1
	}

	accounts := packCount(len(reply.Accounts))
	for _, update := range reply.Accounts {
		accounts = append(accounts, update.Account.Identifier.Bytes()...)
		accounts = append(accounts, update.Account.Pack()...)
		accounts = appendEvidence(accounts, update.Evidence)
	}

	notes := packCount(len(reply.Notes))
	for _, update := range reply.Notes {
		notes = append(notes, update.Note.Id[:]...)
		notes = append(notes, update.Note.Pack()...)
		notes = appendEvidence(notes, update.Evidence)
	}

	return [][]byte{header, accounts, notes}
}

func packCount(count int) []byte {
	buffer := make([]byte, countLength)
	binary.BigEndian.PutUint16(buffer, uint16(count))
	return buffer
}

func appendEvidence(buffer []byte, evidence Evidence) []byte {
	entry := make([]byte, evidenceMinimum)
	binary.BigEndian.PutUint64(entry[:8], evidence.Index)
	binary.BigEndian.PutUint16(entry[8:], uint16(len(evidence.Path)))
	buffer = append(buffer, entry...)
	for _, digest := range evidence.Path {
		buffer = append(buffer, digest[:]...)
	}
	return buffer
}
