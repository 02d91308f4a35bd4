// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txrecord - the local record of one transaction's lifecycle
//
// a record holds an exclusive reservation over every consumed note from
// reservation until it reaches a terminal status
package txrecord

import (
	"encoding/binary"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
)

// Record - a transaction lifecycle record
//
// CreatedAt and SubmittedAt are checkpoint heights, used for the
// reservation reclaim policy and the submission expiry horizon
type Record struct {
	Id               merkle.Digest      `json:"id"`
	AccountId        account.Identifier `json:"accountId"`
	ExpectedSequence uint64             `json:"expectedSequence,string"`
	Consumed         []merkle.Digest    `json:"consumed"`
	Produced         []merkle.Digest    `json:"produced"`
	Status           Status             `json:"status"`
	CreatedAt        uint64             `json:"createdAt,string"`
	SubmittedAt      uint64             `json:"submittedAt,string"`
	Proof            []byte             `json:"proof,omitempty"`
}

// fixed-size leading section of the packed record
const (
	recordAccountStart  = 0
	recordAccountFinish = recordAccountStart + account.IdentifierLength

	recordSequenceStart  = recordAccountFinish
	recordSequenceFinish = recordSequenceStart + 8

	recordStatusStart  = recordSequenceFinish
	recordStatusFinish = recordStatusStart + 1

	recordCreatedStart  = recordStatusFinish
	recordCreatedFinish = recordCreatedStart + 8

	recordSubmittedStart  = recordCreatedFinish
	recordSubmittedFinish = recordSubmittedStart + 8

	recordFixedLength = recordSubmittedFinish

	// counts and proof length are fixed-width to keep offsets simple
	countLength       = 2
	proofLengthLength = 4
)

// Pack - binary record for pool storage
//
// layout: fixed section ⧺ consumed count ⧺ consumed ids ⧺ produced
// count ⧺ produced ids ⧺ proof length ⧺ proof
func (record *Record) Pack() []byte {

	size := recordFixedLength +
		countLength + len(record.Consumed)*merkle.DigestLength +
		countLength + len(record.Produced)*merkle.DigestLength +
		proofLengthLength + len(record.Proof)

	buffer := make([]byte, recordFixedLength, size)
	copy(buffer[recordAccountStart:recordAccountFinish], record.AccountId[:])
	binary.BigEndian.PutUint64(buffer[recordSequenceStart:recordSequenceFinish], record.ExpectedSequence)
	buffer[recordStatusStart] = byte(record.Status)
	binary.BigEndian.PutUint64(buffer[recordCreatedStart:recordCreatedFinish], record.CreatedAt)
	binary.BigEndian.PutUint64(buffer[recordSubmittedStart:recordSubmittedFinish], record.SubmittedAt)

	buffer = appendDigests(buffer, record.Consumed)
	buffer = appendDigests(buffer, record.Produced)

	length := make([]byte, proofLengthLength)
	binary.BigEndian.PutUint32(length, uint32(len(record.Proof)))
	buffer = append(buffer, length...)
	buffer = append(buffer, record.Proof...)

	return buffer
}

func appendDigests(buffer []byte, digests []merkle.Digest) []byte {
	count := make([]byte, countLength)
	binary.BigEndian.PutUint16(count, uint16(len(digests)))
	buffer = append(buffer, count...)
	for _, d := range digests {
		buffer = append(buffer, d[:]...)
	}
	return buffer
}

// Unpack - rebuild a record from its key and packed value
func Unpack(id merkle.Digest, buffer []byte) (*Record, error) {

	if len(buffer) < recordFixedLength {
		return nil, fault.InvalidRecordLength
	}

	status := Status(buffer[recordStatusStart])
	if !status.IsValid() {
		return nil, fault.InvalidRecordLength
	}

	record := &Record{
		Id:               id,
		ExpectedSequence: binary.BigEndian.Uint64(buffer[recordSequenceStart:recordSequenceFinish]),
		Status:           status,
		CreatedAt:        binary.BigEndian.Uint64(buffer[recordCreatedStart:recordCreatedFinish]),
		SubmittedAt:      binary.BigEndian.Uint64(buffer[recordSubmittedStart:recordSubmittedFinish]),
	}
	copy(record.AccountId[:], buffer[recordAccountStart:recordAccountFinish])

	n := recordFixedLength

	consumed, n, err := readDigests(buffer, n)
	if nil != err {
		return nil, err
	}
	record.Consumed = consumed

	produced, n, err := readDigests(buffer, n)
	if nil != err {
		return nil, err
	}
	record.Produced = produced

	if len(buffer) < n+proofLengthLength {
		return nil, fault.InvalidRecordLength
	}
	proofLength := int(binary.BigEndian.Uint32(buffer[n : n+proofLengthLength]))
	n += proofLengthLength
	if len(buffer) != n+proofLength {
		return nil, fault.InvalidRecordLength
	}
	if proofLength > 0 {
		record.Proof = make([]byte, proofLength)
		copy(record.Proof, buffer[n:])
	}

	return record, nil
}

func readDigests(buffer []byte, n int) ([]merkle.Digest, int, error) {
	if len(buffer) < n+countLength {
		return nil, 0, fault.InvalidRecordLength
	}
	count := int(binary.BigEndian.Uint16(buffer[n : n+countLength]))
	n += countLength
	if len(buffer) < n+count*merkle.DigestLength {
		return nil, 0, fault.InvalidRecordLength
	}
	if 0 == count {
		return nil, n, nil
	}
	digests := make([]merkle.Digest, count)
	for i := 0; i < count; i += 1 {
		copy(digests[i][:], buffer[n:n+merkle.DigestLength])
		n += merkle.DigestLength
	}
	return digests, n, nil
}
