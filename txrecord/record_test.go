// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txrecord_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/txrecord"
)

func TestStatusTransitions(t *testing.T) {

	testList := []struct {
		from     txrecord.Status
		to       txrecord.Status
		expected bool
	}{
		{txrecord.Building, txrecord.Proved, true},
		{txrecord.Building, txrecord.Discarded, true},
		{txrecord.Building, txrecord.Submitted, false},
		{txrecord.Building, txrecord.Confirmed, false},
		{txrecord.Proved, txrecord.Submitted, true},
		{txrecord.Proved, txrecord.Discarded, true},
		{txrecord.Proved, txrecord.Confirmed, false},
		{txrecord.Submitted, txrecord.Confirmed, true},
		{txrecord.Submitted, txrecord.Discarded, true},
		{txrecord.Submitted, txrecord.Building, false},
		{txrecord.Confirmed, txrecord.Discarded, false},
		{txrecord.Discarded, txrecord.Building, false},
	}

	for i, item := range testList {
		actual := item.from.CanTransitionTo(item.to)
		if item.expected != actual {
			t.Errorf("%d: transition %s → %s: %v  expected: %v",
				i, item.from, item.to, actual, item.expected)
		}
	}
}

func TestStatusPending(t *testing.T) {

	assert.True(t, txrecord.Building.IsPending(), "Building not pending")
	assert.True(t, txrecord.Proved.IsPending(), "Proved not pending")
	assert.True(t, txrecord.Submitted.IsPending(), "Submitted not pending")
	assert.False(t, txrecord.Confirmed.IsPending(), "Confirmed pending")
	assert.False(t, txrecord.Discarded.IsPending(), "Discarded pending")
}

func TestRecordPack(t *testing.T) {

	record := &txrecord.Record{
		Id:               merkle.NewDigest([]byte("transaction one")),
		AccountId:        account.NewIdentifier([]byte("alpha account")),
		ExpectedSequence: 6,
		Consumed: []merkle.Digest{
			merkle.NewDigest([]byte("note one")),
			merkle.NewDigest([]byte("note two")),
		},
		Produced: []merkle.Digest{
			merkle.NewDigest([]byte("note three")),
		},
		Status:      txrecord.Submitted,
		CreatedAt:   100,
		SubmittedAt: 102,
		Proof:       []byte("opaque proved artifact"),
	}

	back, err := txrecord.Unpack(record.Id, record.Pack())
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, record, back, "wrong record round trip")
}

func TestRecordPackEmpty(t *testing.T) {

	record := &txrecord.Record{
		Id:        merkle.NewDigest([]byte("transaction two")),
		AccountId: account.NewIdentifier([]byte("alpha account")),
		Status:    txrecord.Building,
		CreatedAt: 7,
	}

	back, err := txrecord.Unpack(record.Id, record.Pack())
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, record, back, "wrong record round trip")
}

func TestRecordUnpackRejects(t *testing.T) {

	id := merkle.NewDigest([]byte("transaction"))

	_, err := txrecord.Unpack(id, []byte{0x00, 0x01})
	assert.NotNil(t, err, "short record unexpectedly unpacked")

	record := &txrecord.Record{
		Id:     id,
		Status: txrecord.Proved,
		Proof:  []byte("proof"),
	}
	packed := record.Pack()

	// truncated proof
	_, err = txrecord.Unpack(id, packed[:len(packed)-1])
	assert.NotNil(t, err, "truncated record unexpectedly unpacked")

	// trailing junk
	_, err = txrecord.Unpack(id, append(packed, 0x00))
	assert.NotNil(t, err, "oversize record unexpectedly unpacked")
}
