// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package remote_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keomprotocol/miden-client/account"
	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/merkle"
	"github.com/keomprotocol/miden-client/note"
	"github.com/keomprotocol/miden-client/remote"
)

func testReply() *remote.DeltaReply {

	owner := account.NewIdentifier([]byte("owner"))

	return &remote.DeltaReply{
		Checkpoint: 42,
		Previous:   merkle.NewDigest([]byte("previous reference")),
		Reference:  merkle.NewDigest([]byte("current reference")),
		Accounts: []remote.AccountUpdate{
			{
				Account: &account.Account{
					Identifier:     owner,
					SequenceNumber: 7,
					Commitment:     merkle.NewDigest([]byte("commitment")),
				},
				Evidence: remote.Evidence{
					Path: merkle.Path{
						merkle.NewDigest([]byte("sibling one")),
						merkle.NewDigest([]byte("sibling two")),
					},
					Index: 3,
				},
			},
		},
		Notes: []remote.NoteUpdate{
			{
				Note: &note.Note{
					Id:        merkle.NewDigest([]byte("note one")),
					AssetId:   merkle.NewDigest([]byte("asset")),
					Value:     1250,
					Recipient: merkle.NewDigest([]byte("recipient")),
					Owner:     owner,
					State:     note.CommittedUnspent,
				},
				Evidence: remote.Evidence{
					Path: merkle.Path{
						merkle.NewDigest([]byte("sibling three")),
					},
					Index: 5,
				},
			},
		},
		More: true,
	}
}

func TestDeltaRequestRoundTrip(t *testing.T) {
	packed := remote.PackDeltaRequest(42, 500, []uint64{5, 9})

	since, batchSize, tags, err := remote.UnpackDeltaRequest(packed)
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, uint64(42), since, "wrong since checkpoint")
	assert.Equal(t, 500, batchSize, "wrong batch size")
	assert.Equal(t, []uint64{5, 9}, tags, "wrong tags")
}

func TestDeltaRequestNoTags(t *testing.T) {
	packed := remote.PackDeltaRequest(0, 100, nil)

	since, batchSize, tags, err := remote.UnpackDeltaRequest(packed)
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, uint64(0), since, "wrong since checkpoint")
	assert.Equal(t, 100, batchSize, "wrong batch size")
	assert.Equal(t, 0, len(tags), "unexpected tags")
}

func TestDeltaRequestTruncated(t *testing.T) {
	packed := remote.PackDeltaRequest(1, 100, []uint64{5})

	_, _, _, err := remote.UnpackDeltaRequest(packed[:len(packed)-4])
	assert.Equal(t, fault.InvalidRecordLength, err, "truncated request accepted")
}

func TestDeltaReplyRoundTrip(t *testing.T) {

	reply := testReply()
	frames := remote.PackDeltaReply(reply)
	assert.Equal(t, 3, len(frames), "wrong frame count")

	back, err := remote.UnpackDeltaReply(frames)
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, reply, back, "wrong reply round trip")
}

func TestDeltaReplyEmpty(t *testing.T) {

	reply := &remote.DeltaReply{
		Checkpoint: 1,
		Reference:  merkle.NewDigest([]byte("reference")),
	}

	back, err := remote.UnpackDeltaReply(remote.PackDeltaReply(reply))
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, reply, back, "wrong reply round trip")
	assert.False(t, back.More, "empty reply claims more batches")
}

func TestDeltaReplyTruncated(t *testing.T) {

	frames := remote.PackDeltaReply(testReply())

	_, err := remote.UnpackDeltaReply(frames[:2])
	assert.NotNil(t, err, "missing frame accepted")

	frames[1] = frames[1][:len(frames[1])-1]
	_, err = remote.UnpackDeltaReply(frames)
	assert.NotNil(t, err, "truncated accounts frame accepted")
}

func TestDeltaReplyTrailingGarbage(t *testing.T) {

	frames := remote.PackDeltaReply(testReply())
	frames[2] = append(frames[2], 0x00)

	_, err := remote.UnpackDeltaReply(frames)
	assert.Equal(t, fault.InvalidRecordLength, err, "trailing bytes accepted")
}
