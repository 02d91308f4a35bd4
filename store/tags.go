// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"encoding/binary"

	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/storage"
)

// tag key: the tag itself as big endian, so a cursor walk yields
// ascending numeric order
func tagKey(tag uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, tag)
	return key
}

// NoteTags - all tags monitored by this client, ascending
//
// the node scopes delta replies to notes carrying one of these tags;
// an empty list means no tag filtering
func NoteTags() ([]uint64, error) {
	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	tags := []uint64(nil)
	err := storage.Pool.NoteTags.NewFetchCursor().Map(func(key []byte, value []byte) error {
		if 8 != len(key) {
			return fault.InvalidRecordLength
		}
		tags = append(tags, binary.BigEndian.Uint64(key))
		return nil
	})
	if nil != err {
		return nil, err
	}
	return tags, nil
}

// AddNoteTag - start monitoring a tag
//
// adding a tag that is already monitored is a no-op
func AddNoteTag(tag uint64) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	key := tagKey(tag)
	trx.Put(storage.Pool.NoteTags, key, key)
	return trx.Commit()
}

// RemoveNoteTag - stop monitoring a tag
func RemoveNoteTag(tag uint64) error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.Lock()
	defer globalData.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	trx.Delete(storage.Pool.NoteTags, tagKey(tag))
	return trx.Commit()
}
