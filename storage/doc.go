// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains a LevelDB database split into a series of tables.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available tables.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ⧺             = concatenation of byte data
// 3. checkpoint    = big endian uint64 (8 bytes)
// 4. account       = account identifier as 32 byte SHA3-256(content)
// 5. note id/txId  = digest as 32 byte SHA3-256(data)
//
// Accounts:
//
//	a ⧺ account            - account projection
//	                         data: sequence number ⧺ commitment ⧺ flags
//
// Notes:
//
//	n ⧺ note id            - note projection
//	                         data: asset ⧺ value ⧺ recipient ⧺ owner ⧺ state ⧺ reserved by ⧺ commit height
//	o ⧺ owner ⧺ note id    - spendable index, present only while the note is committed-unspent
//	                         data: note id
//
// Transactions:
//
//	t ⧺ txId               - transaction lifecycle record
//	                         data: account ⧺ expected sequence ⧺ status ⧺ created ⧺ submitted ⧺ consumed ⧺ produced ⧺ proof
//
// Synchronisation:
//
//	c ⧺ "height"           - the single sync checkpoint
//	                         data: checkpoint
//	c ⧺ "reference"        - ledger reference committed at the checkpoint
//	                         data: 32 byte digest
//
// Tags:
//
//	g ⧺ tag                - a note tag monitored by this client
//	                         data: tag as big endian uint64
//
// Testing:
//
//	z ⧺ key                - testing data
package storage
