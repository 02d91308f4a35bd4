// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

// Transaction - all-or-nothing writes across any set of pools
//
// every write recorded between Begin and Commit reaches the database in
// a single batch write; Abort drops the lot
type Transaction interface {
	Begin() error
	Put(pool *PoolHandle, key []byte, value []byte)
	PutN(pool *PoolHandle, key []byte, value uint64)
	Delete(pool *PoolHandle, key []byte)
	Get(pool *PoolHandle, key []byte) []byte
	GetN(pool *PoolHandle, key []byte) (uint64, bool)
	Has(pool *PoolHandle, key []byte) bool
	Commit() error
	Abort()
	InUse() bool
}

// TransactionImpl - transaction backed by the shared batch access
type TransactionImpl struct {
	dataAccess Access
}

func newTransaction(dataAccess Access) Transaction {
	return &TransactionImpl{
		dataAccess: dataAccess,
	}
}

// Begin - acquire the shared batch
//
// fails if a transaction is already open; callers serialise at a higher
// level so this only signals a programming error
func (t *TransactionImpl) Begin() error {
	return t.dataAccess.Begin()
}

// Put - pending write through a pool handle
func (t *TransactionImpl) Put(pool *PoolHandle, key []byte, value []byte) {
	pool.Put(key, value)
}

// PutN - pending write of a big endian uint64
func (t *TransactionImpl) PutN(pool *PoolHandle, key []byte, value uint64) {
	pool.PutN(key, value)
}

// Delete - pending delete through a pool handle
func (t *TransactionImpl) Delete(pool *PoolHandle, key []byte) {
	pool.Delete(key)
}

// Get - read observing pending writes
func (t *TransactionImpl) Get(pool *PoolHandle, key []byte) []byte {
	return pool.get(key)
}

// GetN - read a big endian uint64 observing pending writes
func (t *TransactionImpl) GetN(pool *PoolHandle, key []byte) (uint64, bool) {
	return pool.getN(key)
}

// Has - existence check observing pending writes
func (t *TransactionImpl) Has(pool *PoolHandle, key []byte) bool {
	return pool.has(key)
}

// Commit - single atomic database write
func (t *TransactionImpl) Commit() error {
	return t.dataAccess.Commit()
}

// Abort - drop all pending writes
func (t *TransactionImpl) Abort() {
	t.dataAccess.Abort()
}

// InUse - true while a transaction is open
func (t *TransactionImpl) InUse() bool {
	return t.dataAccess.InUse()
}
