// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"bytes"
	"testing"

	"github.com/keomprotocol/miden-client/storage"
)

// main pool test
func TestPoolSimple(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	trx, err := storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin error: %s", err)
	}

	// ensure that pool was empty
	data := trx.Get(p, []byte("nonexistant"))
	if nil != data {
		t.Fatalf("unexpected data on empty pool: %x", data)
	}

	for _, e := range expectedElements {
		trx.Put(p, e.Key, e.Value)
	}
	err = trx.Commit()
	if nil != err {
		t.Fatalf("commit error: %s", err)
	}

	for _, e := range expectedElements {
		data := p.Get(e.Key)
		if !bytes.Equal(e.Value, data) {
			t.Errorf("get: %q  value: %q  expected: %q", e.Key, data, e.Value)
		}
		if !p.Has(e.Key) {
			t.Errorf("has: %q missing", e.Key)
		}
	}
}

func TestPoolNumeric(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData
	key := []byte("counter")

	trx, err := storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin error: %s", err)
	}

	_, found := trx.GetN(p, key)
	if found {
		t.Fatal("unexpected numeric record on empty pool")
	}

	trx.PutN(p, key, 1234)
	err = trx.Commit()
	if nil != err {
		t.Fatalf("commit error: %s", err)
	}

	n, found := p.GetN(key)
	if !found {
		t.Fatal("numeric record missing")
	}
	if 1234 != n {
		t.Errorf("numeric value: %d  expected: %d", n, 1234)
	}
}

func TestPoolDelete(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	trx, _ := storage.NewDBTransaction()
	trx.Put(p, []byte("key-one"), []byte("data-one"))
	trx.Put(p, []byte("key-two"), []byte("data-two"))
	err := trx.Commit()
	if nil != err {
		t.Fatalf("commit error: %s", err)
	}

	trx, _ = storage.NewDBTransaction()
	trx.Delete(p, []byte("key-one"))

	// pending delete is visible inside the transaction
	if trx.Has(p, []byte("key-one")) {
		t.Error("pending delete still visible inside transaction")
	}

	err = trx.Commit()
	if nil != err {
		t.Fatalf("commit error: %s", err)
	}

	if p.Has([]byte("key-one")) {
		t.Error("deleted key still present")
	}
	if !p.Has([]byte("key-two")) {
		t.Error("unrelated key lost by delete")
	}
}

func TestTransactionAtomicity(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	trx, err := storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin error: %s", err)
	}

	trx.Put(p, []byte("key-one"), []byte("data-one"))
	trx.Put(p, []byte("key-two"), []byte("data-two"))

	// writes are visible inside the transaction…
	if !bytes.Equal([]byte("data-one"), trx.Get(p, []byte("key-one"))) {
		t.Error("pending write not visible inside transaction")
	}

	// …until the transaction aborts
	trx.Abort()

	if p.Has([]byte("key-one")) || p.Has([]byte("key-two")) {
		t.Error("aborted writes reached the database")
	}
}

func TestReadIsolation(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	trx, err := storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin error: %s", err)
	}
	trx.Put(p, []byte("key-one"), []byte("data-one"))

	// a pending write stays invisible to plain readers until commit
	if nil != p.Get([]byte("key-one")) {
		t.Error("uncommitted write visible outside the transaction")
	}
	if p.Has([]byte("key-one")) {
		t.Error("uncommitted write reported present outside the transaction")
	}

	err = trx.Commit()
	if nil != err {
		t.Fatalf("commit error: %s", err)
	}

	if !bytes.Equal([]byte("data-one"), p.Get([]byte("key-one"))) {
		t.Error("committed write not visible")
	}

	// a pending delete likewise: plain readers keep the committed value
	trx, err = storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin error: %s", err)
	}
	trx.Delete(p, []byte("key-one"))

	if !bytes.Equal([]byte("data-one"), p.Get([]byte("key-one"))) {
		t.Error("uncommitted delete visible outside the transaction")
	}

	trx.Abort()

	if !p.Has([]byte("key-one")) {
		t.Error("aborted delete reached the database")
	}
}

func TestTransactionExclusive(t *testing.T) {
	setup(t)
	defer teardown(t)

	trx, err := storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin error: %s", err)
	}

	_, err = storage.NewDBTransaction()
	if nil == err {
		t.Fatal("second transaction begin unexpectedly succeeded")
	}

	trx.Abort()

	trx, err = storage.NewDBTransaction()
	if nil != err {
		t.Fatalf("transaction begin after abort error: %s", err)
	}
	trx.Abort()
}

func TestCursor(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	trx, _ := storage.NewDBTransaction()
	for _, e := range expectedElements {
		trx.Put(p, e.Key, e.Value)
	}
	err := trx.Commit()
	if nil != err {
		t.Fatalf("commit error: %s", err)
	}

	cursor := p.NewFetchCursor()

	// fetch in two parts to exercise the cursor advance
	firstPart, err := cursor.Fetch(4)
	if nil != err {
		t.Fatalf("fetch error: %s", err)
	}
	secondPart, err := cursor.Fetch(10)
	if nil != err {
		t.Fatalf("fetch error: %s", err)
	}

	fetched := append(firstPart, secondPart...)
	if len(expectedElements) != len(fetched) {
		t.Fatalf("fetched: %d elements  expected: %d", len(fetched), len(expectedElements))
	}
	for i, e := range expectedElements {
		if !bytes.Equal(e.Key, fetched[i].Key) {
			t.Errorf("%d: key: %q  expected: %q", i, fetched[i].Key, e.Key)
		}
		if !bytes.Equal(e.Value, fetched[i].Value) {
			t.Errorf("%d: value: %q  expected: %q", i, fetched[i].Value, e.Value)
		}
	}

	// exhausted cursor returns nothing
	rest, err := cursor.Fetch(10)
	if nil != err {
		t.Fatalf("fetch error: %s", err)
	}
	if 0 != len(rest) {
		t.Errorf("exhausted cursor returned %d elements", len(rest))
	}
}

func TestCursorMap(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	trx, _ := storage.NewDBTransaction()
	for _, e := range expectedElements {
		trx.Put(p, e.Key, e.Value)
	}
	err := trx.Commit()
	if nil != err {
		t.Fatalf("commit error: %s", err)
	}

	count := 0
	err = p.NewFetchCursor().Map(func(key []byte, value []byte) error {
		count += 1
		return nil
	})
	if nil != err {
		t.Fatalf("map error: %s", err)
	}
	if len(expectedElements) != count {
		t.Errorf("mapped: %d elements  expected: %d", count, len(expectedElements))
	}
}

func TestPersistence(t *testing.T) {
	setup(t)

	p := storage.Pool.TestData
	trx, _ := storage.NewDBTransaction()
	trx.Put(p, []byte("durable"), []byte("value"))
	err := trx.Commit()
	if nil != err {
		t.Fatalf("commit error: %s", err)
	}

	// reopen the database
	storage.Finalise()
	_, err = storage.Initialise(databaseFileName, storage.ReadWrite)
	if nil != err {
		t.Fatalf("reinitialise error: %s", err)
	}

	data := storage.Pool.TestData.Get([]byte("durable"))
	if !bytes.Equal([]byte("value"), data) {
		t.Errorf("persisted value: %q  expected: %q", data, "value")
	}

	teardown(t)
}
