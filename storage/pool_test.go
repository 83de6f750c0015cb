// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odcnet/odcd/storage"
)

// main pool test
func TestPool(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	p.Put([]byte("key-one"), []byte("data-one"))
	p.Put([]byte("key-two"), []byte("data-two"))
	p.Put([]byte("key-remove-me"), []byte("to be deleted"))
	p.Delete([]byte("key-remove-me"))
	p.Put([]byte("key-one"), []byte("data-one(NEW)")) // overwrite

	assert.Equal(t, []byte("data-one(NEW)"), p.Get([]byte("key-one")))
	assert.Equal(t, []byte("data-two"), p.Get([]byte("key-two")))
	assert.Nil(t, p.Get([]byte("key-remove-me")))
	assert.True(t, p.Has([]byte("key-two")))
	assert.False(t, p.Has([]byte("key-remove-me")))

	// check that restarting database keeps data
	storage.Finalise()
	err := storage.Initialise(databaseFileName)
	assert.NoError(t, err)

	p = storage.Pool.TestData
	assert.Equal(t, []byte("data-one(NEW)"), p.Get([]byte("key-one")))
	assert.Equal(t, []byte("data-two"), p.Get([]byte("key-two")))
}

func TestPoolN(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	_, found := p.GetN([]byte("counter"))
	assert.False(t, found)

	p.PutN([]byte("counter"), 42)
	n, found := p.GetN([]byte("counter"))
	assert.True(t, found)
	assert.Equal(t, uint64(42), n)
}

func TestPoolCursor(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	p.Put([]byte("aa:one"), []byte("1"))
	p.Put([]byte("aa:two"), []byte("2"))
	p.Put([]byte("bb:one"), []byte("3"))

	// whole pool fetch
	cursor := p.NewFetchCursor()
	data, err := cursor.Fetch(10)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(data))

	// incremental fetch resumes after the last returned key
	cursor = p.NewFetchCursor()
	data, err = cursor.Fetch(2)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(data))
	data, err = cursor.Fetch(2)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(data))
	assert.Equal(t, []byte("bb:one"), data[0].Key)

	// prefixed cursor sees only matching keys
	count := 0
	err = p.NewPrefixedCursor([]byte("aa:")).Map(func(key []byte, value []byte) error {
		count += 1
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPoolLastElement(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	_, found := p.LastElement()
	assert.False(t, found)

	p.Put([]byte("key-one"), []byte("data-one"))
	p.Put([]byte("key-two"), []byte("data-two"))

	element, found := p.LastElement()
	assert.True(t, found)
	assert.Equal(t, []byte("key-two"), element.Key)
	assert.Equal(t, []byte("data-two"), element.Value)
}

func TestTransactionCommitAndAbort(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.TestData

	p.Put([]byte("base"), []byte("committed"))

	// staged writes are visible through the pool before commit
	trx, err := storage.NewDBTransaction()
	assert.NoError(t, err)
	trx.Put(p, []byte("staged"), []byte("pending"))
	assert.Equal(t, []byte("pending"), trx.Get(p, []byte("staged")))

	// no concurrent transaction
	_, err = storage.NewDBTransaction()
	assert.Error(t, err)

	err = trx.Commit()
	assert.NoError(t, err)
	assert.Equal(t, []byte("pending"), p.Get([]byte("staged")))

	// aborted writes never reach the database
	trx, err = storage.NewDBTransaction()
	assert.NoError(t, err)
	trx.Put(p, []byte("doomed"), []byte("never"))
	trx.Delete(p, []byte("base"))
	trx.Abort()

	assert.Nil(t, p.Get([]byte("doomed")))
	assert.Equal(t, []byte("committed"), p.Get([]byte("base")))
}
