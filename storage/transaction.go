// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

// Transaction - staged all-or-nothing mutation across any pools
//
// between Begin and Commit every Put/Delete is held in the pending
// batch; Abort discards the whole batch leaving the database exactly
// as it was before Begin
type Transaction interface {
	Abort()
	Begin() error
	Commit() error
	Delete(*PoolHandle, []byte)
	Get(*PoolHandle, []byte) []byte
	GetN(*PoolHandle, []byte) (uint64, bool)
	Has(*PoolHandle, []byte) bool
	InUse() bool
	Put(*PoolHandle, []byte, []byte)
	PutN(*PoolHandle, []byte, uint64)
}

type transaction struct {
	dataAccess DataAccess
}

func newTransaction(dataAccess DataAccess) Transaction {
	return &transaction{
		dataAccess: dataAccess,
	}
}

func (t *transaction) Begin() error {
	return t.dataAccess.Begin()
}

func (t *transaction) Commit() error {
	return t.dataAccess.Commit()
}

func (t *transaction) Abort() {
	t.dataAccess.Abort()
}

func (t *transaction) InUse() bool {
	return t.dataAccess.InUse()
}

func (t *transaction) Put(handle *PoolHandle, key []byte, value []byte) {
	handle.put(key, value)
}

func (t *transaction) PutN(handle *PoolHandle, key []byte, value uint64) {
	handle.PutN(key, value)
}

func (t *transaction) Delete(handle *PoolHandle, key []byte) {
	handle.remove(key)
}

func (t *transaction) Get(handle *PoolHandle, key []byte) []byte {
	return handle.Get(key)
}

func (t *transaction) GetN(handle *PoolHandle, key []byte) (uint64, bool) {
	return handle.GetN(key)
}

func (t *transaction) Has(handle *PoolHandle, key []byte) bool {
	return handle.Has(key)
}
