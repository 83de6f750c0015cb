// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dataobject_test

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/chain"
	"github.com/odcnet/odcd/dataobject"
	"github.com/odcnet/odcd/datapoint"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/registry"
	"github.com/odcnet/odcd/storage"
)

const testingDirName = "testing"

var (
	registryAddress = account.NewPrincipal([]byte("registry key"))
	ownerO          = account.NewPrincipal([]byte("owner O"))
	gateG           = account.NewPrincipal([]byte("gate G"))
	gateH           = account.NewPrincipal([]byte("gate H"))
	strangerS       = account.NewPrincipal([]byte("stranger S"))
)

func setup(t *testing.T) (dataobject.Store, datapoint.DataPoint) {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	_ = logger.Initialise(logging)

	err := storage.Initialise(testingDirName + "/test")
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}

	r, err := registry.New(chain.Testing, registryAddress)
	if nil != err {
		t.Fatalf("registry create error: %s", err)
	}
	id, err := r.Allocate(ownerO)
	if nil != err {
		t.Fatalf("allocate error: %s", err)
	}
	return dataobject.New(r), id
}

func teardown(t *testing.T) {
	storage.Finalise()
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	os.RemoveAll(testingDirName)
}

// a sub store key padded to the fixed width
func key32(s string) []byte {
	key := make([]byte, dataobject.KeyLength)
	copy(key, s)
	return key
}

// version(8) ++ rest...
func versioned(version uint64, rest ...[]byte) []byte {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, version)
	for _, r := range rest {
		payload = append(payload, r...)
	}
	return payload
}

func concat(parts ...[]byte) []byte {
	payload := []byte{}
	for _, p := range parts {
		payload = append(payload, p...)
	}
	return payload
}

func TestDecodeErrors(t *testing.T) {
	store, id := setup(t)
	defer teardown(t)

	// unknown selectors
	_, err := store.Read(id, dataobject.OpCode(0x00000199), nil)
	assert.Equal(t, fault.UnsupportedOperation, err)
	_, err = store.Write(gateG, id, dataobject.OpCode(0x00000299), nil)
	assert.Equal(t, fault.UnsupportedOperation, err)

	// a write selector sent as a read and vice versa
	_, err = store.Read(id, dataobject.OpSetScalar, concat(key32("k"), key32("v")))
	assert.Equal(t, fault.UnsupportedOperation, err)
	_, err = store.Write(gateG, id, dataobject.OpGetScalar, versioned(0, key32("k")))
	assert.Equal(t, fault.UnsupportedOperation, err)

	// truncated payloads
	_, err = store.Read(id, dataobject.OpGetScalar, key32("k"))
	assert.Equal(t, fault.InvalidPayloadLength, err)
	_, err = store.Read(id, dataobject.OpGetVersion, []byte{0x00})
	assert.Equal(t, fault.InvalidPayloadLength, err)
	_, err = store.Write(gateG, id, dataobject.OpSetScalar, key32("k"))
	assert.Equal(t, fault.InvalidPayloadLength, err)
	_, err = store.Write(gateG, id, dataobject.OpSetBlob, key32("k"))
	assert.Equal(t, fault.InvalidPayloadLength, err)

	// list keys needs a valid sub store tag
	_, err = store.Read(id, dataobject.OpListKeys, versioned(0, []byte{'z'}))
	assert.Equal(t, fault.InvalidPayloadLength, err)

	// version slot selectors reject the "current" alias
	_, err = store.Write(gateG, id, dataobject.OpClearVersion, versioned(0))
	assert.Equal(t, fault.InvalidVersion, err)
	_, err = store.Write(gateG, id, dataobject.OpMoveData, versioned(0, versioned(2)))
	assert.Equal(t, fault.InvalidVersion, err)
	_, err = store.Write(gateG, id, dataobject.OpMoveData, versioned(3, versioned(3)))
	assert.Equal(t, fault.InvalidVersion, err)
}

func TestScalarRoundTrip(t *testing.T) {
	store, id := setup(t)
	defer teardown(t)

	// absent before any write
	_, err := store.Read(id, dataobject.OpGetScalar, versioned(0, key32("balance")))
	assert.Equal(t, fault.KeyNotFound, err)

	_, err = store.Write(gateG, id, dataobject.OpSetScalar, concat(key32("balance"), key32("100")))
	assert.NoError(t, err)

	value, err := store.Read(id, dataobject.OpGetScalar, versioned(0, key32("balance")))
	assert.NoError(t, err)
	assert.Equal(t, key32("100"), value)

	// overwrite
	_, err = store.Write(gateG, id, dataobject.OpSetScalar, concat(key32("balance"), key32("250")))
	assert.NoError(t, err)
	value, err = store.Read(id, dataobject.OpGetScalar, versioned(0, key32("balance")))
	assert.NoError(t, err)
	assert.Equal(t, key32("250"), value)

	// delete
	_, err = store.Write(gateG, id, dataobject.OpDeleteScalar, key32("balance"))
	assert.NoError(t, err)
	_, err = store.Read(id, dataobject.OpGetScalar, versioned(0, key32("balance")))
	assert.Equal(t, fault.KeyNotFound, err)
}

func TestBlobRoundTrip(t *testing.T) {
	store, id := setup(t)
	defer teardown(t)

	blob := []byte("a variable length document, longer than one slot width: 0123456789")

	_, err := store.Write(gateG, id, dataobject.OpSetBlob, concat(key32("document"), blob))
	assert.NoError(t, err)

	value, err := store.Read(id, dataobject.OpGetBlob, versioned(0, key32("document")))
	assert.NoError(t, err)
	assert.Equal(t, blob, value)

	_, err = store.Write(gateG, id, dataobject.OpDeleteBlob, key32("document"))
	assert.NoError(t, err)
	_, err = store.Read(id, dataobject.OpGetBlob, versioned(0, key32("document")))
	assert.Equal(t, fault.KeyNotFound, err)
}

func TestSetMembership(t *testing.T) {
	store, id := setup(t)
	defer teardown(t)

	value, err := store.Read(id, dataobject.OpHasSetMember, versioned(0, key32("member")))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x00}, value)

	_, err = store.Write(gateG, id, dataobject.OpAddSetMember, key32("member"))
	assert.NoError(t, err)
	value, err = store.Read(id, dataobject.OpHasSetMember, versioned(0, key32("member")))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x01}, value)

	_, err = store.Write(gateG, id, dataobject.OpRemoveSetMember, key32("member"))
	assert.NoError(t, err)
	value, err = store.Read(id, dataobject.OpHasSetMember, versioned(0, key32("member")))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x00}, value)
}

func TestMapAndListKeys(t *testing.T) {
	store, id := setup(t)
	defer teardown(t)

	_, err := store.Write(gateG, id, dataobject.OpSetMapValue, concat(key32("alpha"), key32("1")))
	assert.NoError(t, err)
	_, err = store.Write(gateG, id, dataobject.OpSetMapValue, concat(key32("beta"), key32("2")))
	assert.NoError(t, err)

	value, err := store.Read(id, dataobject.OpGetMapValue, versioned(0, key32("beta")))
	assert.NoError(t, err)
	assert.Equal(t, key32("2"), value)

	// keys come back concatenated in byte order
	keys, err := store.Read(id, dataobject.OpListKeys, versioned(0, []byte{'m'}))
	assert.NoError(t, err)
	assert.Equal(t, concat(key32("alpha"), key32("beta")), keys)

	// other sub stores are not mixed in
	keys, err = store.Read(id, dataobject.OpListKeys, versioned(0, []byte{'s'}))
	assert.NoError(t, err)
	assert.Equal(t, []byte{}, keys)

	_, err = store.Write(gateG, id, dataobject.OpDeleteMapValue, key32("alpha"))
	assert.NoError(t, err)
	keys, err = store.Read(id, dataobject.OpListKeys, versioned(0, []byte{'m'}))
	assert.NoError(t, err)
	assert.Equal(t, key32("beta"), keys)
}

func TestGateBinding(t *testing.T) {
	store, id := setup(t)
	defer teardown(t)

	// first write binds gate G
	_, err := store.Write(gateG, id, dataobject.OpSetScalar, concat(key32("k"), key32("v")))
	assert.NoError(t, err)

	// another gate is rejected and nothing is stored
	_, err = store.Write(gateH, id, dataobject.OpSetScalar, concat(key32("k"), key32("w")))
	assert.Equal(t, fault.NotBoundGate, err)
	value, err := store.Read(id, dataobject.OpGetScalar, versioned(0, key32("k")))
	assert.NoError(t, err)
	assert.Equal(t, key32("v"), value)

	// reads stay public
	_, err = store.Read(id, dataobject.OpGetVersion, nil)
	assert.NoError(t, err)
}

func TestVersioning(t *testing.T) {
	store, id := setup(t)
	defer teardown(t)

	_, err := store.Write(gateG, id, dataobject.OpSetScalar, concat(key32("k"), key32("v1")))
	assert.NoError(t, err)

	value, err := store.Read(id, dataobject.OpGetVersion, nil)
	assert.NoError(t, err)
	assert.Equal(t, versioned(1), value)

	// advance the version pointer, current slot is now empty
	_, err = store.Write(gateG, id, dataobject.OpSetVersion, versioned(2))
	assert.NoError(t, err)
	value, err = store.Read(id, dataobject.OpGetVersion, nil)
	assert.NoError(t, err)
	assert.Equal(t, versioned(2), value)

	_, err = store.Read(id, dataobject.OpGetScalar, versioned(0, key32("k")))
	assert.Equal(t, fault.KeyNotFound, err)

	// the old slot is still addressable
	value, err = store.Read(id, dataobject.OpGetScalar, versioned(1, key32("k")))
	assert.NoError(t, err)
	assert.Equal(t, key32("v1"), value)

	// relocate the old slot into the current one
	_, err = store.Write(gateG, id, dataobject.OpMoveData, concat(versioned(1), versioned(2)))
	assert.NoError(t, err)
	value, err = store.Read(id, dataobject.OpGetScalar, versioned(0, key32("k")))
	assert.NoError(t, err)
	assert.Equal(t, key32("v1"), value)
	_, err = store.Read(id, dataobject.OpGetScalar, versioned(1, key32("k")))
	assert.Equal(t, fault.KeyNotFound, err)

	// clear an explicit slot
	_, err = store.Write(gateG, id, dataobject.OpClearVersion, versioned(2))
	assert.NoError(t, err)
	_, err = store.Read(id, dataobject.OpGetScalar, versioned(0, key32("k")))
	assert.Equal(t, fault.KeyNotFound, err)

	// the pointer is untouched by clearing
	value, err = store.Read(id, dataobject.OpGetVersion, nil)
	assert.NoError(t, err)
	assert.Equal(t, versioned(2), value)
}

func TestWipe(t *testing.T) {
	store, id := setup(t)
	defer teardown(t)

	_, err := store.Write(gateG, id, dataobject.OpSetScalar, concat(key32("a"), key32("1")))
	assert.NoError(t, err)
	_, err = store.Write(gateG, id, dataobject.OpAddSetMember, key32("b"))
	assert.NoError(t, err)

	_, err = store.Write(gateG, id, dataobject.OpWipe, nil)
	assert.NoError(t, err)

	_, err = store.Read(id, dataobject.OpGetScalar, versioned(0, key32("a")))
	assert.Equal(t, fault.KeyNotFound, err)
	value, err := store.Read(id, dataobject.OpHasSetMember, versioned(0, key32("b")))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x00}, value)
}

func TestSetGateImplementation(t *testing.T) {
	store, id := setup(t)
	defer teardown(t)

	_, err := store.Write(gateG, id, dataobject.OpSetScalar, concat(key32("k"), key32("v")))
	assert.NoError(t, err)

	// a stranger cannot migrate the gate
	err = store.SetGateImplementation(id, strangerS, gateH)
	assert.Equal(t, fault.NotBoundGate, err)

	// the bound gate migrates to its successor
	err = store.SetGateImplementation(id, gateG, gateH)
	assert.NoError(t, err)

	_, err = store.Write(gateG, id, dataobject.OpSetScalar, concat(key32("k"), key32("w")))
	assert.Equal(t, fault.NotBoundGate, err)
	_, err = store.Write(gateH, id, dataobject.OpSetScalar, concat(key32("k"), key32("w")))
	assert.NoError(t, err)

	// a registry admin of the identifier can also migrate
	err = store.SetGateImplementation(id, ownerO, gateG)
	assert.NoError(t, err)
	_, err = store.Write(gateG, id, dataobject.OpSetScalar, concat(key32("k"), key32("x")))
	assert.NoError(t, err)

	// never to a nil principal
	err = store.SetGateImplementation(id, gateG, account.NilPrincipal)
	assert.Equal(t, fault.InvalidPrincipal, err)
}
