// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package registry_test

import (
	"math"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/chain"
	"github.com/odcnet/odcd/datapoint"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/registry"
	"github.com/odcnet/odcd/storage"
)

const testingDirName = "testing"

var (
	registryAddress = account.NewPrincipal([]byte("registry key"))
	ownerO          = account.NewPrincipal([]byte("owner O"))
	adminB          = account.NewPrincipal([]byte("admin B"))
	strangerS       = account.NewPrincipal([]byte("stranger S"))
)

func setup(t *testing.T) registry.Registry {
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
	return r
}

func teardown(t *testing.T) {
	storage.Finalise()
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	os.RemoveAll(testingDirName)
}

func TestAllocateMonotonic(t *testing.T) {
	r := setup(t)
	defer teardown(t)

	seen := map[datapoint.DataPoint]bool{}
	previous := uint32(0)

	for i := 0; i < 10; i += 1 {
		id, err := r.Allocate(ownerO)
		assert.NoError(t, err)
		assert.False(t, seen[id], "duplicate identifier")
		seen[id] = true

		fields, err := datapoint.Decode(id)
		assert.NoError(t, err)
		assert.True(t, fields.Sequence > previous, "sequence not increasing")
		previous = fields.Sequence
		assert.Equal(t, registryAddress, fields.Registry)
		assert.Equal(t, r.ChainTag(), fields.ChainTag)

		// owner becomes admin
		assert.True(t, r.IsAdmin(id, ownerO))
	}
}

// the sequence field is 4 bytes wide; an exhausted counter must stop
// allocation rather than recycle identifiers
func TestAllocateSequenceExhausted(t *testing.T) {
	r := setup(t)
	defer teardown(t)

	storage.Pool.Sequences.PutN(registryAddress.Bytes(), math.MaxUint32)

	_, err := r.Allocate(ownerO)
	assert.Equal(t, fault.SequenceOverflow, err)

	// allocation just below the limit still works
	storage.Pool.Sequences.PutN(registryAddress.Bytes(), math.MaxUint32-1)
	id, err := r.Allocate(ownerO)
	assert.NoError(t, err)
	fields, err := datapoint.Decode(id)
	assert.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), fields.Sequence)
}

func TestGrantRevokeAdminRole(t *testing.T) {
	r := setup(t)
	defer teardown(t)

	id, err := r.Allocate(ownerO)
	assert.NoError(t, err)

	// stranger cannot grant
	_, err = r.GrantAdminRole(id, strangerS, adminB)
	assert.Equal(t, fault.NotRegistryAdmin, err)
	assert.False(t, r.IsAdmin(id, adminB))

	// owner grants, second grant is an idempotent no-op
	done, err := r.GrantAdminRole(id, ownerO, adminB)
	assert.NoError(t, err)
	assert.True(t, done)
	done, err = r.GrantAdminRole(id, ownerO, adminB)
	assert.NoError(t, err)
	assert.False(t, done)
	assert.True(t, r.IsAdmin(id, adminB))

	// revoke, second revoke is an idempotent no-op
	done, err = r.RevokeAdminRole(id, ownerO, adminB)
	assert.NoError(t, err)
	assert.True(t, done)
	done, err = r.RevokeAdminRole(id, ownerO, adminB)
	assert.NoError(t, err)
	assert.False(t, done)
	assert.False(t, r.IsAdmin(id, adminB))
}

func TestTransferOwnership(t *testing.T) {
	r := setup(t)
	defer teardown(t)

	id, err := r.Allocate(ownerO)
	assert.NoError(t, err)

	err = r.TransferOwnership(id, strangerS, adminB)
	assert.Equal(t, fault.NotRegistryAdmin, err)

	err = r.TransferOwnership(id, ownerO, adminB)
	assert.NoError(t, err)

	// new owner gains admin, old admins survive
	assert.True(t, r.IsAdmin(id, adminB))
	assert.True(t, r.IsAdmin(id, ownerO))
}

// the documented footgun: the sole admin revokes itself and the
// identifier is left permanently unadministered
func TestSelfRevocation(t *testing.T) {
	r := setup(t)
	defer teardown(t)

	id, err := r.Allocate(ownerO)
	assert.NoError(t, err)

	done, err := r.RevokeAdminRole(id, ownerO, ownerO)
	assert.NoError(t, err)
	assert.True(t, done)
	assert.False(t, r.IsAdmin(id, ownerO))

	// nobody can re-establish the role
	_, err = r.GrantAdminRole(id, ownerO, ownerO)
	assert.Equal(t, fault.NotRegistryAdmin, err)
}

// identifiers from a foreign registry are rejected before any state access
func TestForeignIdentifier(t *testing.T) {
	r := setup(t)
	defer teardown(t)

	foreignRegistry := account.NewPrincipal([]byte("foreign registry"))
	tag, _ := chain.Tag(chain.Testing)
	foreign := datapoint.Encode(registry.DataPointTypeTag, 1, tag, foreignRegistry)

	_, err := r.GrantAdminRole(foreign, ownerO, adminB)
	assert.Equal(t, fault.WrongRegistry, err)
}
