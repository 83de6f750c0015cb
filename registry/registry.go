// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package registry - allocation of data point identifiers and the
// admin role bookkeeping for each identifier
//
// the registry is the sole authority for admin status; the access
// gate calls back into it before mutating its approval relation
package registry

import (
	"math"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/chain"
	"github.com/odcnet/odcd/datapoint"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/storage"
)

// DataPointTypeTag - the type tag the registry writes into every
// identifier it allocates
const DataPointTypeTag uint16 = 0x0d01

// Registry - the registry operation contract
//
// other components hold this interface, bound at configuration time
type Registry interface {
	Address() account.Principal
	ChainTag() uint32
	Allocate(owner account.Principal) (datapoint.DataPoint, error)
	IsAdmin(id datapoint.DataPoint, principal account.Principal) bool
	GrantAdminRole(id datapoint.DataPoint, caller account.Principal, admin account.Principal) (bool, error)
	RevokeAdminRole(id datapoint.DataPoint, caller account.Principal, admin account.Principal) (bool, error)
	TransferOwnership(id datapoint.DataPoint, caller account.Principal, newOwner account.Principal) error
}

// to ensure single threaded sequence assignment
var allocateLock sync.Mutex

type registry struct {
	log      *logger.L
	address  account.Principal
	chainTag uint32
}

// New - create a registry bound to a chain and a registry address
func New(chainName string, address account.Principal) (Registry, error) {
	tag, err := chain.Tag(chainName)
	if nil != err {
		return nil, err
	}
	return &registry{
		log:      logger.New("registry"),
		address:  address,
		chainTag: tag,
	}, nil
}

// Address - the registry address embedded in allocated identifiers
func (r *registry) Address() account.Principal {
	return r.address
}

// ChainTag - the network tag embedded in allocated identifiers
func (r *registry) ChainTag() uint32 {
	return r.chainTag
}

// admin role key: id ++ principal
func adminKey(id datapoint.DataPoint, principal account.Principal) []byte {
	key := make([]byte, 0, datapoint.Length+account.PrincipalLength)
	key = append(key, id.Bytes()...)
	return append(key, principal.Bytes()...)
}

// Allocate - assign the next unused local sequence number, encode the
// identifier and grant the admin role to the owner
//
// sequence numbers are monotonic per registry and never reused
func (r *registry) Allocate(owner account.Principal) (datapoint.DataPoint, error) {
	if owner.IsNil() {
		return datapoint.DataPoint{}, fault.InvalidPrincipal
	}

	allocateLock.Lock()
	defer allocateLock.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return datapoint.DataPoint{}, err
	}

	n, _ := trx.GetN(storage.Pool.Sequences, r.address.Bytes())
	sequence := n + 1

	// the identifier carries a 4 byte sequence field; once the
	// counter passes it the registry must stop rather than recycle
	if sequence > math.MaxUint32 {
		trx.Abort()
		return datapoint.DataPoint{}, fault.SequenceOverflow
	}

	id := datapoint.Encode(DataPointTypeTag, uint32(sequence), r.chainTag, r.address)

	trx.PutN(storage.Pool.Sequences, r.address.Bytes(), sequence)
	trx.Put(storage.Pool.Admins, adminKey(id, owner), []byte{0x01})
	trx.Put(storage.Pool.Owners, id.Bytes(), owner.Bytes())

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return datapoint.DataPoint{}, err
	}

	r.log.Infof("allocated: %s owner: %s", id, owner)
	return id, nil
}

// IsAdmin - check admin role membership for an identifier
func (r *registry) IsAdmin(id datapoint.DataPoint, principal account.Principal) bool {
	return storage.Pool.Admins.Has(adminKey(id, principal))
}

// GrantAdminRole - add a principal to the admin set
//
// returns false with no error if already an admin (idempotent)
func (r *registry) GrantAdminRole(id datapoint.DataPoint, caller account.Principal, admin account.Principal) (bool, error) {
	if err := datapoint.Validate(id, r.address, r.chainTag); nil != err {
		return false, err
	}
	if !r.IsAdmin(id, caller) {
		return false, fault.NotRegistryAdmin
	}
	if admin.IsNil() {
		return false, fault.InvalidPrincipal
	}
	if r.IsAdmin(id, admin) {
		return false, nil
	}
	storage.Pool.Admins.Put(adminKey(id, admin), []byte{0x01})
	r.log.Infof("grant admin: %s id: %s by: %s", admin, id, caller)
	return true, nil
}

// RevokeAdminRole - remove a principal from the admin set
//
// returns false with no error if not an admin; self revocation of the
// last admin is legal and leaves the identifier with an empty admin
// set (see package doc for the consequences)
func (r *registry) RevokeAdminRole(id datapoint.DataPoint, caller account.Principal, admin account.Principal) (bool, error) {
	if err := datapoint.Validate(id, r.address, r.chainTag); nil != err {
		return false, err
	}
	if !r.IsAdmin(id, caller) {
		return false, fault.NotRegistryAdmin
	}
	if !r.IsAdmin(id, admin) {
		return false, nil
	}
	storage.Pool.Admins.Delete(adminKey(id, admin))
	r.log.Infof("revoke admin: %s id: %s by: %s", admin, id, caller)
	return true, nil
}

// TransferOwnership - reassign the distinguished owner marker
//
// this grants the admin role to the new owner but does not by itself
// revoke any existing admins
func (r *registry) TransferOwnership(id datapoint.DataPoint, caller account.Principal, newOwner account.Principal) error {
	if err := datapoint.Validate(id, r.address, r.chainTag); nil != err {
		return err
	}
	if !r.IsAdmin(id, caller) {
		return fault.NotRegistryAdmin
	}
	if newOwner.IsNil() {
		return fault.InvalidPrincipal
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	trx.Put(storage.Pool.Owners, id.Bytes(), newOwner.Bytes())
	trx.Put(storage.Pool.Admins, adminKey(id, newOwner), []byte{0x01})

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return err
	}

	r.log.Infof("transfer: %s to: %s by: %s", id, newOwner, caller)
	return nil
}
