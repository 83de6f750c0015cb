// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dataindex - the access gate between data managers and the
// versioned store
//
// the gate is the sole authority for the manager approval relation
// but not for admin status: every approval mutation calls back into
// the registry first, so neither authority can silently bypass the
// other
//
// the gate holds no storage besides the approval relation; reads are
// public by design, callers wanting confidentiality must encrypt
// their payloads
//
// reentrancy discipline: all approval state mutation is finalised
// before any forwarding call into the store, so a reentrant call can
// never observe a half updated approval relation
package dataindex

import (
	"github.com/bitmark-inc/logger"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/dataobject"
	"github.com/odcnet/odcd/datapoint"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/registry"
	"github.com/odcnet/odcd/storage"
)

// Gate - the access gate operation contract
type Gate interface {
	Identity() account.Principal
	IsApprovedDataManager(id datapoint.DataPoint, manager account.Principal) bool
	AllowDataManager(caller account.Principal, id datapoint.DataPoint, manager account.Principal, approved bool) (bool, error)
	Read(objectRef dataobject.Store, id datapoint.DataPoint, operation dataobject.OpCode, payload []byte) ([]byte, error)
	Write(caller account.Principal, objectRef dataobject.Store, id datapoint.DataPoint, operation dataobject.OpCode, payload []byte) ([]byte, error)
}

type gate struct {
	log      *logger.L
	identity account.Principal
	registry registry.Registry
}

// New - create a gate with its own principal identity, bound to the
// registry that arbitrates admin status
func New(identity account.Principal, reg registry.Registry) (Gate, error) {
	if identity.IsNil() {
		return nil, fault.InvalidPrincipal
	}
	return &gate{
		log:      logger.New("dataindex"),
		identity: identity,
		registry: reg,
	}, nil
}

// Identity - the principal this gate presents to the store
func (g *gate) Identity() account.Principal {
	return g.identity
}

// approval key: id ++ manager
func approvalKey(id datapoint.DataPoint, manager account.Principal) []byte {
	key := make([]byte, 0, datapoint.Length+account.PrincipalLength)
	key = append(key, id.Bytes()...)
	return append(key, manager.Bytes()...)
}

// IsApprovedDataManager - check the approval relation
func (g *gate) IsApprovedDataManager(id datapoint.DataPoint, manager account.Principal) bool {
	return storage.Pool.Approvals.Has(approvalKey(id, manager))
}

// AllowDataManager - mutate the approval relation
//
// only a principal the registry currently recognises as admin for the
// identifier may mutate; returns false with no error when the
// relation is already in the requested state (idempotent)
func (g *gate) AllowDataManager(caller account.Principal, id datapoint.DataPoint, manager account.Principal, approved bool) (bool, error) {
	if err := datapoint.Validate(id, g.registry.Address(), g.registry.ChainTag()); nil != err {
		return false, err
	}
	if !g.registry.IsAdmin(id, caller) {
		return false, fault.NotRegistryAdmin
	}
	if manager.IsNil() {
		return false, fault.InvalidPrincipal
	}

	key := approvalKey(id, manager)
	if approved == storage.Pool.Approvals.Has(key) {
		return false, nil
	}
	if approved {
		storage.Pool.Approvals.Put(key, []byte{0x01})
	} else {
		storage.Pool.Approvals.Delete(key)
	}

	g.log.Infof("approval: %s manager: %s approved: %t by: %s", id, manager, approved, caller)
	return true, nil
}

// Read - validate the identifier and forward to the store
//
// no approval check: reads are public
func (g *gate) Read(objectRef dataobject.Store, id datapoint.DataPoint, operation dataobject.OpCode, payload []byte) ([]byte, error) {
	if err := datapoint.Validate(id, g.registry.Address(), g.registry.ChainTag()); nil != err {
		return nil, err
	}
	return objectRef.Read(id, operation, payload)
}

// Write - validate the identifier, check approval, then forward
//
// the gate mutates nothing for this call, so the forwarding call can
// safely re-enter
func (g *gate) Write(caller account.Principal, objectRef dataobject.Store, id datapoint.DataPoint, operation dataobject.OpCode, payload []byte) ([]byte, error) {
	if err := datapoint.Validate(id, g.registry.Address(), g.registry.ChainTag()); nil != err {
		return nil, err
	}
	if !g.IsApprovedDataManager(id, caller) {
		return nil, fault.NotApprovedManager
	}
	return objectRef.Write(g.identity, id, operation, payload)
}
