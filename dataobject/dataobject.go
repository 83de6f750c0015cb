// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dataobject - the versioned store behind the access gate
//
// each identifier owns four typed sub stores (scalar, blob, set, map)
// per version slot plus a current version pointer; all mutation for
// one call is staged in a single database transaction so a rejected
// call leaves every sub store untouched
//
// writes are only accepted when forwarded by the access gate bound to
// the identifier; the first write under an identifier binds the
// forwarding gate
package dataobject

import (
	"encoding/binary"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/datapoint"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/registry"
	"github.com/odcnet/odcd/storage"
)

// Store - the versioned store operation contract
type Store interface {
	Read(id datapoint.DataPoint, operation OpCode, payload []byte) ([]byte, error)
	Write(gate account.Principal, id datapoint.DataPoint, operation OpCode, payload []byte) ([]byte, error)
	SetGateImplementation(id datapoint.DataPoint, caller account.Principal, newGate account.Principal) error
}

// initialVersion - the version pointer value set by the first write
const initialVersion uint64 = 1

type store struct {
	sync.Mutex
	log      *logger.L
	registry registry.Registry
}

// New - create a store answering for identifiers of one registry
func New(reg registry.Registry) Store {
	return &store{
		log:      logger.New("dataobject"),
		registry: reg,
	}
}

// data pool key: id ++ version ++ sub ++ key
func dataKey(id datapoint.DataPoint, version uint64, sub byte, key []byte) []byte {
	buffer := make([]byte, 0, datapoint.Length+8+1+len(key))
	buffer = append(buffer, id.Bytes()...)
	buffer = binary.BigEndian.AppendUint64(buffer, version)
	buffer = append(buffer, sub)
	return append(buffer, key...)
}

// prefix covering every sub store entry of one version
func versionPrefix(id datapoint.DataPoint, version uint64) []byte {
	buffer := make([]byte, 0, datapoint.Length+8)
	buffer = append(buffer, id.Bytes()...)
	return binary.BigEndian.AppendUint64(buffer, version)
}

// the current version pointer, initialVersion when never written
func currentVersion(id datapoint.DataPoint) uint64 {
	version, found := storage.Pool.StoreVersion.GetN(id.Bytes())
	if !found {
		return initialVersion
	}
	return version
}

// resolve a request version, CurrentVersion meaning the pointer
func resolveVersion(id datapoint.DataPoint, version uint64) uint64 {
	if CurrentVersion == version {
		return currentVersion(id)
	}
	return version
}

// Read - dispatch a read selector
//
// reads are public and never mutate state, including reads that
// address an explicit historical version
func (s *store) Read(id datapoint.DataPoint, operation OpCode, payload []byte) ([]byte, error) {
	request, err := decodeRead(operation, payload)
	if nil != err {
		return nil, err
	}

	switch request.op {

	case OpGetScalar, OpGetMapValue, OpGetBlob:
		version := resolveVersion(id, request.version)
		value := storage.Pool.StoreData.Get(dataKey(id, version, request.op.sub(), request.key))
		if nil == value {
			return nil, fault.KeyNotFound
		}
		return value, nil

	case OpHasSetMember:
		version := resolveVersion(id, request.version)
		if storage.Pool.StoreData.Has(dataKey(id, version, setTag, request.key)) {
			return []byte{0x01}, nil
		}
		return []byte{0x00}, nil

	case OpListKeys:
		version := resolveVersion(id, request.version)
		prefix := append(versionPrefix(id, version), request.sub)
		result := []byte{}
		err := storage.Pool.StoreData.NewPrefixedCursor(prefix).Map(func(key []byte, value []byte) error {
			result = append(result, key[len(prefix):]...)
			return nil
		})
		if nil != err {
			return nil, err
		}
		return result, nil

	case OpGetVersion:
		result := make([]byte, 8)
		binary.BigEndian.PutUint64(result, currentVersion(id))
		return result, nil

	default:
		return nil, fault.UnsupportedOperation
	}
}

// Write - dispatch a write selector forwarded by an access gate
//
// the whole call commits or nothing does; the result is opaque and
// may be empty
func (s *store) Write(gate account.Principal, id datapoint.DataPoint, operation OpCode, payload []byte) ([]byte, error) {
	request, err := decodeWrite(operation, payload)
	if nil != err {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	// gate binding check before any staging
	bound := storage.Pool.GateBindings.Get(id.Bytes())
	if nil != bound {
		boundGate, err := account.PrincipalFromBytes(bound)
		if nil != err {
			return nil, err
		}
		if boundGate != gate {
			return nil, fault.NotBoundGate
		}
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return nil, err
	}

	// first write binds the forwarding gate and sets the version pointer
	if nil == bound {
		trx.Put(storage.Pool.GateBindings, id.Bytes(), gate.Bytes())
	}
	if _, found := storage.Pool.StoreVersion.GetN(id.Bytes()); !found {
		trx.PutN(storage.Pool.StoreVersion, id.Bytes(), initialVersion)
	}

	result, err := s.apply(trx, id, request)
	if nil != err {
		trx.Abort()
		return nil, err
	}

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return nil, err
	}
	return result, nil
}

// stage one decoded write request
func (s *store) apply(trx storage.Transaction, id datapoint.DataPoint, request writeRequest) ([]byte, error) {
	current := currentVersion(id)

	switch request.op {

	case OpSetScalar, OpSetMapValue, OpSetBlob:
		trx.Put(storage.Pool.StoreData, dataKey(id, current, request.op.sub(), request.key), request.value)
		return []byte{}, nil

	case OpDeleteScalar, OpDeleteBlob, OpDeleteMapValue, OpRemoveSetMember:
		trx.Delete(storage.Pool.StoreData, dataKey(id, current, request.op.sub(), request.key))
		return []byte{}, nil

	case OpAddSetMember:
		trx.Put(storage.Pool.StoreData, dataKey(id, current, setTag, request.key), []byte{0x01})
		return []byte{}, nil

	case OpClearVersion:
		return []byte{}, s.clear(trx, id, request.version)

	case OpWipe:
		return []byte{}, s.clear(trx, id, current)

	case OpMoveData:
		return []byte{}, s.moveData(trx, id, request.from, request.to)

	case OpSetVersion:
		trx.PutN(storage.Pool.StoreVersion, id.Bytes(), request.version)
		return []byte{}, nil

	default:
		return nil, fault.UnsupportedOperation
	}
}

// drop all keys of one version slot, the version pointer is unchanged
func (s *store) clear(trx storage.Transaction, id datapoint.DataPoint, version uint64) error {
	prefix := versionPrefix(id, version)
	return storage.Pool.StoreData.NewPrefixedCursor(prefix).Map(func(key []byte, value []byte) error {
		trx.Delete(storage.Pool.StoreData, key)
		return nil
	})
}

// relocate every sub store entry from one version slot to another
func (s *store) moveData(trx storage.Transaction, id datapoint.DataPoint, from uint64, to uint64) error {
	fromPrefix := versionPrefix(id, from)
	toPrefix := versionPrefix(id, to)
	return storage.Pool.StoreData.NewPrefixedCursor(fromPrefix).Map(func(key []byte, value []byte) error {
		newKey := make([]byte, 0, len(key))
		newKey = append(newKey, toPrefix...)
		newKey = append(newKey, key[len(fromPrefix):]...)
		trx.Put(storage.Pool.StoreData, newKey, value)
		trx.Delete(storage.Pool.StoreData, key)
		return nil
	})
}

// SetGateImplementation - migrate which access gate is authoritative
// for an identifier
//
// restricted to the currently bound gate or a registry admin of the
// identifier, never to arbitrary callers
func (s *store) SetGateImplementation(id datapoint.DataPoint, caller account.Principal, newGate account.Principal) error {
	if err := datapoint.Validate(id, s.registry.Address(), s.registry.ChainTag()); nil != err {
		return err
	}
	if newGate.IsNil() {
		return fault.InvalidPrincipal
	}

	s.Lock()
	defer s.Unlock()

	authorized := s.registry.IsAdmin(id, caller)
	if bound := storage.Pool.GateBindings.Get(id.Bytes()); nil != bound {
		boundGate, err := account.PrincipalFromBytes(bound)
		if nil != err {
			return err
		}
		authorized = authorized || boundGate == caller
	}
	if !authorized {
		return fault.NotBoundGate
	}

	storage.Pool.GateBindings.Put(id.Bytes(), newGate.Bytes())
	s.log.Infof("gate migration: %s to: %s by: %s", id, newGate, caller)
	return nil
}
