// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package odc

import (
	"encoding/binary"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/category"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/storage"
)

// data key: token ++ property ++ data key
func propertyDataKey(token TokenId, prop category.PropertyKey, key DataKey) []byte {
	buffer := make([]byte, 0, 8+2*category.KeyLength)
	buffer = append(buffer, tokenKey(token)...)
	buffer = append(buffer, prop[:]...)
	return append(buffer, key[:]...)
}

// restriction key: token ++ property ++ index
func restrictionKey(token TokenId, prop category.PropertyKey, index uint32) []byte {
	buffer := make([]byte, 0, 8+category.KeyLength+4)
	buffer = append(buffer, tokenKey(token)...)
	buffer = append(buffer, prop[:]...)
	return binary.BigEndian.AppendUint32(buffer, index)
}

// AddProperty - transition a property to active and install its
// restrictions atomically, returning a stable index for each
//
// the property must be categorized and the caller must manage its
// category; restriction indices are not guaranteed stable across a
// remove and re-add cycle
func (o *odc) AddProperty(caller account.Principal, token TokenId, prop category.PropertyKey, restrictions []string) ([]uint32, error) {
	if !o.directory.IsPropertyManager(caller, prop) {
		return nil, fault.NotCategoryManager
	}

	o.Lock()
	defer o.Unlock()

	owner, err := o.owner(token)
	if nil != err {
		return nil, err
	}
	if o.HasProperty(token, prop) {
		return nil, fault.PropertyExists
	}

	// validate every expression before staging anything
	for _, expression := range restrictions {
		if _, err := o.compile(expression); nil != err {
			return nil, err
		}
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return nil, err
	}

	o.stageActivate(trx, token, owner, prop)

	indexes := make([]uint32, 0, len(restrictions))
	next, _ := trx.GetN(storage.Pool.RestrictionNext, propertyKey(token, prop))
	for _, expression := range restrictions {
		next += 1
		index := uint32(next)
		trx.Put(storage.Pool.Restrictions, restrictionKey(token, prop, index), []byte(expression))
		indexes = append(indexes, index)
	}
	trx.PutN(storage.Pool.RestrictionNext, propertyKey(token, prop), next)

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return nil, err
	}

	o.log.Infof("add property: %x token: %d restrictions: %d by: %s", prop, token, len(restrictions), caller)
	return indexes, nil
}

// stage the three index entries that make a property active
func (o *odc) stageActivate(trx storage.Transaction, token TokenId, owner account.Principal, prop category.PropertyKey) {
	trx.Put(storage.Pool.ContainerProps, propertyKey(token, prop), []byte{0x01})
	trx.Put(storage.Pool.PropertyTokens, propertyTokenKey(prop, token), []byte{0x01})
	trx.Put(storage.Pool.OwnerTokens, ownerTokenKey(owner, prop, token), []byte{0x01})
}

// stage removal of the three index entries of an active property
func (o *odc) stageDeactivate(trx storage.Transaction, token TokenId, owner account.Principal, prop category.PropertyKey) {
	trx.Delete(storage.Pool.ContainerProps, propertyKey(token, prop))
	trx.Delete(storage.Pool.PropertyTokens, propertyTokenKey(prop, token))
	trx.Delete(storage.Pool.OwnerTokens, ownerTokenKey(owner, prop, token))
}

// stage removal of all restrictions and their counter
func stageClearRestrictions(trx storage.Transaction, token TokenId, prop category.PropertyKey) error {
	err := storage.Pool.Restrictions.NewPrefixedCursor(propertyKey(token, prop)).Map(func(key []byte, value []byte) error {
		trx.Delete(storage.Pool.Restrictions, key)
		return nil
	})
	if nil != err {
		return err
	}
	trx.Delete(storage.Pool.RestrictionNext, propertyKey(token, prop))
	return nil
}

// stage removal of all data entries of a property
func stageClearData(trx storage.Transaction, token TokenId, prop category.PropertyKey) error {
	return storage.Pool.PropertyData.NewPrefixedCursor(propertyKey(token, prop)).Map(func(key []byte, value []byte) error {
		trx.Delete(storage.Pool.PropertyData, key)
		return nil
	})
}

// RemoveProperty - transition an active property to removed
//
// associated restriction indices and property data are cleared; the
// property may later be re-added, re-entering active
func (o *odc) RemoveProperty(caller account.Principal, token TokenId, prop category.PropertyKey) error {
	if !o.directory.IsPropertyManager(caller, prop) {
		return fault.NotCategoryManager
	}

	o.Lock()
	defer o.Unlock()

	owner, err := o.owner(token)
	if nil != err {
		return err
	}
	if !o.HasProperty(token, prop) {
		return fault.PropertyNotFound
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	o.stageDeactivate(trx, token, owner, prop)
	if err := stageClearRestrictions(trx, token, prop); nil != err {
		trx.Abort()
		return err
	}
	if err := stageClearData(trx, token, prop); nil != err {
		trx.Abort()
		return err
	}

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return err
	}

	o.log.Infof("remove property: %x token: %d by: %s", prop, token, caller)
	return nil
}

// GetPropertyData - read one property datum
func (o *odc) GetPropertyData(token TokenId, prop category.PropertyKey, key DataKey) (DataValue, error) {
	value := DataValue{}
	if !o.HasProperty(token, prop) {
		return value, fault.PropertyNotFound
	}

	buffer := storage.Pool.PropertyData.Get(propertyDataKey(token, prop, key))
	if nil == buffer {
		return value, fault.KeyNotFound
	}
	if category.KeyLength != len(buffer) {
		return value, fault.DataValueLength
	}
	copy(value[:], buffer)
	return value, nil
}

// SetPropertyData - write one property datum
//
// every active restriction on the property is evaluated for the
// calling principal first; any denial aborts the whole call with no
// mutation, a second write with a different value overwrites
func (o *odc) SetPropertyData(caller account.Principal, token TokenId, prop category.PropertyKey, key DataKey, value DataValue) error {
	o.Lock()
	defer o.Unlock()

	if !o.HasProperty(token, prop) {
		return fault.PropertyNotFound
	}

	if err := o.evaluateRestrictions(caller, token, prop, key, value); nil != err {
		return err
	}

	storage.Pool.PropertyData.Put(propertyDataKey(token, prop, key), value[:])
	return nil
}

// AddRestriction - append a restriction to an active property
//
// the expression is compiled before anything is stored; the returned
// index is stable until the restriction is removed
func (o *odc) AddRestriction(caller account.Principal, token TokenId, prop category.PropertyKey, expression string) (uint32, error) {
	if !o.directory.IsPropertyManager(caller, prop) {
		return 0, fault.NotCategoryManager
	}

	o.Lock()
	defer o.Unlock()

	if !o.HasProperty(token, prop) {
		return 0, fault.PropertyNotFound
	}
	if _, err := o.compile(expression); nil != err {
		return 0, err
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return 0, err
	}

	next, _ := trx.GetN(storage.Pool.RestrictionNext, propertyKey(token, prop))
	next += 1
	index := uint32(next)
	trx.Put(storage.Pool.Restrictions, restrictionKey(token, prop, index), []byte(expression))
	trx.PutN(storage.Pool.RestrictionNext, propertyKey(token, prop), next)

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return 0, err
	}
	return index, nil
}

// RemoveRestriction - remove one restriction by its stable index
func (o *odc) RemoveRestriction(caller account.Principal, token TokenId, prop category.PropertyKey, index uint32) error {
	if !o.directory.IsPropertyManager(caller, prop) {
		return fault.NotCategoryManager
	}

	o.Lock()
	defer o.Unlock()

	key := restrictionKey(token, prop, index)
	if !storage.Pool.Restrictions.Has(key) {
		return fault.RestrictionNotFound
	}
	storage.Pool.Restrictions.Delete(key)
	return nil
}

// GetRestrictions - the active restrictions of a property in index order
func (o *odc) GetRestrictions(token TokenId, prop category.PropertyKey) ([]Restriction, error) {
	if !o.HasProperty(token, prop) {
		return nil, fault.PropertyNotFound
	}

	return o.restrictionList(token, prop)
}

// decode a restriction index suffix
func binaryIndex(buffer []byte) uint32 {
	return binary.BigEndian.Uint32(buffer)
}
