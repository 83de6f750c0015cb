// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package category - the directory of property categories
//
// the directory groups property keys into named categories, records
// which principals manage each category, which principals may mint
// containers, and whether a category's properties may be detached
// into a new container by split
//
// the directory is advisory input to restriction evaluation: callers
// pre-check with the predicates here but the property layer still
// validates its own restriction list independently
package category

import (
	"github.com/bitmark-inc/logger"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/storage"
)

// KeyLength - bytes in a property or category key
const KeyLength = 32

// PropertyKey - opaque name of a property
type PropertyKey [KeyLength]byte

// CategoryKey - opaque name of a category
type CategoryKey [KeyLength]byte

// Directory - the category directory operation contract
type Directory interface {
	DefineCategory(caller account.Principal, cat CategoryKey, splitAllowed bool) error
	AssignProperty(caller account.Principal, cat CategoryKey, prop PropertyKey) error
	AddCategoryManager(caller account.Principal, cat CategoryKey, manager account.Principal) (bool, error)
	AddMinter(caller account.Principal, minter account.Principal) (bool, error)
	GetCategoryInfoForProperty(prop PropertyKey) (CategoryKey, bool, error)
	GetCategoryInfo(cat CategoryKey) ([]PropertyKey, bool, error)
	IsCategoryManager(cat CategoryKey, principal account.Principal) bool
	IsPropertyManager(principal account.Principal, prop PropertyKey) bool
	IsMinter(principal account.Principal) bool
}

type directory struct {
	log   *logger.L
	admin account.Principal
}

// New - create a directory administered by one principal
func New(admin account.Principal) (Directory, error) {
	if admin.IsNil() {
		return nil, fault.InvalidPrincipal
	}
	return &directory{
		log:   logger.New("category"),
		admin: admin,
	}, nil
}

// manager key: category ++ principal
func managerKey(cat CategoryKey, principal account.Principal) []byte {
	key := make([]byte, 0, KeyLength+account.PrincipalLength)
	key = append(key, cat[:]...)
	return append(key, principal.Bytes()...)
}

// membership key: category ++ property
func membershipKey(cat CategoryKey, prop PropertyKey) []byte {
	key := make([]byte, 0, 2*KeyLength)
	key = append(key, cat[:]...)
	return append(key, prop[:]...)
}

func (d *directory) isDefined(cat CategoryKey) bool {
	return storage.Pool.CategoryInfo.Has(cat[:])
}

// DefineCategory - register a category and its split policy
func (d *directory) DefineCategory(caller account.Principal, cat CategoryKey, splitAllowed bool) error {
	if caller != d.admin {
		return fault.NotCategoryManager
	}
	flag := byte(0x00)
	if splitAllowed {
		flag = 0x01
	}
	storage.Pool.CategoryInfo.Put(cat[:], []byte{flag})
	d.log.Infof("define category: %x split allowed: %t", cat, splitAllowed)
	return nil
}

// AssignProperty - place a property into a category
//
// a property belongs to at most one category; reassignment removes it
// from its previous category
func (d *directory) AssignProperty(caller account.Principal, cat CategoryKey, prop PropertyKey) error {
	if caller != d.admin && !d.IsCategoryManager(cat, caller) {
		return fault.NotCategoryManager
	}
	if !d.isDefined(cat) {
		return fault.NotCategorized
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	if previous := storage.Pool.PropertyCategory.Get(prop[:]); nil != previous {
		oldKey := make([]byte, 0, 2*KeyLength)
		oldKey = append(oldKey, previous...)
		oldKey = append(oldKey, prop[:]...)
		trx.Delete(storage.Pool.CategoryProps, oldKey)
	}
	trx.Put(storage.Pool.PropertyCategory, prop[:], cat[:])
	trx.Put(storage.Pool.CategoryProps, membershipKey(cat, prop), []byte{0x01})

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return err
	}
	return nil
}

// AddCategoryManager - authorise a principal for a category
//
// returns false with no error if already a manager (idempotent)
func (d *directory) AddCategoryManager(caller account.Principal, cat CategoryKey, manager account.Principal) (bool, error) {
	if caller != d.admin && !d.IsCategoryManager(cat, caller) {
		return false, fault.NotCategoryManager
	}
	if !d.isDefined(cat) {
		return false, fault.NotCategorized
	}
	if manager.IsNil() {
		return false, fault.InvalidPrincipal
	}
	key := managerKey(cat, manager)
	if storage.Pool.CategoryManagers.Has(key) {
		return false, nil
	}
	storage.Pool.CategoryManagers.Put(key, []byte{0x01})
	return true, nil
}

// AddMinter - authorise a principal to mint containers
//
// returns false with no error if already a minter (idempotent)
func (d *directory) AddMinter(caller account.Principal, minter account.Principal) (bool, error) {
	if caller != d.admin {
		return false, fault.NotCategoryManager
	}
	if minter.IsNil() {
		return false, fault.InvalidPrincipal
	}
	if storage.Pool.Minters.Has(minter.Bytes()) {
		return false, nil
	}
	storage.Pool.Minters.Put(minter.Bytes(), []byte{0x01})
	return true, nil
}

// GetCategoryInfoForProperty - the category of a property and its
// split policy
func (d *directory) GetCategoryInfoForProperty(prop PropertyKey) (CategoryKey, bool, error) {
	cat := CategoryKey{}
	buffer := storage.Pool.PropertyCategory.Get(prop[:])
	if nil == buffer || KeyLength != len(buffer) {
		return cat, false, fault.NotCategorized
	}
	copy(cat[:], buffer)

	flag := storage.Pool.CategoryInfo.Get(cat[:])
	if nil == flag || 1 != len(flag) {
		return cat, false, fault.NotCategorized
	}
	return cat, 0x01 == flag[0], nil
}

// GetCategoryInfo - the properties of a category and its split policy
func (d *directory) GetCategoryInfo(cat CategoryKey) ([]PropertyKey, bool, error) {
	flag := storage.Pool.CategoryInfo.Get(cat[:])
	if nil == flag || 1 != len(flag) {
		return nil, false, fault.NotCategorized
	}

	properties := []PropertyKey{}
	err := storage.Pool.CategoryProps.NewPrefixedCursor(cat[:]).Map(func(key []byte, value []byte) error {
		prop := PropertyKey{}
		copy(prop[:], key[KeyLength:])
		properties = append(properties, prop)
		return nil
	})
	if nil != err {
		return nil, false, err
	}
	return properties, 0x01 == flag[0], nil
}

// IsCategoryManager - authorization predicate for a category
func (d *directory) IsCategoryManager(cat CategoryKey, principal account.Principal) bool {
	return storage.Pool.CategoryManagers.Has(managerKey(cat, principal))
}

// IsPropertyManager - authorization predicate for a property, true
// when the principal manages the property's category
func (d *directory) IsPropertyManager(principal account.Principal, prop PropertyKey) bool {
	cat, _, err := d.GetCategoryInfoForProperty(prop)
	if nil != err {
		return false
	}
	return d.IsCategoryManager(cat, principal)
}

// IsMinter - authorization predicate for container minting
func (d *directory) IsMinter(principal account.Principal) bool {
	return storage.Pool.Minters.Has(principal.Bytes())
}
