// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package odc - containers of properties under restrictions
//
// a container is a token-like identity holding a set of active
// properties; a property holds a data key to data value mapping and
// an ordered list of restrictions gating its mutation
//
// merge and split reorganise whole categories of properties between
// containers; each call stages every slot move in one database
// transaction and commits once, so a rejected call changes nothing
package odc

import (
	"encoding/binary"
	"sync"

	"github.com/bitmark-inc/logger"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/category"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/storage"
)

// TokenId - a container identity, allocated monotonically, never reused
type TokenId uint64

// DataKey - opaque name of one property datum
type DataKey [category.KeyLength]byte

// DataValue - opaque fixed width property datum
type DataValue [category.KeyLength]byte

// Restriction - one condition gating property mutation
type Restriction struct {
	Index      uint32
	Expression string
}

// ODC - the container layer operation contract, consumed by external
// manager collaborators
type ODC interface {
	Mint(caller account.Principal, owner account.Principal) (TokenId, error)
	Exists(token TokenId) bool
	HasProperty(token TokenId, prop category.PropertyKey) bool
	GetAllProperties(token TokenId) ([]category.PropertyKey, error)
	GetCategoryProperties(token TokenId, cat category.CategoryKey) ([]category.PropertyKey, error)
	GetToken(owner account.Principal, prop category.PropertyKey) (TokenId, error)
	GetAllTokensWithProperty(prop category.PropertyKey) ([]TokenId, error)
	AddProperty(caller account.Principal, token TokenId, prop category.PropertyKey, restrictions []string) ([]uint32, error)
	RemoveProperty(caller account.Principal, token TokenId, prop category.PropertyKey) error
	GetPropertyData(token TokenId, prop category.PropertyKey, key DataKey) (DataValue, error)
	SetPropertyData(caller account.Principal, token TokenId, prop category.PropertyKey, key DataKey, value DataValue) error
	AddRestriction(caller account.Principal, token TokenId, prop category.PropertyKey, expression string) (uint32, error)
	RemoveRestriction(caller account.Principal, token TokenId, prop category.PropertyKey, index uint32) error
	GetRestrictions(token TokenId, prop category.PropertyKey) ([]Restriction, error)
	Merge(caller account.Principal, from TokenId, to TokenId, categories []category.CategoryKey) error
	Split(caller account.Principal, mtid TokenId, categories []category.CategoryKey) (TokenId, error)
}

// the container counter lives under this single key
var containerNextKey = []byte{0x00}

type odc struct {
	sync.Mutex
	log       *logger.L
	directory category.Directory
	programs  map[string]*exprvm.Program
}

// New - create the container layer over a category directory
func New(directory category.Directory) ODC {
	return &odc{
		log:       logger.New("odc"),
		directory: directory,
		programs:  make(map[string]*exprvm.Program),
	}
}

// token as big endian key bytes
func tokenKey(token TokenId) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, uint64(token))
	return buffer
}

// membership key: token ++ property
func propertyKey(token TokenId, prop category.PropertyKey) []byte {
	key := make([]byte, 0, 8+category.KeyLength)
	key = append(key, tokenKey(token)...)
	return append(key, prop[:]...)
}

// inverted index key: property ++ token
func propertyTokenKey(prop category.PropertyKey, token TokenId) []byte {
	key := make([]byte, 0, category.KeyLength+8)
	key = append(key, prop[:]...)
	return append(key, tokenKey(token)...)
}

// owner index key: principal ++ property ++ token
func ownerTokenKey(owner account.Principal, prop category.PropertyKey, token TokenId) []byte {
	key := make([]byte, 0, account.PrincipalLength+category.KeyLength+8)
	key = append(key, owner.Bytes()...)
	key = append(key, prop[:]...)
	return append(key, tokenKey(token)...)
}

// Mint - create a new container owned by a principal
//
// restricted to principals the directory recognises as minters
func (o *odc) Mint(caller account.Principal, owner account.Principal) (TokenId, error) {
	if !o.directory.IsMinter(caller) {
		return 0, fault.NotMinter
	}
	if owner.IsNil() {
		return 0, fault.InvalidPrincipal
	}

	o.Lock()
	defer o.Unlock()

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return 0, err
	}
	token, err := o.mint(trx, owner)
	if nil != err {
		trx.Abort()
		return 0, err
	}
	if err := trx.Commit(); nil != err {
		trx.Abort()
		return 0, err
	}

	o.log.Infof("mint: %d owner: %s by: %s", token, owner, caller)
	return token, nil
}

// stage a container creation, the caller owns the transaction
func (o *odc) mint(trx storage.Transaction, owner account.Principal) (TokenId, error) {
	n, _ := trx.GetN(storage.Pool.ContainerNext, containerNextKey)
	token := TokenId(n + 1)

	trx.PutN(storage.Pool.ContainerNext, containerNextKey, n+1)
	trx.Put(storage.Pool.ContainerOwner, tokenKey(token), owner.Bytes())
	return token, nil
}

// Exists - container lookup
func (o *odc) Exists(token TokenId) bool {
	return storage.Pool.ContainerOwner.Has(tokenKey(token))
}

// owner of a container
func (o *odc) owner(token TokenId) (account.Principal, error) {
	buffer := storage.Pool.ContainerOwner.Get(tokenKey(token))
	if nil == buffer {
		return account.NilPrincipal, fault.ContainerNotFound
	}
	return account.PrincipalFromBytes(buffer)
}

// HasProperty - true when the property is active on the container
func (o *odc) HasProperty(token TokenId, prop category.PropertyKey) bool {
	return storage.Pool.ContainerProps.Has(propertyKey(token, prop))
}

// GetAllProperties - every property active on a container
func (o *odc) GetAllProperties(token TokenId) ([]category.PropertyKey, error) {
	if !o.Exists(token) {
		return nil, fault.ContainerNotFound
	}

	properties := []category.PropertyKey{}
	err := storage.Pool.ContainerProps.NewPrefixedCursor(tokenKey(token)).Map(func(key []byte, value []byte) error {
		prop := category.PropertyKey{}
		copy(prop[:], key[8:])
		properties = append(properties, prop)
		return nil
	})
	if nil != err {
		return nil, err
	}
	return properties, nil
}

// GetCategoryProperties - the container's active properties that
// belong to one category
func (o *odc) GetCategoryProperties(token TokenId, cat category.CategoryKey) ([]category.PropertyKey, error) {
	if !o.Exists(token) {
		return nil, fault.ContainerNotFound
	}

	categoryProperties, _, err := o.directory.GetCategoryInfo(cat)
	if nil != err {
		return nil, err
	}

	properties := []category.PropertyKey{}
	for _, prop := range categoryProperties {
		if o.HasProperty(token, prop) {
			properties = append(properties, prop)
		}
	}
	return properties, nil
}

// GetToken - the container owned by a principal carrying a property
//
// when the principal owns several such containers the one with the
// lowest token identity is returned
func (o *odc) GetToken(owner account.Principal, prop category.PropertyKey) (TokenId, error) {
	prefix := make([]byte, 0, account.PrincipalLength+category.KeyLength)
	prefix = append(prefix, owner.Bytes()...)
	prefix = append(prefix, prop[:]...)

	elements, err := storage.Pool.OwnerTokens.NewPrefixedCursor(prefix).Fetch(1)
	if nil != err {
		return 0, err
	}
	if 0 == len(elements) {
		return 0, fault.ContainerNotFound
	}
	token := binary.BigEndian.Uint64(elements[0].Key[len(prefix):])
	return TokenId(token), nil
}

// GetAllTokensWithProperty - every container carrying a property
func (o *odc) GetAllTokensWithProperty(prop category.PropertyKey) ([]TokenId, error) {
	tokens := []TokenId{}
	err := storage.Pool.PropertyTokens.NewPrefixedCursor(prop[:]).Map(func(key []byte, value []byte) error {
		tokens = append(tokens, TokenId(binary.BigEndian.Uint64(key[category.KeyLength:])))
		return nil
	})
	if nil != err {
		return nil, err
	}
	return tokens, nil
}
