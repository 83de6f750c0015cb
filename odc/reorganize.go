// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package odc

import (
	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/category"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/storage"
)

// Merge - move every active property of the listed categories from
// one container to another
//
// atomic per call: any conflict on the target rejects the entire
// merge with no partial state change
func (o *odc) Merge(caller account.Principal, from TokenId, to TokenId, categories []category.CategoryKey) error {
	o.Lock()
	defer o.Unlock()

	fromOwner, err := o.owner(from)
	if nil != err {
		return err
	}
	toOwner, err := o.owner(to)
	if nil != err {
		return err
	}

	// full feasibility check before anything is staged
	moves, err := o.collectMoves(caller, from, to, categories, false)
	if nil != err {
		return err
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return err
	}

	for _, prop := range moves {
		if err := o.stageMove(trx, prop, from, fromOwner, to, toOwner); nil != err {
			trx.Abort()
			return err
		}
	}

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return err
	}

	o.log.Infof("merge: %d to: %d properties: %d by: %s", from, to, len(moves), caller)
	return nil
}

// Split - mint a new container and move every property of the listed
// categories into it
//
// every listed category must carry the split allowed flag; a single
// non splittable category rejects the whole call
func (o *odc) Split(caller account.Principal, mtid TokenId, categories []category.CategoryKey) (TokenId, error) {
	o.Lock()
	defer o.Unlock()

	owner, err := o.owner(mtid)
	if nil != err {
		return 0, err
	}

	moves, err := o.collectMoves(caller, mtid, 0, categories, true)
	if nil != err {
		return 0, err
	}

	trx, err := storage.NewDBTransaction()
	if nil != err {
		return 0, err
	}

	newToken, err := o.mint(trx, owner)
	if nil != err {
		trx.Abort()
		return 0, err
	}

	for _, prop := range moves {
		if err := o.stageMove(trx, prop, mtid, owner, newToken, owner); nil != err {
			trx.Abort()
			return 0, err
		}
	}

	if err := trx.Commit(); nil != err {
		trx.Abort()
		return 0, err
	}

	o.log.Infof("split: %d new: %d properties: %d by: %s", mtid, newToken, len(moves), caller)
	return newToken, nil
}

// enumerate and authorise every property move before staging
//
// to is ignored when requireSplit is set, the target is then a
// freshly minted container that cannot conflict
//
// an empty category list is rejected: authorisation is checked per
// category, so zero categories would mean zero checks
func (o *odc) collectMoves(caller account.Principal, from TokenId, to TokenId, categories []category.CategoryKey, requireSplit bool) ([]category.PropertyKey, error) {
	if 0 == len(categories) {
		return nil, fault.EmptyCategoryList
	}

	moves := []category.PropertyKey{}

	for _, cat := range categories {
		categoryProperties, splitAllowed, err := o.directory.GetCategoryInfo(cat)
		if nil != err {
			return nil, err
		}
		if requireSplit && !splitAllowed {
			return nil, fault.CategoryNotSplittable
		}
		if !o.directory.IsCategoryManager(cat, caller) {
			return nil, fault.NotCategoryManager
		}

		for _, prop := range categoryProperties {
			if !o.HasProperty(from, prop) {
				continue
			}
			if !requireSplit && o.HasProperty(to, prop) {
				return nil, fault.PropertyConflict
			}
			moves = append(moves, prop)
		}
	}
	return moves, nil
}

// stage the relocation of one property between containers: the three
// index entries, every data entry, every restriction and the
// restriction counter
func (o *odc) stageMove(trx storage.Transaction, prop category.PropertyKey, from TokenId, fromOwner account.Principal, to TokenId, toOwner account.Principal) error {
	o.stageDeactivate(trx, from, fromOwner, prop)
	o.stageActivate(trx, to, toOwner, prop)

	fromPrefix := propertyKey(from, prop)
	toPrefix := propertyKey(to, prop)

	relocate := func(pool *storage.PoolHandle) error {
		return pool.NewPrefixedCursor(fromPrefix).Map(func(key []byte, value []byte) error {
			newKey := make([]byte, 0, len(key))
			newKey = append(newKey, toPrefix...)
			newKey = append(newKey, key[len(fromPrefix):]...)
			trx.Put(pool, newKey, value)
			trx.Delete(pool, key)
			return nil
		})
	}

	if err := relocate(storage.Pool.PropertyData); nil != err {
		return err
	}
	if err := relocate(storage.Pool.Restrictions); nil != err {
		return err
	}

	if next, found := trx.GetN(storage.Pool.RestrictionNext, fromPrefix); found {
		trx.PutN(storage.Pool.RestrictionNext, toPrefix, next)
		trx.Delete(storage.Pool.RestrictionNext, fromPrefix)
	}
	return nil
}
