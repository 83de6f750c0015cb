// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package category_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/category"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/storage"
)

const testingDirName = "testing"

var (
	adminA    = account.NewPrincipal([]byte("admin A"))
	managerM  = account.NewPrincipal([]byte("manager M"))
	minterN   = account.NewPrincipal([]byte("minter N"))
	strangerS = account.NewPrincipal([]byte("stranger S"))
)

func setup(t *testing.T) category.Directory {
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

	d, err := category.New(adminA)
	if nil != err {
		t.Fatalf("directory create error: %s", err)
	}
	return d
}

func teardown(t *testing.T) {
	storage.Finalise()
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	os.RemoveAll(testingDirName)
}

func categoryKey(s string) category.CategoryKey {
	cat := category.CategoryKey{}
	copy(cat[:], s)
	return cat
}

func propertyKey(s string) category.PropertyKey {
	prop := category.PropertyKey{}
	copy(prop[:], s)
	return prop
}

func TestDefineCategory(t *testing.T) {
	d := setup(t)
	defer teardown(t)

	weights := categoryKey("weights")

	err := d.DefineCategory(strangerS, weights, true)
	assert.Equal(t, fault.NotCategoryManager, err)

	err = d.DefineCategory(adminA, weights, true)
	assert.NoError(t, err)

	properties, splitAllowed, err := d.GetCategoryInfo(weights)
	assert.NoError(t, err)
	assert.True(t, splitAllowed)
	assert.Empty(t, properties)

	// policy can be redefined
	err = d.DefineCategory(adminA, weights, false)
	assert.NoError(t, err)
	_, splitAllowed, err = d.GetCategoryInfo(weights)
	assert.NoError(t, err)
	assert.False(t, splitAllowed)

	_, _, err = d.GetCategoryInfo(categoryKey("undefined"))
	assert.Equal(t, fault.NotCategorized, err)
}

func TestAssignProperty(t *testing.T) {
	d := setup(t)
	defer teardown(t)

	weights := categoryKey("weights")
	colours := categoryKey("colours")
	mass := propertyKey("mass")

	err := d.DefineCategory(adminA, weights, true)
	assert.NoError(t, err)
	err = d.DefineCategory(adminA, colours, false)
	assert.NoError(t, err)

	// an unknown category or caller is rejected
	err = d.AssignProperty(adminA, categoryKey("undefined"), mass)
	assert.Equal(t, fault.NotCategorized, err)
	err = d.AssignProperty(strangerS, weights, mass)
	assert.Equal(t, fault.NotCategoryManager, err)

	err = d.AssignProperty(adminA, weights, mass)
	assert.NoError(t, err)

	cat, splitAllowed, err := d.GetCategoryInfoForProperty(mass)
	assert.NoError(t, err)
	assert.Equal(t, weights, cat)
	assert.True(t, splitAllowed)

	properties, _, err := d.GetCategoryInfo(weights)
	assert.NoError(t, err)
	assert.Equal(t, []category.PropertyKey{mass}, properties)

	// reassignment removes the property from its old category
	err = d.AssignProperty(adminA, colours, mass)
	assert.NoError(t, err)

	cat, splitAllowed, err = d.GetCategoryInfoForProperty(mass)
	assert.NoError(t, err)
	assert.Equal(t, colours, cat)
	assert.False(t, splitAllowed)

	properties, _, err = d.GetCategoryInfo(weights)
	assert.NoError(t, err)
	assert.Empty(t, properties)
	properties, _, err = d.GetCategoryInfo(colours)
	assert.NoError(t, err)
	assert.Equal(t, []category.PropertyKey{mass}, properties)
}

func TestCategoryManagers(t *testing.T) {
	d := setup(t)
	defer teardown(t)

	weights := categoryKey("weights")
	mass := propertyKey("mass")

	err := d.DefineCategory(adminA, weights, true)
	assert.NoError(t, err)

	_, err = d.AddCategoryManager(strangerS, weights, managerM)
	assert.Equal(t, fault.NotCategoryManager, err)
	assert.False(t, d.IsCategoryManager(weights, managerM))

	done, err := d.AddCategoryManager(adminA, weights, managerM)
	assert.NoError(t, err)
	assert.True(t, done)
	assert.True(t, d.IsCategoryManager(weights, managerM))

	// idempotent
	done, err = d.AddCategoryManager(adminA, weights, managerM)
	assert.NoError(t, err)
	assert.False(t, done)

	// an existing manager can add another
	done, err = d.AddCategoryManager(managerM, weights, strangerS)
	assert.NoError(t, err)
	assert.True(t, done)

	// property management follows category membership
	assert.False(t, d.IsPropertyManager(managerM, mass))
	err = d.AssignProperty(adminA, weights, mass)
	assert.NoError(t, err)
	assert.True(t, d.IsPropertyManager(managerM, mass))
	assert.False(t, d.IsPropertyManager(minterN, mass))
}

func TestMinters(t *testing.T) {
	d := setup(t)
	defer teardown(t)

	_, err := d.AddMinter(strangerS, minterN)
	assert.Equal(t, fault.NotCategoryManager, err)
	assert.False(t, d.IsMinter(minterN))

	done, err := d.AddMinter(adminA, minterN)
	assert.NoError(t, err)
	assert.True(t, done)
	assert.True(t, d.IsMinter(minterN))

	// idempotent
	done, err = d.AddMinter(adminA, minterN)
	assert.NoError(t, err)
	assert.False(t, done)

	_, err = d.AddMinter(adminA, account.NilPrincipal)
	assert.Equal(t, fault.InvalidPrincipal, err)
}
