// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/odcnet/odcd/fault"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Sequences        *PoolHandle `prefix:"S"`
	Admins           *PoolHandle `prefix:"A"`
	Owners           *PoolHandle `prefix:"W"`
	Approvals        *PoolHandle `prefix:"P"`
	GateBindings     *PoolHandle `prefix:"G"`
	StoreVersion     *PoolHandle `prefix:"V"`
	StoreData        *PoolHandle `prefix:"D"`
	ContainerNext    *PoolHandle `prefix:"N"`
	ContainerOwner   *PoolHandle `prefix:"C"`
	ContainerProps   *PoolHandle `prefix:"T"`
	PropertyTokens   *PoolHandle `prefix:"Y"`
	OwnerTokens      *PoolHandle `prefix:"J"`
	PropertyData     *PoolHandle `prefix:"O"`
	Restrictions     *PoolHandle `prefix:"R"`
	RestrictionNext  *PoolHandle `prefix:"X"`
	PropertyCategory *PoolHandle `prefix:"K"`
	CategoryInfo     *PoolHandle `prefix:"F"`
	CategoryProps    *PoolHandle `prefix:"Q"`
	CategoryManagers *PoolHandle `prefix:"M"`
	Minters          *PoolHandle `prefix:"U"`
	TestData         *PoolHandle `prefix:"Z"`
}

// Pool - the set of exported pools
var Pool pools

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentDBVersion = 0x100
)

// holds the database handle
var poolData struct {
	sync.RWMutex
	db    *leveldb.DB
	trx   Transaction
	cache Cache
}

// Initialise - open up the database connection
//
// this must be called before any pool is accessed
func Initialise(database string) error {
	poolData.Lock()
	defer poolData.Unlock()

	ok := false

	if nil != poolData.db {
		return fault.AlreadyInitialised
	}

	defer func() {
		if !ok {
			dbClose()
		}
	}()

	db, dbVersion, err := getDB(database + "-data.leveldb")
	if nil != err {
		return err
	}
	poolData.db = db

	// ensure no database downgrade
	if dbVersion > currentDBVersion {
		fault.Criticalf("database version: %d > current version: %d", dbVersion, currentDBVersion)
		return fmt.Errorf("database version: %d > current version: %d", dbVersion, currentDBVersion)
	}

	if 0 == dbVersion {
		// database was empty so tag as current version
		err = putVersion(poolData.db, currentDBVersion)
		if nil != err {
			return err
		}
	}

	poolData.cache = newCache()
	dataAccess := newDataAccess(poolData.db, poolData.cache)
	poolData.trx = newTransaction(dataAccess)

	// this will be a struct type
	poolType := reflect.TypeOf(Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&Pool).Elem()

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return fmt.Errorf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		p := &PoolHandle{
			prefix:     prefix,
			limit:      limit,
			dataAccess: dataAccess,
		}

		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	ok = true // prevent db close
	return nil
}

func dbClose() {
	if nil != poolData.db {
		poolData.db.Close()
		poolData.db = nil
		poolData.trx = nil
		poolData.cache = nil
	}
}

// Finalise - close the database connection
func Finalise() {
	poolData.Lock()
	dbClose()
	poolData.Unlock()
}

// NewDBTransaction - begin the database transaction
//
// only a single transaction can be pending at one time; the error
// signals a transaction already in use
func NewDBTransaction() (Transaction, error) {
	poolData.RLock()
	defer poolData.RUnlock()

	if nil == poolData.trx {
		return nil, fault.NotInitialised
	}
	if err := poolData.trx.Begin(); nil != err {
		return nil, err
	}
	return poolData.trx, nil
}

// IsTransactionInUse - true while a transaction batch is open
func IsTransactionInUse() bool {
	poolData.RLock()
	defer poolData.RUnlock()

	if nil == poolData.trx {
		return false
	}
	return poolData.trx.InUse()
}

// Statistics - the underlying database statistics report
func Statistics() (string, error) {
	poolData.RLock()
	defer poolData.RUnlock()

	if nil == poolData.db {
		return "", fault.NotInitialised
	}
	return poolData.db.GetProperty("leveldb.stats")
}

// return database handle and version number
func getDB(name string) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

// write the version key
func putVersion(db *leveldb.DB, version int) error {
	versionValue := make([]byte, 4)
	binary.BigEndian.PutUint32(versionValue, uint32(version))
	return db.Put(versionKey, versionValue, nil)
}
