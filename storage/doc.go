// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains a LevelDB database split into a series of tables.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available tables.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++            = concatenation of byte data
// 3. id            = data point identifier (32 bytes, see datapoint package)
// 4. principal     = principal address (20 bytes, see account package)
// 5. token         = container identity as big endian uint64 (8 bytes)
// 6. property key  = opaque 32 byte word
// 7. data key      = opaque 32 byte word
// 8. version       = big endian uint64 (8 bytes)
// 9. count         = successive index value as big endian uint64 (8 bytes)
//
// Registry:
//
//	S ++ registry address      - next local sequence number to allocate
//	                             data: count
//	A ++ id ++ principal       - admin role membership
//	                             data: 0x01
//	W ++ id                    - distinguished owner marker
//	                             data: principal
//
// Access gate:
//
//	P ++ id ++ principal       - data manager approval
//	                             data: 0x01
//	G ++ id                    - bound access gate
//	                             data: gate principal
//
// Versioned store:
//
//	V ++ id                    - current version pointer
//	                             data: version
//	D ++ id ++ version ++ sub ++ key
//	                           - sub store content, sub is one single byte
//	                             of: 's' scalar  'b' blob  'x' set  'm' map
//	                             data: scalar/map: 32 byte word, blob: bytes,
//	                             set: 0x01
//
// Containers:
//
//	N ++ 0x00                  - next container identity
//	                             data: count
//	C ++ token                 - container owner
//	                             data: principal
//	T ++ token ++ property key - active property membership
//	                             data: 0x01
//	Y ++ property key ++ token - inverted property index
//	                             data: 0x01
//	J ++ principal ++ property key ++ token
//	                           - owner/property index for token lookup
//	                             data: 0x01
//	O ++ token ++ property key ++ data key
//	                           - property data
//	                             data: 32 byte word
//	R ++ token ++ property key ++ index(4 bytes)
//	                           - restriction expression
//	                             data: expression text
//	X ++ token ++ property key - next restriction index
//	                             data: count
//
// Category directory:
//
//	K ++ property key          - category of a property
//	                             data: category key (32 bytes)
//	F ++ category key          - category flags
//	                             data: 0x00 or 0x01 (split allowed)
//	Q ++ category key ++ property key
//	                           - category membership
//	                             data: 0x01
//	M ++ category key ++ principal
//	                           - category manager
//	                             data: 0x01
//	U ++ principal             - minter
//	                             data: 0x01
//
// Testing:
//
//	Z ++ key                   - testing data
package storage
