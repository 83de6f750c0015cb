// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain - names of the networks a registry can belong to
//
// each network carries a fixed 4 byte tag that is embedded in every
// data point identifier allocated on that network
package chain

import (
	"encoding/binary"

	"github.com/odcnet/odcd/fault"
)

// names of all chains
const (
	Live    = "live"
	Testing = "testing"
	Local   = "local"
)

// 4 byte network tags, one per chain
//
// these values are part of the data point wire format and must never
// be renumbered
const (
	liveTag    uint32 = 0x4f444331 // "ODC1"
	testingTag uint32 = 0x74444331 // "tDC1"
	localTag   uint32 = 0x6c444331 // "lDC1"
)

// Valid - validate a chain name
func Valid(name string) bool {
	switch name {
	case Live, Testing, Local:
		return true
	default:
		return false
	}
}

// Tag - the network tag for a chain name
func Tag(name string) (uint32, error) {
	switch name {
	case Live:
		return liveTag, nil
	case Testing:
		return testingTag, nil
	case Local:
		return localTag, nil
	default:
		return 0, fault.InvalidChainName
	}
}

// TagBytes - the network tag as big endian bytes
func TagBytes(name string) ([4]byte, error) {
	tag, err := Tag(name)
	buffer := [4]byte{}
	if nil != err {
		return buffer, err
	}
	binary.BigEndian.PutUint32(buffer[:], tag)
	return buffer, nil
}
