// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package datapoint - the 32 byte data point identifier codec
//
// layout (big endian fields, bit exact for cross registry interop):
//
//	offset  size  field
//	0       2     type tag
//	2       1     format version
//	3       1     reserved (must be zero)
//	4       4     registry local sequence number
//	8       4     network chain tag
//	12      20    registry address
//
// uniqueness holds only within (registry address, chain tag); the
// sequence number is assigned monotonically per registry and never
// reused
package datapoint

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/fault"
)

// limits
const (
	Length = 32
)

// field offsets into the packed identifier
const (
	typeOffset     = 0
	versionOffset  = 2
	reservedOffset = 3
	sequenceOffset = 4
	chainOffset    = 8
	registryOffset = 12
)

// CurrentVersion - the format version written by Encode
const CurrentVersion = 0x01

// DataPoint - the type for a data point identifier
// stored as a byte array
// represented as hex text for JSON encoding
// to get bytes value just use dataPoint[:]
type DataPoint [Length]byte

// Fields - the decoded form of a data point identifier
type Fields struct {
	TypeTag  uint16
	Version  byte
	Sequence uint32
	ChainTag uint32
	Registry account.Principal
}

// Encode - pack the fields into an identifier
func Encode(typeTag uint16, sequence uint32, chainTag uint32, registry account.Principal) DataPoint {
	d := DataPoint{}
	binary.BigEndian.PutUint16(d[typeOffset:], typeTag)
	d[versionOffset] = CurrentVersion
	d[reservedOffset] = 0x00
	binary.BigEndian.PutUint32(d[sequenceOffset:], sequence)
	binary.BigEndian.PutUint32(d[chainOffset:], chainTag)
	copy(d[registryOffset:], registry.Bytes())
	return d
}

// Decode - unpack an identifier into its fields
func Decode(d DataPoint) (Fields, error) {
	fields := Fields{}
	if CurrentVersion != d[versionOffset] || 0x00 != d[reservedOffset] {
		return fields, fault.InvalidDataPoint
	}
	fields.TypeTag = binary.BigEndian.Uint16(d[typeOffset:])
	fields.Version = d[versionOffset]
	fields.Sequence = binary.BigEndian.Uint32(d[sequenceOffset:])
	fields.ChainTag = binary.BigEndian.Uint32(d[chainOffset:])
	registry, err := account.PrincipalFromBytes(d[registryOffset : registryOffset+account.PrincipalLength])
	if nil != err {
		return fields, err
	}
	fields.Registry = registry
	return fields, nil
}

// Validate - check the embedded registry and chain tag against the
// validating component's environment
//
// the cheap first line of defence against an identifier replayed
// from an unrelated registry or network
func Validate(d DataPoint, expectedRegistry account.Principal, expectedChainTag uint32) error {
	fields, err := Decode(d)
	if nil != err {
		return err
	}
	if fields.ChainTag != expectedChainTag {
		return fault.WrongChain
	}
	if fields.Registry != expectedRegistry {
		return fault.WrongRegistry
	}
	return nil
}

// FromBytes - convert a byte slice to an identifier
func FromBytes(buffer []byte) (DataPoint, error) {
	d := DataPoint{}
	if Length != len(buffer) {
		return d, fault.InvalidDataPoint
	}
	copy(d[:], buffer)
	return d, nil
}

// Bytes - convert an identifier to a byte slice
func (d DataPoint) Bytes() []byte {
	return d[:]
}

// String - convert an identifier to hex text for use by the fmt package (for %s)
func (d DataPoint) String() string {
	return hex.EncodeToString(d[:])
}

// GoString - convert an identifier to hex text for use by the fmt package (for %#v)
func (d DataPoint) GoString() string {
	return "<datapoint:" + hex.EncodeToString(d[:]) + ">"
}

// MarshalText - convert an identifier to hex text
func (d DataPoint) MarshalText() ([]byte, error) {
	size := hex.EncodedLen(Length)
	buffer := make([]byte, size)
	hex.Encode(buffer, d[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into an identifier
func (d *DataPoint) UnmarshalText(s []byte) error {
	if Length != hex.DecodedLen(len(s)) {
		return fault.InvalidDataPoint
	}
	byteCount, err := hex.Decode(d[:], s)
	if nil != err {
		return err
	}
	if Length != byteCount {
		return fault.InvalidDataPoint
	}
	return nil
}

// Scan - convert a hex text representation to an identifier for use
// by the format package scan routines
func (d *DataPoint) Scan(state fmt.ScanState, verb rune) error {
	token, err := state.Token(true, func(c rune) bool {
		if c >= '0' && c <= '9' {
			return true
		}
		if c >= 'A' && c <= 'F' {
			return true
		}
		if c >= 'a' && c <= 'f' {
			return true
		}
		return false
	})
	if nil != err {
		return err
	}
	if len(token) != hex.EncodedLen(Length) {
		return fault.InvalidDataPoint
	}

	byteCount, err := hex.Decode(d[:], token)
	if nil != err {
		return err
	}
	if Length != byteCount {
		return fault.InvalidDataPoint
	}
	return nil
}
