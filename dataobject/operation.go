// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dataobject

import (
	"encoding/binary"

	"github.com/odcnet/odcd/fault"
)

// OpCode - the 4 byte operation selector
//
// the wire form is 4 big endian bytes; the selector together with its
// payload is decoded once at the boundary into a typed request so the
// dispatch below is exhaustive
type OpCode uint32

// read selectors
const (
	OpGetScalar    OpCode = 0x00000101
	OpGetBlob      OpCode = 0x00000102
	OpHasSetMember OpCode = 0x00000103
	OpGetMapValue  OpCode = 0x00000104
	OpListKeys     OpCode = 0x00000105
	OpGetVersion   OpCode = 0x00000106
)

// write selectors
const (
	OpSetScalar       OpCode = 0x00000201
	OpDeleteScalar    OpCode = 0x00000202
	OpSetBlob         OpCode = 0x00000203
	OpDeleteBlob      OpCode = 0x00000204
	OpAddSetMember    OpCode = 0x00000205
	OpRemoveSetMember OpCode = 0x00000206
	OpSetMapValue     OpCode = 0x00000207
	OpDeleteMapValue  OpCode = 0x00000208
	OpClearVersion    OpCode = 0x00000209
	OpWipe            OpCode = 0x0000020a
	OpMoveData        OpCode = 0x0000020b
	OpSetVersion      OpCode = 0x0000020c
)

// KeyLength - bytes in a sub store key and in a scalar/map value
const KeyLength = 32

// CurrentVersion - the version field value meaning "current version"
const CurrentVersion uint64 = 0

// sub store tags as stored in the data pool key
const (
	scalarTag = byte('s')
	blobTag   = byte('b')
	setTag    = byte('x')
	mapTag    = byte('m')
)

// OpCodeFromBytes - decode the 4 byte wire form of a selector
func OpCodeFromBytes(buffer []byte) (OpCode, error) {
	if 4 != len(buffer) {
		return 0, fault.UnsupportedOperation
	}
	return OpCode(binary.BigEndian.Uint32(buffer)), nil
}

// Bytes - the 4 byte wire form of a selector
func (op OpCode) Bytes() []byte {
	buffer := make([]byte, 4)
	binary.BigEndian.PutUint32(buffer, uint32(op))
	return buffer
}

// a decoded read request
type readRequest struct {
	op      OpCode
	version uint64 // CurrentVersion means the current version pointer
	sub     byte   // only for OpListKeys
	key     []byte // KeyLength bytes where present
}

// a decoded write request
type writeRequest struct {
	op      OpCode
	key     []byte // KeyLength bytes where present
	value   []byte // scalar/map: KeyLength bytes, blob: any length
	version uint64 // OpClearVersion / OpSetVersion
	from    uint64 // OpMoveData
	to      uint64 // OpMoveData
}

// decode a sub store tag from a payload byte
func subFromByte(b byte) (byte, error) {
	switch b {
	case scalarTag, blobTag, setTag, mapTag:
		return b, nil
	default:
		return 0, fault.InvalidPayloadLength
	}
}

// decode a read selector and payload
//
// payload layouts (all integers big endian):
//
//	OpGetScalar    version(8) ++ key(32)
//	OpGetBlob      version(8) ++ key(32)
//	OpHasSetMember version(8) ++ key(32)
//	OpGetMapValue  version(8) ++ key(32)
//	OpListKeys     version(8) ++ sub(1)
//	OpGetVersion   (empty)
func decodeRead(op OpCode, payload []byte) (readRequest, error) {
	request := readRequest{op: op}

	switch op {

	case OpGetScalar, OpGetBlob, OpHasSetMember, OpGetMapValue:
		if 8+KeyLength != len(payload) {
			return request, fault.InvalidPayloadLength
		}
		request.version = binary.BigEndian.Uint64(payload[:8])
		request.key = payload[8:]
		return request, nil

	case OpListKeys:
		if 9 != len(payload) {
			return request, fault.InvalidPayloadLength
		}
		request.version = binary.BigEndian.Uint64(payload[:8])
		sub, err := subFromByte(payload[8])
		if nil != err {
			return request, err
		}
		request.sub = sub
		return request, nil

	case OpGetVersion:
		if 0 != len(payload) {
			return request, fault.InvalidPayloadLength
		}
		return request, nil

	default:
		return request, fault.UnsupportedOperation
	}
}

// decode a write selector and payload
//
// payload layouts (all integers big endian):
//
//	OpSetScalar       key(32) ++ value(32)
//	OpDeleteScalar    key(32)
//	OpSetBlob         key(32) ++ blob(any, at least 1 byte)
//	OpDeleteBlob      key(32)
//	OpAddSetMember    key(32)
//	OpRemoveSetMember key(32)
//	OpSetMapValue     key(32) ++ value key(32)
//	OpDeleteMapValue  key(32)
//	OpClearVersion    version(8)
//	OpWipe            (empty)
//	OpMoveData        from(8) ++ to(8)
//	OpSetVersion      version(8)
func decodeWrite(op OpCode, payload []byte) (writeRequest, error) {
	request := writeRequest{op: op}

	switch op {

	case OpSetScalar, OpSetMapValue:
		if 2*KeyLength != len(payload) {
			return request, fault.InvalidPayloadLength
		}
		request.key = payload[:KeyLength]
		request.value = payload[KeyLength:]
		return request, nil

	case OpSetBlob:
		if len(payload) < KeyLength+1 {
			return request, fault.InvalidPayloadLength
		}
		request.key = payload[:KeyLength]
		request.value = payload[KeyLength:]
		return request, nil

	case OpDeleteScalar, OpDeleteBlob, OpAddSetMember, OpRemoveSetMember, OpDeleteMapValue:
		if KeyLength != len(payload) {
			return request, fault.InvalidPayloadLength
		}
		request.key = payload
		return request, nil

	case OpClearVersion, OpSetVersion:
		if 8 != len(payload) {
			return request, fault.InvalidPayloadLength
		}
		request.version = binary.BigEndian.Uint64(payload)
		if CurrentVersion == request.version {
			return request, fault.InvalidVersion
		}
		return request, nil

	case OpWipe:
		if 0 != len(payload) {
			return request, fault.InvalidPayloadLength
		}
		return request, nil

	case OpMoveData:
		if 16 != len(payload) {
			return request, fault.InvalidPayloadLength
		}
		request.from = binary.BigEndian.Uint64(payload[:8])
		request.to = binary.BigEndian.Uint64(payload[8:])
		if CurrentVersion == request.from || CurrentVersion == request.to || request.from == request.to {
			return request, fault.InvalidVersion
		}
		return request, nil

	default:
		return request, fault.UnsupportedOperation
	}
}

// the sub store a selector addresses
func (op OpCode) sub() byte {
	switch op {
	case OpGetScalar, OpSetScalar, OpDeleteScalar:
		return scalarTag
	case OpGetBlob, OpSetBlob, OpDeleteBlob:
		return blobTag
	case OpHasSetMember, OpAddSetMember, OpRemoveSetMember:
		return setTag
	case OpGetMapValue, OpSetMapValue, OpDeleteMapValue:
		return mapTag
	default:
		return 0
	}
}
