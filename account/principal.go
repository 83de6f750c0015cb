// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package account - principals that interact with the core
//
// a principal is the 20 byte address of a registry admin, data
// manager, category manager or minter; it is derived from the
// principal's public key and represented as base58 text
package account

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"

	"github.com/odcnet/odcd/fault"
)

// PrincipalLength - bytes in a principal address
const PrincipalLength = 20

// Principal - the type of a principal address
// stored as a byte array
// represented as base58 text for JSON encoding
type Principal [PrincipalLength]byte

// NilPrincipal - the all zero principal, used as an absent marker
var NilPrincipal Principal

// NewPrincipal - derive a principal from raw public key bytes
//
// SHA3-256 truncated to the low 20 bytes
func NewPrincipal(publicKey []byte) Principal {
	digest := sha3.Sum256(publicKey)
	principal := Principal{}
	copy(principal[:], digest[len(digest)-PrincipalLength:])
	return principal
}

// PrincipalFromBytes - convert a byte slice to a principal
func PrincipalFromBytes(buffer []byte) (Principal, error) {
	principal := Principal{}
	if PrincipalLength != len(buffer) {
		return principal, fault.InvalidPrincipal
	}
	copy(principal[:], buffer)
	return principal, nil
}

// Bytes - convert a principal to a byte slice
func (principal Principal) Bytes() []byte {
	return principal[:]
}

// IsNil - true for the all zero principal
func (principal Principal) IsNil() bool {
	return bytes.Equal(principal[:], NilPrincipal[:])
}

// String - base58 text for use by the fmt package (for %s)
func (principal Principal) String() string {
	return base58.Encode(principal[:])
}

// GoString - base58 text for use by the fmt package (for %#v)
func (principal Principal) GoString() string {
	return "<principal:" + base58.Encode(principal[:]) + ">"
}

// MarshalText - convert a principal to base58 text
func (principal Principal) MarshalText() ([]byte, error) {
	return []byte(base58.Encode(principal[:])), nil
}

// UnmarshalText - convert base58 text to a principal
func (principal *Principal) UnmarshalText(s []byte) error {
	buffer, err := base58.Decode(string(s))
	if nil != err {
		return err
	}
	if PrincipalLength != len(buffer) {
		return fault.NotPrincipal
	}
	copy(principal[:], buffer)
	return nil
}

// Scan - convert a base58 text representation to a principal for use
// by the format package scan routines
func (principal *Principal) Scan(state fmt.ScanState, verb rune) error {
	token, err := state.Token(true, func(c rune) bool {
		if c >= '1' && c <= '9' {
			return true
		}
		if c >= 'A' && c <= 'H' || c >= 'J' && c <= 'N' || c >= 'P' && c <= 'Z' {
			return true
		}
		if c >= 'a' && c <= 'k' || c >= 'm' && c <= 'z' {
			return true
		}
		return false
	})
	if nil != err {
		return err
	}
	return principal.UnmarshalText(token)
}
