// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package datapoint_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/chain"
	"github.com/odcnet/odcd/datapoint"
	"github.com/odcnet/odcd/fault"
)

func testRegistry() account.Principal {
	return account.NewPrincipal([]byte("registry public key"))
}

func TestEncodeLayout(t *testing.T) {
	registry := testRegistry()
	tag, err := chain.Tag(chain.Testing)
	assert.NoError(t, err)

	d := datapoint.Encode(0x0d01, 0x01020304, tag, registry)

	// bit exact field placement
	assert.Equal(t, byte(0x0d), d[0])
	assert.Equal(t, byte(0x01), d[1])
	assert.Equal(t, byte(datapoint.CurrentVersion), d[2])
	assert.Equal(t, byte(0x00), d[3])
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, d.Bytes()[4:8])
	assert.Equal(t, registry.Bytes(), d.Bytes()[12:32])
}

func TestDecode(t *testing.T) {
	registry := testRegistry()
	tag, _ := chain.Tag(chain.Local)

	d := datapoint.Encode(0x0d01, 42, tag, registry)

	fields, err := datapoint.Decode(d)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x0d01), fields.TypeTag)
	assert.Equal(t, byte(datapoint.CurrentVersion), fields.Version)
	assert.Equal(t, uint32(42), fields.Sequence)
	assert.Equal(t, tag, fields.ChainTag)
	assert.Equal(t, registry, fields.Registry)

	// corrupt the reserved byte
	d[3] = 0x55
	_, err = datapoint.Decode(d)
	assert.Equal(t, fault.InvalidDataPoint, err)
}

func TestValidate(t *testing.T) {
	registry := testRegistry()
	otherRegistry := account.NewPrincipal([]byte("another registry"))
	testingTag, _ := chain.Tag(chain.Testing)
	localTag, _ := chain.Tag(chain.Local)

	d := datapoint.Encode(0x0d01, 7, testingTag, registry)

	assert.NoError(t, datapoint.Validate(d, registry, testingTag))
	assert.Equal(t, fault.WrongChain, datapoint.Validate(d, registry, localTag))
	assert.Equal(t, fault.WrongRegistry, datapoint.Validate(d, otherRegistry, testingTag))
}

func TestTextRoundTrip(t *testing.T) {
	tag, _ := chain.Tag(chain.Testing)
	d := datapoint.Encode(0x0d01, 9, tag, testRegistry())

	text, err := d.MarshalText()
	assert.NoError(t, err)

	decoded := datapoint.DataPoint{}
	assert.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, d, decoded)

	scanned := datapoint.DataPoint{}
	n, err := fmt.Sscan(d.String(), &scanned)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, d, scanned)
}

func TestFromBytes(t *testing.T) {
	_, err := datapoint.FromBytes([]byte{1, 2, 3})
	assert.Equal(t, fault.InvalidDataPoint, err)

	tag, _ := chain.Tag(chain.Testing)
	d := datapoint.Encode(0x0d01, 1, tag, testRegistry())
	back, err := datapoint.FromBytes(d.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, d, back)
}
