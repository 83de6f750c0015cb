// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package odc

import (
	"encoding/hex"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/odcnet/odcd/account"
	"github.com/odcnet/odcd/category"
	"github.com/odcnet/odcd/fault"
	"github.com/odcnet/odcd/storage"
)

// a restriction is a boolean expression over the mutation attempt,
// evaluated with github.com/expr-lang/expr against this environment:
//
//	caller   base58 text of the calling principal
//	token    container identity (integer)
//	property hex text of the property key
//	dataKey  hex text of the data key being written
//	value    hex text of the value being written
//	prior    results of the restrictions already evaluated for this
//	         call, in index order
//
// anything other than a true result denies; evaluation errors deny as
// well (fail closed)

// compile an expression, caching the program per expression text
func (o *odc) compile(expression string) (*exprvm.Program, error) {
	if "" == expression {
		return nil, fault.InvalidRestriction
	}
	if program, ok := o.programs[expression]; ok {
		return program, nil
	}

	program, err := exprlang.Compile(
		expression,
		exprlang.Env(map[string]interface{}{}),
		exprlang.AllowUndefinedVariables(),
	)
	if nil != err {
		return nil, fault.InvalidRestriction
	}
	o.programs[expression] = program
	return program, nil
}

// evaluate every active restriction of a property in index order
//
// the prior results list gives later restrictions access to the
// restriction history of this call
func (o *odc) evaluateRestrictions(caller account.Principal, token TokenId, prop category.PropertyKey, key DataKey, value DataValue) error {
	restrictions, err := o.restrictionList(token, prop)
	if nil != err {
		return err
	}

	prior := make([]bool, 0, len(restrictions))
	for _, restriction := range restrictions {
		allowed := o.evaluate(restriction.Expression, map[string]interface{}{
			"caller":   caller.String(),
			"token":    uint64(token),
			"property": hex.EncodeToString(prop[:]),
			"dataKey":  hex.EncodeToString(key[:]),
			"value":    hex.EncodeToString(value[:]),
			"prior":    prior,
		})
		if !allowed {
			o.log.Warnf("restriction %d denied: token: %d property: %x caller: %s", restriction.Index, token, prop, caller)
			return fault.RestrictionDenied
		}
		prior = append(prior, allowed)
	}
	return nil
}

// run one expression, denying on any error or non boolean result
func (o *odc) evaluate(expression string, env map[string]interface{}) bool {
	program, err := o.compile(expression)
	if nil != err {
		return false
	}
	result, err := exprlang.Run(program, env)
	if nil != err {
		return false
	}
	allowed, ok := result.(bool)
	return ok && allowed
}

// the restrictions of a property without the active property check,
// for use while holding the lock
func (o *odc) restrictionList(token TokenId, prop category.PropertyKey) ([]Restriction, error) {
	prefix := propertyKey(token, prop)
	restrictions := []Restriction{}
	err := storage.Pool.Restrictions.NewPrefixedCursor(prefix).Map(func(key []byte, value []byte) error {
		restrictions = append(restrictions, Restriction{
			Index:      binaryIndex(key[len(prefix):]),
			Expression: string(value),
		})
		return nil
	})
	if nil != err {
		return nil, err
	}
	return restrictions, nil
}
