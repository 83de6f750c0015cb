// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// error base
type GenericError string

// to allow for different classes of errors
type AuthorizationError GenericError
type ExistsError GenericError
type InvalidError GenericError
type MismatchError GenericError
type NotFoundError GenericError
type PolicyError GenericError
type ProcessError GenericError
type UnsupportedError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised      = ProcessError("already initialised")
	CategoryNotSplittable   = PolicyError("category is not splittable")
	ContainerNotFound       = NotFoundError("container not found")
	ConfigurationNotTable   = InvalidError("configuration script must return a table")
	DataValueLength         = InvalidError("data value length is invalid")
	EmptyCategoryList       = InvalidError("empty category list")
	InvalidChainName        = InvalidError("invalid chain name")
	InvalidCount            = InvalidError("invalid count")
	InvalidCursor           = InvalidError("invalid cursor")
	InvalidDataPoint        = InvalidError("invalid data point")
	InvalidLoggerChannel    = InvalidError("invalid logger channel")
	InvalidPayloadLength    = InvalidError("invalid payload length")
	InvalidPrincipal        = InvalidError("invalid principal")
	InvalidRestriction      = InvalidError("invalid restriction expression")
	InvalidStructPointer    = InvalidError("invalid struct pointer")
	InvalidVersion          = InvalidError("invalid version")
	KeyNotFound             = NotFoundError("key not found")
	NotApprovedManager      = AuthorizationError("not an approved data manager")
	NotBoundGate            = AuthorizationError("not the bound access gate")
	NotCategorized          = PolicyError("property has no category")
	NotCategoryManager      = AuthorizationError("not a category manager")
	NotInitialised          = ProcessError("not initialised")
	NotMinter               = AuthorizationError("not a minter")
	NotPrincipal            = InvalidError("not a principal")
	NotRegistryAdmin        = AuthorizationError("not a registry admin")
	PropertyConflict        = PolicyError("property already active on target")
	PropertyExists          = ExistsError("property already active")
	PropertyNotFound        = NotFoundError("property not found")
	RestrictionDenied       = AuthorizationError("restriction denied mutation")
	RestrictionNotFound     = NotFoundError("restriction not found")
	SequenceOverflow        = ProcessError("registry sequence space exhausted")
	TransactionAlreadyInUse = ProcessError("transaction already in use")
	UnsupportedOperation    = UnsupportedError("unsupported operation selector")
	WrongChain              = MismatchError("data point chain tag mismatch")
	WrongRegistry           = MismatchError("data point registry mismatch")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e AuthorizationError) Error() string { return string(e) }
func (e ExistsError) Error() string        { return string(e) }
func (e InvalidError) Error() string       { return string(e) }
func (e MismatchError) Error() string      { return string(e) }
func (e NotFoundError) Error() string      { return string(e) }
func (e PolicyError) Error() string        { return string(e) }
func (e ProcessError) Error() string       { return string(e) }
func (e UnsupportedError) Error() string   { return string(e) }

// determine the class of an error
func IsErrAuthorization(e error) bool { _, ok := e.(AuthorizationError); return ok }
func IsErrExists(e error) bool        { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool       { _, ok := e.(InvalidError); return ok }
func IsErrMismatch(e error) bool      { _, ok := e.(MismatchError); return ok }
func IsErrNotFound(e error) bool      { _, ok := e.(NotFoundError); return ok }
func IsErrPolicy(e error) bool        { _, ok := e.(PolicyError); return ok }
func IsErrProcess(e error) bool       { _, ok := e.(ProcessError); return ok }
func IsErrUnsupported(e error) bool   { _, ok := e.(UnsupportedError); return ok }
