// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

// Status is an authorization status code.
type Status uint64

// Error is an error with a status code, an optional cause and an optional call
// stack.
type Error struct {
	Message   string
	Code      Status
	Cause     *Error
	CallStack []*CallSite
}

type CallSite struct {
	FuncName string
	File     string
	Line     int64
}

var trackLocation bool

// EnableLocationTracking records the call site of every error constructed
// after it is called. It must not be called concurrently with error
// construction.
func EnableLocationTracking() { trackLocation = true }
