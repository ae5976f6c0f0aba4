// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import "errors"

// As calls stdlib errors.As.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is calls stdlib errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }

// Code returns the status code if the error is an [Error] or a [Status], or 0.
// An unknown error reports the code of its cause.
func Code(err error) Status {
	var e *Error
	if !As(err, &e) {
		var s Status
		if As(err, &s) {
			return s
		}
		return 0
	}
	for e.Code == UnknownError && e.Cause != nil {
		e = e.Cause
	}
	return e.Code
}
