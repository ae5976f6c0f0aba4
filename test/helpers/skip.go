// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package helpers

import (
	"testing"
)

// SkipLong skips a long test when running in -short mode.
func SkipLong(t testing.TB) {
	if testing.Short() {
		t.Skip("Skipping test: running with -short")
	}
}
