// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package keyauth

const unknownVersion = "version unknown"

// Version is set at build time with -ldflags.
var Version = unknownVersion

func IsVersionKnown() bool {
	return Version != unknownVersion
}
