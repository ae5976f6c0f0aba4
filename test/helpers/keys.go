// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package helpers

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/keyauth/pkg/client/signing"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// Signer returns a deterministic signer for the given scheme and seed.
func Signer(scheme protocol.SignatureScheme, seed ...interface{}) *signing.Signer {
	h := sha256.Sum256([]byte(fmt.Sprint(seed...)))
	if scheme == protocol.ED25519 {
		return signing.FromSeed(h[:])
	}
	return &signing.Signer{Scheme: scheme, PrivateKey: h[:]}
}

// Signers returns n deterministic ED25519 signers.
func Signers(n int, seed ...interface{}) []*signing.Signer {
	s := make([]*signing.Signer, n)
	for i := range s {
		s[i] = Signer(protocol.ED25519, append(seed, i)...)
	}
	return s
}

// Keys returns the primitive keys of the signers.
func Keys(signers ...*signing.Signer) []protocol.KeyNode {
	keys := make([]protocol.KeyNode, len(signers))
	for i, s := range signers {
		keys[i] = s.MustKey()
	}
	return keys
}

// Sign builds the signature map of the body.
func Sign(t testing.TB, body []byte, signers ...*signing.Signer) protocol.SignatureMap {
	t.Helper()
	sigs, err := signing.SignatureMapFor(body).With(signers...).Build()
	require.NoError(t, err)
	return sigs
}
