// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	. "gitlab.com/accumulatenetwork/keyauth/protocol"
)

func TestHasFullPrefix(t *testing.T) {
	cases := []struct {
		Scheme SignatureScheme
		Size   int
		Full   bool
	}{
		{ED25519, 32, true},
		{ED25519, 31, false},
		{ED25519, 33, false},
		{ECDSASecp256k1, 33, true},
		{ECDSASecp256k1, 32, false},
		{UnknownScheme, 0, false},
	}
	for _, c := range cases {
		p := &SignaturePair{Scheme: c.Scheme, PubKeyPrefix: make([]byte, c.Size)}
		require.Equal(t, c.Full, p.HasFullPrefix(), "%v with %d bytes", c.Scheme, c.Size)
	}
}

func TestSettleOnce(t *testing.T) {
	sig := new(SignatureObject)
	require.True(t, sig.Settle(true))
	require.Equal(t, Valid, sig.Result)
	require.False(t, sig.Settle(false))
	require.Equal(t, Valid, sig.Result)
}

func TestSameSignature(t *testing.T) {
	a := &SignatureObject{PublicKey: []byte{1}, Signature: []byte{2}, Message: []byte{3}}
	b := a.Copy()
	b.Message = []byte{4}
	b.Result = Invalid
	require.True(t, a.SameSignature(b))

	b.Signature[0] = 5
	require.False(t, a.SameSignature(b))
	require.Equal(t, byte(2), a.Signature[0], "Copy is deep")
}

func TestSignatureSchemeText(t *testing.T) {
	for _, name := range []string{"ed25519", "ED25519", "secp256k1", "ecdsa-secp256k1", "ECDSA_SECP256K1"} {
		var s SignatureScheme
		require.NoError(t, s.UnmarshalText([]byte(name)), name)
		require.NotEqual(t, UnknownScheme, s, name)
	}

	var s SignatureScheme
	require.Error(t, s.UnmarshalText([]byte("rsa")))

	b, err := json.Marshal(ECDSASecp256k1)
	require.NoError(t, err)
	require.Equal(t, `"ECDSA_SECP256K1"`, string(b))
	require.NoError(t, json.Unmarshal(b, &s))
	require.Equal(t, ECDSASecp256k1, s)
}
