// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	. "gitlab.com/accumulatenetwork/keyauth/protocol"
	"gitlab.com/accumulatenetwork/keyauth/test/helpers"
)

func edKey(b byte) *PrimitiveKey {
	return NewED25519Key(bytes.Repeat([]byte{b}, ED25519PublicKeySize))
}

func TestKeyValidate(t *testing.T) {
	secp := helpers.Signer(ECDSASecp256k1, t.Name()).MustKey()

	deep := KeyNode(edKey(1))
	for i := 1; i < DefaultMaxKeyDepth; i++ {
		deep = Threshold(1, deep)
	}

	cases := []struct {
		Key   KeyNode
		Valid bool
	}{
		{edKey(1), true},
		{secp, true},
		{AllOf(edKey(1), secp), true},
		{Threshold(2, edKey(1), edKey(2), AllOf(edKey(3))), true},
		{deep, true},
		{AllOf(deep), false},
		{AllOf(), false},
		{Threshold(1), false},
		{Threshold(0, edKey(1)), false},
		{Threshold(2, edKey(1)), false},
		{AllOf(edKey(1), nil), false},
		{NewED25519Key(make([]byte, 31)), false},
		{NewSecp256k1Key(secp.PublicKey[1:]), false},
		{NewSecp256k1Key(make([]byte, Secp256k1PublicKeySize)), false},
		{&PrimitiveKey{PublicKey: make([]byte, 32)}, false},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			err := c.Key.Validate(DefaultMaxKeyDepth)
			if c.Valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, errors.BadKey, errors.Code(err))
		})
	}
}

func TestKeyEqual(t *testing.T) {
	a := Threshold(1, edKey(1), AllOf(edKey(2), edKey(3)))
	b := Threshold(1, edKey(1), AllOf(edKey(2), edKey(3)))
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(Threshold(2, edKey(1), AllOf(edKey(2), edKey(3)))))
	require.False(t, a.Equal(AllOf(edKey(1), AllOf(edKey(2), edKey(3)))))
	require.False(t, a.Equal(Threshold(1, edKey(1), AllOf(edKey(2), edKey(4)))))
	require.False(t, edKey(1).Equal(&PrimitiveKey{Scheme: ECDSASecp256k1, PublicKey: edKey(1).PublicKey}))
}

func TestWalkPrimitives(t *testing.T) {
	key := Threshold(1, edKey(1), AllOf(edKey(2), Threshold(1, edKey(3))), edKey(4))

	var seen []byte
	require.NoError(t, WalkPrimitives(key, func(k *PrimitiveKey) error {
		seen = append(seen, k.PublicKey[0])
		return nil
	}))
	require.Equal(t, []byte{1, 2, 3, 4}, seen)

	err := WalkPrimitives(AllOf(edKey(1), nil), func(*PrimitiveKey) error { return nil })
	require.Equal(t, errors.BadKey, errors.Code(err))
}

func TestKeyString(t *testing.T) {
	key := Threshold(1, AllOf(NewED25519Key([]byte{0xAB})))
	require.Equal(t, "threshold(1, allOf(ED25519:ab))", key.String())
}
