// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package policy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
	"gitlab.com/accumulatenetwork/keyauth/test/helpers"
)

func testStore(t testing.TB) (*MemoryStore, []protocol.KeyNode) {
	keys := helpers.Keys(helpers.Signers(5, t.Name())...)
	store := NewMemoryStore(
		&Account{ID: protocol.AccountNum(1), Key: keys[0]},
		&Account{ID: protocol.AccountNum(2), Key: keys[1]},
		&Account{ID: protocol.AccountNum(3), Key: keys[2], ReceiverSigRequired: true},
		&Account{ID: protocol.AccountNum(4), Key: keys[3], ReceiverSigRequired: true, SmartContract: true},
		&Account{ID: protocol.AccountNum(5), Key: keys[4], Deleted: true},
		&Account{ID: protocol.AccountNum(6)},
		&Account{ID: protocol.AccountNum(7), Key: keys[4]},
	)
	return store, keys
}

func ids(n ...uint64) []protocol.AccountID {
	var v []protocol.AccountID
	for _, n := range n {
		v = append(v, protocol.AccountNum(n))
	}
	return v
}

func TestKeysForPayer(t *testing.T) {
	store, keys := testStore(t)
	p := New(store)

	cases := []struct {
		Payer uint64
		Code  errors.Status
	}{
		{1, errors.OK},
		{99, errors.InvalidPayerAccount},
		{5, errors.PayerAccountDeleted},
		{6, errors.BadKey},
	}

	for _, c := range cases {
		t.Run(fmt.Sprint(c.Payer), func(t *testing.T) {
			r, err := p.KeysForPayer(&protocol.Transaction{Payer: protocol.AccountNum(c.Payer)})
			require.NoError(t, err)
			require.Equal(t, c.Code, r.Status())
			if c.Code == errors.OK {
				require.Equal(t, []protocol.KeyNode{keys[0]}, r.Keys)
			}
		})
	}
}

func TestKeysForOtherParties(t *testing.T) {
	store, keys := testStore(t)
	p := New(store)

	cases := []struct {
		Name      string
		Signers   []uint64
		Receivers []uint64
		Code      errors.Status
		Keys      []protocol.KeyNode
	}{
		{"none", nil, nil, errors.OK, nil},
		{"signers", []uint64{2, 7}, nil, errors.OK, []protocol.KeyNode{keys[1], keys[4]}},
		{"receiver not required", nil, []uint64{2}, errors.OK, nil},
		{"receiver required", []uint64{2}, []uint64{3}, errors.OK, []protocol.KeyNode{keys[1], keys[2]}},
		{"smart contract", nil, []uint64{4}, errors.OK, nil},
		{"missing signer", []uint64{99}, nil, errors.InvalidAccount, nil},
		{"missing receiver", nil, []uint64{99}, errors.InvalidAccount, nil},
		{"deleted signer", []uint64{5}, nil, errors.AccountDeleted, nil},
		{"deleted receiver", nil, []uint64{5}, errors.AccountDeleted, nil},
		{"keyless signer", []uint64{6}, nil, errors.BadKey, nil},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			r, err := p.KeysForOtherParties(&protocol.Transaction{Payer: protocol.AccountNum(1), Signers: ids(c.Signers...), Receivers: ids(c.Receivers...)})
			require.NoError(t, err)
			require.Equal(t, c.Code, r.Status())
			if c.Code == errors.OK {
				require.Equal(t, len(c.Keys), len(r.Keys))
				for i, key := range c.Keys {
					require.True(t, key.Equal(r.Keys[i]))
				}
			}
		})
	}
}

func TestLookupAccount(t *testing.T) {
	store, keys := testStore(t)
	p := New(store)

	info, err := p.LookupAccount(protocol.AccountNum(3))
	require.NoError(t, err)
	require.True(t, info.ReceiverSigRequired)
	require.True(t, keys[2].Equal(info.Key))

	_, err = p.LookupAccount(protocol.AccountNum(5))
	require.True(t, errors.Is(err, errors.NotFound))

	_, err = p.LookupAccount(protocol.AccountNum(99))
	require.True(t, errors.Is(err, errors.NotFound))
}

func TestMemoryStoreCopies(t *testing.T) {
	store, _ := testStore(t)

	a, err := store.Account(protocol.AccountNum(1))
	require.NoError(t, err)
	a.Deleted = true

	a, err = store.Account(protocol.AccountNum(1))
	require.NoError(t, err)
	require.False(t, a.Deleted)

	require.NoError(t, store.Update(protocol.AccountNum(1), func(a *Account) { a.Deleted = true }))
	a, err = store.Account(protocol.AccountNum(1))
	require.NoError(t, err)
	require.True(t, a.Deleted)

	err = store.Update(protocol.AccountNum(99), func(*Account) {})
	require.True(t, errors.Is(err, errors.NotFound))
}
