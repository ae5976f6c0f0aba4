// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	. "gitlab.com/accumulatenetwork/keyauth/internal/core/auth"
	"gitlab.com/accumulatenetwork/keyauth/pkg/client/signing"
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
	"gitlab.com/accumulatenetwork/keyauth/test/helpers"
)

// thresholdSetup is a payer keyed by PK1 and another party keyed by 2 of
// (PK2, PK3, PK4). PK5 is not required by anyone.
type thresholdSetup struct {
	signers []*signing.Signer
	policy  *staticPolicy
	body    []byte
}

func newThresholdSetup(t testing.TB) *thresholdSetup {
	s := new(thresholdSetup)
	s.signers = helpers.Signers(5, t.Name())
	s.body = []byte(t.Name())
	keys := helpers.Keys(s.signers...)
	s.policy = &staticPolicy{
		payer:  OrderedKeys(keys[0]),
		others: OrderedKeys(protocol.Threshold(2, keys[1], keys[2], keys[3])),
	}
	return s
}

func (s *thresholdSetup) txn(t testing.TB, signers ...int) *TxnContext {
	b := signing.SignatureMapFor(s.body)
	for _, i := range signers {
		b.With(s.signers[i])
	}
	sigs, err := b.Build()
	require.NoError(t, err)
	return NewTxnContext(&protocol.Transaction{Payer: protocol.AccountNum(1), Body: s.body, Signatures: sigs})
}

func TestRationalizeThreshold(t *testing.T) {
	s := newThresholdSetup(t)
	v := newCountingVerifier()
	r := newRationalizer(t, s.policy, v, false)

	// PK1, PK2, PK4
	tc := s.txn(t, 0, 1, 3)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, StateDone, r.State())
	require.Equal(t, errors.OK, r.FinalStatus())

	a := tc.Authorization
	require.NotNil(t, a)
	require.True(t, a.UsedSyncPath)
	require.True(t, a.HasSignatureMetadata())
	require.Len(t, a.Signatures, 4)
	require.Equal(t, errors.OK, a.Evaluate())
	require.EqualValues(t, 2, v.batches.Load())

	// PK1, PK2
	tc = s.txn(t, 0, 1)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, errors.OK, tc.Authorization.Status)
	require.True(t, tc.Authorization.PayerIsActive())
	require.Equal(t, errors.InvalidSignature, tc.Authorization.Evaluate())
}

func TestRationalizeIsIdempotent(t *testing.T) {
	s := newThresholdSetup(t)
	v := newCountingVerifier()
	r := newRationalizer(t, s.policy, v, false)

	tc := s.txn(t, 0, 1, 3)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.True(t, tc.Authorization.UsedSyncPath)
	first := tc.Signatures
	batches := v.batches.Load()

	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.False(t, tc.Authorization.UsedSyncPath)
	require.Equal(t, batches, v.batches.Load())
	require.Equal(t, first, tc.Signatures)
	require.Equal(t, errors.OK, tc.Authorization.Evaluate())
}

func TestRationalizeReusesSpeculativeResults(t *testing.T) {
	s := newThresholdSetup(t)
	v := newCountingVerifier()

	tc := s.txn(t, 0, 1, 3)
	require.NoError(t, newExpander(t, s.policy, v).ExpandIn(context.Background(), tc))
	require.Len(t, tc.Signatures, 4)
	require.EqualValues(t, 1, v.batches.Load())
	speculative := append([]*protocol.SignatureObject(nil), tc.Signatures...)

	r := newRationalizer(t, s.policy, v, false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.False(t, tc.Authorization.UsedSyncPath)
	require.EqualValues(t, 1, v.batches.Load(), "Nothing is verified again")
	for i, sig := range speculative {
		require.Same(t, sig, tc.Signatures[i])
	}
	require.Equal(t, errors.OK, tc.Authorization.Evaluate())
}

func TestRationalizeReverifiesChangedGroup(t *testing.T) {
	s := newThresholdSetup(t)
	v := newCountingVerifier()

	tc := s.txn(t, 0, 1, 3)
	require.NoError(t, newExpander(t, s.policy, v).ExpandIn(context.Background(), tc))
	payerSig := tc.Signatures[0]

	// The other party's key changes between ingestion and consensus
	keys := helpers.Keys(s.signers...)
	s.policy.setOthers(OrderedKeys(protocol.AllOf(keys[1], keys[3])))

	r := newRationalizer(t, s.policy, v, false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.True(t, tc.Authorization.UsedSyncPath)
	require.EqualValues(t, 2, v.batches.Load(), "Only the other party group is verified again")
	require.Same(t, payerSig, tc.Signatures[0])
	require.Len(t, tc.Signatures, 3)

	// The second batch is exactly the new other party group
	batch := v.batch(1)
	require.Len(t, batch, 2)
	require.Equal(t, keys[1].(*protocol.PrimitiveKey).PublicKey, batch[0].PublicKey)
	require.Equal(t, keys[3].(*protocol.PrimitiveKey).PublicKey, batch[1].PublicKey)
	for i, sig := range batch {
		require.NotSame(t, payerSig, sig)
		require.Same(t, sig, tc.Signatures[1+i])
		require.Equal(t, protocol.Valid, sig.Result)
	}
	require.Equal(t, errors.OK, tc.Authorization.Evaluate())
}

func TestRationalizeReverifiesUnverifiedSignatures(t *testing.T) {
	s := newThresholdSetup(t)
	v := newCountingVerifier()

	tc := s.txn(t, 0, 1, 3)
	require.NoError(t, newExpander(t, s.policy, v).ExpandIn(context.Background(), tc))

	// Same keys and bytes but no results
	for i, sig := range tc.Signatures {
		sig = sig.Copy()
		sig.Result = protocol.Unverified
		tc.Signatures[i] = sig
	}

	r := newRationalizer(t, s.policy, v, false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.True(t, tc.Authorization.UsedSyncPath)
	require.EqualValues(t, 3, v.batches.Load())
	for _, sig := range tc.Signatures {
		require.NotEqual(t, protocol.Unverified, sig.Result)
	}
	require.Equal(t, errors.OK, tc.Authorization.Evaluate())
}

func TestRationalizeInvalidPayerSignature(t *testing.T) {
	s := newThresholdSetup(t)
	tc := s.txn(t, 1, 3)

	// Sign with PK2 under PK1's key
	forged, err := s.signers[1].Sign(s.body)
	require.NoError(t, err)
	forged.PubKeyPrefix = s.signers[0].MustKey().PublicKey
	tc.Txn.Signatures.Pairs = append(tc.Txn.Signatures.Pairs, forged)

	r := newRationalizer(t, s.policy, newCountingVerifier(), false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, errors.OK, tc.Authorization.Status)
	require.Equal(t, protocol.Invalid, tc.Signatures[0].Result)
	require.Equal(t, errors.InvalidPayerSignature, tc.Authorization.Evaluate())
}

func TestRationalizePayerFailure(t *testing.T) {
	s := newThresholdSetup(t)
	s.policy.payer = OrderFailed(errors.InvalidPayerAccount.With("payer does not exist"))
	v := newCountingVerifier()
	r := newRationalizer(t, s.policy, v, false)

	tc := s.txn(t, 0, 1, 3)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, StatePayerFailed, r.State())
	require.Equal(t, errors.InvalidPayerAccount, r.FinalStatus())
	require.False(t, tc.Authorization.HasSignatureMetadata())
	require.Nil(t, tc.Authorization.PayerKey)
	require.Equal(t, errors.InvalidPayerAccount, tc.Authorization.Evaluate())
	require.Zero(t, v.batches.Load())
}

func TestRationalizeUnknownPayerFailure(t *testing.T) {
	s := newThresholdSetup(t)
	s.policy.payer = OrderFailed(&errors.Error{Message: "no code"})
	r := newRationalizer(t, s.policy, newCountingVerifier(), false)

	tc := s.txn(t, 0)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, errors.UnknownError, tc.Authorization.Status)
}

func TestRationalizeOtherPartyFailure(t *testing.T) {
	s := newThresholdSetup(t)
	s.policy.others = OrderFailed(errors.InvalidAccount.With("account does not exist"))
	r := newRationalizer(t, s.policy, newCountingVerifier(), false)

	tc := s.txn(t, 0, 1, 3)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, StateDone, r.State())

	a := tc.Authorization
	require.Equal(t, errors.InvalidAccount, a.Status)
	require.NotNil(t, a.PayerKey)
	require.Nil(t, a.OtherKeys)
	require.Len(t, a.Signatures, 1, "Only the payer's signatures are recorded")
	require.True(t, a.PayerIsActive())
	require.Equal(t, errors.InvalidAccount, a.Evaluate())
}

func TestRationalizeBadOtherKey(t *testing.T) {
	s := newThresholdSetup(t)
	s.policy.others = OrderedKeys(protocol.Threshold(0, s.signers[1].MustKey()))
	r := newRationalizer(t, s.policy, newCountingVerifier(), false)

	tc := s.txn(t, 0, 1)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, errors.BadKey, tc.Authorization.Status)
}

func TestRationalizeUnusedSignatures(t *testing.T) {
	s := newThresholdSetup(t)

	// PK5 is not required by anyone
	tc := s.txn(t, 0, 1, 3, 4)
	r := newRationalizer(t, s.policy, newCountingVerifier(), false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Len(t, tc.Signatures, 5)
	extra := tc.Signatures[4]
	require.Equal(t, s.signers[4].MustKey().PublicKey, extra.PublicKey)
	require.Equal(t, protocol.Valid, extra.Result)
	require.Equal(t, errors.OK, tc.Authorization.Evaluate())

	// Unless they are skipped
	tc = s.txn(t, 0, 1, 3, 4)
	r = newRationalizer(t, s.policy, newCountingVerifier(), true)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Len(t, tc.Signatures, 4)
}

func TestRationalizeUnusedPrefixIsIgnored(t *testing.T) {
	s := newThresholdSetup(t)
	tc := s.txn(t, 0, 1, 3)
	short, err := s.signers[4].Copy().SetPrefixLength(6).Sign(s.body)
	require.NoError(t, err)
	tc.Txn.Signatures.Pairs = append(tc.Txn.Signatures.Pairs, short)

	r := newRationalizer(t, s.policy, newCountingVerifier(), false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Len(t, tc.Signatures, 4)
}

func TestRationalizeAmbiguousSignatures(t *testing.T) {
	s := newThresholdSetup(t)
	tc := s.txn(t, 0, 1)
	short, err := s.signers[0].Copy().SetPrefixLength(3).Sign(s.body)
	require.NoError(t, err)
	tc.Txn.Signatures.Pairs = append(tc.Txn.Signatures.Pairs, short)

	r := newRationalizer(t, s.policy, newCountingVerifier(), false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, StatePayerFailed, r.State())
	require.Equal(t, errors.KeyPrefixMismatch, tc.Authorization.Evaluate())
}

func TestRationalizeAmbiguousOtherParty(t *testing.T) {
	s := newThresholdSetup(t)
	tc := s.txn(t, 0, 1, 3)
	short, err := s.signers[1].Copy().SetPrefixLength(3).Sign(s.body)
	require.NoError(t, err)
	tc.Txn.Signatures.Pairs = append(tc.Txn.Signatures.Pairs, short)

	r := newRationalizer(t, s.policy, newCountingVerifier(), false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, StateDone, r.State())

	a := tc.Authorization
	require.Equal(t, errors.KeyPrefixMismatch, a.Status)
	require.Len(t, a.Signatures, 1, "Only the payer's signatures are recorded")
	require.True(t, a.PayerIsActive())
	require.Equal(t, errors.KeyPrefixMismatch, a.Evaluate())
}

func TestRationalizeIgnoresUnrelatedOverlap(t *testing.T) {
	s := newThresholdSetup(t)

	// PK5 is not required by anyone and appears twice
	tc := s.txn(t, 0, 1, 3, 4)
	short, err := s.signers[4].Copy().SetPrefixLength(4).Sign(s.body)
	require.NoError(t, err)
	tc.Txn.Signatures.Pairs = append(tc.Txn.Signatures.Pairs, short)

	r := newRationalizer(t, s.policy, newCountingVerifier(), false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, StateDone, r.State())
	require.Equal(t, errors.OK, r.FinalStatus())
	require.True(t, tc.Authorization.HasSignatureMetadata())
	require.Equal(t, errors.OK, tc.Authorization.Evaluate())
}

func TestRationalizeMissingSignaturePair(t *testing.T) {
	s := newThresholdSetup(t)
	tc := s.txn(t, 0, 1, 3)
	tc.Txn.Signatures.Pairs = append(tc.Txn.Signatures.Pairs, nil)

	r := newRationalizer(t, s.policy, newCountingVerifier(), false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, StatePayerFailed, r.State())
	require.Equal(t, errors.BadSignatureMap, tc.Authorization.Evaluate())
}

func TestRationalizeInternalFailures(t *testing.T) {
	s := newThresholdSetup(t)

	// Policy error
	s.policy.err = errors.InternalError.With("database is down")
	r := newRationalizer(t, s.policy, newCountingVerifier(), false)
	tc := s.txn(t, 0, 1, 3)
	require.Error(t, r.PerformFor(context.Background(), tc))
	require.Nil(t, tc.Authorization)

	// Verifier error
	s.policy.err = nil
	v := newCountingVerifier()
	v.err = errors.InternalError.With("verifier is down")
	r = newRationalizer(t, s.policy, v, false)
	tc = s.txn(t, 0, 1, 3)
	require.Error(t, r.PerformFor(context.Background(), tc))
	require.Nil(t, tc.Authorization)
}

func TestRationalizeSecp256k1(t *testing.T) {
	payer := helpers.Signer(protocol.ECDSASecp256k1, t.Name(), "payer")
	other := helpers.Signer(protocol.ED25519, t.Name(), "other")
	policy := &staticPolicy{
		payer:  OrderedKeys(payer.MustKey()),
		others: OrderedKeys(other.MustKey()),
	}

	body := []byte("mixed schemes")
	tc := NewTxnContext(&protocol.Transaction{Body: body, Signatures: helpers.Sign(t, body, payer, other)})
	r := newRationalizer(t, policy, newCountingVerifier(), false)
	require.NoError(t, r.PerformFor(context.Background(), tc))
	require.Equal(t, errors.OK, tc.Authorization.Evaluate())
	for _, sig := range tc.Signatures {
		require.Equal(t, protocol.Valid, sig.Result)
	}
}
