// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"gitlab.com/accumulatenetwork/keyauth/internal/core/auth"
	"gitlab.com/accumulatenetwork/keyauth/internal/core/verify"
	"gitlab.com/accumulatenetwork/keyauth/internal/logging"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// staticPolicy returns fixed signing orders.
type staticPolicy struct {
	mu     sync.Mutex
	payer  *auth.SigningOrderResult
	others *auth.SigningOrderResult
	err    error
}

func (p *staticPolicy) KeysForPayer(*protocol.Transaction) (*auth.SigningOrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payer, p.err
}

func (p *staticPolicy) KeysForOtherParties(*protocol.Transaction) (*auth.SigningOrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.others == nil {
		return auth.OrderedKeys(), p.err
	}
	return p.others, p.err
}

func (p *staticPolicy) setOthers(r *auth.SigningOrderResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.others = r
}

// countingVerifier counts the batches and signatures it verifies and records
// every batch.
type countingVerifier struct {
	inner   auth.Verifier
	err     error
	batches atomic.Int32
	sigs    atomic.Int32

	mu      sync.Mutex
	history [][]*protocol.SignatureObject
}

func newCountingVerifier() *countingVerifier {
	return &countingVerifier{inner: verify.NewBatchVerifier(2, nil)}
}

func (v *countingVerifier) Verify(ctx context.Context, batch []*protocol.SignatureObject) error {
	v.batches.Add(1)
	v.sigs.Add(int32(len(batch)))
	v.mu.Lock()
	v.history = append(v.history, batch)
	v.mu.Unlock()
	if v.err != nil {
		return v.err
	}
	return v.inner.Verify(ctx, batch)
}

// batch returns the i'th batch passed to Verify.
func (v *countingVerifier) batch(i int) []*protocol.SignatureObject {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i >= len(v.history) {
		return nil
	}
	return v.history[i]
}

func newRationalizer(t testing.TB, policy auth.KeyOrderingPolicy, v auth.Verifier, skipUnused bool) *auth.Rationalizer {
	return auth.NewRationalizer(auth.RationalizerOptions{
		Policy:               policy,
		Verifier:             v,
		Factory:              verify.NewSigningFactory(),
		Logger:               logging.NewTestLogger(t),
		SkipUnusedSignatures: skipUnused,
	})
}

func newExpander(t testing.TB, policy auth.KeyOrderingPolicy, v auth.Verifier) *auth.Expander {
	return auth.NewExpander(auth.ExpanderOptions{
		Policy:     policy,
		Verifier:   v,
		NewFactory: verify.NewSigningFactory,
		Logger:     logging.NewTestLogger(t),
	})
}

// fakeKey returns a distinct ED25519-sized public key. It is not a valid
// curve point and is only useful where signatures are not verified.
func fakeKey(i int) *protocol.PrimitiveKey {
	pub := make([]byte, protocol.ED25519PublicKeySize)
	pub[0] = byte(i)
	pub[1] = byte(i >> 8)
	pub[31] = 0xAA
	return protocol.NewED25519Key(pub)
}

func settled(key *protocol.PrimitiveKey, result protocol.VerificationResult) *protocol.SignatureObject {
	return &protocol.SignatureObject{
		Scheme:    key.Scheme,
		PublicKey: key.PublicKey,
		Signature: []byte{1},
		Result:    result,
	}
}
