// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth

import (
	"context"

	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// SyncActivationCheck checks, during execution, whether keys are active given
// a transaction's signatures.
type SyncActivationCheck interface {
	AllKeysAreActive(ctx context.Context, tc *TxnContext, keys []protocol.KeyNode) (bool, error)
}

// KeyActivationCheck implements [SyncActivationCheck] with the same builder,
// verifier and activation predicate that rationalization uses. Signatures
// that rationalization already verified are reused.
type KeyActivationCheck struct {
	Verifier    Verifier
	NewFactory  func() SigningFactory
	MaxKeyDepth int
}

var _ SyncActivationCheck = (*KeyActivationCheck)(nil)

func (c *KeyActivationCheck) AllKeysAreActive(ctx context.Context, tc *TxnContext, keys []protocol.KeyNode) (bool, error) {
	// Use a separate source so the transaction's used flags are not disturbed
	src, err := NewSignatureSource(tc.Txn.Signatures)
	if err != nil {
		if _, err := asFailure(err); err != nil {
			return false, err
		}
		return false, nil
	}

	factory := c.NewFactory()
	factory.ResetFor(tc.Txn)
	built, err := BuildSignatures(keys, src, factory, c.MaxKeyDepth)
	if err != nil {
		if _, err := asFailure(err); err != nil {
			return false, err
		}
		return false, nil
	}

	known := LookupFrom(tc.Signatures)
	var pending []*protocol.SignatureObject
	for i, sig := range built.Signatures {
		prior := known(sig.PublicKey)
		if prior != nil && prior.Result != protocol.Unverified && prior.SameSignature(sig) {
			built.Signatures[i] = prior
			continue
		}
		pending = append(pending, sig)
	}

	if len(pending) > 0 {
		err = c.Verifier.Verify(ctx, pending)
		if err != nil {
			return false, errors.UnknownError.WithFormat("verify: %w", err)
		}
	}

	lookup := LookupFrom(built.Signatures)
	for _, key := range keys {
		if !IsActive(key, lookup, OnlyIfValid) {
			return false, nil
		}
	}
	return true, nil
}

// AdHocActivationCheck authorizes accounts that an operation touches in the
// middle of execution, beyond the accounts rationalization already covered.
type AdHocActivationCheck struct {
	accounts AccountLookup
	check    SyncActivationCheck
	txn      *TxnContext
}

// NewAdHocActivationCheck returns a check bound to a transaction that has been
// rationalized.
func NewAdHocActivationCheck(accounts AccountLookup, check SyncActivationCheck, tc *TxnContext) *AdHocActivationCheck {
	return &AdHocActivationCheck{accounts: accounts, check: check, txn: tc}
}

// AllRequiredKeysAreActive returns true if every touched account, other than
// the payer, that requires a receiver signature and is not a smart contract
// has an active key. Accounts that do not exist require nothing.
func (c *AdHocActivationCheck) AllRequiredKeysAreActive(ctx context.Context, touched []protocol.AccountID, payer protocol.AccountID) (bool, error) {
	var keys []protocol.KeyNode
	for _, id := range touched {
		if id == payer {
			continue
		}

		info, err := c.accounts.LookupAccount(id)
		switch {
		case err == nil:
		case errors.Is(err, errors.NotFound):
			continue
		default:
			return false, errors.UnknownError.WithFormat("load account %v: %w", id, err)
		}

		if !info.ReceiverSigRequired || info.SmartContract {
			continue
		}
		if info.Key == nil {
			return false, nil
		}
		keys = append(keys, info.Key)
	}

	if len(keys) == 0 {
		return true, nil
	}
	return c.check.AllKeysAreActive(ctx, c.txn, keys)
}
