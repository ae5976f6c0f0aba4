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

// Verifier verifies a batch of signature objects, settling the result of each
// one in place. Verify blocks until every object in the batch has a result. An
// error means the batch could not be verified at all. Implementations must be
// safe for concurrent use.
type Verifier interface {
	Verify(ctx context.Context, batch []*protocol.SignatureObject) error
}

// SigningFactory creates signature objects for one transaction at a time.
type SigningFactory interface {
	// ResetFor binds the factory to the transaction's canonical payload.
	ResetFor(txn *protocol.Transaction)

	// Sign returns a signature object for the public key and raw signature
	// bytes, over the message the scheme signs for the bound transaction.
	Sign(scheme protocol.SignatureScheme, pubKey, sig []byte) *protocol.SignatureObject
}

// KeyOrderingPolicy decides which keys must sign a transaction. A policy
// failure, such as a missing account, is reported in the result. An error
// return means the policy itself failed. Implementations must be safe for
// concurrent use.
type KeyOrderingPolicy interface {
	KeysForPayer(txn *protocol.Transaction) (*SigningOrderResult, error)
	KeysForOtherParties(txn *protocol.Transaction) (*SigningOrderResult, error)
}

// SigningOrderResult is the ordered list of keys that must sign, or the reason
// the keys could not be resolved.
type SigningOrderResult struct {
	Keys  []protocol.KeyNode
	Error *errors.Error
}

// OrderedKeys returns a successful result.
func OrderedKeys(keys ...protocol.KeyNode) *SigningOrderResult {
	return &SigningOrderResult{Keys: keys}
}

// OrderFailed returns a failed result.
func OrderFailed(err *errors.Error) *SigningOrderResult {
	return &SigningOrderResult{Error: err}
}

func (r *SigningOrderResult) Failed() bool { return r.Error != nil }

// Status returns the status of the failure, or OK.
func (r *SigningOrderResult) Status() errors.Status {
	if r.Error == nil {
		return errors.OK
	}
	if r.Error.Code == 0 {
		return errors.UnknownError
	}
	return r.Error.Code
}

// AccountInfo is what an ad-hoc activation check needs to know about an
// account.
type AccountInfo struct {
	Key                 protocol.KeyNode
	ReceiverSigRequired bool
	SmartContract       bool
}

// AccountLookup looks up accounts. LookupAccount returns a [errors.NotFound]
// error if the account does not exist.
type AccountLookup interface {
	LookupAccount(id protocol.AccountID) (*AccountInfo, error)
}
