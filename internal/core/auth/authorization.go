// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth

import (
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// Authorization is the result of rationalizing a transaction's signatures. It
// is read-only once it has been attached to the transaction context.
type Authorization struct {
	// PayerKey is nil if the payer's key could not be resolved.
	PayerKey protocol.KeyNode

	// OtherKeys is nil if the other parties' keys could not be resolved.
	OtherKeys []protocol.KeyNode

	// Signatures is the canonical signature list. It is nil if verification
	// was not attempted.
	Signatures []*protocol.SignatureObject

	Status errors.Status

	// UsedSyncPath is true if any signature had to be verified during
	// rationalization instead of being reused.
	UsedSyncPath bool
}

// HasSignatureMetadata returns false if verification was not attempted.
func (a *Authorization) HasSignatureMetadata() bool {
	return a.Signatures != nil
}

// Lookup returns a lookup over the canonical signatures.
func (a *Authorization) Lookup() SignatureLookup {
	return LookupFrom(a.Signatures)
}

// PayerIsActive returns true if the payer's key is active.
func (a *Authorization) PayerIsActive() bool {
	if a.PayerKey == nil {
		return false
	}
	return IsActive(a.PayerKey, a.Lookup(), OnlyIfValid)
}

// OtherKeysAreActive returns true if every other party's key is active.
func (a *Authorization) OtherKeysAreActive() bool {
	lookup := a.Lookup()
	for _, key := range a.OtherKeys {
		if !IsActive(key, lookup, OnlyIfValid) {
			return false
		}
	}
	return true
}

// Evaluate returns the status the transaction should be given. A failed pass
// keeps its status, an inactive payer key fails with
// [errors.InvalidPayerSignature] and any other inactive key fails with
// [errors.InvalidSignature].
func (a *Authorization) Evaluate() errors.Status {
	if a.Status != errors.OK {
		return a.Status
	}
	if !a.PayerIsActive() {
		return errors.InvalidPayerSignature
	}
	if !a.OtherKeysAreActive() {
		return errors.InvalidSignature
	}
	return errors.OK
}
