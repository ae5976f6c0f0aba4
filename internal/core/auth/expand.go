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

// expansion is the payer and other party signature groups of a transaction.
type expansion struct {
	payerKey     protocol.KeyNode
	payerSigs    []*protocol.SignatureObject
	payerFailure *errors.Error

	otherKeys    []protocol.KeyNode
	otherSigs    []*protocol.SignatureObject
	otherFailure *errors.Error
}

type expander struct {
	policy        KeyOrderingPolicy
	maxDepth      int
	opportunistic bool
}

// expand resolves and builds the payer group and then the other party group.
// A payer failure stops the expansion; an other party failure is recorded and
// the payer group is still returned. The error return is reserved for failures
// of the policy itself.
func (x expander) expand(txn *protocol.Transaction, src *SignatureSource, factory SigningFactory) (*expansion, error) {
	e, err := x.expandPayer(txn, src, factory)
	if err != nil || e.payerFailure != nil {
		return e, err
	}
	err = x.expandOthers(e, txn, src, factory)
	return e, err
}

func (x expander) expandPayer(txn *protocol.Transaction, src *SignatureSource, factory SigningFactory) (*expansion, error) {
	e := new(expansion)

	payer, err := x.policy.KeysForPayer(txn)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("resolve payer keys: %w", err)
	}
	if payer.Failed() {
		e.payerFailure = failureWithStatus(payer)
		return e, nil
	}
	switch len(payer.Keys) {
	case 0:
		e.payerFailure = errors.BadKey.With("payer has no key")
		return e, nil
	case 1:
		e.payerKey = payer.Keys[0]
	default:
		e.payerKey = protocol.AllOf(payer.Keys...)
	}

	built, err := BuildSignatures(payer.Keys, src, factory, x.maxDepth)
	if err != nil {
		e.payerFailure, err = asFailure(err)
		return e, err
	}
	e.payerSigs = built.Signatures
	return e, nil
}

func (x expander) expandOthers(e *expansion, txn *protocol.Transaction, src *SignatureSource, factory SigningFactory) error {
	others, err := x.policy.KeysForOtherParties(txn)
	if err != nil {
		return errors.UnknownError.WithFormat("resolve other party keys: %w", err)
	}
	if others.Failed() {
		e.otherFailure = failureWithStatus(others)
		return nil
	}
	e.otherKeys = others.Keys

	built, err := BuildSignatures(others.Keys, src, factory, x.maxDepth)
	if err != nil {
		e.otherFailure, err = asFailure(err)
		return err
	}
	e.otherSigs = built.Signatures

	if x.opportunistic {
		e.otherSigs = append(e.otherSigs, buildUnused(src, factory)...)
	}
	return nil
}

func failureWithStatus(r *SigningOrderResult) *errors.Error {
	if r.Error.Code == 0 {
		return errors.UnknownError.With(r.Error.Error())
	}
	return r.Error
}

// asFailure separates authorization failures, which carry a client error
// status, from everything else.
func asFailure(err error) (*errors.Error, error) {
	if !errors.Code(err).IsClientError() {
		return nil, err
	}
	var e *errors.Error
	if errors.As(err, &e) {
		return e, nil
	}
	return errors.Code(err).With(err.Error()), nil
}
