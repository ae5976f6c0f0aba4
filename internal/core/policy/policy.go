// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package policy

import (
	"gitlab.com/accumulatenetwork/keyauth/internal/core/auth"
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// Policy decides which keys must sign a transaction: the payer's key, the key
// of every account the transaction names as a signer, and the key of every
// receiver that requires a receiver signature, unless it is a smart contract.
type Policy struct {
	store Store
}

var _ auth.KeyOrderingPolicy = (*Policy)(nil)
var _ auth.AccountLookup = (*Policy)(nil)

func New(store Store) *Policy {
	return &Policy{store: store}
}

func (p *Policy) KeysForPayer(txn *protocol.Transaction) (*auth.SigningOrderResult, error) {
	account, err := p.store.Account(txn.Payer)
	switch {
	case err == nil:
	case errors.Is(err, errors.NotFound):
		return auth.OrderFailed(errors.InvalidPayerAccount.WithFormat("payer %v does not exist", txn.Payer)), nil
	default:
		return nil, errors.UnknownError.WithFormat("load payer %v: %w", txn.Payer, err)
	}

	if account.Deleted {
		return auth.OrderFailed(errors.PayerAccountDeleted.WithFormat("payer %v has been deleted", txn.Payer)), nil
	}
	if account.Key == nil {
		return auth.OrderFailed(errors.BadKey.WithFormat("payer %v has no key", txn.Payer)), nil
	}
	return auth.OrderedKeys(account.Key), nil
}

func (p *Policy) KeysForOtherParties(txn *protocol.Transaction) (*auth.SigningOrderResult, error) {
	var keys []protocol.KeyNode
	for _, id := range txn.Signers {
		account, failure, err := p.load(id)
		if err != nil || failure != nil {
			return failure, err
		}
		if account.Key == nil {
			return auth.OrderFailed(errors.BadKey.WithFormat("account %v has no key", id)), nil
		}
		keys = append(keys, account.Key)
	}

	for _, id := range txn.Receivers {
		account, failure, err := p.load(id)
		if err != nil || failure != nil {
			return failure, err
		}
		if !account.ReceiverSigRequired || account.SmartContract {
			continue
		}
		if account.Key == nil {
			return auth.OrderFailed(errors.BadKey.WithFormat("account %v has no key", id)), nil
		}
		keys = append(keys, account.Key)
	}

	return auth.OrderedKeys(keys...), nil
}

func (p *Policy) load(id protocol.AccountID) (*Account, *auth.SigningOrderResult, error) {
	account, err := p.store.Account(id)
	switch {
	case err == nil:
	case errors.Is(err, errors.NotFound):
		return nil, auth.OrderFailed(errors.InvalidAccount.WithFormat("account %v does not exist", id)), nil
	default:
		return nil, nil, errors.UnknownError.WithFormat("load %v: %w", id, err)
	}

	if account.Deleted {
		return nil, auth.OrderFailed(errors.AccountDeleted.WithFormat("account %v has been deleted", id)), nil
	}
	return account, nil, nil
}

// LookupAccount implements [auth.AccountLookup].
func (p *Policy) LookupAccount(id protocol.AccountID) (*auth.AccountInfo, error) {
	account, err := p.store.Account(id)
	if err != nil {
		return nil, err
	}
	if account.Deleted {
		return nil, errors.NotFound.WithFormat("account %v has been deleted", id)
	}
	return &auth.AccountInfo{
		Key:                 account.Key,
		ReceiverSigRequired: account.ReceiverSigRequired,
		SmartContract:       account.SmartContract,
	}, nil
}
