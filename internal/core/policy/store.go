// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package policy

import (
	"sync"

	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// Account is the authorization-relevant state of a ledger account.
type Account struct {
	ID                  protocol.AccountID
	Key                 protocol.KeyNode
	Deleted             bool
	ReceiverSigRequired bool
	SmartContract       bool
}

// Store loads accounts. Account returns a [errors.NotFound] error if the
// account does not exist. Implementations must be safe for concurrent use.
type Store interface {
	Account(id protocol.AccountID) (*Account, error)
}

// MemoryStore is an in-memory [Store].
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[protocol.AccountID]*Account
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(accounts ...*Account) *MemoryStore {
	s := &MemoryStore{accounts: map[protocol.AccountID]*Account{}}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return s
}

func (s *MemoryStore) Account(id protocol.AccountID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, errors.NotFound.WithFormat("account %v not found", id)
	}
	c := *a
	return &c, nil
}

// Put creates or replaces an account.
func (s *MemoryStore) Put(a *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	s.accounts[a.ID] = &c
}

// Update calls fn with the account and stores the result.
func (s *MemoryStore) Update(id protocol.AccountID, fn func(*Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return errors.NotFound.WithFormat("account %v not found", id)
	}
	c := *a
	fn(&c)
	s.accounts[id] = &c
	return nil
}
