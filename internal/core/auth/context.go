// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth

import (
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// TxnContext is the per-transaction authorization state. It is created when
// the transaction is ingested and discarded when its processing ends. A
// TxnContext must only be used by one goroutine at a time.
type TxnContext struct {
	Txn *protocol.Transaction

	// Signatures is the transaction's signature list. Speculative expansion
	// fills it before consensus and rationalization replaces it when it has
	// to verify again.
	Signatures []*protocol.SignatureObject

	// Authorization is set by rationalization.
	Authorization *Authorization

	source *SignatureSource
}

func NewTxnContext(txn *protocol.Transaction) *TxnContext {
	return &TxnContext{Txn: txn}
}

// Source returns the transaction's signature source, creating it on first use.
func (c *TxnContext) Source(f SourceFactory) (*SignatureSource, error) {
	if c.source != nil {
		return c.source, nil
	}
	if f == nil {
		f = DefaultSources
	}
	src, err := f.SourceFor(c.Txn)
	if err != nil {
		return nil, err
	}
	c.source = src
	return src, nil
}
