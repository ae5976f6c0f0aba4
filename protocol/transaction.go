// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import "crypto/sha256"

// Transaction is a submitted transaction as seen by the authorization engine.
//
// Body is the canonical payload that every signature signs. Signers are the
// accounts the transaction modifies and that therefore must sign. Receivers
// are accounts credited by the transaction; they must sign only if they
// require a receiver signature.
type Transaction struct {
	Payer      AccountID
	Signers    []AccountID
	Receivers  []AccountID
	Body       []byte
	Signatures SignatureMap
}

// Hash returns the SHA-256 hash of the body.
func (t *Transaction) Hash() [32]byte {
	return sha256.Sum256(t.Body)
}

// ID returns the hash of the transaction as a short hex string.
func (t *Transaction) ID() string {
	h := t.Hash()
	return KeyHex(h[:8])
}
