// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package verify

import (
	"bytes"

	"github.com/ethereum/go-ethereum/crypto"
	"gitlab.com/accumulatenetwork/keyauth/internal/core/auth"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// BodySigningFactory creates signature objects over a transaction's canonical
// body. ED25519 signs the body itself; ECDSA secp256k1 signs the Keccak-256
// hash of the body.
type BodySigningFactory struct {
	body   []byte
	digest []byte
}

var _ auth.SigningFactory = (*BodySigningFactory)(nil)

// NewSigningFactory returns a new [BodySigningFactory].
func NewSigningFactory() auth.SigningFactory {
	return new(BodySigningFactory)
}

func (f *BodySigningFactory) ResetFor(txn *protocol.Transaction) {
	f.body = txn.Body
	f.digest = nil
}

func (f *BodySigningFactory) Sign(scheme protocol.SignatureScheme, pubKey, sig []byte) *protocol.SignatureObject {
	s := new(protocol.SignatureObject)
	s.Scheme = scheme
	s.PublicKey = bytes.Clone(pubKey)
	s.Signature = bytes.Clone(sig)
	s.Message = f.messageFor(scheme)
	return s
}

func (f *BodySigningFactory) messageFor(scheme protocol.SignatureScheme) []byte {
	switch scheme {
	case protocol.ECDSASecp256k1:
		if f.digest == nil {
			f.digest = Digest(scheme, f.body)
		}
		return f.digest
	default:
		return f.body
	}
}

// Digest returns the message a signature of the given scheme signs for the
// body.
func Digest(scheme protocol.SignatureScheme, body []byte) []byte {
	if scheme == protocol.ECDSASecp256k1 {
		return crypto.Keccak256(body)
	}
	return body
}
