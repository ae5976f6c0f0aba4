// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package verify

import (
	"crypto/ed25519"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// Secp256k1SignatureSize is the size of an r||s secp256k1 signature.
const Secp256k1SignatureSize = 64

// VerifySignature checks a single signature object without recording the
// result.
func VerifySignature(sig *protocol.SignatureObject) bool {
	if !sig.HasSignature() {
		return false
	}

	switch sig.Scheme {
	case protocol.ED25519:
		return verifyED25519(sig.PublicKey, sig.Message, sig.Signature)
	case protocol.ECDSASecp256k1:
		return verifySecp256k1(sig.PublicKey, sig.Message, sig.Signature)
	default:
		return false
	}
}

func verifyED25519(pubKey, msg, sig []byte) bool {
	if len(pubKey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pubKey, msg, sig)
}

func verifySecp256k1(pubKey, hash, sig []byte) bool {
	if len(sig) != Secp256k1SignatureSize {
		return false
	}
	pub, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return false
	}

	s := &btcec.Signature{
		R: new(big.Int).SetBytes(sig[:32]),
		S: new(big.Int).SetBytes(sig[32:]),
	}
	return s.Verify(hash, pub)
}
