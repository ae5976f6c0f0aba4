// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"github.com/ethereum/go-ethereum/crypto"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// Signer signs transaction bodies with a private key. PrefixLength is the
// number of public key bytes put in the signature pair; zero means the full
// key.
type Signer struct {
	Scheme       protocol.SignatureScheme
	PrivateKey   []byte
	PrefixLength int
}

// GenerateKey returns a signer with a new random key.
func GenerateKey(scheme protocol.SignatureScheme) (*Signer, error) {
	switch scheme {
	case protocol.ED25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &Signer{Scheme: scheme, PrivateKey: priv}, nil

	case protocol.ECDSASecp256k1:
		priv, err := crypto.GenerateKey()
		if err != nil {
			return nil, err
		}
		return &Signer{Scheme: scheme, PrivateKey: crypto.FromECDSA(priv)}, nil

	default:
		return nil, fmt.Errorf("unsupported signature scheme %v", scheme)
	}
}

// FromSeed returns an ED25519 signer whose key is derived from the seed.
func FromSeed(seed []byte) *Signer {
	return &Signer{Scheme: protocol.ED25519, PrivateKey: ed25519.NewKeyFromSeed(seed)}
}

func (s *Signer) Copy() *Signer {
	c := *s
	c.PrivateKey = append([]byte(nil), s.PrivateKey...)
	return &c
}

func (s *Signer) SetScheme(scheme protocol.SignatureScheme) *Signer {
	s.Scheme = scheme
	return s
}

func (s *Signer) SetPrivateKey(privKey []byte) *Signer {
	s.PrivateKey = privKey
	return s
}

func (s *Signer) SetPrefixLength(n int) *Signer {
	s.PrefixLength = n
	return s
}

func (s *Signer) prepare() error {
	var errs []string
	if len(s.PrivateKey) == 0 {
		errs = append(errs, "missing private key")
	}
	switch s.Scheme {
	case protocol.ED25519:
		if len(s.PrivateKey) != ed25519.PrivateKeySize {
			errs = append(errs, "invalid private key")
		}
	case protocol.ECDSASecp256k1:
		if len(s.PrivateKey) != btcec.PrivKeyBytesLen {
			errs = append(errs, "invalid private key")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported signature scheme %v", s.Scheme))
	}
	if len(errs) > 0 {
		return fmt.Errorf("cannot prepare signature: %s", strings.Join(errs, ", "))
	}
	return nil
}

// PublicKey returns the full public key. Secp256k1 keys are compressed.
func (s *Signer) PublicKey() ([]byte, error) {
	err := s.prepare()
	if err != nil {
		return nil, err
	}

	switch s.Scheme {
	case protocol.ED25519:
		return ed25519.PrivateKey(s.PrivateKey).Public().(ed25519.PublicKey), nil
	default:
		_, pub := btcec.PrivKeyFromBytes(btcec.S256(), s.PrivateKey)
		return pub.SerializeCompressed(), nil
	}
}

// Key returns the signer's primitive key.
func (s *Signer) Key() (*protocol.PrimitiveKey, error) {
	pub, err := s.PublicKey()
	if err != nil {
		return nil, err
	}
	return &protocol.PrimitiveKey{Scheme: s.Scheme, PublicKey: pub}, nil
}

// MustKey is [Signer.Key] for signers that are known to be valid.
func (s *Signer) MustKey() *protocol.PrimitiveKey {
	k, err := s.Key()
	if err != nil {
		panic(err)
	}
	return k
}

// Sign signs the body and returns the signature pair.
func (s *Signer) Sign(body []byte) (*protocol.SignaturePair, error) {
	pub, err := s.PublicKey()
	if err != nil {
		return nil, err
	}

	pair := new(protocol.SignaturePair)
	pair.Scheme = s.Scheme
	pair.PubKeyPrefix = pub
	if s.PrefixLength > 0 && s.PrefixLength < len(pub) {
		pair.PubKeyPrefix = pub[:s.PrefixLength]
	}

	switch s.Scheme {
	case protocol.ED25519:
		pair.Signature = ed25519.Sign(s.PrivateKey, body)

	case protocol.ECDSASecp256k1:
		priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), s.PrivateKey)
		sig, err := priv.Sign(crypto.Keccak256(body))
		if err != nil {
			return nil, err
		}
		pair.Signature = make([]byte, 64)
		sig.R.FillBytes(pair.Signature[:32])
		sig.S.FillBytes(pair.Signature[32:])

	default:
		return nil, errors.New("unreachable")
	}
	return pair, nil
}
