// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"bytes"
	"fmt"
)

// SignaturePair is an entry of a transaction's signature map. PubKeyPrefix is
// a prefix of the signer's public key, possibly the full key.
type SignaturePair struct {
	PubKeyPrefix []byte          `json:"pubKeyPrefix" yaml:"pubKeyPrefix"`
	Scheme       SignatureScheme `json:"scheme" yaml:"scheme"`
	Signature    []byte          `json:"signature" yaml:"signature"`
}

// SignatureMap is the set of raw signatures attached to a transaction.
type SignatureMap struct {
	Pairs []*SignaturePair `json:"pairs" yaml:"pairs"`
}

// HasFullPrefix returns true if the prefix is an entire public key for the
// pair's scheme.
func (p *SignaturePair) HasFullPrefix() bool {
	n := p.Scheme.PublicKeySize()
	return n > 0 && len(p.PubKeyPrefix) == n
}

// VerificationResult is the outcome of verifying a signature object.
type VerificationResult uint8

const (
	Unverified VerificationResult = iota
	Valid
	Invalid
)

func (r VerificationResult) String() string {
	switch r {
	case Unverified:
		return "unverified"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("VerificationResult:%d", r)
	}
}

// SignatureObject is a signature that can be verified: the signer's full
// public key, the message that was signed, and the raw signature bytes.
// Signature is empty if the signature map had no signature for the key.
type SignatureObject struct {
	Scheme    SignatureScheme
	PublicKey []byte
	Message   []byte
	Signature []byte
	Result    VerificationResult
}

// Settle records the verification result. The result is written once; later
// calls are ignored and return false.
func (s *SignatureObject) Settle(valid bool) bool {
	if s.Result != Unverified {
		return false
	}
	if valid {
		s.Result = Valid
	} else {
		s.Result = Invalid
	}
	return true
}

// HasSignature returns true if raw signature bytes are present.
func (s *SignatureObject) HasSignature() bool {
	return len(s.Signature) > 0
}

// SameSignature returns true if both objects carry the same public key and
// the same raw signature bytes.
func (s *SignatureObject) SameSignature(t *SignatureObject) bool {
	return bytes.Equal(s.PublicKey, t.PublicKey) && bytes.Equal(s.Signature, t.Signature)
}

func (s *SignatureObject) Copy() *SignatureObject {
	t := *s
	t.PublicKey = bytes.Clone(s.PublicKey)
	t.Message = bytes.Clone(s.Message)
	t.Signature = bytes.Clone(s.Signature)
	return &t
}

func (s *SignatureObject) String() string {
	return fmt.Sprintf("%v:%x=%v", s.Scheme, s.PublicKey, s.Result)
}
