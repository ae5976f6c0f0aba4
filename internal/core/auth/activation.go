// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth

import (
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// ActivationPolicy decides when a primitive key counts as active.
type ActivationPolicy int

const (
	// OnlyIfValid requires a signature that verified as valid.
	OnlyIfValid ActivationPolicy = iota

	// AnySignature requires only that a signature is present. It is used
	// before consensus, when validity is not known yet.
	AnySignature
)

func (p ActivationPolicy) String() string {
	switch p {
	case OnlyIfValid:
		return "onlyIfValid"
	case AnySignature:
		return "anySignature"
	default:
		return "unknown"
	}
}

// SignatureLookup returns the signature object for a public key, or nil.
type SignatureLookup func(pubKey []byte) *protocol.SignatureObject

// IsActive returns true if the key's signature requirement is satisfied.
func IsActive(key protocol.KeyNode, lookup SignatureLookup, policy ActivationPolicy) bool {
	switch key := key.(type) {
	case *protocol.PrimitiveKey:
		sig := lookup(key.PublicKey)
		if sig == nil {
			return false
		}
		if policy == AnySignature {
			return sig.HasSignature()
		}
		return sig.Result == protocol.Valid

	case *protocol.KeyList:
		if len(key.Keys) == 0 {
			return false
		}
		for _, child := range key.Keys {
			if !IsActive(child, lookup, policy) {
				return false
			}
		}
		return true

	case *protocol.ThresholdKey:
		if key.Threshold == 0 || key.Threshold > uint64(len(key.Keys)) {
			return false
		}
		var n uint64
		for _, child := range key.Keys {
			if !IsActive(child, lookup, policy) {
				continue
			}
			n++
			if n >= key.Threshold {
				return true
			}
		}
		return false

	default:
		return false
	}
}

// LookupFrom indexes signature objects by public key. If the same key appears
// more than once, a valid object is preferred over the others, then the first
// one.
func LookupFrom(sigs []*protocol.SignatureObject) SignatureLookup {
	index := make(map[string]*protocol.SignatureObject, len(sigs))
	for _, sig := range sigs {
		k := string(sig.PublicKey)
		old, ok := index[k]
		if !ok || (old.Result != protocol.Valid && sig.Result == protocol.Valid) {
			index[k] = sig
		}
	}
	return func(pubKey []byte) *protocol.SignatureObject {
		return index[string(pubKey)]
	}
}
