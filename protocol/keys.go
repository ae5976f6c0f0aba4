// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
)

// DefaultMaxKeyDepth is the default limit on how deeply composite keys may be
// nested. A primitive key at the top level has depth 1.
const DefaultMaxKeyDepth = 15

type KeyType uint8

const (
	KeyTypePrimitive KeyType = iota + 1
	KeyTypeKeyList
	KeyTypeThreshold
)

func (t KeyType) String() string {
	switch t {
	case KeyTypePrimitive:
		return "primitive"
	case KeyTypeKeyList:
		return "keyList"
	case KeyTypeThreshold:
		return "threshold"
	default:
		return fmt.Sprintf("KeyType:%d", t)
	}
}

// KeyNode is a primitive or composite key. Key nodes are immutable once they
// have been handed to the authorization engine.
type KeyNode interface {
	Type() KeyType

	// Validate checks the key material and the structural invariants of the
	// key, rejecting keys nested deeper than maxDepth.
	Validate(maxDepth int) error

	Equal(KeyNode) bool
	String() string
}

// PrimitiveKey is a single public key.
type PrimitiveKey struct {
	Scheme    SignatureScheme
	PublicKey []byte
}

// KeyList is satisfied when every one of its keys is satisfied.
type KeyList struct {
	Keys []KeyNode
}

// ThresholdKey is satisfied when at least Threshold of its keys are satisfied.
type ThresholdKey struct {
	Threshold uint64
	Keys      []KeyNode
}

var _ KeyNode = (*PrimitiveKey)(nil)
var _ KeyNode = (*KeyList)(nil)
var _ KeyNode = (*ThresholdKey)(nil)

func NewED25519Key(pub []byte) *PrimitiveKey {
	return &PrimitiveKey{Scheme: ED25519, PublicKey: pub}
}

func NewSecp256k1Key(pub []byte) *PrimitiveKey {
	return &PrimitiveKey{Scheme: ECDSASecp256k1, PublicKey: pub}
}

func AllOf(keys ...KeyNode) *KeyList {
	return &KeyList{Keys: keys}
}

func Threshold(n uint64, keys ...KeyNode) *ThresholdKey {
	return &ThresholdKey{Threshold: n, Keys: keys}
}

func (*PrimitiveKey) Type() KeyType { return KeyTypePrimitive }
func (*KeyList) Type() KeyType      { return KeyTypeKeyList }
func (*ThresholdKey) Type() KeyType { return KeyTypeThreshold }

func (k *PrimitiveKey) Validate(maxDepth int) error {
	if maxDepth < 1 {
		return errors.BadKey.With("key is nested too deeply")
	}

	switch k.Scheme {
	case ED25519:
		if len(k.PublicKey) != ED25519PublicKeySize {
			return errors.BadKey.WithFormat("invalid ED25519 public key: want %d bytes, got %d", ED25519PublicKeySize, len(k.PublicKey))
		}

	case ECDSASecp256k1:
		if len(k.PublicKey) != Secp256k1PublicKeySize {
			return errors.BadKey.WithFormat("invalid secp256k1 public key: want %d bytes, got %d", Secp256k1PublicKeySize, len(k.PublicKey))
		}
		_, err := btcec.ParsePubKey(k.PublicKey, btcec.S256())
		if err != nil {
			return errors.BadKey.WithFormat("invalid secp256k1 public key: %w", err)
		}

	default:
		return errors.BadKey.WithFormat("unsupported signature scheme %v", k.Scheme)
	}
	return nil
}

func (k *KeyList) Validate(maxDepth int) error {
	if maxDepth < 1 {
		return errors.BadKey.With("key is nested too deeply")
	}
	if len(k.Keys) == 0 {
		return errors.BadKey.With("key list is empty")
	}
	return validateChildren(k.Keys, maxDepth-1)
}

func (k *ThresholdKey) Validate(maxDepth int) error {
	if maxDepth < 1 {
		return errors.BadKey.With("key is nested too deeply")
	}
	if len(k.Keys) == 0 {
		return errors.BadKey.With("threshold key has no keys")
	}
	if k.Threshold < 1 || k.Threshold > uint64(len(k.Keys)) {
		return errors.BadKey.WithFormat("cannot require %d signatures on a threshold key with %d keys", k.Threshold, len(k.Keys))
	}
	return validateChildren(k.Keys, maxDepth-1)
}

func validateChildren(keys []KeyNode, maxDepth int) error {
	for i, key := range keys {
		if key == nil {
			return errors.BadKey.WithFormat("key %d is missing", i)
		}
		err := key.Validate(maxDepth)
		if err != nil {
			return errors.BadKey.WithCauseAndFormat(err, "key %d: %v", i, err)
		}
	}
	return nil
}

func (k *PrimitiveKey) Equal(l KeyNode) bool {
	m, ok := l.(*PrimitiveKey)
	return ok && k.Scheme == m.Scheme && bytes.Equal(k.PublicKey, m.PublicKey)
}

func (k *KeyList) Equal(l KeyNode) bool {
	m, ok := l.(*KeyList)
	return ok && keysEqual(k.Keys, m.Keys)
}

func (k *ThresholdKey) Equal(l KeyNode) bool {
	m, ok := l.(*ThresholdKey)
	return ok && k.Threshold == m.Threshold && keysEqual(k.Keys, m.Keys)
}

func keysEqual(a, b []KeyNode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (k *PrimitiveKey) String() string {
	return fmt.Sprintf("%v:%x", k.Scheme, k.PublicKey)
}

func (k *KeyList) String() string {
	return "allOf(" + joinKeys(k.Keys) + ")"
}

func (k *ThresholdKey) String() string {
	return fmt.Sprintf("threshold(%d, %s)", k.Threshold, joinKeys(k.Keys))
}

func joinKeys(keys []KeyNode) string {
	s := make([]string, len(keys))
	for i, k := range keys {
		if k == nil {
			s[i] = "<nil>"
		} else {
			s[i] = k.String()
		}
	}
	return strings.Join(s, ", ")
}

// Children returns the keys of a composite key, or nil for a primitive key.
func Children(key KeyNode) []KeyNode {
	switch key := key.(type) {
	case *KeyList:
		return key.Keys
	case *ThresholdKey:
		return key.Keys
	default:
		return nil
	}
}

// WalkPrimitives calls fn for every primitive key of the tree, depth first and
// left to right. WalkPrimitives stops and returns the error if fn fails.
func WalkPrimitives(key KeyNode, fn func(*PrimitiveKey) error) error {
	switch k := key.(type) {
	case *PrimitiveKey:
		return fn(k)
	case *KeyList, *ThresholdKey:
		for _, child := range Children(key) {
			err := WalkPrimitives(child, fn)
			if err != nil {
				return err
			}
		}
		return nil
	case nil:
		return errors.BadKey.With("key is missing")
	default:
		return errors.BadKey.WithFormat("unsupported key type %T", key)
	}
}

// KeyHex formats a public key for display and logging.
func KeyHex(pubKey []byte) string {
	return hex.EncodeToString(pubKey)
}
