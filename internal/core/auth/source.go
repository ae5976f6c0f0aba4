// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth

import (
	"bytes"

	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// SignatureEntry is a signature map entry plus the state of one authorization
// pass.
type SignatureEntry struct {
	Pair *protocol.SignaturePair
	Used bool
}

// FullPrefix returns true if the entry's prefix is the signer's entire public
// key.
func (e *SignatureEntry) FullPrefix() bool { return e.Pair.HasFullPrefix() }

// SignatureSource maps public keys to the raw signatures of one transaction's
// signature map and tracks which entries have been used. A SignatureSource
// must not be used concurrently.
type SignatureSource struct {
	entries []*SignatureEntry
}

// SourceFactory creates the signature source of a transaction.
type SourceFactory interface {
	SourceFor(txn *protocol.Transaction) (*SignatureSource, error)
}

// SourceFactoryFunc adapts a function to [SourceFactory].
type SourceFactoryFunc func(txn *protocol.Transaction) (*SignatureSource, error)

func (f SourceFactoryFunc) SourceFor(txn *protocol.Transaction) (*SignatureSource, error) {
	return f(txn)
}

// DefaultSources creates sources from the transaction's signature map.
var DefaultSources SourceFactory = SourceFactoryFunc(func(txn *protocol.Transaction) (*SignatureSource, error) {
	return NewSignatureSource(txn.Signatures)
})

// NewSignatureSource creates a source for the signature map. Entries may
// overlap; ambiguity only matters when a required key is looked up. A missing
// pair fails with [errors.BadSignatureMap].
func NewSignatureSource(sigs protocol.SignatureMap) (*SignatureSource, error) {
	s := new(SignatureSource)
	s.entries = make([]*SignatureEntry, 0, len(sigs.Pairs))
	for i, pair := range sigs.Pairs {
		if pair == nil {
			return nil, errors.BadSignatureMap.WithFormat("signature pair %d is missing", i)
		}
		s.entries = append(s.entries, &SignatureEntry{Pair: pair})
	}
	return s, nil
}

// Reset marks every entry unused.
func (s *SignatureSource) Reset() {
	for _, e := range s.entries {
		e.Used = false
	}
}

// Len returns the number of entries.
func (s *SignatureSource) Len() int { return len(s.entries) }

// Entries returns the entries in signature map order.
func (s *SignatureSource) Entries() []*SignatureEntry { return s.entries }

// SignatureFor returns the entry whose prefix matches the key and marks it
// used, or returns nil if there is none. An entry that has already been used
// still matches, so a key that is required twice gets the same signature
// twice. If more than one entry matches, SignatureFor fails with
// [errors.KeyPrefixMismatch] and marks nothing.
func (s *SignatureSource) SignatureFor(key *protocol.PrimitiveKey) (*SignatureEntry, error) {
	var match *SignatureEntry
	for i, e := range s.entries {
		if e.Pair.Scheme != key.Scheme {
			continue
		}
		if !bytes.HasPrefix(key.PublicKey, e.Pair.PubKeyPrefix) {
			continue
		}
		if match != nil {
			return nil, errors.KeyPrefixMismatch.WithFormat("key %X matches more than one signature (pair %d)", key.PublicKey, i)
		}
		match = e
	}
	if match != nil {
		match.Used = true
	}
	return match, nil
}

// ForEachUnusedFullPrefix calls fn for every entry that has not been used and
// that carries a full public key.
func (s *SignatureSource) ForEachUnusedFullPrefix(fn func(*SignatureEntry)) {
	for _, e := range s.entries {
		if !e.Used && e.FullPrefix() {
			fn(e)
		}
	}
}
