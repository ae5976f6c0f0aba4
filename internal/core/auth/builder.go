// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth

import (
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// BuildResult is the output of [BuildSignatures].
type BuildResult struct {
	Signatures []*protocol.SignatureObject
	Consumed   []*SignatureEntry
}

// BuildSignatures creates a signature object for every primitive key of the
// given keys, in order. A key with no signature in the source still gets an
// object, with no signature bytes, which will not verify. BuildSignatures
// fails with [errors.BadKey] if a key is malformed and with
// [errors.KeyPrefixMismatch] if a key matches more than one signature.
func BuildSignatures(keys []protocol.KeyNode, src *SignatureSource, factory SigningFactory, maxDepth int) (*BuildResult, error) {
	if maxDepth <= 0 {
		maxDepth = protocol.DefaultMaxKeyDepth
	}

	r := new(BuildResult)
	for i, key := range keys {
		if key == nil {
			return nil, errors.BadKey.WithFormat("required key %d is missing", i)
		}
		err := key.Validate(maxDepth)
		if err != nil {
			return nil, errors.BadKey.WithCauseAndFormat(err, "required key %d: %v", i, err)
		}

		err = protocol.WalkPrimitives(key, func(k *protocol.PrimitiveKey) error {
			e, err := src.SignatureFor(k)
			if err != nil {
				return err
			}
			var raw []byte
			if e != nil {
				raw = e.Pair.Signature
				r.Consumed = append(r.Consumed, e)
			}
			r.Signatures = append(r.Signatures, factory.Sign(k.Scheme, k.PublicKey, raw))
			return nil
		})
		if err != nil {
			return nil, errors.UnknownError.WithFormat("required key %d: %w", i, err)
		}
	}
	return r, nil
}

// buildUnused creates a signature object for every unused full-prefix entry
// of the source and marks them used.
func buildUnused(src *SignatureSource, factory SigningFactory) []*protocol.SignatureObject {
	var sigs []*protocol.SignatureObject
	src.ForEachUnusedFullPrefix(func(e *SignatureEntry) {
		e.Used = true
		sigs = append(sigs, factory.Sign(e.Pair.Scheme, e.Pair.PubKeyPrefix, e.Pair.Signature))
	})
	return sigs
}
