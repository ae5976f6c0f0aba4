// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package signing

import (
	"fmt"

	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// Builder builds the signature map of a transaction body.
type Builder struct {
	Body    []byte
	Signers []*Signer
	Extra   []*protocol.SignaturePair
}

func SignatureMapFor(body []byte) *Builder {
	return &Builder{Body: body}
}

// With adds signers.
func (b *Builder) With(signers ...*Signer) *Builder {
	b.Signers = append(b.Signers, signers...)
	return b
}

// WithPair adds a pre-built pair, such as a forged or corrupt signature.
func (b *Builder) WithPair(pair *protocol.SignaturePair) *Builder {
	b.Extra = append(b.Extra, pair)
	return b
}

func (b *Builder) Copy() *Builder {
	c := *b
	c.Signers = append([]*Signer(nil), b.Signers...)
	c.Extra = append([]*protocol.SignaturePair(nil), b.Extra...)
	return &c
}

// Build signs the body with every signer.
func (b *Builder) Build() (protocol.SignatureMap, error) {
	var sigs protocol.SignatureMap
	for i, s := range b.Signers {
		pair, err := s.Sign(b.Body)
		if err != nil {
			return protocol.SignatureMap{}, fmt.Errorf("signer %d: %w", i, err)
		}
		sigs.Pairs = append(sigs.Pairs, pair)
	}
	sigs.Pairs = append(sigs.Pairs, b.Extra...)
	return sigs, nil
}
