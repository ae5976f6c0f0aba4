// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"gitlab.com/accumulatenetwork/keyauth/internal/core/policy"
	"gitlab.com/accumulatenetwork/keyauth/pkg/client/signing"
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
	"gopkg.in/yaml.v3"
)

// Scenario is a set of accounts and transactions to authorize, as read from a
// YAML file.
type Scenario struct {
	Signers      map[string]*SignerDoc `yaml:"signers"`
	Accounts     []*AccountDoc         `yaml:"accounts"`
	Transactions []*TransactionDoc     `yaml:"transactions"`

	signers map[string]*signing.Signer
}

// SignerDoc describes a private key. The key is either given as hex, base58,
// or WIF (secp256k1 only), or derived from the SHA-256 hash of a seed phrase.
type SignerDoc struct {
	Scheme     protocol.SignatureScheme `yaml:"scheme"`
	Seed       string                   `yaml:"seed"`
	PrivateKey string                   `yaml:"privateKey"`
}

type AccountDoc struct {
	ID                  protocol.AccountID `yaml:"id"`
	Key                 *KeyDoc            `yaml:"key"`
	Deleted             bool               `yaml:"deleted"`
	ReceiverSigRequired bool               `yaml:"receiverSigRequired"`
	SmartContract       bool               `yaml:"smartContract"`
}

// KeyDoc describes a key. Exactly one of the fields should be set, except
// that Threshold goes with Keys.
type KeyDoc struct {
	Signer    string    `yaml:"signer"`
	ED25519   string    `yaml:"ed25519"`
	Secp256k1 string    `yaml:"secp256k1"`
	AllOf     []*KeyDoc `yaml:"allOf"`
	Threshold uint64    `yaml:"threshold"`
	Keys      []*KeyDoc `yaml:"keys"`
}

type TransactionDoc struct {
	Name       string               `yaml:"name"`
	Payer      protocol.AccountID   `yaml:"payer"`
	Signers    []protocol.AccountID `yaml:"signers"`
	Receivers  []protocol.AccountID `yaml:"receivers"`
	Body       string               `yaml:"body"`
	Signatures []*SignatureDoc      `yaml:"signatures"`

	// Touched lists accounts to check ad hoc after the transaction is
	// authorized.
	Touched []protocol.AccountID `yaml:"touched"`

	// Expect is the expected status, if any.
	Expect string `yaml:"expect"`
}

// SignatureDoc describes a signature pair: either the signature of a named
// signer or a raw pair.
type SignatureDoc struct {
	Signer string `yaml:"signer,omitempty"`
	Prefix int    `yaml:"prefix,omitempty"`
	Tamper bool   `yaml:"tamper,omitempty"`

	Scheme       protocol.SignatureScheme `yaml:"scheme,omitempty"`
	PubKeyPrefix string                   `yaml:"pubKeyPrefix,omitempty"`
	Signature    string                   `yaml:"signature,omitempty"`
}

func LoadScenario(file string) (*Scenario, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadScenario(f)
}

func ReadScenario(r io.Reader) (*Scenario, error) {
	s := new(Scenario)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(s)
	if err != nil {
		return nil, errors.EncodingError.WithFormat("decode scenario: %w", err)
	}

	s.signers = map[string]*signing.Signer{}
	for name, doc := range s.Signers {
		signer, err := doc.signer()
		if err != nil {
			return nil, errors.BadKey.WithFormat("signer %s: %w", name, err)
		}
		s.signers[name] = signer
	}
	return s, nil
}

func (d *SignerDoc) signer() (*signing.Signer, error) {
	scheme := d.Scheme
	if scheme == protocol.UnknownScheme {
		scheme = protocol.ED25519
	}

	var priv []byte
	switch {
	case d.PrivateKey != "" && d.Seed != "":
		return nil, fmt.Errorf("both seed and private key are set")
	case d.PrivateKey != "":
		b, err := decodePrivateKey(scheme, d.PrivateKey)
		if err != nil {
			return nil, err
		}
		priv = b
	case d.Seed != "":
		h := sha256.Sum256([]byte(d.Seed))
		priv = h[:]
	default:
		return nil, fmt.Errorf("missing seed or private key")
	}

	if scheme == protocol.ED25519 && len(priv) == 32 {
		return signing.FromSeed(priv), nil
	}
	s := &signing.Signer{Scheme: scheme, PrivateKey: priv}
	_, err := s.PublicKey()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Store returns an account store populated with the scenario's accounts.
func (s *Scenario) Store() (*policy.MemoryStore, error) {
	store := policy.NewMemoryStore()
	for _, doc := range s.Accounts {
		a := &policy.Account{
			ID:                  doc.ID,
			Deleted:             doc.Deleted,
			ReceiverSigRequired: doc.ReceiverSigRequired,
			SmartContract:       doc.SmartContract,
		}
		if doc.Key != nil {
			key, err := s.key(doc.Key)
			if err != nil {
				return nil, errors.BadKey.WithFormat("account %v: %w", doc.ID, err)
			}
			a.Key = key
		}
		store.Put(a)
	}
	return store, nil
}

func (s *Scenario) key(doc *KeyDoc) (protocol.KeyNode, error) {
	switch {
	case doc.Signer != "":
		signer, ok := s.signers[doc.Signer]
		if !ok {
			return nil, fmt.Errorf("unknown signer %q", doc.Signer)
		}
		return signer.Key()

	case doc.ED25519 != "":
		b, err := hex.DecodeString(doc.ED25519)
		if err != nil {
			return nil, err
		}
		return protocol.NewED25519Key(b), nil

	case doc.Secp256k1 != "":
		b, err := hex.DecodeString(doc.Secp256k1)
		if err != nil {
			return nil, err
		}
		return protocol.NewSecp256k1Key(b), nil

	case doc.AllOf != nil:
		keys, err := s.keys(doc.AllOf)
		if err != nil {
			return nil, err
		}
		return protocol.AllOf(keys...), nil

	case doc.Keys != nil:
		keys, err := s.keys(doc.Keys)
		if err != nil {
			return nil, err
		}
		return protocol.Threshold(doc.Threshold, keys...), nil

	default:
		return nil, fmt.Errorf("empty key")
	}
}

func (s *Scenario) keys(docs []*KeyDoc) ([]protocol.KeyNode, error) {
	keys := make([]protocol.KeyNode, 0, len(docs))
	for _, doc := range docs {
		key, err := s.key(doc)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Transaction builds and signs the transaction.
func (s *Scenario) Transaction(doc *TransactionDoc) (*protocol.Transaction, error) {
	txn := &protocol.Transaction{
		Payer:     doc.Payer,
		Signers:   doc.Signers,
		Receivers: doc.Receivers,
		Body:      []byte(doc.Body),
	}

	b := signing.SignatureMapFor(txn.Body)
	for i, sd := range doc.Signatures {
		pair, err := s.pair(txn.Body, sd)
		if err != nil {
			return nil, errors.EncodingError.WithFormat("signature %d: %w", i, err)
		}
		b.WithPair(pair)
	}

	sigs, err := b.Build()
	if err != nil {
		return nil, err
	}
	txn.Signatures = sigs
	return txn, nil
}

func (s *Scenario) pair(body []byte, doc *SignatureDoc) (*protocol.SignaturePair, error) {
	if doc.Signer == "" {
		pub, err := hex.DecodeString(doc.PubKeyPrefix)
		if err != nil {
			return nil, err
		}
		sig, err := hex.DecodeString(doc.Signature)
		if err != nil {
			return nil, err
		}
		return &protocol.SignaturePair{Scheme: doc.Scheme, PubKeyPrefix: pub, Signature: sig}, nil
	}

	signer, ok := s.signers[doc.Signer]
	if !ok {
		return nil, fmt.Errorf("unknown signer %q", doc.Signer)
	}
	c := *signer
	c.PrefixLength = doc.Prefix
	pair, err := c.Sign(body)
	if err != nil {
		return nil, err
	}
	if doc.Tamper && len(pair.Signature) > 0 {
		pair.Signature[len(pair.Signature)-1] ^= 0xFF
	}
	return pair, nil
}
