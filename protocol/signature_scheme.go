// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SignatureScheme is the asymmetric signature algorithm of a primitive key.
type SignatureScheme uint8

const (
	UnknownScheme SignatureScheme = iota
	ED25519
	ECDSASecp256k1
)

// ED25519PublicKeySize is the size of an ED25519 public key.
const ED25519PublicKeySize = 32

// Secp256k1PublicKeySize is the size of a compressed secp256k1 public key.
const Secp256k1PublicKeySize = 33

func SignatureSchemeByName(s string) SignatureScheme {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "_")) {
	case "ED25519":
		return ED25519
	case "ECDSA_SECP256K1", "SECP256K1", "ECDSA":
		return ECDSASecp256k1
	default:
		return UnknownScheme
	}
}

func (s SignatureScheme) String() string {
	switch s {
	case ED25519:
		return "ED25519"
	case ECDSASecp256k1:
		return "ECDSA_SECP256K1"
	default:
		return fmt.Sprintf("SignatureScheme:%d", s)
	}
}

// PublicKeySize returns the size of a full public key for the scheme, or zero
// if the scheme is unknown.
func (s SignatureScheme) PublicKeySize() int {
	switch s {
	case ED25519:
		return ED25519PublicKeySize
	case ECDSASecp256k1:
		return Secp256k1PublicKeySize
	default:
		return 0
	}
}

func (s SignatureScheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SignatureScheme) UnmarshalText(b []byte) error {
	*s = SignatureSchemeByName(string(b))
	if *s == UnknownScheme {
		return fmt.Errorf("invalid signature scheme: %q", b)
	}
	return nil
}

func (s SignatureScheme) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SignatureScheme) UnmarshalJSON(b []byte) error {
	var str string
	err := json.Unmarshal(b, &str)
	if err != nil {
		return err
	}
	return s.UnmarshalText([]byte(str))
}
