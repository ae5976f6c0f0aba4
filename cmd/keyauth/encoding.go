// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
	"github.com/mr-tron/base58"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

// KeyEncoding is the text encoding of keys printed by the CLI.
type KeyEncoding string

const (
	EncodingHex    KeyEncoding = "hex"
	EncodingBase58 KeyEncoding = "base58"
)

func (e KeyEncoding) Encode(b []byte) (string, error) {
	switch e {
	case EncodingHex, "":
		return hex.EncodeToString(b), nil
	case EncodingBase58:
		return base58.Encode(b), nil
	default:
		return "", fmt.Errorf("unknown key encoding %q", string(e))
	}
}

// decodePrivateKey decodes a private key given as hex or base58, or, for
// secp256k1, in wallet import format.
func decodePrivateKey(scheme protocol.SignatureScheme, s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil {
		return b, nil
	}

	if scheme == protocol.ECDSASecp256k1 {
		if wif, err := btcutil.DecodeWIF(s); err == nil {
			return wif.PrivKey.Serialize(), nil
		}
	}

	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("private key is not hex, base58, or WIF")
	}
	return b, nil
}

// encodeWIF returns a secp256k1 private key in wallet import format, for a
// compressed public key.
func encodeWIF(priv []byte) (string, error) {
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), priv)
	wif, err := btcutil.NewWIF(key, &chaincfg.MainNetParams, true)
	if err != nil {
		return "", err
	}
	return wif.String(), nil
}
