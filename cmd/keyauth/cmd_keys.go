// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/accumulatenetwork/keyauth/pkg/client/signing"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
	"gopkg.in/yaml.v3"
)

var cmdKeygen = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a private key",
	Args:  cobra.NoArgs,
	Run:   keygen,
}

var cmdSign = &cobra.Command{
	Use:   "sign [private key] [body]",
	Short: "Sign a transaction body and print the signature in scenario form",
	Args:  cobra.ExactArgs(2),
	Run:   sign,
}

var flagKeys struct {
	Scheme   string
	Prefix   int
	Encoding string
}

func init() {
	cmdMain.AddCommand(cmdKeygen, cmdSign)

	for _, cmd := range []*cobra.Command{cmdKeygen, cmdSign} {
		addSchemeFlag(cmd.Flags())
	}
	cmdKeygen.Flags().StringVar(&flagKeys.Encoding, "encoding", string(EncodingHex), "Key encoding (hex or base58)")
	cmdSign.Flags().IntVar(&flagKeys.Prefix, "prefix", 0, "Number of public key bytes to include (0 for the full key)")
}

func addSchemeFlag(fs *pflag.FlagSet) {
	fs.StringVar(&flagKeys.Scheme, "scheme", "ed25519", "Signature scheme (ed25519 or secp256k1)")
}

func parseScheme() protocol.SignatureScheme {
	scheme := protocol.SignatureSchemeByName(flagKeys.Scheme)
	if scheme == protocol.UnknownScheme {
		fatalf("unknown signature scheme %q", flagKeys.Scheme)
	}
	return scheme
}

func keygen(*cobra.Command, []string) {
	signer, err := signing.GenerateKey(parseScheme())
	check(err)
	pub, err := signer.PublicKey()
	check(err)

	enc := KeyEncoding(flagKeys.Encoding)
	privStr, err := enc.Encode(signer.PrivateKey)
	check(err)
	pubStr, err := enc.Encode(pub)
	check(err)

	fmt.Printf("Scheme:      %v\n", signer.Scheme)
	fmt.Printf("Private key: %s\n", privStr)
	if signer.Scheme == protocol.ECDSASecp256k1 {
		wif, err := encodeWIF(signer.PrivateKey)
		check(err)
		fmt.Printf("WIF:         %s\n", wif)
	}
	fmt.Printf("Public key:  %s\n", pubStr)
}

func sign(_ *cobra.Command, args []string) {
	scheme := parseScheme()
	priv, err := decodePrivateKey(scheme, args[0])
	checkf(err, "private key")

	signer := &signing.Signer{Scheme: scheme, PrivateKey: priv, PrefixLength: flagKeys.Prefix}
	if signer.Scheme == protocol.ED25519 && len(priv) == 32 {
		signer = signing.FromSeed(priv).SetPrefixLength(flagKeys.Prefix)
	}

	pair, err := signer.Sign([]byte(args[1]))
	check(err)

	doc := &SignatureDoc{
		Scheme:       pair.Scheme,
		PubKeyPrefix: hex.EncodeToString(pair.PubKeyPrefix),
		Signature:    hex.EncodeToString(pair.Signature),
	}
	enc := yaml.NewEncoder(os.Stdout)
	check(enc.Encode([]*SignatureDoc{doc}))
	check(enc.Close())
}
