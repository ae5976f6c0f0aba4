// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import (
	"fmt"
	"strings"
)

// OK means the authorization pass completed and nothing was rejected.
const OK Status = 200

// InvalidPayerAccount means the payer account does not exist.
const InvalidPayerAccount Status = 400

// PayerAccountDeleted means the payer account has been deleted.
const PayerAccountDeleted Status = 401

// InvalidAccount means an account that must sign the transaction does not
// exist.
const InvalidAccount Status = 402

// AccountDeleted means an account that must sign the transaction has been
// deleted.
const AccountDeleted Status = 403

// BadKey means key material is malformed or a composite key violates its
// structural invariants.
const BadKey Status = 404

// KeyPrefixMismatch means a required key matches more than one signature map
// entry.
const KeyPrefixMismatch Status = 405

// InvalidSignature means a required non-payer key is not active.
const InvalidSignature Status = 406

// InvalidPayerSignature means the payer key is not active.
const InvalidPayerSignature Status = 407

// NotFound means a record could not be found.
const NotFound Status = 408

// BadSignatureMap means a signature map is malformed.
const BadSignatureMap Status = 409

// UnknownError means the cause of the failure is not known.
const UnknownError Status = 500

// InternalError means something went wrong inside the node.
const InternalError Status = 501

// EncodingError means something could not be encoded or decoded.
const EncodingError Status = 502

// AuthorizationFailed means the authorization pass could not be completed.
const AuthorizationFailed Status = 503

var statusNames = map[Status]string{
	OK:                    "ok",
	InvalidPayerAccount:   "invalidPayerAccount",
	PayerAccountDeleted:   "payerAccountDeleted",
	InvalidAccount:        "invalidAccount",
	AccountDeleted:        "accountDeleted",
	BadKey:                "badKey",
	KeyPrefixMismatch:     "keyPrefixMismatch",
	InvalidSignature:      "invalidSignature",
	InvalidPayerSignature: "invalidPayerSignature",
	NotFound:              "notFound",
	BadSignatureMap:       "badSignatureMap",
	UnknownError:          "unknownError",
	InternalError:         "internalError",
	EncodingError:         "encodingError",
	AuthorizationFailed:   "authorizationFailed",
}

// String returns the name of the Status.
func (v Status) String() string {
	if s, ok := statusNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Status:%d", uint64(v))
}

// StatusByName returns the named Status.
func StatusByName(name string) (Status, bool) {
	for v, s := range statusNames {
		if strings.EqualFold(s, name) {
			return v, true
		}
	}
	return 0, false
}

// MarshalText marshals the Status to text.
func (v Status) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText unmarshals the Status from text.
func (v *Status) UnmarshalText(data []byte) error {
	var ok bool
	*v, ok = StatusByName(string(data))
	if !ok {
		return fmt.Errorf("invalid Status %q", data)
	}
	return nil
}
