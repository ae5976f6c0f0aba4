// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
)

// AccountID identifies a ledger account as shard.realm.num.
type AccountID struct {
	Shard uint64
	Realm uint64
	Num   uint64
}

// AccountNum returns the ID of account num in shard 0 realm 0.
func AccountNum(num uint64) AccountID {
	return AccountID{Num: num}
}

// ParseAccountID parses a string such as "0.0.1001". A bare number is treated
// as an account number in shard 0 realm 0.
func ParseAccountID(s string) (AccountID, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 1 && len(parts) != 3 {
		return AccountID{}, errors.EncodingError.WithFormat("invalid account ID %q", s)
	}

	var v [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return AccountID{}, errors.EncodingError.WithFormat("invalid account ID %q: %w", s, err)
		}
		v[3-len(parts)+i] = n
	}
	return AccountID{Shard: v[0], Realm: v[1], Num: v[2]}, nil
}

func (a AccountID) String() string {
	return fmt.Sprintf("%d.%d.%d", a.Shard, a.Realm, a.Num)
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(b []byte) error {
	v, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
