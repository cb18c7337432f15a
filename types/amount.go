// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package types

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"
)

// MaxAmount is the largest representable transfer amount (2^128 - 1).
var MaxAmount = uint256.MustFromHex("0xffffffffffffffffffffffffffffffff")

// Amount is an unsigned 128-bit asset amount. On the wire it is a JSON
// number; a decimal string is also accepted for clients that cannot emit
// integers above 2^53.
type Amount struct {
	v uint256.Int
}

// NewAmount returns an Amount holding the given value.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// AmountFromDecimal parses a base-10 amount, rejecting values above 128 bits.
func AmountFromDecimal(s string) (Amount, error) {
	var a Amount
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return a, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if v.Gt(MaxAmount) {
		return a, fmt.Errorf("amount %s exceeds 128 bits", s)
	}
	a.v = *v
	return a, nil
}

// Int returns a copy of the underlying value.
func (a *Amount) Int() *uint256.Int {
	return new(uint256.Int).Set(&a.v)
}

// IsZero reports whether the amount is zero.
func (a *Amount) IsZero() bool {
	return a.v.IsZero()
}

func (a Amount) String() string {
	return a.v.Dec()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}
	parsed, err := AmountFromDecimal(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
