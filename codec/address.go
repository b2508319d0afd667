// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/mr-tron/base58"
)

const AddressLen = 33

// Address is a 33 byte identity: a 1 byte type ID followed by a 32 byte
// digest. Addresses are displayed in base58.
type Address [AddressLen]byte

var EmptyAddress = Address{}

// CreateAddress returns [Address] made from concatenating
// [typeID] with [id].
func CreateAddress(typeID uint8, id ids.ID) Address {
	var a Address
	a[0] = typeID
	copy(a[1:], id[:])
	return a
}

// ToAddress copies [b] into an [Address]. It errors if [b] is not exactly
// [AddressLen] bytes.
func ToAddress(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLen {
		return a, fmt.Errorf("%w: expected %d bytes but found %d bytes", ErrInvalidAddress, AddressLen, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddress accepts either the base58 form produced by [Address.String]
// or a 0x prefixed hex string.
func ParseAddress(s string) (Address, error) {
	if strings.HasPrefix(s, "0x") {
		b, err := LoadHex(s, AddressLen)
		if err != nil {
			return EmptyAddress, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		return ToAddress(b)
	}
	b, err := base58.Decode(s)
	if err != nil {
		return EmptyAddress, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return ToAddress(b)
}

// TypeID returns the first byte of [a].
func (a Address) TypeID() uint8 {
	return a[0]
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Hex returns the 0x prefixed hex representation of [a].
func (a Address) Hex() string {
	return "0x" + ToHex(a[:])
}

// MarshalText returns the base58 representation of a.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a base58 or hex encoded address.
func (a *Address) UnmarshalText(input []byte) error {
	parsed, err := ParseAddress(string(input))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
