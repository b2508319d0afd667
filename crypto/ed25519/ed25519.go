// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ed25519

import (
	"crypto/ed25519"
	"os"
	"strings"

	"github.com/hdevalence/ed25519consensus"

	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/crypto"
)

type (
	PublicKey  [ed25519.PublicKeySize]byte
	PrivateKey [ed25519.PrivateKeySize]byte
	Signature  [ed25519.SignatureSize]byte
)

// Signatures are checked with the ZIP-215 rules
// (https://zips.z.cash/zip-0215) so that every honest ed25519 signer
// is accepted and validity is unambiguous across implementations.
const (
	PublicKeyLen  = ed25519.PublicKeySize
	PrivateKeyLen = ed25519.PrivateKeySize
	// PrivateKeySeedLen is defined because ed25519.PrivateKey
	// is formatted as privateKey = seed|publicKey. We use this const
	// to extract the publicKey below.
	PrivateKeySeedLen = ed25519.SeedSize
	SignatureLen      = ed25519.SignatureSize
)

var (
	EmptyPublicKey  = PublicKey{}
	EmptyPrivateKey = PrivateKey{}
	EmptySignature  = Signature{}
)

// GeneratePrivateKey returns a Ed25519 PrivateKey.
func GeneratePrivateKey() (PrivateKey, error) {
	_, k, err := ed25519.GenerateKey(nil)
	if err != nil {
		return EmptyPrivateKey, err
	}
	return PrivateKey(k), nil
}

// PublicKey returns a PublicKey associated with the Ed25519 PrivateKey p.
// The PublicKey is the last 32 bytes of p.
func (p PrivateKey) PublicKey() PublicKey {
	return PublicKey(p[PrivateKeySeedLen:])
}

// Hex returns the hex encoding of the full 64 byte key.
func (p PrivateKey) Hex() string {
	return codec.ToHex(p[:])
}

// HexToKey decodes a hex encoded private key. Both the 64 byte
// seed|publicKey form and a bare 32 byte seed are accepted.
func HexToKey(s string) (PrivateKey, error) {
	b, err := codec.LoadHex(strings.TrimSpace(s), -1)
	if err != nil {
		return EmptyPrivateKey, err
	}
	switch len(b) {
	case PrivateKeyLen:
		pk := PrivateKey(b)
		if PrivateKey(ed25519.NewKeyFromSeed(pk[:PrivateKeySeedLen])) != pk {
			return EmptyPrivateKey, crypto.ErrInvalidPrivateKey
		}
		return pk, nil
	case PrivateKeySeedLen:
		return PrivateKey(ed25519.NewKeyFromSeed(b)), nil
	default:
		return EmptyPrivateKey, crypto.ErrInvalidPrivateKey
	}
}

// LoadKey reads a hex encoded private key from [filename].
func LoadKey(filename string) (PrivateKey, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return EmptyPrivateKey, err
	}
	return HexToKey(string(b))
}

// Save writes the hex encoding of [p] to [filename] readable only by the
// current user.
func (p PrivateKey) Save(filename string) error {
	return os.WriteFile(filename, []byte(p.Hex()), 0o600)
}

// Sign returns a valid signature for msg using pk.
func Sign(msg []byte, pk PrivateKey) Signature {
	sig := ed25519.Sign(pk[:], msg)
	return Signature(sig)
}

// Verify returns whether s is a valid signature of msg by p.
func Verify(msg []byte, p PublicKey, s Signature) bool {
	return ed25519consensus.Verify(p[:], msg, s[:])
}
