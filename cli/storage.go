// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/countervm/auth"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/crypto/ed25519"
)

const (
	defaultPrefix = 0x0
	keyPrefix     = 0x1

	defaultKeyKey      = "key"
	defaultEndpointKey = "endpoint"
)

func (h *Handler) StoreDefault(key string, value []byte) error {
	k := make([]byte, 1+len(key))
	k[0] = defaultPrefix
	copy(k[1:], []byte(key))
	return h.db.Put(k, value)
}

func (h *Handler) GetDefault(key string) ([]byte, error) {
	k := make([]byte, 1+len(key))
	k[0] = defaultPrefix
	copy(k[1:], []byte(key))
	v, err := h.db.Get(k)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func keyKey(addr codec.Address) []byte {
	k := make([]byte, 1+codec.AddressLen)
	k[0] = keyPrefix
	copy(k[1:], addr[:])
	return k
}

// StoreKey saves [privateKey] under its address. Storing the same key
// twice fails with [ErrDuplicate].
func (h *Handler) StoreKey(privateKey ed25519.PrivateKey) error {
	k := keyKey(auth.NewED25519Address(privateKey.PublicKey()))
	has, err := h.db.Has(k)
	if err != nil {
		return err
	}
	if has {
		return ErrDuplicate
	}
	return h.db.Put(k, privateKey[:])
}

// GetKey returns the stored key of [addr] and false if there is none.
func (h *Handler) GetKey(addr codec.Address) (ed25519.PrivateKey, bool, error) {
	v, err := h.db.Get(keyKey(addr))
	if errors.Is(err, database.ErrNotFound) {
		return ed25519.EmptyPrivateKey, false, nil
	}
	if err != nil {
		return ed25519.EmptyPrivateKey, false, err
	}
	return ed25519.PrivateKey(v), true, nil
}

func (h *Handler) GetKeys() ([]ed25519.PrivateKey, error) {
	iter := h.db.NewIteratorWithPrefix([]byte{keyPrefix})
	defer iter.Release()

	privateKeys := []ed25519.PrivateKey{}
	for iter.Next() {
		// It is safe to use these bytes directly because the database copies the
		// iterator value for us.
		privateKeys = append(privateKeys, ed25519.PrivateKey(iter.Value()))
	}
	return privateKeys, iter.Error()
}

func (h *Handler) StoreDefaultKey(addr codec.Address) error {
	return h.StoreDefault(defaultKeyKey, addr[:])
}

// GetDefaultKey returns the default signing key. It fails with [ErrNoKeys]
// if none was set.
func (h *Handler) GetDefaultKey() (ed25519.PrivateKey, error) {
	v, err := h.GetDefault(defaultKeyKey)
	if err != nil {
		return ed25519.EmptyPrivateKey, err
	}
	if len(v) == 0 {
		return ed25519.EmptyPrivateKey, ErrNoKeys
	}
	addr, err := codec.ToAddress(v)
	if err != nil {
		return ed25519.EmptyPrivateKey, err
	}
	priv, ok, err := h.GetKey(addr)
	if err != nil {
		return ed25519.EmptyPrivateKey, err
	}
	if !ok {
		return ed25519.EmptyPrivateKey, fmt.Errorf("%w: default key %s is missing", ErrNoKeys, addr)
	}
	return priv, nil
}

func (h *Handler) StoreEndpoint(uri string) error {
	return h.StoreDefault(defaultEndpointKey, []byte(uri))
}

func (h *Handler) GetEndpoint() (string, error) {
	v, err := h.GetDefault(defaultEndpointKey)
	if err != nil {
		return "", err
	}
	if len(v) == 0 {
		return "", ErrNoEndpoint
	}
	return string(v), nil
}

func (h *Handler) CloseDatabase() error {
	if h.db == nil {
		return nil
	}
	if err := h.db.Close(); err != nil {
		return fmt.Errorf("unable to close database: %w", err)
	}
	// Allow DB to be closed multiple times
	h.db = nil
	return nil
}
