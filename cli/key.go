// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"errors"

	"github.com/ava-labs/countervm/auth"
	"github.com/ava-labs/countervm/cli/prompt"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/crypto/ed25519"
	"github.com/ava-labs/countervm/utils"
)

// GenerateKey creates a new key and makes it the default. If a default key
// already exists the user must confirm the replacement unless [force].
func (h *Handler) GenerateKey(force bool) (codec.Address, error) {
	if err := h.confirmReplace(force); err != nil {
		return codec.EmptyAddress, err
	}
	priv, err := ed25519.GeneratePrivateKey()
	if err != nil {
		return codec.EmptyAddress, err
	}
	return h.setKey(priv)
}

// ImportKey loads a hex encoded key from [path] and makes it the default.
func (h *Handler) ImportKey(path string, force bool) (codec.Address, error) {
	priv, err := ed25519.LoadKey(path)
	if err != nil {
		return codec.EmptyAddress, err
	}
	if err := h.confirmReplace(force); err != nil {
		return codec.EmptyAddress, err
	}
	return h.setKey(priv)
}

// ExportKey writes the default key to [path].
func (h *Handler) ExportKey(path string) (codec.Address, error) {
	priv, err := h.GetDefaultKey()
	if err != nil {
		return codec.EmptyAddress, err
	}
	if err := priv.Save(path); err != nil {
		return codec.EmptyAddress, err
	}
	addr := auth.NewED25519Address(priv.PublicKey())
	utils.Outf("{{green}}exported key:{{/}} %s {{green}}to{{/}} %s\n", addr, path)
	return addr, nil
}

func (h *Handler) confirmReplace(force bool) error {
	if force {
		return nil
	}
	_, err := h.GetDefaultKey()
	switch {
	case errors.Is(err, ErrNoKeys):
		return nil
	case err != nil:
		return err
	}
	ok, err := h.confirm("replace the default key")
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

func (h *Handler) setKey(priv ed25519.PrivateKey) (codec.Address, error) {
	addr := auth.NewED25519Address(priv.PublicKey())
	if err := h.StoreKey(priv); err != nil && !errors.Is(err, ErrDuplicate) {
		return codec.EmptyAddress, err
	}
	if err := h.StoreDefaultKey(addr); err != nil {
		return codec.EmptyAddress, err
	}
	utils.Outf("{{green}}default key:{{/}} %s\n", addr)
	return addr, nil
}

// SetKey lets the user pick the default key among the stored ones.
func (h *Handler) SetKey() error {
	keys, err := h.GetKeys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		utils.Outf("{{red}}no stored keys{{/}}\n")
		return nil
	}
	utils.Outf("{{cyan}}stored keys:{{/}} %d\n", len(keys))
	for i, key := range keys {
		utils.Outf(
			"%d) {{cyan}}address:{{/}} %s\n",
			i,
			auth.NewED25519Address(key.PublicKey()),
		)
	}

	// Select key
	keyIndex, err := prompt.Choice("set default key", len(keys))
	if err != nil {
		return err
	}
	return h.StoreDefaultKey(auth.NewED25519Address(keys[keyIndex].PublicKey()))
}

// Address returns the address of the default key.
func (h *Handler) Address() (codec.Address, error) {
	priv, err := h.GetDefaultKey()
	if err != nil {
		return codec.EmptyAddress, err
	}
	return auth.NewED25519Address(priv.PublicKey()), nil
}
