// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"github.com/ava-labs/avalanchego/utils/units"

	"github.com/ava-labs/countervm/actions"
	"github.com/ava-labs/countervm/auth"
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/cli/prompt"
	"github.com/ava-labs/countervm/pebble"
	"github.com/ava-labs/countervm/state"
)

// Handler keeps the keys and endpoint of the command line client in a
// local pebble database and issues counter transactions.
type Handler struct {
	db state.Database

	actionRegistry chain.ActionRegistry
	authRegistry   chain.AuthRegistry

	// asks the user to confirm a destructive step
	confirm func(label string) (bool, error)
}

func New(dbPath string) (*Handler, error) {
	cfg := pebble.NewDefaultConfig()
	cfg.CacheSize = 4 * units.MiB
	db, _, err := pebble.New(dbPath, cfg)
	if err != nil {
		return nil, err
	}
	h, err := NewWithDatabase(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

// NewWithDatabase returns a handler backed by [db].
func NewWithDatabase(db state.Database) (*Handler, error) {
	actionRegistry, err := actions.NewRegistry()
	if err != nil {
		return nil, err
	}
	authRegistry, err := auth.NewRegistry()
	if err != nil {
		return nil, err
	}
	return &Handler{
		db:             db,
		actionRegistry: actionRegistry,
		authRegistry:   authRegistry,
		confirm:        prompt.Bool,
	}, nil
}
