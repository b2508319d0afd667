// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/codec"
)

// Register adds every counter action to [registry].
func Register(registry *codec.TypeParser[chain.Action]) error {
	errs := &wrappers.Errs{}
	errs.Add(
		registry.Register(&Initialize{}, UnmarshalInitialize),
		registry.Register(&Increment{}, UnmarshalIncrement),
		registry.Register(&Decrement{}, UnmarshalDecrement),
	)
	return errs.Err
}

// NewRegistry returns a registry holding every counter action.
func NewRegistry() (chain.ActionRegistry, error) {
	registry := codec.NewTypeParser[chain.Action]()
	if err := Register(registry); err != nil {
		return nil, err
	}
	return registry, nil
}
