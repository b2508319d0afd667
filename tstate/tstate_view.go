// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import (
	"context"
	"errors"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/countervm/state"
)

var _ state.Mutable = (*TStateView)(nil)

// TStateView is a scratch view over a base state. Reads and writes are
// restricted to [scope] with the declared permissions, and nothing reaches
// the base until the caller exports the pending changes.
type TStateView struct {
	pendingChangedKeys map[string][]byte

	scope   state.Keys
	storage state.Immutable
}

func NewView(scope state.Keys, storage state.Immutable) *TStateView {
	return &TStateView{
		pendingChangedKeys: make(map[string][]byte, len(scope)),

		scope:   scope,
		storage: storage,
	}
}

func (ts *TStateView) checkScope(k string, perm state.Permissions) bool {
	return ts.scope[k].Has(perm)
}

// GetValue returns the value associated with [key]. If [key] is not in
// scope with read permission, ErrInvalidKeyOrPermission is returned.
func (ts *TStateView) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	k := string(key)
	if !ts.checkScope(k, state.Read) {
		return nil, ErrInvalidKeyOrPermission
	}
	v, exists, err := ts.getValue(ctx, k)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrNotFound
	}
	return v, nil
}

func (ts *TStateView) getValue(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := ts.pendingChangedKeys[key]; ok {
		return v, true, nil
	}
	v, err := ts.storage.GetValue(ctx, []byte(key))
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Insert sets or updates [key] to [value]. Creating a key requires
// Allocate permission and overwriting one requires Write.
//
// Any bytes passed into [Insert] will be consumed by [TStateView] and should
// not be modified/referenced after this call.
func (ts *TStateView) Insert(ctx context.Context, key []byte, value []byte) error {
	k := string(key)
	if !ts.checkScope(k, state.Read) {
		return ErrInvalidKeyOrPermission
	}
	_, exists, err := ts.getValue(ctx, k)
	if err != nil {
		return err
	}
	required := state.Allocate
	if exists {
		required = state.Write
	}
	if !ts.checkScope(k, required) {
		return ErrInvalidKeyOrPermission
	}
	ts.pendingChangedKeys[k] = value
	return nil
}

// WriteTo copies every pending change into [w]. The view should not be
// used after its changes have been written.
func (ts *TStateView) WriteTo(w database.KeyValueWriter) error {
	for k, v := range ts.pendingChangedKeys {
		if err := w.Put([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}
