// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/state"
)

type (
	ActionRegistry = *codec.TypeParser[Action]
	AuthRegistry   = *codec.TypeParser[Auth]
)

type Rules interface {
	GetChainID() ids.ID

	// GetProgramID and GetCounterTag scope every record address.
	GetProgramID() ids.ID
	GetCounterTag() []byte

	GetValidityWindow() int64 // in milliseconds
}

type Action interface {
	codec.Typed

	// StateKeys is a full enumeration of all database keys that could be
	// touched during execution of an [Action]. The processor locks these
	// keys and any access outside of them fails.
	StateKeys(actor codec.Address, r Rules) state.Keys

	// Execute actually runs the [Action]. Any state changes that the
	// [Action] performs should be done here.
	//
	// If any keys are touched during [Execute] that are not specified in
	// [StateKeys], the transaction will fail.
	//
	// An error aborts the transaction: nothing the action wrote is
	// committed and no notification is emitted.
	Execute(
		ctx context.Context,
		r Rules,
		mu state.Mutable,
		timestamp int64,
		actor codec.Address,
	) (Output, error)

	// Size is the number of bytes it takes to represent this [Action].
	Size() int

	// Marshal encodes an [Action] as bytes.
	Marshal(p *codec.Packer)
}

// Output is the typed result of a successful [Action].
type Output interface {
	codec.Typed

	GetCount() uint64
	GetNotification() *counter.Notification
}

type Auth interface {
	codec.Typed

	// Verify is run concurrently with other transactions and must not
	// touch state.
	Verify(ctx context.Context, msg []byte) error

	// Actor is the subject of the [Action] signed.
	//
	// To avoid collisions with other [Auth] modules, this must be prefixed
	// by the [TypeID].
	Actor() codec.Address

	// Size is the number of bytes it takes to represent this [Auth].
	Size() int

	// Marshal encodes an [Auth] as bytes.
	Marshal(p *codec.Packer)
}

type AuthFactory interface {
	// Sign is used by helpers, auth object should store internally to be
	// ready for marshaling
	Sign(msg []byte) (Auth, error)
	Address() codec.Address
}
