// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"

	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/state"
	"github.com/ava-labs/countervm/storage"
)

var (
	_ chain.Action = (*Initialize)(nil)
	_ chain.Action = (*Increment)(nil)
	_ chain.Action = (*Decrement)(nil)
)

// recordAddress is the record owned by [actor] under the host's program
// and tag.
func recordAddress(actor codec.Address, r chain.Rules) codec.Address {
	return counter.DeriveAddress(r.GetProgramID(), r.GetCounterTag(), actor)
}

// Initialize creates the record owned by the signer with a count of zero.
type Initialize struct{}

func (*Initialize) GetTypeID() uint8 {
	return InitializeID
}

func (*Initialize) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	return state.Keys{
		string(storage.RecordKey(recordAddress(actor, r))): state.All,
	}
}

func (*Initialize) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	_ int64,
	actor codec.Address,
) (chain.Output, error) {
	return apply(ctx, r, mu, actor, func(current *counter.Record) (*counter.Record, *counter.Notification, error) {
		return counter.Initialize(current, actor)
	})
}

func (*Initialize) Size() int {
	return 0
}

func (*Initialize) Marshal(*codec.Packer) {}

func UnmarshalInitialize(p *codec.Packer) (chain.Action, error) {
	return &Initialize{}, p.Err()
}

// Increment adds one to the signer's record.
type Increment struct{}

func (*Increment) GetTypeID() uint8 {
	return IncrementID
}

func (*Increment) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	return state.Keys{
		string(storage.RecordKey(recordAddress(actor, r))): state.Read | state.Write,
	}
}

func (*Increment) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	timestamp int64,
	actor codec.Address,
) (chain.Output, error) {
	return apply(ctx, r, mu, actor, func(current *counter.Record) (*counter.Record, *counter.Notification, error) {
		return counter.Increment(current, actor, timestamp)
	})
}

func (*Increment) Size() int {
	return 0
}

func (*Increment) Marshal(*codec.Packer) {}

func UnmarshalIncrement(p *codec.Packer) (chain.Action, error) {
	return &Increment{}, p.Err()
}

// Decrement subtracts one from the signer's record.
type Decrement struct{}

func (*Decrement) GetTypeID() uint8 {
	return DecrementID
}

func (*Decrement) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	return state.Keys{
		string(storage.RecordKey(recordAddress(actor, r))): state.Read | state.Write,
	}
}

func (*Decrement) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	timestamp int64,
	actor codec.Address,
) (chain.Output, error) {
	return apply(ctx, r, mu, actor, func(current *counter.Record) (*counter.Record, *counter.Notification, error) {
		return counter.Decrement(current, actor, timestamp)
	})
}

func (*Decrement) Size() int {
	return 0
}

func (*Decrement) Marshal(*codec.Packer) {}

func UnmarshalDecrement(p *codec.Packer) (chain.Action, error) {
	return &Decrement{}, p.Err()
}

type transition func(current *counter.Record) (*counter.Record, *counter.Notification, error)

// apply loads the actor's record, runs [f] on it and stores the result.
// Nothing is written if [f] fails.
func apply(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	actor codec.Address,
	f transition,
) (chain.Output, error) {
	addr := recordAddress(actor, r)
	current, err := storage.GetRecord(ctx, mu, addr)
	if err != nil {
		return nil, err
	}
	next, notification, err := f(current)
	if err != nil {
		return nil, err
	}
	if err := storage.PutRecord(ctx, mu, addr, next); err != nil {
		return nil, err
	}
	return &Result{
		Kind:         notification.Kind,
		Count:        next.Count,
		Notification: notification,
	}, nil
}
