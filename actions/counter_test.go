// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/chain/chaintest"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/codectest"
	"github.com/ava-labs/countervm/consts"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/state"
	"github.com/ava-labs/countervm/storage"
)

const testTimestamp int64 = 1_700_000_000

func getRecord(ctx context.Context, t *testing.T, r chain.Rules, store state.Mutable, authority codec.Address) *counter.Record {
	record, err := storage.GetRecord(ctx, store, recordAddress(authority, r))
	require.NoError(t, err)
	return record
}

func TestCounterActions(t *testing.T) {
	rules := chain.NewDefaultRules(ids.GenerateTestID(), ids.GenerateTestID())
	addr := codectest.NewRandomAddress()
	anotherAddr := codectest.NewRandomAddress()

	store := chaintest.NewInMemoryStore()
	tests := []chaintest.ActionTest{
		{
			Name:        "IncrementUninitialized",
			Actor:       addr,
			Action:      &Increment{},
			Rules:       rules,
			State:       store,
			Timestamp:   testTimestamp,
			ExpectedErr: counter.ErrNotInitialized,
			Assertion: func(ctx context.Context, t *testing.T, store state.Mutable) {
				require.Nil(t, getRecord(ctx, t, rules, store, addr))
			},
		},
		{
			Name:   "Initialize",
			Actor:  addr,
			Action: &Initialize{},
			Rules:  rules,
			State:  store,
			Assertion: func(ctx context.Context, t *testing.T, store state.Mutable) {
				require.Equal(t, &counter.Record{Count: 0, Authority: addr}, getRecord(ctx, t, rules, store, addr))
			},
			ExpectedOutputs: &Result{
				Kind:  counter.Initialized,
				Count: 0,
				Notification: &counter.Notification{
					Kind:      counter.Initialized,
					Authority: addr,
				},
			},
		},
		{
			Name:        "InitializeTwice",
			Actor:       addr,
			Action:      &Initialize{},
			Rules:       rules,
			State:       store,
			ExpectedErr: counter.ErrAlreadyInitialized,
		},
		{
			Name:      "Increment",
			Actor:     addr,
			Action:    &Increment{},
			Rules:     rules,
			State:     store,
			Timestamp: testTimestamp,
			Assertion: func(ctx context.Context, t *testing.T, store state.Mutable) {
				require.Equal(t, uint64(1), getRecord(ctx, t, rules, store, addr).Count)
			},
			ExpectedOutputs: &Result{
				Kind:  counter.Incremented,
				Count: 1,
				Notification: &counter.Notification{
					Kind:      counter.Incremented,
					Authority: addr,
					OldCount:  0,
					NewCount:  1,
					Timestamp: testTimestamp,
				},
			},
		},
		{
			// anotherAddr has its own (missing) record, so it cannot reach
			// the record owned by addr
			Name:        "DecrementDifferentActor",
			Actor:       anotherAddr,
			Action:      &Decrement{},
			Rules:       rules,
			State:       store,
			Timestamp:   testTimestamp,
			ExpectedErr: counter.ErrNotInitialized,
			Assertion: func(ctx context.Context, t *testing.T, store state.Mutable) {
				require.Equal(t, uint64(1), getRecord(ctx, t, rules, store, addr).Count)
			},
		},
		{
			Name:      "Decrement",
			Actor:     addr,
			Action:    &Decrement{},
			Rules:     rules,
			State:     store,
			Timestamp: testTimestamp + 1,
			Assertion: func(ctx context.Context, t *testing.T, store state.Mutable) {
				require.Zero(t, getRecord(ctx, t, rules, store, addr).Count)
			},
			ExpectedOutputs: &Result{
				Kind:  counter.Decremented,
				Count: 0,
				Notification: &counter.Notification{
					Kind:      counter.Decremented,
					Authority: addr,
					OldCount:  1,
					NewCount:  0,
					Timestamp: testTimestamp + 1,
				},
			},
		},
		{
			Name:        "DecrementZero",
			Actor:       addr,
			Action:      &Decrement{},
			Rules:       rules,
			State:       store,
			Timestamp:   testTimestamp,
			ExpectedErr: counter.ErrUnderflow,
			Assertion: func(ctx context.Context, t *testing.T, store state.Mutable) {
				require.Zero(t, getRecord(ctx, t, rules, store, addr).Count)
			},
		},
	}

	for _, tt := range tests {
		tt.Run(context.Background(), t)
	}
}

func TestIncrementOverflow(t *testing.T) {
	ctx := context.Background()
	rules := chain.NewDefaultRules(ids.GenerateTestID(), ids.GenerateTestID())
	addr := codectest.NewRandomAddress()

	store := chaintest.NewInMemoryStore()
	require.NoError(t, storage.PutRecord(ctx, store, recordAddress(addr, rules), &counter.Record{
		Count:     consts.MaxUint64,
		Authority: addr,
	}))

	test := chaintest.ActionTest{
		Name:        "IncrementMax",
		Actor:       addr,
		Action:      &Increment{},
		Rules:       rules,
		State:       store,
		Timestamp:   testTimestamp,
		ExpectedErr: counter.ErrOverflow,
		Assertion: func(ctx context.Context, t *testing.T, store state.Mutable) {
			require.Equal(t, consts.MaxUint64, getRecord(ctx, t, rules, store, addr).Count)
		},
	}
	test.Run(ctx, t)
}

func TestForeignRecordUnauthorized(t *testing.T) {
	ctx := context.Background()
	rules := chain.NewDefaultRules(ids.GenerateTestID(), ids.GenerateTestID())
	owner := codectest.NewRandomAddress()
	intruder := codectest.NewRandomAddress()

	// a record stored where the intruder's address derives to but owned by
	// someone else
	store := chaintest.NewInMemoryStore()
	require.NoError(t, storage.PutRecord(ctx, store, recordAddress(intruder, rules), &counter.Record{
		Count:     5,
		Authority: owner,
	}))

	for _, action := range []chain.Action{&Increment{}, &Decrement{}} {
		_, err := action.Execute(ctx, rules, store, testTimestamp, intruder)
		require.ErrorIs(t, err, counter.ErrUnauthorized)
	}
	require.Equal(t, uint64(5), getRecord(ctx, t, rules, store, intruder).Count)
}

func TestStateKeys(t *testing.T) {
	require := require.New(t)
	rules := chain.NewDefaultRules(ids.GenerateTestID(), ids.GenerateTestID())
	addr := codectest.NewRandomAddress()
	key := string(storage.RecordKey(recordAddress(addr, rules)))

	require.Equal(state.Keys{key: state.All}, (&Initialize{}).StateKeys(addr, rules))
	require.Equal(state.Keys{key: state.Read | state.Write}, (&Increment{}).StateKeys(addr, rules))
	require.Equal(state.Keys{key: state.Read | state.Write}, (&Decrement{}).StateKeys(addr, rules))

	other := chain.NewDefaultRules(rules.ChainID, rules.ProgramID)
	other.CounterTag = []byte("other")
	require.NotEqual((&Increment{}).StateKeys(addr, rules), (&Increment{}).StateKeys(addr, other))
}

func TestRegistry(t *testing.T) {
	require := require.New(t)

	registry, err := NewRegistry()
	require.NoError(err)
	require.Equal(3, registry.Len())
	require.ErrorIs(Register(registry), codec.ErrDuplicateItem)

	for _, action := range []chain.Action{&Initialize{}, &Increment{}, &Decrement{}} {
		unmarshal, ok := registry.LookupIndex(action.GetTypeID())
		require.True(ok)
		p := codec.NewReader(nil, 0)
		parsed, err := unmarshal(p)
		require.NoError(err)
		require.Equal(action, parsed)
	}
	_, ok := registry.LookupIndex(3)
	require.False(ok)
}
