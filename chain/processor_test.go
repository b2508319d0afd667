// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/countervm/actions"
	"github.com/ava-labs/countervm/auth"
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/consts"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/crypto"
	"github.com/ava-labs/countervm/crypto/ed25519"
	"github.com/ava-labs/countervm/event"
	"github.com/ava-labs/countervm/state"
	"github.com/ava-labs/countervm/storage"
	"github.com/ava-labs/countervm/trace"
)

var (
	testNow = time.Unix(1_700_000_000, 0)

	errSubscriber = errors.New("subscriber failed")
)

type testEnv struct {
	processor      *chain.Processor
	db             *memdb.Database
	rules          *chain.DefaultRules
	actionRegistry chain.ActionRegistry
	authRegistry   chain.AuthRegistry

	lock   sync.Mutex
	events []*chain.Event
	closed bool
}

func (e *testEnv) Accept(_ context.Context, ev *chain.Event) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *testEnv) Close() error {
	e.closed = true
	return nil
}

func newTestEnv(t *testing.T, subs ...event.Subscription[*chain.Event]) *testEnv {
	require := require.New(t)

	actionRegistry, err := actions.NewRegistry()
	require.NoError(err)
	authRegistry, err := auth.NewRegistry()
	require.NoError(err)

	env := &testEnv{
		db:             memdb.New(),
		rules:          chain.NewDefaultRules(ids.GenerateTestID(), ids.GenerateTestID()),
		actionRegistry: actionRegistry,
		authRegistry:   authRegistry,
	}
	subs = append([]event.Subscription[*chain.Event]{env}, subs...)
	env.processor, err = chain.NewProcessor(
		logging.NoLog{},
		trace.Noop(),
		env.rules,
		env.db,
		actionRegistry,
		authRegistry,
		subs...,
	)
	require.NoError(err)
	env.processor.Clock().Set(testNow)
	return env
}

func newFactory(t *testing.T) *auth.ED25519Factory {
	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(t, err)
	return auth.NewED25519Factory(priv)
}

func (e *testEnv) newTx(t *testing.T, factory chain.AuthFactory, action chain.Action, nonce uint64) *chain.Transaction {
	base := &chain.Base{
		Timestamp: testNow.UnixMilli() + 10*consts.MillisecondsPerSecond,
		ChainID:   e.rules.ChainID,
		Nonce:     nonce,
	}
	tx, err := chain.NewTx(base, action).Sign(factory, e.actionRegistry, e.authRegistry)
	require.NoError(t, err)
	return tx
}

func (e *testEnv) nextSequence(t *testing.T) uint64 {
	next, err := storage.NextSequence(e.db)
	require.NoError(t, err)
	return next
}

func TestProcessorLifecycle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	a := newFactory(t)
	b := newFactory(t)

	receipt, err := env.processor.Execute(ctx, env.newTx(t, a, &actions.Initialize{}, 0))
	require.NoError(err)
	require.Zero(receipt.Sequence)
	require.Zero(receipt.Count)
	require.Equal(counter.Initialized, receipt.Notification.Kind)
	require.Equal(a.Address(), receipt.Notification.Authority)

	receipt, err = env.processor.Execute(ctx, env.newTx(t, a, &actions.Increment{}, 0))
	require.NoError(err)
	require.Equal(uint64(1), receipt.Sequence)
	require.Equal(uint64(1), receipt.Count)
	require.Equal(&counter.Notification{
		Kind:      counter.Incremented,
		Authority: a.Address(),
		OldCount:  0,
		NewCount:  1,
		Timestamp: testNow.Unix(),
	}, receipt.Notification)

	// b never initialized a record of its own
	_, err = env.processor.Execute(ctx, env.newTx(t, b, &actions.Increment{}, 0))
	require.ErrorIs(err, counter.ErrNotInitialized)

	receipt, err = env.processor.Execute(ctx, env.newTx(t, a, &actions.Decrement{}, 0))
	require.NoError(err)
	require.Zero(receipt.Count)

	_, err = env.processor.Execute(ctx, env.newTx(t, a, &actions.Decrement{}, 1))
	require.ErrorIs(err, counter.ErrUnderflow)

	_, err = env.processor.Execute(ctx, env.newTx(t, a, &actions.Initialize{}, 1))
	require.ErrorIs(err, counter.ErrAlreadyInitialized)

	addr, record, err := env.processor.GetCounter(ctx, a.Address())
	require.NoError(err)
	require.Equal(receipt.Record, addr)
	require.Equal(&counter.Record{Count: 0, Authority: a.Address()}, record)

	_, record, err = env.processor.GetCounter(ctx, b.Address())
	require.NoError(err)
	require.Nil(record)

	// exactly one notification per successful operation
	entries, err := env.processor.GetNotifications(ctx, 0, 100)
	require.NoError(err)
	require.Len(entries, 3)
	require.Len(env.events, 3)
	kinds := []counter.Kind{counter.Initialized, counter.Incremented, counter.Decremented}
	for i, entry := range entries {
		require.Equal(uint64(i), entry.Sequence)
		require.Equal(kinds[i], entry.Notification.Kind)
		require.Equal(entry.Sequence, env.events[i].Sequence)
		require.Equal(entry.TxID, env.events[i].TxID)
		require.Equal(entry.Notification, env.events[i].Notification)
		require.Equal(addr, env.events[i].Record)
	}
}

func TestProcessorRejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	factory := newFactory(t)

	sign := func(base *chain.Base) *chain.Transaction {
		tx, err := chain.NewTx(base, &actions.Initialize{}).Sign(factory, env.actionRegistry, env.authRegistry)
		require.NoError(t, err)
		return tx
	}
	valid := testNow.UnixMilli() + consts.MillisecondsPerSecond

	tampered := env.newTx(t, factory, &actions.Initialize{}, 7)
	signed, ok := tampered.Auth.(*auth.ED25519)
	require.True(t, ok)
	forged := &auth.ED25519{Signer: signed.Signer, Signature: signed.Signature}
	forged.Signature[0] ^= 0xff
	tampered.Auth = forged

	tests := []struct {
		name        string
		tx          *chain.Transaction
		expectedErr error
	}{
		{
			name:        "wrong chain",
			tx:          sign(&chain.Base{Timestamp: valid, ChainID: ids.GenerateTestID()}),
			expectedErr: chain.ErrInvalidChainID,
		},
		{
			name:        "expired",
			tx:          sign(&chain.Base{Timestamp: testNow.UnixMilli() - consts.MillisecondsPerSecond, ChainID: env.rules.ChainID}),
			expectedErr: chain.ErrTimestampTooLate,
		},
		{
			name:        "beyond validity window",
			tx:          sign(&chain.Base{Timestamp: testNow.UnixMilli() + env.rules.ValidityWindow + consts.MillisecondsPerSecond, ChainID: env.rules.ChainID}),
			expectedErr: chain.ErrTimestampTooEarly,
		},
		{
			name:        "bad signature",
			tx:          tampered,
			expectedErr: crypto.ErrInvalidSignature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			_, err := env.processor.Execute(ctx, tt.tx)
			require.ErrorIs(err, tt.expectedErr)
			require.Zero(env.nextSequence(t))

			_, record, err := env.processor.GetCounter(ctx, factory.Address())
			require.NoError(err)
			require.Nil(record)
		})
	}
}

func TestProcessorReplay(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	factory := newFactory(t)

	_, err := env.processor.Execute(ctx, env.newTx(t, factory, &actions.Initialize{}, 0))
	require.NoError(err)

	tx := env.newTx(t, factory, &actions.Increment{}, 0)
	_, err = env.processor.Execute(ctx, tx)
	require.NoError(err)
	_, err = env.processor.Execute(ctx, tx)
	require.ErrorIs(err, chain.ErrDuplicateTx)
	_, err = env.processor.Submit(ctx, tx.Bytes())
	require.ErrorIs(err, chain.ErrDuplicateTx)

	// same action under a new nonce is a new transaction
	receipt, err := env.processor.Execute(ctx, env.newTx(t, factory, &actions.Increment{}, 1))
	require.NoError(err)
	require.Equal(uint64(2), receipt.Count)
	require.Equal(uint64(3), env.nextSequence(t))

	entry, err := env.processor.GetTransaction(ctx, tx.ID())
	require.NoError(err)
	require.Equal(uint64(1), entry.Sequence)
	require.Equal(tx.ID(), entry.TxID)
	require.Equal(counter.Incremented, entry.Notification.Kind)
	require.Equal(uint64(1), entry.Notification.NewCount)

	_, err = env.processor.GetTransaction(ctx, ids.GenerateTestID())
	require.ErrorIs(err, chain.ErrUnknownTx)
}

func TestProcessorSubmit(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	factory := newFactory(t)

	tx := env.newTx(t, factory, &actions.Initialize{}, 0)
	receipt, err := env.processor.Submit(ctx, tx.Bytes())
	require.NoError(err)
	require.Equal(tx.ID(), receipt.TxID)

	_, err = env.processor.Submit(ctx, append(env.newTx(t, factory, &actions.Increment{}, 0).Bytes(), 0))
	require.ErrorIs(err, chain.ErrInvalidObject)
	_, err = env.processor.Submit(ctx, []byte{1, 2, 3})
	require.Error(err)
}

func TestProcessorConcurrentIncrements(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	a := newFactory(t)
	b := newFactory(t)

	for _, f := range []*auth.ED25519Factory{a, b} {
		_, err := env.processor.Execute(ctx, env.newTx(t, f, &actions.Initialize{}, 0))
		require.NoError(err)
	}

	const perAuthority = 50
	txs := make([]*chain.Transaction, 0, 2*perAuthority)
	for i := 0; i < perAuthority; i++ {
		txs = append(txs,
			env.newTx(t, a, &actions.Increment{}, uint64(i)),
			env.newTx(t, b, &actions.Increment{}, uint64(i)),
		)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(txs))
	for _, tx := range txs {
		wg.Add(1)
		go func(tx *chain.Transaction) {
			defer wg.Done()
			_, err := env.processor.Execute(ctx, tx)
			errs <- err
		}(tx)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(err)
	}

	for _, f := range []*auth.ED25519Factory{a, b} {
		_, record, err := env.processor.GetCounter(ctx, f.Address())
		require.NoError(err)
		require.Equal(uint64(perAuthority), record.Count)
	}

	// the log is dense and each authority's notifications chain old -> new
	entries, err := env.processor.GetNotifications(ctx, 0, 1_000)
	require.NoError(err)
	require.Len(entries, 2+2*perAuthority)
	last := map[codec.Address]uint64{}
	for i, entry := range entries {
		require.Equal(uint64(i), entry.Sequence)
		n := entry.Notification
		if n.Kind == counter.Initialized {
			continue
		}
		require.Equal(last[n.Authority], n.OldCount)
		require.Equal(n.OldCount+1, n.NewCount)
		last[n.Authority] = n.NewCount
	}
	require.Len(env.events, len(entries))
	for i, e := range env.events {
		require.Equal(uint64(i), e.Sequence)
	}
}

type failingSubscriber struct{}

func (failingSubscriber) Accept(context.Context, *chain.Event) error { return errSubscriber }

func (failingSubscriber) Close() error { return nil }

func TestProcessorSubscriberFailure(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	failing := failingSubscriber{}
	env := newTestEnv(t, failing)
	factory := newFactory(t)

	receipt, err := env.processor.Execute(ctx, env.newTx(t, factory, &actions.Initialize{}, 0))
	require.NoError(err)
	require.Zero(receipt.Sequence)
	require.Len(env.events, 1)
	require.Equal(uint64(1), env.nextSequence(t))
}

func TestProcessorRestart(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	factory := newFactory(t)

	_, err := env.processor.Execute(ctx, env.newTx(t, factory, &actions.Initialize{}, 0))
	require.NoError(err)
	_, err = env.processor.Execute(ctx, env.newTx(t, factory, &actions.Increment{}, 0))
	require.NoError(err)
	require.NoError(env.processor.Close())
	require.True(env.closed)

	_, err = env.processor.Execute(ctx, env.newTx(t, factory, &actions.Increment{}, 1))
	require.ErrorIs(err, chain.ErrProcessorClosed)

	restarted, err := chain.NewProcessor(
		logging.NoLog{},
		trace.Noop(),
		env.rules,
		env.db,
		env.actionRegistry,
		env.authRegistry,
	)
	require.NoError(err)
	restarted.Clock().Set(testNow)

	receipt, err := restarted.Execute(ctx, env.newTx(t, factory, &actions.Increment{}, 1))
	require.NoError(err)
	require.Equal(uint64(2), receipt.Sequence)
	require.Equal(uint64(2), receipt.Count)
}

// blockingAction parks inside Execute until released.
type blockingAction struct {
	chain.Action

	entered chan struct{}
	release chan struct{}
}

func (b *blockingAction) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	timestamp int64,
	actor codec.Address,
) (chain.Output, error) {
	close(b.entered)
	<-b.release
	return b.Action.Execute(ctx, r, mu, timestamp, actor)
}

func TestProcessorCloseDuringExecute(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	factory := newFactory(t)

	_, err := env.processor.Execute(ctx, env.newTx(t, factory, &actions.Initialize{}, 0))
	require.NoError(err)

	tx := env.newTx(t, factory, &actions.Increment{}, 0)
	action := &blockingAction{
		Action:  tx.Action,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	tx.Action = action

	errs := make(chan error, 1)
	go func() {
		_, err := env.processor.Execute(ctx, tx)
		errs <- err
	}()

	<-action.entered
	require.NoError(env.processor.Close())
	close(action.release)
	require.ErrorIs(<-errs, chain.ErrProcessorClosed)

	require.Equal(uint64(1), env.nextSequence(t))
	require.Len(env.events, 1)
	_, record, err := env.processor.GetCounter(ctx, factory.Address())
	require.NoError(err)
	require.Zero(record.Count)
	_, err = env.processor.GetTransaction(ctx, tx.ID())
	require.ErrorIs(err, chain.ErrUnknownTx)
}
