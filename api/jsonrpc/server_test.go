// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/countervm/actions"
	"github.com/ava-labs/countervm/api"
	"github.com/ava-labs/countervm/auth"
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/consts"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/crypto/ed25519"
	"github.com/ava-labs/countervm/event"
	"github.com/ava-labs/countervm/indexer"
	"github.com/ava-labs/countervm/trace"
)

var testNow = time.Unix(1_700_000_000, 0)

type testNode struct {
	rules          *chain.DefaultRules
	actionRegistry chain.ActionRegistry
	authRegistry   chain.AuthRegistry
	processor      *chain.Processor
	client         *JSONRPCClient
}

func newTestNode(t *testing.T, withIndexer bool) *testNode {
	require := require.New(t)

	actionRegistry, err := actions.NewRegistry()
	require.NoError(err)
	authRegistry, err := auth.NewRegistry()
	require.NoError(err)
	rules := chain.NewDefaultRules(ids.GenerateTestID(), ids.GenerateTestID())

	var (
		idx  Indexer
		subs []event.Subscription[*chain.Event]
	)
	if withIndexer {
		i, err := indexer.Open(logging.NoLog{}, filepath.Join(t.TempDir(), "events.db"))
		require.NoError(err)
		idx = i
		subs = append(subs, i)
	}

	processor, err := chain.NewProcessor(
		logging.NoLog{},
		trace.Noop(),
		rules,
		memdb.New(),
		actionRegistry,
		authRegistry,
		subs...,
	)
	require.NoError(err)
	processor.Clock().Set(testNow)
	t.Cleanup(func() { require.NoError(processor.Close()) })

	handler, err := NewHandler(NewJSONRPCServer(logging.NoLog{}, trace.Noop(), processor, idx))
	require.NoError(err)
	mux := http.NewServeMux()
	mux.Handle("/"+api.Base+handler.Path, handler.Handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testNode{
		rules:          rules,
		actionRegistry: actionRegistry,
		authRegistry:   authRegistry,
		processor:      processor,
		client:         NewJSONRPCClient(srv.URL),
	}
}

func (n *testNode) txBytes(t *testing.T, factory chain.AuthFactory, action chain.Action, nonce uint64) []byte {
	base := &chain.Base{
		Timestamp: testNow.UnixMilli() + 10*consts.MillisecondsPerSecond,
		ChainID:   n.rules.ChainID,
		Nonce:     nonce,
	}
	tx, err := chain.NewTx(base, action).Sign(factory, n.actionRegistry, n.authRegistry)
	require.NoError(t, err)
	return tx.Bytes()
}

func newFactory(t *testing.T) *auth.ED25519Factory {
	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(t, err)
	return auth.NewED25519Factory(priv)
}

func TestJSONRPCRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	node := newTestNode(t, true)
	factory := newFactory(t)

	ok, err := node.client.Ping(ctx)
	require.NoError(err)
	require.True(ok)

	chainID, programID, tag, validityWindow, err := node.client.Network(ctx)
	require.NoError(err)
	require.Equal(node.rules.ValidityWindow, validityWindow)
	require.Equal(node.rules.ChainID, chainID)
	require.Equal(node.rules.ProgramID, programID)
	require.Equal(string(node.rules.CounterTag), tag)

	addr, exists, count, err := node.client.Counter(ctx, factory.Address())
	require.NoError(err)
	require.False(exists)
	require.Zero(count)
	require.Equal(counter.DeriveAddress(programID, []byte(tag), factory.Address()), addr)

	receipt, err := node.client.SubmitTx(ctx, node.txBytes(t, factory, &actions.Initialize{}, 0))
	require.NoError(err)
	require.Equal(addr, receipt.Record)
	require.Equal(counter.Initialized, receipt.Notification.Kind)

	for i := uint64(0); i < 3; i++ {
		receipt, err = node.client.SubmitTx(ctx, node.txBytes(t, factory, &actions.Increment{}, i))
		require.NoError(err)
		require.Equal(i+1, receipt.Count)
	}
	receipt, err = node.client.SubmitTx(ctx, node.txBytes(t, factory, &actions.Decrement{}, 0))
	require.NoError(err)
	require.Equal(uint64(2), receipt.Count)

	entry, err := node.client.Transaction(ctx, receipt.TxID)
	require.NoError(err)
	require.Equal(receipt.Sequence, entry.Sequence)
	require.Equal(receipt.Notification, entry.Notification)

	_, exists, count, err = node.client.Counter(ctx, factory.Address())
	require.NoError(err)
	require.True(exists)
	require.Equal(uint64(2), count)

	entries, err := node.client.Notifications(ctx, 1, 2)
	require.NoError(err)
	require.Len(entries, 2)
	require.Equal(uint64(1), entries[0].Sequence)
	require.Equal(&counter.Notification{
		Kind:      counter.Incremented,
		Authority: factory.Address(),
		OldCount:  0,
		NewCount:  1,
		Timestamp: testNow.Unix(),
	}, entries[0].Notification)

	events, err := node.client.EventsByAuthority(ctx, factory.Address(), 10)
	require.NoError(err)
	require.Len(events, 5)
	require.Equal(counter.Decremented, events[0].Kind)
	require.Equal(uint64(2), events[0].NewCount)

	events, err = node.client.RecentEvents(ctx, 2)
	require.NoError(err)
	require.Len(events, 2)
	require.Equal(uint64(4), events[0].Sequence)
}

func TestJSONRPCErrors(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	node := newTestNode(t, false)
	factory := newFactory(t)

	_, err := node.client.SubmitTx(ctx, node.txBytes(t, factory, &actions.Increment{}, 0))
	require.ErrorIs(err, counter.ErrNotInitialized)

	raw := node.txBytes(t, factory, &actions.Initialize{}, 0)
	_, err = node.client.SubmitTx(ctx, raw)
	require.NoError(err)
	_, err = node.client.SubmitTx(ctx, raw)
	require.ErrorIs(err, chain.ErrDuplicateTx)

	_, err = node.client.SubmitTx(ctx, node.txBytes(t, factory, &actions.Decrement{}, 0))
	require.ErrorIs(err, counter.ErrUnderflow)

	_, err = node.client.SubmitTx(ctx, node.txBytes(t, factory, &actions.Initialize{}, 1))
	require.ErrorIs(err, counter.ErrAlreadyInitialized)

	_, err = node.client.SubmitTx(ctx, []byte{0x01, 0x02})
	require.ErrorContains(err, "could not unmarshal base")

	_, err = node.client.SubmitTx(ctx, append(raw, 0x00))
	require.ErrorIs(err, chain.ErrInvalidObject)

	_, err = node.client.Transaction(ctx, ids.GenerateTestID())
	require.ErrorIs(err, chain.ErrUnknownTx)

	_, err = node.client.RecentEvents(ctx, 10)
	require.ErrorIs(err, indexer.ErrNotConfigured)
}
