// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"context"
	"errors"
	"time"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/countervm/actions"
	"github.com/ava-labs/countervm/api/jsonrpc"
	"github.com/ava-labs/countervm/api/ws"
	"github.com/ava-labs/countervm/auth"
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/indexer"
	"github.com/ava-labs/countervm/utils"
)

// Submit signs [action] with the default key and sends it to the default
// endpoint. The expiry is half the validity window of the node.
func (h *Handler) Submit(ctx context.Context, action chain.Action) (*chain.Receipt, error) {
	priv, err := h.GetDefaultKey()
	if err != nil {
		return nil, err
	}
	cli, err := h.client()
	if err != nil {
		return nil, err
	}
	chainID, _, _, validityWindow, err := cli.Network(ctx)
	if err != nil {
		return nil, err
	}
	base := &chain.Base{
		Timestamp: utils.UnixRMilli(-1, validityWindow/2),
		ChainID:   chainID,
		Nonce:     uint64(time.Now().UnixNano()),
	}
	tx, err := chain.NewTx(base, action).Sign(auth.NewED25519Factory(priv), h.actionRegistry, h.authRegistry)
	if err != nil {
		return nil, err
	}
	receipt, err := cli.SubmitTx(ctx, tx.Bytes())
	if err != nil {
		return nil, err
	}
	printNotification(receipt.Sequence, receipt.Notification)
	return receipt, nil
}

func (h *Handler) Initialize(ctx context.Context) (*chain.Receipt, error) {
	return h.Submit(ctx, &actions.Initialize{})
}

func (h *Handler) Increment(ctx context.Context) (*chain.Receipt, error) {
	return h.Submit(ctx, &actions.Increment{})
}

func (h *Handler) Decrement(ctx context.Context) (*chain.Receipt, error) {
	return h.Submit(ctx, &actions.Decrement{})
}

// Counter prints the record of [authority], or of the default key when
// [authority] is empty.
func (h *Handler) Counter(ctx context.Context, authority codec.Address) (bool, uint64, error) {
	if authority == codec.EmptyAddress {
		addr, err := h.Address()
		if err != nil {
			return false, 0, err
		}
		authority = addr
	}
	cli, err := h.client()
	if err != nil {
		return false, 0, err
	}
	addr, exists, count, err := cli.Counter(ctx, authority)
	if err != nil {
		return false, 0, err
	}
	if !exists {
		utils.Outf("{{yellow}}record:{{/}} %s {{red}}not initialized{{/}}\n", addr)
		return false, 0, nil
	}
	utils.Outf("{{yellow}}record:{{/}} %s {{yellow}}count:{{/}} %d\n", addr, count)
	return true, count, nil
}

// Events prints the indexed events of [authority], newest first. An empty
// [authority] lists the most recent events of every record.
func (h *Handler) Events(ctx context.Context, authority codec.Address, limit int) error {
	cli, err := h.client()
	if err != nil {
		return err
	}
	var events []*indexer.Event
	if authority == codec.EmptyAddress {
		events, err = cli.RecentEvents(ctx, limit)
	} else {
		events, err = cli.EventsByAuthority(ctx, authority, limit)
	}
	if err != nil {
		return err
	}
	for _, e := range events {
		printNotification(e.Sequence, &counter.Notification{
			Kind:      e.Kind,
			Authority: e.Authority,
			OldCount:  e.OldCount,
			NewCount:  e.NewCount,
			Timestamp: e.Timestamp,
		})
	}
	return nil
}

// Log prints the committed notification log starting at [start].
func (h *Handler) Log(ctx context.Context, start uint64, limit int) error {
	cli, err := h.client()
	if err != nil {
		return err
	}
	entries, err := cli.Notifications(ctx, start, limit)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		printNotification(entry.Sequence, entry.Notification)
	}
	return nil
}

// Monitor prints every committed event until [ctx] is done.
// Transaction prints the notification committed by [txID].
func (h *Handler) Transaction(ctx context.Context, txID ids.ID) error {
	cli, err := h.client()
	if err != nil {
		return err
	}
	entry, err := cli.Transaction(ctx, txID)
	if err != nil {
		return err
	}
	printNotification(entry.Sequence, entry.Notification)
	return nil
}

func (h *Handler) Monitor(ctx context.Context) error {
	uri, err := h.GetEndpoint()
	if err != nil {
		return err
	}
	c, err := ws.NewWebSocketClient(uri)
	if err != nil {
		return err
	}
	defer c.Close()

	utils.Outf("{{yellow}}watching for events on:{{/}} %s\n", uri)
	for {
		e, err := c.ListenEvent(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		printNotification(e.Sequence, e.Notification)
	}
}

// Demo walks the default key through initialize and three increments, then
// decrements back to zero and shows that one more decrement is rejected.
func (h *Handler) Demo(ctx context.Context) error {
	if _, err := h.Initialize(ctx); err != nil {
		if !errors.Is(err, counter.ErrAlreadyInitialized) {
			return err
		}
		utils.Outf("{{yellow}}record already initialized{{/}}\n")
	}
	for i := 0; i < 3; i++ {
		if _, err := h.Increment(ctx); err != nil {
			return err
		}
	}
	receipt, err := h.Decrement(ctx)
	if err != nil {
		return err
	}
	for count := receipt.Count; count > 0; count-- {
		if _, err := h.Decrement(ctx); err != nil {
			return err
		}
	}
	_, err = h.Decrement(ctx)
	switch {
	case err == nil:
		return errors.New("decrement below zero was accepted")
	case !errors.Is(err, counter.ErrUnderflow):
		return err
	}
	utils.Outf("{{yellow}}decrement below zero rejected:{{/}} %v\n", err)
	return nil
}

func (h *Handler) client() (*jsonrpc.JSONRPCClient, error) {
	uri, err := h.GetEndpoint()
	if err != nil {
		return nil, err
	}
	return jsonrpc.NewJSONRPCClient(uri), nil
}

func printNotification(sequence uint64, n *counter.Notification) {
	switch n.Kind {
	case counter.Initialized:
		utils.Outf(
			"{{green}}#%d %s{{/}} {{yellow}}authority:{{/}} %s {{yellow}}count:{{/}} %d\n",
			sequence, n.Kind, n.Authority, n.NewCount,
		)
	default:
		utils.Outf(
			"{{green}}#%d %s{{/}} {{yellow}}authority:{{/}} %s {{yellow}}count:{{/}} %d -> %d {{yellow}}at:{{/}} %s\n",
			sequence, n.Kind, n.Authority, n.OldCount, n.NewCount, time.Unix(n.Timestamp, 0).UTC().Format(time.RFC3339),
		)
	}
}
