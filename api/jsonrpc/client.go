// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/countervm/api"
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/crypto"
	"github.com/ava-labs/countervm/indexer"
	"github.com/ava-labs/countervm/requester"
	"github.com/ava-labs/countervm/storage"
	"github.com/ava-labs/countervm/tstate"
)

// knownErrors are matched against error messages returned by the server
// so callers can use [errors.Is] on client errors.
var knownErrors = []error{
	counter.ErrUnauthorized,
	counter.ErrUnderflow,
	counter.ErrOverflow,
	counter.ErrAlreadyInitialized,
	counter.ErrNotInitialized,
	chain.ErrInvalidObject,
	chain.ErrInvalidActor,
	chain.ErrMisalignedTime,
	chain.ErrTimestampTooLate,
	chain.ErrTimestampTooEarly,
	chain.ErrInvalidChainID,
	chain.ErrDuplicateTx,
	chain.ErrProcessorClosed,
	chain.ErrUnknownTx,
	crypto.ErrInvalidSignature,
	tstate.ErrInvalidKeyOrPermission,
	storage.ErrInvalidRecord,
	indexer.ErrNotConfigured,
}

type JSONRPCClient struct {
	requester *requester.EndpointRequester

	chainID        ids.ID
	programID      ids.ID
	tag            string
	validityWindow int64
}

// NewJSONRPCClient returns a client for the node at [uri], for example
// http://127.0.0.1:9650.
func NewJSONRPCClient(uri string) *JSONRPCClient {
	uri = strings.TrimSuffix(uri, "/")
	uri += "/" + api.Base + Endpoint
	req := requester.New(uri, api.Name)
	return &JSONRPCClient{requester: req}
}

func (cli *JSONRPCClient) Ping(ctx context.Context) (bool, error) {
	resp := new(PingReply)
	err := cli.requester.SendRequest(ctx,
		"ping",
		nil,
		resp,
	)
	return resp.Success, err
}

// Network returns the chain ID, program ID, counter tag and validity window
// (ms) served by the node. The result is cached after the first
// successful call.
func (cli *JSONRPCClient) Network(ctx context.Context) (chainID ids.ID, programID ids.ID, tag string, validityWindow int64, err error) {
	if cli.chainID != ids.Empty {
		return cli.chainID, cli.programID, cli.tag, cli.validityWindow, nil
	}

	resp := new(NetworkReply)
	err = cli.requester.SendRequest(
		ctx,
		"network",
		nil,
		resp,
	)
	if err != nil {
		return ids.Empty, ids.Empty, "", 0, err
	}
	cli.chainID = resp.ChainID
	cli.programID = resp.ProgramID
	cli.tag = resp.CounterTag
	cli.validityWindow = resp.ValidityWindow
	return resp.ChainID, resp.ProgramID, resp.CounterTag, resp.ValidityWindow, nil
}

func (cli *JSONRPCClient) SubmitTx(ctx context.Context, tx []byte) (*chain.Receipt, error) {
	resp := new(SubmitTxReply)
	err := cli.requester.SendRequest(
		ctx,
		"submitTx",
		&SubmitTxArgs{Tx: tx},
		resp,
	)
	if err != nil {
		return nil, parseError(err)
	}
	return resp.Receipt, nil
}

// Counter returns the record address of [authority], whether it exists
// and its current count.
func (cli *JSONRPCClient) Counter(ctx context.Context, authority codec.Address) (codec.Address, bool, uint64, error) {
	resp := new(CounterReply)
	err := cli.requester.SendRequest(
		ctx,
		"counter",
		&CounterArgs{Authority: authority},
		resp,
	)
	if err != nil {
		return codec.EmptyAddress, false, 0, parseError(err)
	}
	return resp.Address, resp.Exists, resp.Count, nil
}

func (cli *JSONRPCClient) Notifications(ctx context.Context, start uint64, limit int) ([]*storage.LogEntry, error) {
	resp := new(NotificationsReply)
	err := cli.requester.SendRequest(
		ctx,
		"notifications",
		&NotificationsArgs{Start: start, Limit: limit},
		resp,
	)
	return resp.Notifications, parseError(err)
}

// Transaction returns the notification committed by [txID].
func (cli *JSONRPCClient) Transaction(ctx context.Context, txID ids.ID) (*storage.LogEntry, error) {
	resp := new(TransactionReply)
	err := cli.requester.SendRequest(
		ctx,
		"transaction",
		&TransactionArgs{TxID: txID},
		resp,
	)
	if err != nil {
		return nil, parseError(err)
	}
	return resp.Notification, nil
}

func (cli *JSONRPCClient) EventsByAuthority(ctx context.Context, authority codec.Address, limit int) ([]*indexer.Event, error) {
	resp := new(EventsReply)
	err := cli.requester.SendRequest(
		ctx,
		"eventsByAuthority",
		&EventsByAuthorityArgs{Authority: authority, Limit: limit},
		resp,
	)
	return resp.Events, parseError(err)
}

func (cli *JSONRPCClient) RecentEvents(ctx context.Context, limit int) ([]*indexer.Event, error) {
	resp := new(EventsReply)
	err := cli.requester.SendRequest(
		ctx,
		"recentEvents",
		&RecentEventsArgs{Limit: limit},
		resp,
	)
	return resp.Events, parseError(err)
}

func parseError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, known := range knownErrors {
		if strings.Contains(msg, known.Error()) {
			return fmt.Errorf("%w: %s", known, msg)
		}
	}
	return err
}
