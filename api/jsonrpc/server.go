// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"context"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/countervm/api"
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/indexer"
	"github.com/ava-labs/countervm/server"
	"github.com/ava-labs/countervm/storage"
)

const Endpoint = "/counterapi"

// Indexer answers the event queries. It is optional.
type Indexer interface {
	EventsByAuthority(ctx context.Context, authority codec.Address, limit int) ([]*indexer.Event, error)
	RecentEvents(ctx context.Context, limit int) ([]*indexer.Event, error)
}

type JSONRPCServer struct {
	log       logging.Logger
	tracer    trace.Tracer
	processor *chain.Processor
	indexer   Indexer
}

// NewJSONRPCServer returns the counter service. [idx] may be nil, in which
// case the event queries fail with [indexer.ErrNotConfigured].
func NewJSONRPCServer(log logging.Logger, tracer trace.Tracer, processor *chain.Processor, idx Indexer) *JSONRPCServer {
	return &JSONRPCServer{
		log:       log,
		tracer:    tracer,
		processor: processor,
		indexer:   idx,
	}
}

// NewHandler wraps [j] in a JSON-RPC handler mounted at [Endpoint].
func NewHandler(j *JSONRPCServer) (api.Handler, error) {
	handler, err := server.NewHandler(j, api.Name)
	if err != nil {
		return api.Handler{}, err
	}
	return api.Handler{
		Path:    Endpoint,
		Handler: handler,
	}, nil
}

type PingReply struct {
	Success bool `json:"success"`
}

func (j *JSONRPCServer) Ping(_ *http.Request, _ *struct{}, reply *PingReply) (err error) {
	j.log.Info("ping")
	reply.Success = true
	return nil
}

type NetworkReply struct {
	ChainID        ids.ID `json:"chainId"`
	ProgramID      ids.ID `json:"programId"`
	CounterTag     string `json:"counterTag"`
	ValidityWindow int64  `json:"validityWindow"`
}

func (j *JSONRPCServer) Network(_ *http.Request, _ *struct{}, reply *NetworkReply) (err error) {
	r := j.processor.Rules()
	reply.ChainID = r.GetChainID()
	reply.ProgramID = r.GetProgramID()
	reply.CounterTag = string(r.GetCounterTag())
	reply.ValidityWindow = r.GetValidityWindow()
	return nil
}

type SubmitTxArgs struct {
	Tx []byte `json:"tx"`
}

type SubmitTxReply struct {
	Receipt *chain.Receipt `json:"receipt"`
}

func (j *JSONRPCServer) SubmitTx(
	req *http.Request,
	args *SubmitTxArgs,
	reply *SubmitTxReply,
) error {
	ctx, span := j.tracer.Start(req.Context(), "JSONRPCServer.SubmitTx")
	defer span.End()

	receipt, err := j.processor.Submit(ctx, args.Tx)
	if err != nil {
		return err
	}
	j.log.Debug("committed transaction",
		zap.Stringer("txID", receipt.TxID),
		zap.Uint64("sequence", receipt.Sequence),
	)
	reply.Receipt = receipt
	return nil
}

type CounterArgs struct {
	Authority codec.Address `json:"authority"`
}

type CounterReply struct {
	Address codec.Address `json:"address"`
	Exists  bool          `json:"exists"`
	Count   uint64        `json:"count"`
}

func (j *JSONRPCServer) Counter(req *http.Request, args *CounterArgs, reply *CounterReply) error {
	ctx, span := j.tracer.Start(req.Context(), "JSONRPCServer.Counter")
	defer span.End()

	addr, record, err := j.processor.GetCounter(ctx, args.Authority)
	if err != nil {
		return err
	}
	reply.Address = addr
	if record != nil {
		reply.Exists = true
		reply.Count = record.Count
	}
	return nil
}

type NotificationsArgs struct {
	Start uint64 `json:"start"`
	Limit int    `json:"limit"`
}

type NotificationsReply struct {
	Notifications []*storage.LogEntry `json:"notifications"`
}

func (j *JSONRPCServer) Notifications(req *http.Request, args *NotificationsArgs, reply *NotificationsReply) error {
	ctx, span := j.tracer.Start(req.Context(), "JSONRPCServer.Notifications")
	defer span.End()

	limit := args.Limit
	switch {
	case limit <= 0:
		limit = indexer.DefaultLimit
	case limit > indexer.MaxLimit:
		limit = indexer.MaxLimit
	}
	entries, err := j.processor.GetNotifications(ctx, args.Start, limit)
	if err != nil {
		return err
	}
	reply.Notifications = entries
	return nil
}

type TransactionArgs struct {
	TxID ids.ID `json:"txId"`
}

type TransactionReply struct {
	Notification *storage.LogEntry `json:"notification"`
}

// Transaction returns the notification committed by a transaction.
func (j *JSONRPCServer) Transaction(req *http.Request, args *TransactionArgs, reply *TransactionReply) error {
	ctx, span := j.tracer.Start(req.Context(), "JSONRPCServer.Transaction")
	defer span.End()

	entry, err := j.processor.GetTransaction(ctx, args.TxID)
	if err != nil {
		return err
	}
	reply.Notification = entry
	return nil
}

type EventsByAuthorityArgs struct {
	Authority codec.Address `json:"authority"`
	Limit     int           `json:"limit"`
}

type EventsReply struct {
	Events []*indexer.Event `json:"events"`
}

func (j *JSONRPCServer) EventsByAuthority(req *http.Request, args *EventsByAuthorityArgs, reply *EventsReply) error {
	if j.indexer == nil {
		return indexer.ErrNotConfigured
	}
	ctx, span := j.tracer.Start(req.Context(), "JSONRPCServer.EventsByAuthority")
	defer span.End()

	events, err := j.indexer.EventsByAuthority(ctx, args.Authority, args.Limit)
	if err != nil {
		return err
	}
	reply.Events = events
	return nil
}

type RecentEventsArgs struct {
	Limit int `json:"limit"`
}

func (j *JSONRPCServer) RecentEvents(req *http.Request, args *RecentEventsArgs, reply *EventsReply) error {
	if j.indexer == nil {
		return indexer.ErrNotConfigured
	}
	ctx, span := j.tracer.Start(req.Context(), "JSONRPCServer.RecentEvents")
	defer span.End()

	events, err := j.indexer.RecentEvents(ctx, args.Limit)
	if err != nil {
		return err
	}
	reply.Events = events
	return nil
}
