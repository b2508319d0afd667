// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"

	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/crypto"
	"github.com/ava-labs/countervm/tstate"
)

type metrics struct {
	txsExecuted *prometheus.CounterVec
	txsFailed   *prometheus.CounterVec
	errors      *prometheus.CounterVec

	notifyFailures prometheus.Counter

	execute metric.Averager
	commit  metric.Averager
}

func newMetrics() (*prometheus.Registry, *metrics, error) {
	r := prometheus.NewRegistry()

	execute, err := metric.NewAverager(
		"chain_execute",
		"time spent executing a transaction",
		r,
	)
	if err != nil {
		return nil, nil, err
	}
	commit, err := metric.NewAverager(
		"chain_commit",
		"time spent committing a transaction",
		r,
	)
	if err != nil {
		return nil, nil, err
	}

	m := &metrics{
		txsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "txs_executed",
			Help:      "number of txs committed by action type",
		}, []string{"action"}),
		txsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "txs_failed",
			Help:      "number of txs rejected by action type",
		}, []string{"action"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "errors",
			Help:      "number of rejected txs by error kind",
		}, []string{"kind"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "notify_failures",
			Help:      "number of committed txs at least one subscriber failed to accept",
		}),
		execute: execute,
		commit:  commit,
	}

	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.txsExecuted),
		r.Register(m.txsFailed),
		r.Register(m.errors),
		r.Register(m.notifyFailures),
	)
	return r, m, errs.Err
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{counter.ErrUnauthorized, "unauthorized"},
	{counter.ErrUnderflow, "underflow"},
	{counter.ErrOverflow, "overflow"},
	{counter.ErrAlreadyInitialized, "already_initialized"},
	{counter.ErrNotInitialized, "not_initialized"},
	{ErrDuplicateTx, "duplicate_tx"},
	{ErrInvalidChainID, "invalid_chain_id"},
	{ErrTimestampTooLate, "expired"},
	{ErrTimestampTooEarly, "too_early"},
	{ErrMisalignedTime, "misaligned_time"},
	{crypto.ErrInvalidSignature, "invalid_signature"},
	{tstate.ErrInvalidKeyOrPermission, "invalid_key"},
}

func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "other"
}
