// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/event"
	"github.com/ava-labs/countervm/lockmap"
	"github.com/ava-labs/countervm/state"
	"github.com/ava-labs/countervm/storage"
	"github.com/ava-labs/countervm/tstate"

	oteltrace "go.opentelemetry.io/otel/trace"
)

// Processor is the host that executes signed transactions against the
// database. Transactions touching the same record are serialized by the
// record lock; everything else runs in parallel until the short commit
// section, which assigns notification sequences in commit order.
type Processor struct {
	log    logging.Logger
	tracer trace.Tracer
	clock  mockable.Clock

	rules          Rules
	actionRegistry ActionRegistry
	authRegistry   AuthRegistry

	db    state.Database
	locks *lockmap.Lockmap

	commitLock   sync.Mutex
	nextSequence uint64
	closed       atomic.Bool

	subscriptions []event.Subscription[*Event]

	registry *prometheus.Registry
	metrics  *metrics
}

func NewProcessor(
	log logging.Logger,
	tracer trace.Tracer,
	rules Rules,
	db state.Database,
	actionRegistry ActionRegistry,
	authRegistry AuthRegistry,
	subscriptions ...event.Subscription[*Event],
) (*Processor, error) {
	registry, metrics, err := newMetrics()
	if err != nil {
		return nil, err
	}
	nextSequence, err := storage.NextSequence(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification sequence: %w", err)
	}
	return &Processor{
		log:            log,
		tracer:         tracer,
		rules:          rules,
		actionRegistry: actionRegistry,
		authRegistry:   authRegistry,
		db:             db,
		locks:          lockmap.New(16),
		nextSequence:   nextSequence,
		subscriptions:  subscriptions,
		registry:       registry,
		metrics:        metrics,
	}, nil
}

func (p *Processor) Rules() Rules { return p.rules }

func (p *Processor) Registry() *prometheus.Registry { return p.registry }

// Clock is the source of expiry checks and commit timestamps.
func (p *Processor) Clock() *mockable.Clock { return &p.clock }

func (p *Processor) ActionRegistry() ActionRegistry { return p.actionRegistry }

func (p *Processor) AuthRegistry() AuthRegistry { return p.authRegistry }

// Submit parses [raw] and executes the resulting transaction.
func (p *Processor) Submit(ctx context.Context, raw []byte) (*Receipt, error) {
	tx, err := ParseTx(raw, p.actionRegistry, p.authRegistry)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, tx)
}

// Execute verifies and runs [tx]. On success the new record, the
// notification and the replay marker are committed in one batch and every
// subscriber is notified before Execute returns. On error nothing is
// written.
func (p *Processor) Execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	ctx, span := p.tracer.Start(ctx, "Processor.Execute", oteltrace.WithAttributes(
		attribute.Stringer("txID", tx.ID()),
		attribute.Int("action", int(tx.Action.GetTypeID())),
	))
	defer span.End()

	start := time.Now()
	receipt, err := p.execute(ctx, tx)
	p.metrics.execute.Observe(float64(time.Since(start)))

	action := strconv.Itoa(int(tx.Action.GetTypeID()))
	if err != nil {
		p.metrics.txsFailed.WithLabelValues(action).Inc()
		p.metrics.errors.WithLabelValues(errorKind(err)).Inc()
		span.RecordError(err)
		p.log.Debug("rejected transaction",
			zap.Stringer("txID", tx.ID()),
			zap.Error(err),
		)
		return nil, err
	}
	p.metrics.txsExecuted.WithLabelValues(action).Inc()
	return receipt, nil
}

func (p *Processor) execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	if p.closed.Load() {
		return nil, ErrProcessorClosed
	}
	if err := tx.Base.Verify(p.rules.GetChainID(), p.rules, p.clock.Time().UnixMilli()); err != nil {
		return nil, err
	}
	if err := p.checkReplay(tx); err != nil {
		return nil, err
	}
	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}
	if err := tx.Auth.Verify(ctx, digest); err != nil {
		return nil, err
	}

	// The tx key is locked with the record so the replay check below and
	// the commit cannot interleave with a copy of [tx].
	stateKeys := tx.StateKeys(p.rules)
	lockKeys := make(state.Keys, len(stateKeys)+1)
	for k, v := range stateKeys {
		lockKeys.Add(k, v)
	}
	lockKeys.Add(string(storage.TxKey(tx.ID())), state.Write)
	sorted := lockKeys.Sorted()
	p.locks.LockAll(sorted)
	defer p.locks.UnlockAll(sorted)

	if err := p.checkReplay(tx); err != nil {
		return nil, err
	}

	actor := tx.Actor()
	view := tstate.NewView(stateKeys, state.NewReadOnly(p.db))
	output, err := tx.Action.Execute(ctx, p.rules, view, p.clock.Time().Unix(), actor)
	if err != nil {
		return nil, err
	}
	if output == nil || output.GetNotification() == nil {
		return nil, ErrMissingOutput
	}
	record := counter.DeriveAddress(p.rules.GetProgramID(), p.rules.GetCounterTag(), actor)
	return p.commit(ctx, tx, view, record, output)
}

func (p *Processor) checkReplay(tx *Transaction) error {
	committed, err := storage.HasTx(p.db, tx.ID())
	if err != nil {
		return err
	}
	if committed {
		return fmt.Errorf("%w: %s", ErrDuplicateTx, tx.ID())
	}
	return nil
}

func (p *Processor) commit(
	ctx context.Context,
	tx *Transaction,
	view *tstate.TStateView,
	record codec.Address,
	output Output,
) (*Receipt, error) {
	_, span := p.tracer.Start(ctx, "Processor.commit")
	defer span.End()

	p.commitLock.Lock()
	defer p.commitLock.Unlock()

	// Close may have run while the action executed. Its subscribers are
	// gone, so nothing may be committed.
	if p.closed.Load() {
		return nil, ErrProcessorClosed
	}

	start := time.Now()
	sequence := p.nextSequence
	notification := output.GetNotification()
	batch := p.db.NewBatch()
	if err := view.WriteTo(batch); err != nil {
		return nil, err
	}
	if err := storage.AppendNotification(batch, sequence, tx.ID(), notification); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, fmt.Errorf("failed to commit %s: %w", tx.ID(), err)
	}
	p.nextSequence++
	p.metrics.commit.Observe(float64(time.Since(start)))

	p.log.Debug("committed transaction",
		zap.Stringer("txID", tx.ID()),
		zap.Uint64("sequence", sequence),
		zap.Stringer("kind", notification.Kind),
		zap.Uint64("count", output.GetCount()),
	)

	// Subscribers run under the commit lock so they observe commit order.
	// A failing subscriber cannot undo the commit.
	e := &Event{
		Sequence:     sequence,
		TxID:         tx.ID(),
		Record:       record,
		Notification: notification,
	}
	if err := event.NotifyAll(ctx, e, p.subscriptions...); err != nil {
		p.metrics.notifyFailures.Inc()
		p.log.Warn("subscriber failed to accept event",
			zap.Uint64("sequence", sequence),
			zap.Error(err),
		)
	}

	return &Receipt{
		TxID:         tx.ID(),
		Sequence:     sequence,
		Record:       record,
		Count:        output.GetCount(),
		Notification: notification,
	}, nil
}

// GetCounter returns the address and record owned by [authority]. The
// record is nil if [authority] was never initialized.
func (p *Processor) GetCounter(ctx context.Context, authority codec.Address) (codec.Address, *counter.Record, error) {
	addr := counter.DeriveAddress(p.rules.GetProgramID(), p.rules.GetCounterTag(), authority)
	record, err := storage.GetRecord(ctx, state.NewReadOnly(p.db), addr)
	return addr, record, err
}

// GetNotifications reads the committed notification log.
func (p *Processor) GetNotifications(ctx context.Context, start uint64, limit int) ([]*storage.LogEntry, error) {
	return storage.GetNotifications(ctx, p.db, start, limit)
}

// GetTransaction returns the notification committed by [txID].
func (p *Processor) GetTransaction(_ context.Context, txID ids.ID) (*storage.LogEntry, error) {
	sequence, err := storage.GetTxSequence(p.db, txID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTx, txID)
	}
	if err != nil {
		return nil, err
	}
	return storage.GetNotification(p.db, sequence)
}

// Close stops accepting transactions and closes every subscriber. It does
// not close the database.
func (p *Processor) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	// wait for in-flight commits
	p.commitLock.Lock()
	defer p.commitLock.Unlock()
	return event.CloseAll(p.subscriptions...)
}
