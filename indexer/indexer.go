// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package indexer keeps a queryable sqlite copy of every committed
// notification.
package indexer

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/event"

	_ "modernc.org/sqlite"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1_000
)

var _ event.Subscription[*chain.Event] = (*Indexer)(nil)

//go:embed schema.sql
var schema string

// Event is one indexed notification.
type Event struct {
	Sequence    uint64        `json:"sequence"`
	TxID        ids.ID        `json:"txID"`
	Kind        counter.Kind  `json:"kind"`
	Authority   codec.Address `json:"authority"`
	OldCount    uint64        `json:"oldCount"`
	NewCount    uint64        `json:"newCount"`
	Timestamp   int64         `json:"timestamp"`
	ProcessedAt time.Time     `json:"processedAt"`
}

// Indexer persists notifications in SQLite.
type Indexer struct {
	log   logging.Logger
	sqlDB *sql.DB
}

// Open opens the SQLite database at [path] and applies the schema.
func Open(log logging.Logger, path string) (*Indexer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}
	// modernc applies every _pragma to each new pooled connection.
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Indexer{log: log, sqlDB: sqlDB}, nil
}

// Accept stores [e]. Events whose tx ID or sequence is already indexed are
// ignored.
func (i *Indexer) Accept(ctx context.Context, e *chain.Event) error {
	if i == nil || i.sqlDB == nil {
		return ErrNotConfigured
	}
	n := e.Notification
	result, err := i.sqlDB.ExecContext(ctx, `
INSERT OR IGNORE INTO counter_events (
	sequence, tx_id, event_type, authority, old_count, new_count, timestamp, processed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		int64(e.Sequence),
		e.TxID.String(),
		n.Kind.String(),
		n.Authority.String(),
		int64(n.OldCount),
		int64(n.NewCount),
		n.Timestamp,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("index event %d: %w", e.Sequence, err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		i.log.Debug("skipping duplicate event",
			zap.Uint64("sequence", e.Sequence),
			zap.Stringer("txID", e.TxID),
		)
	}
	return nil
}

// EventsByAuthority returns up to [limit] events owned by [authority],
// newest first.
func (i *Indexer) EventsByAuthority(ctx context.Context, authority codec.Address, limit int) ([]*Event, error) {
	if i == nil || i.sqlDB == nil {
		return nil, ErrNotConfigured
	}
	rows, err := i.sqlDB.QueryContext(ctx, `
SELECT sequence, tx_id, event_type, authority, old_count, new_count, timestamp, processed_at
FROM counter_events
WHERE authority = ?
ORDER BY sequence DESC
LIMIT ?
`, authority.String(), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query events by authority: %w", err)
	}
	return scanEvents(rows)
}

// RecentEvents returns up to [limit] events across all authorities, newest
// first.
func (i *Indexer) RecentEvents(ctx context.Context, limit int) ([]*Event, error) {
	if i == nil || i.sqlDB == nil {
		return nil, ErrNotConfigured
	}
	rows, err := i.sqlDB.QueryContext(ctx, `
SELECT sequence, tx_id, event_type, authority, old_count, new_count, timestamp, processed_at
FROM counter_events
ORDER BY sequence DESC
LIMIT ?
`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	return scanEvents(rows)
}

// CounterState returns the count reported by the latest event of
// [authority].
func (i *Indexer) CounterState(ctx context.Context, authority codec.Address) (uint64, error) {
	if i == nil || i.sqlDB == nil {
		return 0, ErrNotConfigured
	}
	var count int64
	err := i.sqlDB.QueryRowContext(ctx, `
SELECT new_count
FROM counter_events
WHERE authority = ?
ORDER BY sequence DESC
LIMIT 1
`, authority.String()).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, authority)
	}
	if err != nil {
		return 0, fmt.Errorf("query counter state: %w", err)
	}
	return uint64(count), nil
}

// Close closes the SQLite handle.
func (i *Indexer) Close() error {
	if i == nil || i.sqlDB == nil {
		return nil
	}
	return i.sqlDB.Close()
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		var (
			sequence    int64
			txID        string
			eventType   string
			authority   string
			oldCount    int64
			newCount    int64
			timestamp   int64
			processedAt int64
		)
		if err := rows.Scan(&sequence, &txID, &eventType, &authority, &oldCount, &newCount, &timestamp, &processedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e := &Event{
			Sequence:    uint64(sequence),
			OldCount:    uint64(oldCount),
			NewCount:    uint64(newCount),
			Timestamp:   timestamp,
			ProcessedAt: time.UnixMilli(processedAt).UTC(),
		}
		var err error
		if e.TxID, err = ids.FromString(txID); err != nil {
			return nil, fmt.Errorf("parse tx id %q: %w", txID, err)
		}
		if e.Kind, err = counter.ParseKind(eventType); err != nil {
			return nil, err
		}
		if e.Authority, err = codec.ParseAddress(authority); err != nil {
			return nil, fmt.Errorf("parse authority %q: %w", authority, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
