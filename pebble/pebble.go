// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"errors"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/slices"

	"github.com/ava-labs/countervm/state"
)

var _ state.Database = (*Database)(nil)

type Config struct {
	CacheSize             int  `json:"cacheSize"             yaml:"cacheSize"             env:"CACHE_SIZE"`
	BytesPerSync          int  `json:"bytesPerSync"          yaml:"bytesPerSync"          env:"BYTES_PER_SYNC"`
	WALBytesPerSync       int  `json:"walBytesPerSync"       yaml:"walBytesPerSync"       env:"WAL_BYTES_PER_SYNC"` // 0 means no background syncing
	MaxOpenFiles          int  `json:"maxOpenFiles"          yaml:"maxOpenFiles"          env:"MAX_OPEN_FILES"`
	ConcurrentCompactions int  `json:"concurrentCompactions" yaml:"concurrentCompactions" env:"CONCURRENT_COMPACTIONS"`
	Sync                  bool `json:"sync"                  yaml:"sync"                  env:"SYNC"`
}

func NewDefaultConfig() Config {
	return Config{
		CacheSize:             64 * units.MiB,
		BytesPerSync:          1 * units.MiB,
		WALBytesPerSync:       1 * units.MiB,
		MaxOpenFiles:          4_096,
		ConcurrentCompactions: 1,
		Sync:                  true,
	}
}

// Database is a [state.Database] backed by pebble. Writes made through
// [Database.Put], [Database.Delete] and batches use the configured sync
// policy.
type Database struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions

	closing chan struct{}
	closed  bool
	l       sync.RWMutex
	wg      sync.WaitGroup

	metrics *metrics
}

func New(file string, cfg Config) (*Database, *prometheus.Registry, error) {
	// Create metrics
	registry, metrics, err := newMetrics()
	if err != nil {
		return nil, nil, err
	}
	d := &Database{
		writeOpts: pebble.NoSync,
		metrics:   metrics,
		closing:   make(chan struct{}),
	}
	if cfg.Sync {
		d.writeOpts = pebble.Sync
	}

	// Setup pebble options
	opts := &pebble.Options{
		Cache:                    pebble.NewCache(int64(cfg.CacheSize)),
		BytesPerSync:             cfg.BytesPerSync,
		Comparer:                 pebble.DefaultComparer,
		WALBytesPerSync:          cfg.WALBytesPerSync,
		MaxOpenFiles:             cfg.MaxOpenFiles,
		MaxConcurrentCompactions: func() int { return cfg.ConcurrentCompactions },
	}
	opts.EventListener = &pebble.EventListener{
		CompactionBegin: d.onCompactionBegin,
		CompactionEnd:   d.onCompactionEnd,
		WriteStallBegin: d.onWriteStallBegin,
		WriteStallEnd:   d.onWriteStallEnd,
	}
	db, err := pebble.Open(file, opts)
	if err != nil {
		return nil, nil, err
	}
	d.db = db
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.collectMetrics()
	}()
	return d, registry, nil
}

func (db *Database) Close() error {
	db.l.Lock()
	defer db.l.Unlock()

	if db.closed {
		return database.ErrClosed
	}
	db.closed = true
	close(db.closing)
	db.wg.Wait()
	return updateError(db.db.Close())
}

func (db *Database) Has(key []byte) (bool, error) {
	_, err := db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	db.l.RLock()
	defer db.l.RUnlock()

	if db.closed {
		return nil, database.ErrClosed
	}
	start := time.Now()
	defer func() {
		db.metrics.getLatency.Observe(float64(time.Since(start)))
	}()
	data, closer, err := db.db.Get(key)
	if err != nil {
		return nil, updateError(err)
	}
	defer closer.Close()
	return slices.Clone(data), nil
}

func (db *Database) Put(key []byte, value []byte) error {
	db.l.RLock()
	defer db.l.RUnlock()

	if db.closed {
		return database.ErrClosed
	}
	return updateError(db.db.Set(key, value, db.writeOpts))
}

func (db *Database) Delete(key []byte) error {
	db.l.RLock()
	defer db.l.RUnlock()

	if db.closed {
		return database.ErrClosed
	}
	return updateError(db.db.Delete(key, db.writeOpts))
}

func updateError(err error) error {
	switch {
	case errors.Is(err, pebble.ErrClosed):
		return database.ErrClosed
	case errors.Is(err, pebble.ErrNotFound):
		return database.ErrNotFound
	default:
		return err
	}
}
