// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"io"

	"github.com/ava-labs/avalanchego/database"
)

type Immutable interface {
	GetValue(ctx context.Context, key []byte) (value []byte, err error)
}

type Mutable interface {
	Immutable

	Insert(ctx context.Context, key []byte, value []byte) error
}

// Database is the durable key-value store the host commits to. It is
// satisfied by avalanchego's memdb and by the pebble package.
type Database interface {
	database.KeyValueReaderWriterDeleter
	database.Batcher
	database.Iteratee
	io.Closer
}

var _ Immutable = ReadOnly{}

// ReadOnly exposes a [database.KeyValueReader] as [Immutable].
type ReadOnly struct {
	db database.KeyValueReader
}

func NewReadOnly(db database.KeyValueReader) ReadOnly {
	return ReadOnly{db: db}
}

func (r ReadOnly) GetValue(_ context.Context, key []byte) ([]byte, error) {
	return r.db.Get(key)
}
