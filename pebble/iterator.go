// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"bytes"

	"github.com/ava-labs/avalanchego/database"
	"github.com/cockroachdb/pebble"
	"golang.org/x/exp/slices"
)

var _ database.Iterator = (*iter)(nil)

type iter struct {
	db   *Database
	iter *pebble.Iterator

	initialized bool
	valid       bool
	err         error

	key   []byte
	value []byte
}

func (db *Database) NewIterator() database.Iterator {
	return db.NewIteratorWithStartAndPrefix(nil, nil)
}

func (db *Database) NewIteratorWithStart(start []byte) database.Iterator {
	return db.NewIteratorWithStartAndPrefix(start, nil)
}

func (db *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	return db.NewIteratorWithStartAndPrefix(nil, prefix)
}

func (db *Database) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator {
	db.l.RLock()
	defer db.l.RUnlock()

	if db.closed {
		return &database.IteratorError{Err: database.ErrClosed}
	}
	it, err := db.db.NewIter(keyRange(start, prefix))
	if err != nil {
		return &database.IteratorError{Err: updateError(err)}
	}
	return &iter{db: db, iter: it}
}

// keyRange returns the bounds that visit every key >= [start] that has
// [prefix].
func keyRange(start, prefix []byte) *pebble.IterOptions {
	opts := &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixToUpperBound(prefix),
	}
	if bytes.Compare(start, prefix) > 0 {
		opts.LowerBound = start
	}
	return opts
}

// prefixToUpperBound returns the smallest key greater than every key with
// [prefix], or nil if no such key exists.
func prefixToUpperBound(prefix []byte) []byte {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] != 0xFF {
			upperBound := slices.Clone(prefix[:i+1])
			upperBound[i]++
			return upperBound
		}
	}
	return nil
}

func (it *iter) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.initialized {
		it.initialized = true
		it.valid = it.iter.First()
	} else {
		it.valid = it.iter.Next()
	}
	if !it.valid {
		it.key = nil
		it.value = nil
		it.err = updateError(it.iter.Error())
		return false
	}
	it.key = slices.Clone(it.iter.Key())
	it.value = slices.Clone(it.iter.Value())
	return true
}

func (it *iter) Error() error {
	return it.err
}

func (it *iter) Key() []byte {
	return it.key
}

func (it *iter) Value() []byte {
	return it.value
}

func (it *iter) Release() {
	if it.iter == nil {
		return
	}
	_ = it.iter.Close()
	it.iter = nil
}
