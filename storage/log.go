// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"encoding/binary"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/countervm/consts"
)

// GetNotifications returns up to [limit] log entries starting at
// [start], in commit order.
func GetNotifications(
	ctx context.Context,
	db database.Iteratee,
	start uint64,
	limit int,
) ([]*LogEntry, error) {
	it := db.NewIteratorWithStartAndPrefix(NotificationKey(start), []byte{notificationPrefix})
	defer it.Release()

	entries := []*LogEntry{}
	for len(entries) < limit && it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := it.Key()
		if len(key) != consts.ByteLen+consts.Uint64Len {
			return nil, ErrInvalidLogEntry
		}
		entry, err := DecodeLogEntry(binary.BigEndian.Uint64(key[consts.ByteLen:]), it.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, it.Error()
}

// GetNotification returns the entry stored under [sequence].
func GetNotification(db database.KeyValueReader, sequence uint64) (*LogEntry, error) {
	v, err := db.Get(NotificationKey(sequence))
	if err != nil {
		return nil, err
	}
	return DecodeLogEntry(sequence, v)
}
