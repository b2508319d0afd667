// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/consts"
	"github.com/ava-labs/countervm/counter"
	"github.com/ava-labs/countervm/state"
)

// State
// 0x0/ (record)
//   -> [counter address] => discriminator | count | authority
// 0x1/ (notification log)
//   -> [sequence] => tx id | discriminator | event
// 0x2/ (next sequence)
// 0x3/ (committed txs)
//   -> [tx id] => sequence

const (
	recordPrefix byte = iota
	notificationPrefix
	sequencePrefix
	txPrefix
)

// [recordPrefix] + [address]
func RecordKey(addr codec.Address) []byte {
	k := make([]byte, consts.ByteLen+codec.AddressLen)
	k[0] = recordPrefix
	copy(k[1:], addr[:])
	return k
}

// [notificationPrefix] + [sequence]
//
// Sequences are big endian so iteration order equals commit order.
func NotificationKey(sequence uint64) []byte {
	k := make([]byte, consts.ByteLen+consts.Uint64Len)
	k[0] = notificationPrefix
	binary.BigEndian.PutUint64(k[1:], sequence)
	return k
}

func SequenceKey() []byte {
	return []byte{sequencePrefix}
}

// [txPrefix] + [txID]
func TxKey(txID ids.ID) []byte {
	k := make([]byte, consts.ByteLen+consts.IDLen)
	k[0] = txPrefix
	copy(k[1:], txID[:])
	return k
}

// GetRecord returns the record stored at [addr], or nil if the authority
// behind [addr] was never initialized.
func GetRecord(
	ctx context.Context,
	im state.Immutable,
	addr codec.Address,
) (*counter.Record, error) {
	v, err := im.GetValue(ctx, RecordKey(addr))
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeRecord(v)
}

func PutRecord(
	ctx context.Context,
	mu state.Mutable,
	addr codec.Address,
	record *counter.Record,
) error {
	v, err := EncodeRecord(record)
	if err != nil {
		return err
	}
	return mu.Insert(ctx, RecordKey(addr), v)
}

// NextSequence returns the sequence the next committed notification will
// be stored under.
func NextSequence(db database.KeyValueReader) (uint64, error) {
	v, err := db.Get(SequenceKey())
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return database.ParseUInt64(v)
}

// HasTx reports whether [txID] has already been committed.
func HasTx(db database.KeyValueReader, txID ids.ID) (bool, error) {
	return db.Has(TxKey(txID))
}

// GetTxSequence returns the log sequence of the notification emitted by
// [txID].
func GetTxSequence(db database.KeyValueReader, txID ids.ID) (uint64, error) {
	v, err := db.Get(TxKey(txID))
	if err != nil {
		return 0, err
	}
	return database.ParseUInt64(v)
}

// AppendNotification writes [n] to the log under [sequence], marks [txID]
// as committed and advances the sequence head. [w] is expected to be a
// batch that also carries the record write.
func AppendNotification(
	w database.KeyValueWriter,
	sequence uint64,
	txID ids.ID,
	n *counter.Notification,
) error {
	entry, err := EncodeLogEntry(txID, n)
	if err != nil {
		return err
	}
	if err := w.Put(NotificationKey(sequence), entry); err != nil {
		return err
	}
	if err := database.PutUInt64(w, TxKey(txID), sequence); err != nil {
		return err
	}
	return database.PutUInt64(w, SequenceKey(), sequence+1)
}
