// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"bytes"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/near/borsh-go"

	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/consts"
	"github.com/ava-labs/countervm/counter"
)

// RecordLen is the size of a persisted record:
// discriminator | u64 count | authority
const RecordLen = consts.DiscriminatorLen + consts.Uint64Len + codec.AddressLen

var (
	recordDiscriminator = discriminator("account:Counter")

	eventDiscriminators = map[counter.Kind][]byte{
		counter.Initialized: discriminator("event:" + counter.Initialized.String()),
		counter.Incremented: discriminator("event:" + counter.Incremented.String()),
		counter.Decremented: discriminator("event:" + counter.Decremented.String()),
	}
)

func discriminator(name string) []byte {
	return hashing.ComputeHash256([]byte(name))[:consts.DiscriminatorLen]
}

// Field order is part of the persisted format.
type recordLayout struct {
	Count     uint64
	Authority codec.Address
}

type initializedEvent struct {
	Authority codec.Address
	Count     uint64
}

type changedEvent struct {
	Authority codec.Address
	OldCount  uint64
	NewCount  uint64
	Timestamp int64
}

func EncodeRecord(r *counter.Record) ([]byte, error) {
	body, err := borsh.Serialize(recordLayout{
		Count:     r.Count,
		Authority: r.Authority,
	})
	if err != nil {
		return nil, err
	}
	b := make([]byte, 0, RecordLen)
	b = append(b, recordDiscriminator...)
	return append(b, body...), nil
}

// DecodeRecord rejects anything that is not exactly [RecordLen] bytes
// starting with the record discriminator.
func DecodeRecord(b []byte) (*counter.Record, error) {
	if len(b) != RecordLen {
		return nil, fmt.Errorf("%w: length=%d", ErrInvalidRecord, len(b))
	}
	if !bytes.Equal(b[:consts.DiscriminatorLen], recordDiscriminator) {
		return nil, fmt.Errorf("%w: unexpected discriminator %x", ErrInvalidRecord, b[:consts.DiscriminatorLen])
	}
	var layout recordLayout
	if err := borsh.Deserialize(&layout, b[consts.DiscriminatorLen:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return &counter.Record{
		Count:     layout.Count,
		Authority: layout.Authority,
	}, nil
}

// EncodeNotification returns the event discriminator for [n.Kind]
// followed by the borsh encoding of the event. Initialized events carry
// only the authority and the starting count.
func EncodeNotification(n *counter.Notification) ([]byte, error) {
	prefix, ok := eventDiscriminators[n.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", counter.ErrUnknownKind, uint8(n.Kind))
	}
	var event any
	if n.Kind == counter.Initialized {
		event = initializedEvent{
			Authority: n.Authority,
			Count:     n.NewCount,
		}
	} else {
		event = changedEvent{
			Authority: n.Authority,
			OldCount:  n.OldCount,
			NewCount:  n.NewCount,
			Timestamp: n.Timestamp,
		}
	}
	body, err := borsh.Serialize(event)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, prefix...), body...), nil
}

func DecodeNotification(b []byte) (*counter.Notification, error) {
	if len(b) < consts.DiscriminatorLen {
		return nil, fmt.Errorf("%w: length=%d", ErrInvalidNotification, len(b))
	}
	prefix, body := b[:consts.DiscriminatorLen], b[consts.DiscriminatorLen:]
	for kind, d := range eventDiscriminators {
		if !bytes.Equal(prefix, d) {
			continue
		}
		if kind == counter.Initialized {
			if len(body) != codec.AddressLen+consts.Uint64Len {
				return nil, fmt.Errorf("%w: length=%d", ErrInvalidNotification, len(b))
			}
			var event initializedEvent
			if err := borsh.Deserialize(&event, body); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidNotification, err)
			}
			return &counter.Notification{
				Kind:      kind,
				Authority: event.Authority,
				NewCount:  event.Count,
			}, nil
		}
		if len(body) != codec.AddressLen+2*consts.Uint64Len+consts.Int64Len {
			return nil, fmt.Errorf("%w: length=%d", ErrInvalidNotification, len(b))
		}
		var event changedEvent
		if err := borsh.Deserialize(&event, body); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidNotification, err)
		}
		return &counter.Notification{
			Kind:      kind,
			Authority: event.Authority,
			OldCount:  event.OldCount,
			NewCount:  event.NewCount,
			Timestamp: event.Timestamp,
		}, nil
	}
	return nil, fmt.Errorf("%w: unexpected discriminator %x", ErrInvalidNotification, prefix)
}

// LogEntry is one committed notification as stored in the log.
type LogEntry struct {
	Sequence     uint64                `json:"sequence"`
	TxID         ids.ID                `json:"txID"`
	Notification *counter.Notification `json:"notification"`
}

func EncodeLogEntry(txID ids.ID, n *counter.Notification) ([]byte, error) {
	event, err := EncodeNotification(n)
	if err != nil {
		return nil, err
	}
	b := make([]byte, 0, consts.IDLen+len(event))
	b = append(b, txID[:]...)
	return append(b, event...), nil
}

func DecodeLogEntry(sequence uint64, b []byte) (*LogEntry, error) {
	if len(b) < consts.IDLen {
		return nil, fmt.Errorf("%w: length=%d", ErrInvalidLogEntry, len(b))
	}
	n, err := DecodeNotification(b[consts.IDLen:])
	if err != nil {
		return nil, err
	}
	return &LogEntry{
		Sequence:     sequence,
		TxID:         ids.ID(b[:consts.IDLen]),
		Notification: n,
	}, nil
}
