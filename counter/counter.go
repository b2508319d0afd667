// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package counter decides every transition of a per-authority counter
// record. It holds no state and performs no I/O: callers load the current
// record, apply one of [Initialize], [Increment] or [Decrement], and are
// responsible for persisting the returned record and notification.
package counter

import (
	"fmt"

	smath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/countervm/codec"
)

// Record is the persistent state kept for one authority. A nil *Record
// means the authority has not been initialized.
type Record struct {
	Count     uint64        `json:"count"`
	Authority codec.Address `json:"authority"`
}

// Initialize creates the record for [caller]. It fails with
// ErrAlreadyInitialized if [current] already exists.
func Initialize(current *Record, caller codec.Address) (*Record, *Notification, error) {
	if current != nil {
		return nil, nil, fmt.Errorf("%w: authority=%s count=%d", ErrAlreadyInitialized, current.Authority, current.Count)
	}
	record := &Record{
		Count:     0,
		Authority: caller,
	}
	notification := &Notification{
		Kind:      Initialized,
		Authority: caller,
		NewCount:  0,
	}
	return record, notification, nil
}

// Increment adds one to [current]. [timestamp] is the host's commit time in
// unix seconds.
func Increment(current *Record, caller codec.Address, timestamp int64) (*Record, *Notification, error) {
	if err := authorize(current, caller); err != nil {
		return nil, nil, err
	}
	next, err := smath.Add(current.Count, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: count=%d", ErrOverflow, current.Count)
	}
	return transition(current, Incremented, next, timestamp)
}

// Decrement subtracts one from [current]. [timestamp] is the host's commit
// time in unix seconds.
func Decrement(current *Record, caller codec.Address, timestamp int64) (*Record, *Notification, error) {
	if err := authorize(current, caller); err != nil {
		return nil, nil, err
	}
	next, err := smath.Sub(current.Count, 1)
	if err != nil {
		return nil, nil, ErrUnderflow
	}
	return transition(current, Decremented, next, timestamp)
}

func authorize(current *Record, caller codec.Address) error {
	if current == nil {
		return ErrNotInitialized
	}
	if current.Authority != caller {
		return fmt.Errorf("%w: caller=%s authority=%s", ErrUnauthorized, caller, current.Authority)
	}
	return nil
}

func transition(current *Record, kind Kind, next uint64, timestamp int64) (*Record, *Notification, error) {
	record := &Record{
		Count:     next,
		Authority: current.Authority,
	}
	notification := &Notification{
		Kind:      kind,
		Authority: current.Authority,
		OldCount:  current.Count,
		NewCount:  next,
		Timestamp: timestamp,
	}
	return record, notification, nil
}
