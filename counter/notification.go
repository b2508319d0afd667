// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"fmt"

	"github.com/ava-labs/countervm/codec"
)

// Kind identifies which transition a [Notification] describes.
type Kind uint8

const (
	Initialized Kind = iota
	Incremented
	Decremented
)

const (
	initializedName = "CounterInitialized"
	incrementedName = "CounterIncremented"
	decrementedName = "CounterDecremented"
)

func (k Kind) String() string {
	switch k {
	case Initialized:
		return initializedName
	case Incremented:
		return incrementedName
	case Decremented:
		return decrementedName
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (k Kind) Valid() bool {
	return k <= Decremented
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case initializedName:
		return Initialized, nil
	case incrementedName:
		return Incremented, nil
	case decrementedName:
		return Decremented, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Notification describes one committed transition of a [Record].
//
// For [Initialized], OldCount and Timestamp are always zero and NewCount
// is the initial count.
type Notification struct {
	Kind      Kind          `json:"kind"`
	Authority codec.Address `json:"authority"`
	OldCount  uint64        `json:"oldCount"`
	NewCount  uint64        `json:"newCount"`
	Timestamp int64         `json:"timestamp"`
}
