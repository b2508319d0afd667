// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	ByteLen          = 1
	Uint16Len        = 2
	IntLen           = 4
	Uint64Len        = 8
	Int64Len         = 8
	IDLen            = 32
	DiscriminatorLen = 8
	MaxUint8         = ^uint8(0)
	MaxUint16        = ^uint16(0)
	MaxUint64        = ^uint64(0)
	MaxUint          = ^uint(0)
	MaxInt           = int(MaxUint >> 1)

	MillisecondsPerSecond = 1000

	// NetworkSizeLimit caps any serialized transaction accepted over the wire.
	NetworkSizeLimit = 2_044_723 // 1.95 MiB
)

// Address type IDs. The first byte of every address identifies how the
// remaining 32 bytes were derived.
const (
	ED25519AddressID uint8 = 0
	CounterAddressID uint8 = 0x80
)

const (
	// Name identifies the application in logs, metrics and traces.
	Name = "counter"

	Version = "v0.1.0"

	// DefaultCounterTag is the domain separator mixed into every record
	// address.
	DefaultCounterTag = "counter"
)
