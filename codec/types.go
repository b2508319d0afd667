// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

// Typed is implemented by every object that is serialized behind a
// one byte type prefix.
type Typed interface {
	GetTypeID() uint8
}
