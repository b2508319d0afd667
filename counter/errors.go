// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import "errors"

var (
	ErrUnauthorized       = errors.New("caller is not the counter authority")
	ErrUnderflow          = errors.New("counter cannot be decremented below zero")
	ErrOverflow           = errors.New("counter cannot be incremented past the maximum value")
	ErrAlreadyInitialized = errors.New("counter already initialized")
	ErrNotInitialized     = errors.New("counter not initialized")
	ErrUnknownKind        = errors.New("unknown notification kind")
)
