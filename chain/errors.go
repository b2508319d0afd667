// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "errors"

var (
	// Parsing
	ErrInvalidObject = errors.New("invalid object")
	ErrInvalidActor  = errors.New("invalid actor")

	// Verify
	ErrMisalignedTime    = errors.New("misaligned time")
	ErrTimestampTooLate  = errors.New("timestamp too late")
	ErrTimestampTooEarly = errors.New("timestamp too early")
	ErrInvalidChainID    = errors.New("invalid chain ID")
	ErrDuplicateTx       = errors.New("duplicate transaction")
	ErrMissingOutput     = errors.New("action produced no output")
	ErrProcessorClosed   = errors.New("processor closed")

	// Queries
	ErrUnknownTx = errors.New("unknown transaction")
)
