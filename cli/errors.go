// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import "errors"

var (
	ErrDuplicate  = errors.New("duplicate")
	ErrNoKeys     = errors.New("no available keys")
	ErrNoEndpoint = errors.New("no endpoint configured")
	ErrAborted    = errors.New("aborted")
)
