// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "errors"

var (
	ErrInvalidRecord       = errors.New("invalid counter record")
	ErrInvalidNotification = errors.New("invalid notification")
	ErrInvalidLogEntry     = errors.New("invalid notification log entry")
)
