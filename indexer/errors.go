// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package indexer

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrPathRequired  = errors.New("indexer path is required")
	ErrNotConfigured = errors.New("indexer is not configured")
)
