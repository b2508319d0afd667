// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

const (
	// Action TypeIDs
	InitializeID uint8 = 0
	IncrementID  uint8 = 1
	DecrementID  uint8 = 2
)
