// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/counter"
)

var _ chain.Output = (*Result)(nil)

// Result is the output of every counter action.
type Result struct {
	Kind         counter.Kind          `json:"kind"`
	Count        uint64                `json:"count"`
	Notification *counter.Notification `json:"notification"`
}

// GetTypeID is the ID of the action that produced [r].
func (r *Result) GetTypeID() uint8 {
	switch r.Kind {
	case counter.Incremented:
		return IncrementID
	case counter.Decremented:
		return DecrementID
	default:
		return InitializeID
	}
}

func (r *Result) GetCount() uint64 {
	return r.Count
}

func (r *Result) GetNotification() *counter.Notification {
	return r.Notification
}
