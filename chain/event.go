// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/counter"
)

// Event is delivered to subscribers once per committed transaction, in
// commit order.
type Event struct {
	Sequence     uint64                `json:"sequence"`
	TxID         ids.ID                `json:"txID"`
	Record       codec.Address         `json:"record"`
	Notification *counter.Notification `json:"notification"`
}

// Receipt is returned to the submitter of a committed transaction.
type Receipt struct {
	TxID         ids.ID                `json:"txID"`
	Sequence     uint64                `json:"sequence"`
	Record       codec.Address         `json:"record"`
	Count        uint64                `json:"count"`
	Notification *counter.Notification `json:"notification"`
}
