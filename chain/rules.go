// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/countervm/consts"
)

var _ Rules = (*DefaultRules)(nil)

type DefaultRules struct {
	ChainID        ids.ID `json:"chainID"`
	ProgramID      ids.ID `json:"programID"`
	CounterTag     []byte `json:"counterTag"`
	ValidityWindow int64  `json:"validityWindow"`
}

func NewDefaultRules(chainID ids.ID, programID ids.ID) *DefaultRules {
	return &DefaultRules{
		ChainID:        chainID,
		ProgramID:      programID,
		CounterTag:     []byte(consts.DefaultCounterTag),
		ValidityWindow: 60 * consts.MillisecondsPerSecond,
	}
}

func (r *DefaultRules) GetChainID() ids.ID {
	return r.ChainID
}

func (r *DefaultRules) GetProgramID() ids.ID {
	return r.ProgramID
}

func (r *DefaultRules) GetCounterTag() []byte {
	return r.CounterTag
}

func (r *DefaultRules) GetValidityWindow() int64 {
	return r.ValidityWindow
}
