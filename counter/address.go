// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/consts"
)

// DeriveAddress returns the address of the record owned by [authority]:
//
//	CounterAddressID | sha256(programID | tag | authority)
//
// [authority] is fixed width, so distinct (tag, authority) pairs under one
// program never share a preimage.
func DeriveAddress(programID ids.ID, tag []byte, authority codec.Address) codec.Address {
	preimage := make([]byte, 0, consts.IDLen+len(tag)+codec.AddressLen)
	preimage = append(preimage, programID[:]...)
	preimage = append(preimage, tag...)
	preimage = append(preimage, authority[:]...)
	return codec.CreateAddress(consts.CounterAddressID, ids.ID(hashing.ComputeHash256Array(preimage)))
}
