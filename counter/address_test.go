// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package counter

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/countervm/codectest"
	"github.com/ava-labs/countervm/consts"
)

func TestDeriveAddress(t *testing.T) {
	require := require.New(t)

	programID := ids.GenerateTestID()
	tag := []byte(consts.DefaultCounterTag)
	a := codectest.NewRandomAddress()
	b := codectest.NewRandomAddress()

	addr := DeriveAddress(programID, tag, a)
	require.Equal(consts.CounterAddressID, addr.TypeID())
	require.Equal(addr, DeriveAddress(programID, tag, a))
	require.NotEqual(addr, DeriveAddress(programID, tag, b))
	require.NotEqual(addr, DeriveAddress(programID, []byte("other"), a))
	require.NotEqual(addr, DeriveAddress(ids.GenerateTestID(), tag, a))
	require.NotEqual(a, addr)
}
