// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateChoice(t *testing.T) {
	validate := validateChoice(3)

	tests := []struct {
		input string
		err   error
	}{
		{input: "0"},
		{input: "2"},
		{input: "", err: ErrInputEmpty},
		{input: "3", err: ErrIndexOutOfRange},
		{input: "-1", err: ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.ErrorIs(t, validate(tt.input), tt.err)
		})
	}
	require.Error(t, validate("one"))
}

func TestValidateBool(t *testing.T) {
	require := require.New(t)

	require.NoError(validateBool("y"))
	require.NoError(validateBool("N"))
	require.ErrorIs(validateBool(""), ErrInputEmpty)
	require.ErrorIs(validateBool("yes"), ErrInvalidChoice)
}
