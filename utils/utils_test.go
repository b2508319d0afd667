// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnixRMilli(t *testing.T) {
	tests := []struct {
		name     string
		now      int64
		add      int64
		expected int64
	}{
		{
			name:     "aligned",
			now:      1_700_000_000_000,
			add:      10_000,
			expected: 1_700_000_010_000,
		},
		{
			name:     "rounds down",
			now:      1_700_000_000_999,
			add:      0,
			expected: 1_700_000_000_000,
		},
		{
			name:     "add crosses second",
			now:      1_700_000_000_600,
			add:      500,
			expected: 1_700_000_001_000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, UnixRMilli(tt.now, tt.add))
		})
	}

	// a negative now uses the wall clock
	require.Zero(t, UnixRMilli(-1, 0)%1_000)
}

func TestInitSubDirectory(t *testing.T) {
	require := require.New(t)

	p, err := InitSubDirectory(t.TempDir(), "db")
	require.NoError(err)
	require.DirExists(p)
}
