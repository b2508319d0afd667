// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "disabled",
			config: &Config{AppName: "counter"},
		},
		{
			name: "enabled",
			config: &Config{
				Enabled:         true,
				TraceSampleRate: 1,
				Endpoint:        "http://127.0.0.1:1/api/v2/spans",
				AppName:         "counter",
				Agent:           "counterd",
				Version:         "test",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			tracer, err := New(tt.config)
			require.NoError(err)

			_, span := tracer.Start(context.Background(), "test")
			span.End()
			// nothing listens on the endpoint, so the final flush may fail
			_ = tracer.Close()
		})
	}
}

func TestNoop(t *testing.T) {
	require := require.New(t)

	tracer := Noop()
	ctx, span := tracer.Start(context.Background(), "noop")
	require.NotNil(ctx)
	require.False(span.IsRecording())
	span.End()
	require.NoError(tracer.Close())
}
