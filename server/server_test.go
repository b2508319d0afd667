// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"
)

func TestServerRoutes(t *testing.T) {
	require := require.New(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	s, err := New("", logging.NoLog{}, listener, NewDefaultHTTPConfig(), []string{"*"}, []string{"localhost"}, time.Second)
	require.NoError(err)

	hello := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	require.NoError(s.AddRoute(hello, "ext", "/hello"))
	err = s.AddRoute(hello, "ext", "/hello")
	require.ErrorIs(err, ErrRouteExists)

	done := make(chan error, 1)
	go func() {
		done <- s.Dispatch()
	}()

	resp, err := http.Get("http://" + s.Addr().String() + "/ext/hello")
	require.NoError(err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal("hello", string(body))

	resp, err = http.Get("http://" + s.Addr().String() + "/ext/missing")
	require.NoError(err)
	require.NoError(resp.Body.Close())
	require.Equal(http.StatusNotFound, resp.StatusCode)

	require.NoError(s.Shutdown())
	require.ErrorIs(<-done, http.ErrServerClosed)
}

func TestFilterInvalidHosts(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name    string
		allowed []string
		host    string
		code    int
	}{
		{
			name:    "allowed host",
			allowed: []string{"localhost"},
			host:    "localhost:9650",
			code:    http.StatusOK,
		},
		{
			name:    "case insensitive",
			allowed: []string{"LocalHost"},
			host:    "LOCALHOST",
			code:    http.StatusOK,
		},
		{
			name:    "ip always allowed",
			allowed: []string{"localhost"},
			host:    "127.0.0.1:9650",
			code:    http.StatusOK,
		},
		{
			name:    "unknown host",
			allowed: []string{"localhost"},
			host:    "example.com",
			code:    http.StatusForbidden,
		},
		{
			name:    "wildcard",
			allowed: []string{"localhost", "*"},
			host:    "example.com",
			code:    http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			w := httptest.NewRecorder()
			filterInvalidHosts(ok, tt.allowed).ServeHTTP(w, req)
			require.Equal(t, tt.code, w.Code)
		})
	}
}
