// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, s *Server, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Connections().Len() == n
	}, 5*time.Second, 10*time.Millisecond)
}

// TestServerPublish adds connections to a server then publishes a msg to be
// sent to all connections. Checks the message was delivered properly and the
// connection is properly handled when closed.
func TestServerPublish(t *testing.T) {
	require := require.New(t)
	server := New(logging.NoLog{}, NewDefaultServerConfig())
	srv := httptest.NewServer(server)
	defer srv.Close()

	first := dial(t, srv)
	second := dial(t, srv)
	waitForConnections(t, server, 2)

	server.Broadcast([]byte(`{"sequence":0}`))
	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
		kind, msg, err := conn.ReadMessage()
		require.NoError(err)
		require.Equal(websocket.TextMessage, kind)
		require.Equal(`{"sequence":0}`, string(msg))
	}

	// closing one client removes it from the server
	require.NoError(first.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	waitForConnections(t, server, 1)

	server.Broadcast([]byte("next"))
	require.NoError(second.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, msg, err := second.ReadMessage()
	require.NoError(err)
	require.Equal("next", string(msg))
}

func TestServerClose(t *testing.T) {
	require := require.New(t)
	server := New(logging.NoLog{}, NewDefaultServerConfig())
	srv := httptest.NewServer(server)
	defer srv.Close()

	conn := dial(t, srv)
	waitForConnections(t, server, 1)
	inactive := server.Connections().Conns()
	require.NoError(server.Close())
	require.Zero(server.Connections().Len())

	require.NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, _, err := conn.ReadMessage()
	require.True(websocket.IsCloseError(err, websocket.CloseNormalClosure))

	set := NewConnections()
	for _, c := range inactive {
		set.Add(c)
	}
	require.Len(server.Publish([]byte("late"), set), 1)
	require.ErrorIs(inactive[0].Send([]byte("late")), ErrClosed)

	// new clients are turned away
	late := dial(t, srv)
	require.NoError(late.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, _, err = late.ReadMessage()
	require.True(websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestConnectionLimits(t *testing.T) {
	require := require.New(t)
	config := NewDefaultServerConfig()
	config.MaxPendingMessages = 1
	config.MaxMessageSize = 8
	server := New(logging.NoLog{}, config)

	conn := &Connection{s: server, send: make(chan []byte, config.MaxPendingMessages)}
	conn.active.Store(true)

	require.ErrorIs(conn.Send([]byte("too large!")), ErrMessageTooLarge)
	require.NoError(conn.Send([]byte("first")))
	require.ErrorIs(conn.Send([]byte("second")), ErrQueueFull)

	conn.deactivate()
	conn.deactivate()
	require.ErrorIs(conn.Send([]byte("third")), ErrClosed)
}
