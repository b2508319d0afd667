// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/countervm/api"
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/codec"
	"github.com/ava-labs/countervm/counter"
)

func TestWebSocketServerAccept(t *testing.T) {
	require := require.New(t)

	w := NewWebSocketServer(logging.NoLog{}, NewDefaultConfig())
	mux := http.NewServeMux()
	mux.Handle("/"+api.Base+Endpoint, w.Handler())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/"+api.Base+Endpoint, nil)
	require.NoError(err)
	require.NoError(resp.Body.Close())
	defer conn.Close()
	client, err := NewWebSocketClient(srv.URL)
	require.NoError(err)
	require.Eventually(func() bool {
		return w.Handler().Connections().Len() == 2
	}, 5*time.Second, 10*time.Millisecond)

	authority := codec.CreateAddress(0, ids.GenerateTestID())
	e := &chain.Event{
		Sequence: 7,
		TxID:     ids.GenerateTestID(),
		Record:   codec.CreateAddress(0x80, ids.GenerateTestID()),
		Notification: &counter.Notification{
			Kind:      counter.Incremented,
			Authority: authority,
			OldCount:  1,
			NewCount:  2,
			Timestamp: 1_700_000_000,
		},
	}
	require.NoError(w.Accept(context.Background(), e))

	require.NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(err)

	var got chain.Event
	require.NoError(json.Unmarshal(msg, &got))
	require.Equal(*e, got)

	listened, err := client.ListenEvent(context.Background())
	require.NoError(err)
	require.Equal(e, listened)

	// a canceled listen closes the client
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.ListenEvent(ctx)
	require.ErrorIs(err, context.Canceled)

	require.NoError(w.Close())
	_, _, err = conn.ReadMessage()
	require.True(websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
