// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ws

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ava-labs/countervm/api"
	"github.com/ava-labs/countervm/chain"
)

type WebSocketClient struct {
	conn *websocket.Conn

	// read lock
	rl        sync.Mutex
	closeOnce sync.Once
}

// NewWebSocketClient dials the event stream of the node at [uri], for
// example http://127.0.0.1:9650.
func NewWebSocketClient(uri string) (*WebSocketClient, error) {
	uri = strings.TrimSuffix(uri, "/")
	uri = strings.Replace(uri, "http", "ws", 1) + "/" + api.Base + Endpoint
	conn, resp, err := websocket.DefaultDialer.Dial(uri, nil)
	if err != nil {
		return nil, err
	}
	// not using resp for now
	resp.Body.Close()
	return &WebSocketClient{conn: conn}, nil
}

// ListenEvent blocks until the next committed event arrives, [ctx] is
// done or the connection fails.
func (c *WebSocketClient) ListenEvent(ctx context.Context) (*chain.Event, error) {
	c.rl.Lock()
	defer c.rl.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = c.Close()
	})
	defer stop()

	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	var e chain.Event
	if err := json.Unmarshal(msg, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *WebSocketClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
