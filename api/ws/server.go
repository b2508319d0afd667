// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ws

import (
	"context"
	"encoding/json"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/event"
	"github.com/ava-labs/countervm/pubsub"
)

const Endpoint = "/counterws"

var _ event.Subscription[*chain.Event] = (*WebSocketServer)(nil)

type Config struct {
	Enabled            bool `json:"enabled"            yaml:"enabled"            env:"ENABLED"`
	MaxPendingMessages int  `json:"maxPendingMessages" yaml:"maxPendingMessages" env:"MAX_PENDING_MESSAGES"`
}

func NewDefaultConfig() Config {
	return Config{
		Enabled:            true,
		MaxPendingMessages: 1_024,
	}
}

// WebSocketServer pushes every committed [chain.Event] to all connected
// websocket clients as a JSON text frame.
type WebSocketServer struct {
	log logging.Logger
	s   *pubsub.Server
}

func NewWebSocketServer(log logging.Logger, config Config) *WebSocketServer {
	serverConfig := pubsub.NewDefaultServerConfig()
	if config.MaxPendingMessages > 0 {
		serverConfig.MaxPendingMessages = config.MaxPendingMessages
	}
	return &WebSocketServer{
		log: log,
		s:   pubsub.New(log, serverConfig),
	}
}

// Handler returns the http handler that upgrades websocket connections.
func (w *WebSocketServer) Handler() *pubsub.Server {
	return w.s
}

func (w *WebSocketServer) Accept(_ context.Context, e *chain.Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return err
	}
	w.s.Broadcast(msg)
	w.log.Debug("broadcast event",
		zap.Uint64("sequence", e.Sequence),
		zap.Int("connections", w.s.Connections().Len()),
	)
	return nil
}

func (w *WebSocketServer) Close() error {
	return w.s.Close()
}
