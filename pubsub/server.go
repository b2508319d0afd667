// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"errors"
	"net/http"
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var _ http.Handler = (*Server)(nil)

// Server maintains the set of active clients and sends messages to the clients.
//
// Mount the server on an HTTP router and connect with websocket.DefaultDialer.Dial().
type Server struct {
	log    logging.Logger
	config ServerConfig

	upgrader websocket.Upgrader

	// lock guards [closed] and serializes connection teardown with [Send]
	lock   sync.RWMutex
	closed bool

	// conns a set of all our connections
	conns *Connections
}

// New returns a new Server instance.
func New(log logging.Logger, config ServerConfig) *Server {
	return &Server{
		log:    log,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			// Origins are enforced by the HTTP server in front of this
			// handler.
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		conns: NewConnections(),
	}
}

// ServeHTTP adds a connection to the server, and starts go routines for
// reading and writing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("failed to upgrade",
			zap.Error(err),
		)
		return
	}
	s.addConnection(&Connection{
		s:    s,
		conn: wsConn,
		send: make(chan []byte, s.config.MaxPendingMessages),
	})
}

// Publish sends msg from [s] to [toConns]. It returns the connections that
// are no longer active so callers can drop them.
func (s *Server) Publish(msg []byte, toConns *Connections) []*Connection {
	inactive := []*Connection{}
	for _, conn := range toConns.Conns() {
		// check server has connection O(1)
		if !s.conns.Has(conn) {
			inactive = append(inactive, conn)
			continue
		}
		err := conn.Send(msg)
		switch {
		case errors.Is(err, ErrClosed):
			inactive = append(inactive, conn)
		case err != nil:
			s.log.Verbo("dropping message to subscribed connection",
				zap.Error(err),
			)
		}
	}
	return inactive
}

// Broadcast sends [msg] to every connection of [s].
func (s *Server) Broadcast(msg []byte) {
	_ = s.Publish(msg, s.conns)
}

// Connections returns the live connection set of [s].
func (s *Server) Connections() *Connections {
	return s.conns
}

// Close disconnects every client. Connections opened after Close are
// rejected.
func (s *Server) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.closed = true
	for _, conn := range s.conns.Conns() {
		s.conns.Remove(conn)
		conn.deactivate()
	}
	return nil
}

// addConnection adds [conn] to the servers connection set and starts go
// routines for reading and writing messages for the connection.
func (s *Server) addConnection(conn *Connection) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		_ = conn.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		_ = conn.conn.Close()
		return
	}
	conn.active.Store(true)
	s.conns.Add(conn)

	go conn.writePump()
	go conn.readPump()
}

// removeConnection removes [conn] from the servers connection set.
func (s *Server) removeConnection(conn *Connection) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.conns.Remove(conn)
	conn.deactivate()
}
