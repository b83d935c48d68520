// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package rpc serves the kernel over WebSocket using JSON-RPC 2.0 with
// positional params. Events are delivered as notifications to the clients
// that subscribed to them with rpc.on, the way rpc-websockets does.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/logger"
)

var _ kernel.Transport = (*Server)(nil)

const (
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Method handles one call. args are the decoded positional params; numbers
// arrive as json.Number.
type Method func(ctx context.Context, args []any) (any, error)

type Server struct {
	logger   logger.LoggerInterface
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	methods map[string]Method
	events  map[string]struct{}
	conns   map[string]*conn
}

func NewServer(logger logger.LoggerInterface) *Server {
	return &Server{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 65536,
			// clients are local remote controls, not browsers on foreign pages
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		methods: make(map[string]Method),
		events:  make(map[string]struct{}),
		conns:   make(map[string]*conn),
	}
}

func (s *Server) RegisterCommand(name string, fn func(ctx context.Context, args []any) (any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[name] = fn
}

func (s *Server) RegisterEvent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[name] = struct{}{}
}

// Events lists the registered event names in sorted order.
func (s *Server) Events() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.events))
	for name := range s.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) method(name string) (Method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.methods[name]
	return fn, ok
}

func (s *Server) hasEvent(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[name]
	return ok
}

// Emit sends the event to every client subscribed to it. Clients that
// cannot be written to are dropped.
func (s *Server) Emit(name string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	msg, err := json.Marshal(notification{Notification: name, Params: args})
	if err != nil {
		return err
	}

	s.mu.RLock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		if c.subscribed(name) {
			conns = append(conns, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(msg); err != nil {
			s.logger.PrintError("rpc: emit "+name+" to "+c.id, err)
			c.close()
		}
	}
	return nil
}

// ServeHTTP upgrades the request and serves the connection until the client
// goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.PrintError("rpc: upgrade", err)
		return
	}

	c := newConn(s, ws)
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
	s.logger.Printf("rpc: client %s connected from %s", c.id, r.RemoteAddr)

	c.serve(r.Context())

	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
	s.logger.Printf("rpc: client %s disconnected", c.id)
}

// ListenAndServe serves path on address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, address string, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.PrintError("rpc: shutdown", err)
		}
	}()

	s.logger.Printf("rpc: listening on %s%s", listener.Addr(), path)
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) closeAll() {
	s.mu.RLock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
}
