// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type conn struct {
	id     string
	server *Server
	ws     *websocket.Conn

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu            sync.Mutex
	subscriptions map[string]bool
	closeOnce     sync.Once
}

func newConn(server *Server, ws *websocket.Conn) *conn {
	return &conn{
		id:            uuid.NewString(),
		server:        server,
		ws:            ws,
		subscriptions: make(map[string]bool),
	}
}

// serve reads requests until the connection fails. Every call runs in its
// own goroutine so a slow command does not hold back the others.
func (c *conn) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	var calls sync.WaitGroup
	defer func() {
		cancel()
		calls.Wait()
		c.close()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var req request
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&req); err != nil {
			c.reply(response{Error: &Error{Code: CodeParseError, Message: "Parse error"}})
			continue
		}
		if req.JSONRPC != "2.0" || req.Method == "" {
			c.reply(response{ID: req.ID, Error: &Error{Code: CodeInvalidRequest, Message: "Invalid Request"}})
			continue
		}

		calls.Add(1)
		go func() {
			defer calls.Done()
			c.handle(ctx, &req)
		}()
	}
}

func (c *conn) handle(ctx context.Context, req *request) {
	params, err := decodeParams(req.Params)
	if err != nil {
		c.reply(response{ID: req.ID, Error: &Error{Code: CodeInvalidParams, Message: "Invalid params", Data: err.Error()}})
		return
	}

	var result any
	switch req.Method {
	case methodSubscribe:
		result = c.setSubscriptions(params, true)
	case methodUnsubscribe:
		result = c.setSubscriptions(params, false)
	default:
		fn, ok := c.server.method(req.Method)
		if !ok {
			err = &Error{Code: CodeMethodNotFound, Message: "Method not found"}
			break
		}
		result, err = fn(ctx, params)
	}

	if !req.isCall() {
		return
	}
	if err != nil {
		c.reply(response{ID: req.ID, Error: toError(err)})
		return
	}
	c.reply(response{ID: req.ID, Result: result})
}

// setSubscriptions answers rpc.on and rpc.off with a status per event name.
func (c *conn) setSubscriptions(names []any, subscribe bool) map[string]string {
	result := make(map[string]string, len(names))

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, raw := range names {
		name := fmt.Sprint(raw)
		if !c.server.hasEvent(name) {
			result[name] = eventInvalid
			continue
		}
		if subscribe {
			c.subscriptions[name] = true
		} else {
			delete(c.subscriptions, name)
		}
		result[name] = eventOK
	}
	return result
}

func (c *conn) subscribed(event string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptions[event]
}

func (c *conn) reply(res response) {
	msg, err := json.Marshal(res)
	if err != nil {
		msg, _ = json.Marshal(response{ID: res.ID, Error: &Error{Code: CodeServerError, Message: err.Error()}})
	}
	if err := c.write(msg); err != nil {
		c.server.logger.PrintError("rpc: reply to "+c.id, err)
	}
}

func (c *conn) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, msg)
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.ws.Close()
	})
}

// decodeParams accepts positional params only. Absent params are an empty
// argument list.
func decodeParams(raw json.RawMessage) ([]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []any{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var params []any
	if err := decoder.Decode(&params); err != nil {
		return nil, fmt.Errorf("params must be an array: %w", err)
	}
	return params, nil
}
