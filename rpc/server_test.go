// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/logger"
	"github.com/spezifisch/mpvrpc/player"
	"github.com/spezifisch/mpvrpc/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	JSONRPC      string          `json:"jsonrpc"`
	ID           json.RawMessage `json:"id"`
	Result       json.RawMessage `json:"result"`
	Error        *Error          `json:"error"`
	Notification string          `json:"notification"`
	Params       []any           `json:"params"`
}

type fixture struct {
	server *Server
	kernel *kernel.Kernel
	http   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	log := &logger.Logger{}
	server := NewServer(log)
	k := kernel.New(server, log)

	k.RegisterCommand("seek", schema.Tuple(schema.Number()), func(ctx context.Context, args []any) (any, error) {
		seconds, _ := schema.AsNumber(args[0])
		return seconds * 2, nil
	})
	k.RegisterCommand("pause", schema.Tuple(), func(ctx context.Context, args []any) (any, error) {
		return nil, player.NewBackendError("Pause", player.CodeNotRunning, player.ErrNotRunning)
	})
	k.RegisterCommand("fail", schema.Tuple(), func(ctx context.Context, args []any) (any, error) {
		return nil, errors.New("it broke")
	})
	k.RegisterEvent("status")
	k.RegisterEvent("seek")

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return &fixture{server: server, kernel: k, http: ts}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(f.http.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, raw string) {
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func receive(t *testing.T, ws *websocket.Conn) message {
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var msg message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestCall(t *testing.T) {
	f := newFixture(t)
	ws := f.dial(t)

	send(t, ws, `{"jsonrpc":"2.0","method":"seek","params":[21],"id":1}`)
	msg := receive(t, ws)
	assert.Equal(t, "2.0", msg.JSONRPC)
	assert.JSONEq(t, `1`, string(msg.ID))
	assert.JSONEq(t, `42`, string(msg.Result))
	assert.Nil(t, msg.Error)
}

func TestCallErrors(t *testing.T) {
	testCases := []struct {
		name    string
		request string
		code    int
		message string
		data    any
	}{
		{
			name:    "invalid params",
			request: `{"jsonrpc":"2.0","method":"seek","params":["x"],"id":"a"}`,
			code:    CodeInvalidParams,
			message: "Invalid params",
			data:    []any{"0: Expected Number, got string instead."},
		},
		{
			name:    "named params",
			request: `{"jsonrpc":"2.0","method":"seek","params":{"seconds":1},"id":"a"}`,
			code:    CodeInvalidParams,
			message: "Invalid params",
		},
		{
			name:    "unknown method",
			request: `{"jsonrpc":"2.0","method":"nope","id":"a"}`,
			code:    CodeMethodNotFound,
			message: "Method not found",
		},
		{
			name:    "backend error",
			request: `{"jsonrpc":"2.0","method":"pause","id":"a"}`,
			code:    CodeServerError,
			message: "Pause: player is not running (not_running)",
			data:    map[string]any{"code": "not_running", "method": "Pause"},
		},
		{
			name:    "handler error",
			request: `{"jsonrpc":"2.0","method":"fail","id":"a"}`,
			code:    CodeServerError,
			message: "it broke",
		},
		{
			name:    "missing version",
			request: `{"method":"fail","id":"a"}`,
			code:    CodeInvalidRequest,
			message: "Invalid Request",
		},
	}

	f := newFixture(t)
	ws := f.dial(t)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			send(t, ws, tc.request)
			msg := receive(t, ws)
			require.NotNil(t, msg.Error)
			assert.Equal(t, tc.code, msg.Error.Code)
			assert.Equal(t, tc.message, msg.Error.Message)
			if tc.data != nil {
				assert.Equal(t, tc.data, msg.Error.Data)
			}
			assert.JSONEq(t, `"a"`, string(msg.ID))
		})
	}
}

func TestParseError(t *testing.T) {
	f := newFixture(t)
	ws := f.dial(t)

	send(t, ws, `{not json`)
	msg := receive(t, ws)
	require.NotNil(t, msg.Error)
	assert.Equal(t, CodeParseError, msg.Error.Code)
	assert.Equal(t, "null", string(msg.ID))
}

func TestNotificationGetsNoResponse(t *testing.T) {
	f := newFixture(t)
	ws := f.dial(t)

	send(t, ws, `{"jsonrpc":"2.0","method":"fail"}`)
	send(t, ws, `{"jsonrpc":"2.0","method":"seek","params":[1],"id":7}`)

	msg := receive(t, ws)
	assert.JSONEq(t, `7`, string(msg.ID))
	assert.JSONEq(t, `2`, string(msg.Result))
}

func TestSubscriptions(t *testing.T) {
	f := newFixture(t)
	subscriber := f.dial(t)
	other := f.dial(t)

	send(t, subscriber, `{"jsonrpc":"2.0","method":"rpc.on","params":["status","bogus"],"id":1}`)
	msg := receive(t, subscriber)
	assert.JSONEq(t, `{"status":"ok","bogus":"provided event invalid"}`, string(msg.Result))

	send(t, other, `{"jsonrpc":"2.0","method":"rpc.on","params":["seek"],"id":1}`)
	receive(t, other)

	require.NoError(t, f.kernel.Emit(context.Background(), "status", map[string]any{"pause": true}))
	require.NoError(t, f.kernel.Emit(context.Background(), "seek", player.SeekData{Start: 1, End: 5}))

	msg = receive(t, subscriber)
	assert.Equal(t, "status", msg.Notification)
	assert.Equal(t, []any{map[string]any{"pause": true}}, msg.Params)

	msg = receive(t, other)
	assert.Equal(t, "seek", msg.Notification)
	assert.Equal(t, []any{map[string]any{"start": 1.0, "end": 5.0}}, msg.Params)

	send(t, subscriber, `{"jsonrpc":"2.0","method":"rpc.off","params":["status"],"id":2}`)
	msg = receive(t, subscriber)
	assert.JSONEq(t, `{"status":"ok"}`, string(msg.Result))

	require.NoError(t, f.kernel.Emit(context.Background(), "status"))
	send(t, subscriber, `{"jsonrpc":"2.0","method":"seek","params":[1],"id":3}`)
	msg = receive(t, subscriber)
	assert.JSONEq(t, `3`, string(msg.ID), "no notification after rpc.off")
}

func TestEmitWithoutArgs(t *testing.T) {
	f := newFixture(t)
	ws := f.dial(t)

	send(t, ws, `{"jsonrpc":"2.0","method":"rpc.on","params":["status"],"id":1}`)
	receive(t, ws)

	require.NoError(t, f.server.Emit("status"))
	msg := receive(t, ws)
	assert.Equal(t, "status", msg.Notification)
	assert.Equal(t, []any{}, msg.Params)
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"seek", "status"}, f.server.Events())
}

func TestListenAndServe(t *testing.T) {
	server := NewServer(&logger.Logger{})
	server.RegisterCommand("ping", func(ctx context.Context, args []any) (any, error) {
		return "pong", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.ListenAndServe(ctx, "127.0.0.1:0", "/") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
