// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package rpc

import (
	"encoding/json"
	"errors"

	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/player"
)

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
)

const (
	methodSubscribe   = "rpc.on"
	methodUnsubscribe = "rpc.off"

	eventOK      = "ok"
	eventInvalid = "provided event invalid"
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// isCall reports whether the client waits for a response.
func (r *request) isCall() bool {
	return len(r.ID) > 0 && string(r.ID) != "null"
}

type response struct {
	Result any
	Error  *Error
	ID     json.RawMessage
}

// MarshalJSON writes exactly one of result and error, as JSON-RPC requires;
// a successful call without value still carries "result": null.
func (r response) MarshalJSON() ([]byte, error) {
	id := r.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	if r.Error != nil {
		return json.Marshal(struct {
			JSONRPC string          `json:"jsonrpc"`
			Error   *Error          `json:"error"`
			ID      json.RawMessage `json:"id"`
		}{"2.0", r.Error, id})
	}
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  any             `json:"result"`
		ID      json.RawMessage `json:"id"`
	}{"2.0", r.Result, id})
}

type notification struct {
	Notification string `json:"notification"`
	Params       []any  `json:"params"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// toError maps a failed call onto a JSON-RPC error object.
func toError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	var validationErr *kernel.ValidationError
	if errors.As(err, &validationErr) {
		return &Error{Code: CodeInvalidParams, Message: "Invalid params", Data: validationErr.Errors.Messages()}
	}

	if errors.Is(err, kernel.ErrUnknownCommand) {
		return &Error{Code: CodeMethodNotFound, Message: "Method not found"}
	}

	var backendErr *player.BackendError
	if errors.As(err, &backendErr) {
		return &Error{
			Code:    CodeServerError,
			Message: err.Error(),
			Data:    map[string]string{"code": backendErr.Code, "method": backendErr.Method},
		}
	}

	return &Error{Code: CodeServerError, Message: err.Error()}
}
