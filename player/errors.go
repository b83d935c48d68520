// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package player

import (
	"errors"
	"fmt"
)

const (
	CodeNotRunning     = "not_running"
	CodeInitFailed     = "init_failed"
	CodeCommandFailed  = "command_failed"
	CodePropertyFailed = "property_failed"
)

var ErrNotRunning = errors.New("player is not running")

// BackendError is a structured failure reported by the player backend.
type BackendError struct {
	Method  string
	Code    string
	Message string
	Err     error
}

func NewBackendError(method string, code string, err error) *BackendError {
	return &BackendError{Method: method, Code: code, Message: err.Error(), Err: err}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Method, e.Message, e.Code)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
