// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package kernel

import (
	"errors"
	"fmt"

	"github.com/spezifisch/mpvrpc/schema"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownEvent   = errors.New("unknown event")
)

// ValidationError rejects a call whose arguments do not match the command
// schema. The handler and the hooks never ran.
type ValidationError struct {
	Command string
	Errors  schema.Errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s:\n%s", e.Command, e.Errors.String())
}

// HandlerError wraps a failure of the command handler itself. Stack is only
// set when the handler panicked.
type HandlerError struct {
	Command string
	Err     error
	Stack   []byte
}

func (e *HandlerError) Error() string {
	return e.Err.Error()
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
