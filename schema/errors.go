// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package schema

import (
	"fmt"
	"strings"
)

// Error describes a single value that did not match its schema node.
// Path is empty for errors at the root and dotted (for example "0.options.speed")
// once the error bubbled out of containers.
type Error struct {
	Expected []string
	Received string
	Path     string
}

func newError(expected string, received string) *Error {
	return &Error{Expected: []string{expected}, Received: received}
}

// Prefix returns a copy of the error with segment prepended to its path.
func (e *Error) Prefix(segment string) *Error {
	path := segment
	if e.Path != "" {
		path = segment + "." + e.Path
	}
	return &Error{Expected: e.Expected, Received: e.Received, Path: path}
}

func (e *Error) Message() string {
	expectations := fmt.Sprintf("Expected %s, got %s instead.", strings.Join(e.Expected, ", "), e.Received)
	if e.Path != "" {
		return e.Path + ": " + expectations
	}
	return expectations
}

func (e *Error) Error() string {
	return e.Message()
}

// Errors is the result of a validation pass. A nil or empty Errors means the
// value is valid.
type Errors []*Error

func (errs Errors) prefix(segment string) Errors {
	if len(errs) == 0 {
		return nil
	}
	out := make(Errors, len(errs))
	for i, err := range errs {
		out[i] = err.Prefix(segment)
	}
	return out
}

// String joins every message with a newline, ready to be shown to a remote caller.
func (errs Errors) String() string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Message()
	}
	return strings.Join(msgs, "\n")
}

func (errs Errors) Error() string {
	return errs.String()
}

// Messages returns one message per error.
func (errs Errors) Messages() []string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Message()
	}
	return msgs
}
