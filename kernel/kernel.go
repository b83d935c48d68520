// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package kernel binds command schemas, handlers and hooks together and
// exposes them through a Transport.
//
// Every inbound call is validated against the command's tuple schema first. A
// call with bad arguments is rejected with a ValidationError and never reaches
// the hooks or the handler. Otherwise the pre hooks run in registration order,
// then the handler, then the post hooks, which always run whether the handler
// failed or not.
package kernel

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/spezifisch/mpvrpc/logger"
	"github.com/spezifisch/mpvrpc/schema"
)

// Handler executes a command. It receives the arguments exactly as the caller
// sent them.
type Handler func(ctx context.Context, args []any) (any, error)

// Transport is the wire side of the kernel: it delivers calls as positional
// argument lists and broadcasts events.
type Transport interface {
	RegisterCommand(name string, fn func(ctx context.Context, args []any) (any, error))
	RegisterEvent(name string)
	Emit(name string, args ...any) error
}

type Command struct {
	Name    string
	Schema  *schema.TupleSchema
	handler Handler
}

type Kernel struct {
	Hooks

	transport Transport
	logger    logger.ServiceLogger

	mu       sync.RWMutex
	commands map[string]*Command
	events   map[string]struct{}
}

// New creates a kernel. transport may be nil, in which case commands are only
// reachable through Call and events are only seen by the hooks.
func New(transport Transport, logger_ logger.ServiceLogger) *Kernel {
	return &Kernel{
		transport: transport,
		logger:    logger_,
		commands:  make(map[string]*Command),
		events:    make(map[string]struct{}),
	}
}

// RegisterCommand stores a command and exposes it on the transport.
// Registering the same name twice replaces the previous command.
func (k *Kernel) RegisterCommand(name string, args *schema.TupleSchema, fn Handler) *Command {
	if args == nil {
		args = schema.Tuple()
	}
	cmd := &Command{Name: name, Schema: args, handler: fn}

	k.mu.Lock()
	k.commands[name] = cmd
	k.mu.Unlock()

	if k.transport != nil {
		k.transport.RegisterCommand(name, func(ctx context.Context, args []any) (any, error) {
			return k.Call(ctx, name, args)
		})
	}
	return cmd
}

// Commands lists the registered command names in sorted order.
func (k *Kernel) Commands() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := make([]string, 0, len(k.commands))
	for name := range k.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (k *Kernel) command(name string) (*Command, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	cmd, ok := k.commands[name]
	return cmd, ok
}

// Call dispatches one command call through validation, hooks and handler.
func (k *Kernel) Call(ctx context.Context, name string, args []any) (any, error) {
	cmd, ok := k.command(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if args == nil {
		args = []any{}
	}

	if errs := cmd.Schema.Validate(args); len(errs) > 0 {
		k.logger.Service(name).Print(errs.String())
		return nil, &ValidationError{Command: name, Errors: errs}
	}

	inv := newInvocation(name, args)
	if err := k.RunPre(ctx, inv); err != nil {
		return nil, err
	}

	result, err := k.invoke(ctx, cmd, args)
	inv.Result, inv.Err = result, err

	if hookErr := k.RunPost(ctx, inv); hookErr != nil {
		return nil, hookErr
	}
	return result, err
}

func (k *Kernel) invoke(ctx context.Context, cmd *Command, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &HandlerError{Command: cmd.Name, Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
		}
	}()

	result, err = cmd.handler(ctx, args)
	if err != nil {
		return nil, &HandlerError{Command: cmd.Name, Err: err}
	}
	return result, nil
}

// RegisterEvent declares an outbound event.
func (k *Kernel) RegisterEvent(name string) {
	k.mu.Lock()
	k.events[name] = struct{}{}
	k.mu.Unlock()

	if k.transport != nil {
		k.transport.RegisterEvent(name)
	}
}

// Emit broadcasts an event. Event hooks only observe: their errors are logged
// and never prevent the emission.
func (k *Kernel) Emit(ctx context.Context, name string, args ...any) error {
	k.mu.RLock()
	_, ok := k.events[name]
	k.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}

	inv := newInvocation(name, args)
	if err := k.RunEvent(ctx, inv, false); err != nil {
		k.logger.Service(name).PrintError("event hook", err)
	}

	if k.transport != nil {
		inv.Err = k.transport.Emit(name, args...)
	}

	if err := k.RunEvent(ctx, inv, true); err != nil {
		k.logger.Service(name).PrintError("event hook", err)
	}
	return inv.Err
}
