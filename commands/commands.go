// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package commands is the command surface of the server: it registers the
// player commands and outbound events on the kernel and keeps the status
// synchronizer in step with both.
package commands

import (
	"sync/atomic"

	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/logger"
	"github.com/spezifisch/mpvrpc/player"
	"github.com/spezifisch/mpvrpc/schema"
	"github.com/spezifisch/mpvrpc/status"
)

type Surface struct {
	kernel *kernel.Kernel
	player player.Backend
	status *status.Synchronizer
	logger logger.LoggerInterface

	restartOnPlay atomic.Bool
}

type Option func(*Surface)

// WithRestartOnPlay quits and restarts the player on every play call.
func WithRestartOnPlay(restart bool) Option {
	return func(s *Surface) { s.restartOnPlay.Store(restart) }
}

func New(k *kernel.Kernel, backend player.Backend, sync *status.Synchronizer, logger logger.LoggerInterface, opts ...Option) *Surface {
	s := &Surface{
		kernel: k,
		player: backend,
		status: sync,
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetRestartOnPlay changes the restart behaviour of play at runtime.
func (s *Surface) SetRestartOnPlay(restart bool) {
	s.restartOnPlay.Store(restart)
}

// RegisterAll registers every command and event of the server.
func (s *Surface) RegisterAll() error {
	s.RegisterNative()
	s.RegisterPlay()
	s.RegisterStatus()
	s.RegisterQuit()
	return s.RegisterEvents()
}

// Arguments reach the handlers unconverted, but only after they validated
// against the command schema, so the accessors below only have to deal with
// absent optional positions.

func stringArg(args []any, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := args[i].(string)
	return s
}

func numberArg(args []any, i int) float64 {
	if i >= len(args) {
		return 0
	}
	n, _ := schema.AsNumber(args[i])
	return n
}

func objectArg(args []any, i int) map[string]any {
	if i >= len(args) {
		return nil
	}
	m, _ := schema.AsObject(args[i])
	return m
}

func anyArg(args []any, i int) any {
	if i >= len(args) {
		return nil
	}
	return args[i]
}
