// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/spezifisch/mpvrpc/activity"
	"github.com/spezifisch/mpvrpc/commands"
	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/logger"
	"github.com/spezifisch/mpvrpc/player"
	"github.com/spezifisch/mpvrpc/remote"
	"github.com/spezifisch/mpvrpc/rpc"
	"github.com/spezifisch/mpvrpc/status"
)

const quitTimeout = 5 * time.Second

// statusPolling matches the status queries remote controls send every few
// seconds.
var statusPolling = regexp.MustCompile(`^status$`)

// Server wires the transport, the kernel and the player together.
type Server struct {
	config Config
	logger logger.ServiceLogger

	transport *rpc.Server
	kernel    *kernel.Kernel
	status    *status.Synchronizer
	player    player.Backend
	commands  *commands.Surface
	activity  *activity.Logger
	mpris     *remote.MprisPlayer
}

// NewServer registers every command and event on a fresh kernel. The player
// is not started until the first play.
func NewServer(cfg Config, backend player.Backend, log logger.ServiceLogger) (*Server, error) {
	s := &Server{
		config: cfg,
		logger: log,
		player: backend,
	}

	s.transport = rpc.NewServer(log.Service("rpc"))
	s.kernel = kernel.New(s.transport, log.Service("kernel"))
	s.status = status.New(backend, log.Service("status"), status.WithDefaultTimeout(cfg.StatusTimeout))

	s.activity = activity.New(log.Service("rpc"), cfg.Log)
	s.activity.RegisterHighFrequencyPattern(statusPolling, activity.DefaultHighFrequencyWindow)
	s.activity.Attach(s.kernel)

	s.commands = commands.New(s.kernel, backend, s.status, log.Service("commands"),
		commands.WithRestartOnPlay(cfg.RestartOnPlay))
	if err := s.commands.RegisterAll(); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	return s, nil
}

// Reconfigure applies the settings that can change while running.
func (s *Server) Reconfigure(cfg Config) {
	s.activity.Configure(cfg.Log)
	s.commands.SetRestartOnPlay(cfg.RestartOnPlay)
	s.logger.Print("configuration reloaded")
}

// EnableMpris exports the player on the session bus.
func (s *Server) EnableMpris() error {
	mpris, err := remote.RegisterMprisPlayer(s.kernel, s.logger.Service("mpris"))
	if err != nil {
		return err
	}
	mpris.Attach(s.kernel)
	s.mpris = mpris
	return nil
}

// Run serves until ctx is cancelled, then quits the player.
func (s *Server) Run(ctx context.Context) error {
	defer s.shutdown()
	return s.transport.ListenAndServe(ctx, s.config.ListenAddress(), s.config.Path)
}

func (s *Server) shutdown() {
	if s.mpris != nil {
		s.mpris.Close()
	}
	if !s.player.IsRunning() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
	defer cancel()
	if _, err := s.kernel.Call(ctx, "quit", []any{}); err != nil {
		s.logger.PrintError("quit player", err)
	}
}
