// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package commands

import (
	"context"

	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/schema"
)

// RegisterStatus registers the status query and the hooks that tell the
// synchronizer when playback starts and ends.
func (s *Surface) RegisterStatus() {
	s.kernel.RegisterCommand("status", schema.Tuple(), func(ctx context.Context, args []any) (any, error) {
		snapshot, err := s.status.Get(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any(snapshot), nil
	})

	s.kernel.RegisterPreHook("play", func(ctx context.Context, inv *kernel.Invocation) error {
		s.status.Play()
		return nil
	})

	stopped := func(ctx context.Context, inv *kernel.Invocation) error {
		s.status.Stop()
		return nil
	}
	s.kernel.RegisterPostHook("stop", stopped)
	s.kernel.RegisterPostHook("quit", stopped)
}
