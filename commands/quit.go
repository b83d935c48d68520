// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package commands

import (
	"context"

	"github.com/spezifisch/mpvrpc/schema"
)

func (s *Surface) RegisterQuit() {
	s.kernel.RegisterCommand("quit", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		if !s.player.IsRunning() {
			return nil
		}
		return s.player.Quit(ctx)
	}))
}
