// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package commands

import (
	"context"

	"github.com/spezifisch/mpvrpc/schema"
)

// RegisterPlay registers play(file, subtitles?, options?). The player is
// started on demand.
func (s *Surface) RegisterPlay() {
	s.kernel.RegisterCommand("play",
		schema.Tuple(schema.String(), schema.Optional(schema.String()), schema.Optional(schema.Object(nil))),
		func(ctx context.Context, args []any) (any, error) {
			return nil, s.play(ctx, stringArg(args, 0), stringArg(args, 1), objectArg(args, 2))
		})
}

func (s *Surface) play(ctx context.Context, file string, subtitles string, options map[string]any) error {
	if s.restartOnPlay.Load() && s.player.IsRunning() {
		if err := s.player.Quit(ctx); err != nil {
			return err
		}
	}

	if !s.player.IsRunning() {
		if err := s.player.Start(ctx); err != nil {
			return err
		}
	}

	if err := s.player.Load(ctx, file, "replace", options); err != nil {
		return err
	}

	if subtitles != "" {
		return s.player.AddSubtitles(ctx, subtitles)
	}
	return nil
}
