// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package commands

import (
	"context"

	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/schema"
)

// call adapts a backend method without result to a kernel handler.
func call(fn func(ctx context.Context, args []any) error) kernel.Handler {
	return func(ctx context.Context, args []any) (any, error) {
		return nil, fn(ctx, args)
	}
}

// RegisterNative exposes the player methods that map one to one onto
// commands.
func (s *Surface) RegisterNative() {
	p := s.player
	k := s.kernel

	k.RegisterCommand("load", schema.Tuple(schema.String(), schema.Optional(schema.String()), schema.Optional(schema.Object(nil))),
		call(func(ctx context.Context, args []any) error {
			return p.Load(ctx, stringArg(args, 0), stringArg(args, 1), objectArg(args, 2))
		}))
	k.RegisterCommand("stop", schema.Tuple(), call(s.stop))
	k.RegisterCommand("pause", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		return p.Pause(ctx)
	}))
	k.RegisterCommand("resume", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		return p.Resume(ctx)
	}))
	k.RegisterCommand("seek", schema.Tuple(schema.Number()), call(func(ctx context.Context, args []any) error {
		return p.Seek(ctx, numberArg(args, 0))
	}))
	k.RegisterCommand("goToPosition", schema.Tuple(schema.Number()), call(func(ctx context.Context, args []any) error {
		return p.GoToPosition(ctx, numberArg(args, 0))
	}))
	k.RegisterCommand("mute", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		return p.Mute(ctx)
	}))
	k.RegisterCommand("unmute", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		return p.Unmute(ctx)
	}))
	k.RegisterCommand("volume", schema.Tuple(schema.Number()), call(func(ctx context.Context, args []any) error {
		return p.Volume(ctx, numberArg(args, 0))
	}))

	k.RegisterCommand("setProperty", schema.Tuple(schema.String(), schema.Any()), call(func(ctx context.Context, args []any) error {
		return p.SetProperty(ctx, stringArg(args, 0), anyArg(args, 1))
	}))
	k.RegisterCommand("setMultipleProperties", schema.Tuple(schema.Object(nil)), call(func(ctx context.Context, args []any) error {
		return p.SetMultipleProperties(ctx, objectArg(args, 0))
	}))
	k.RegisterCommand("getProperty", schema.Tuple(schema.String()), func(ctx context.Context, args []any) (any, error) {
		return p.GetProperty(ctx, stringArg(args, 0))
	})
	k.RegisterCommand("addProperty", schema.Tuple(schema.String(), schema.Number()), call(func(ctx context.Context, args []any) error {
		return p.AddProperty(ctx, stringArg(args, 0), numberArg(args, 1))
	}))
	k.RegisterCommand("multiplyProperty", schema.Tuple(schema.String(), schema.Number()), call(func(ctx context.Context, args []any) error {
		return p.MultiplyProperty(ctx, stringArg(args, 0), numberArg(args, 1))
	}))
	k.RegisterCommand("cycleProperty", schema.Tuple(schema.String()), call(func(ctx context.Context, args []any) error {
		return p.CycleProperty(ctx, stringArg(args, 0))
	}))

	k.RegisterCommand("subtitleScale", schema.Tuple(schema.Number()), call(func(ctx context.Context, args []any) error {
		return p.SubtitleScale(ctx, numberArg(args, 0))
	}))
	k.RegisterCommand("adjustSubtitleTiming", schema.Tuple(schema.Number()), call(func(ctx context.Context, args []any) error {
		return p.AdjustSubtitleTiming(ctx, numberArg(args, 0))
	}))
	k.RegisterCommand("hideSubtitles", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		return p.HideSubtitles(ctx)
	}))
	k.RegisterCommand("showSubtitles", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		return p.ShowSubtitles(ctx)
	}))

	k.RegisterCommand("showProgress", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		return p.ShowProgress(ctx)
	}))
	k.RegisterCommand("playlistNext", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		return p.PlaylistNext(ctx)
	}))
	k.RegisterCommand("playlistPrev", schema.Tuple(), call(func(ctx context.Context, args []any) error {
		return p.PlaylistPrev(ctx)
	}))
}

// stop only reaches the player while media is loaded.
func (s *Surface) stop(ctx context.Context, args []any) error {
	snapshot, err := s.status.Get(ctx)
	if err != nil {
		return err
	}
	if _, loaded := snapshot.Path(); !loaded {
		return nil
	}
	return s.player.Stop(ctx)
}
