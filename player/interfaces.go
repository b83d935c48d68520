// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package player

import "context"

// Backend is the media player process as seen by the command surface.
type Backend interface {
	IsRunning() bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Quit(ctx context.Context) error

	// Load opens file. mode is one of the loadfile modes (replace, append,
	// append-play); options are per-file option overrides.
	Load(ctx context.Context, file string, mode string, options map[string]any) error
	AddSubtitles(ctx context.Context, file string) error

	// ObserveProperty adds a property to the set reported through EventStatus.
	// Observations survive restarts of the player.
	ObserveProperty(name string) error
	GetTimePosition(ctx context.Context) (float64, error)

	GetProperty(ctx context.Context, name string) (any, error)
	SetProperty(ctx context.Context, name string, value any) error
	SetMultipleProperties(ctx context.Context, properties map[string]any) error
	AddProperty(ctx context.Context, name string, value float64) error
	MultiplyProperty(ctx context.Context, name string, value float64) error
	CycleProperty(ctx context.Context, name string) error

	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Seek(ctx context.Context, seconds float64) error
	GoToPosition(ctx context.Context, seconds float64) error
	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
	Volume(ctx context.Context, percent float64) error
	SubtitleScale(ctx context.Context, scale float64) error
	AdjustSubtitleTiming(ctx context.Context, seconds float64) error
	HideSubtitles(ctx context.Context) error
	ShowSubtitles(ctx context.Context) error
	ShowProgress(ctx context.Context) error
	PlaylistNext(ctx context.Context) error
	PlaylistPrev(ctx context.Context) error

	RegisterEventConsumer(consumer EventConsumer)
}

type EventConsumer interface {
	// create event that goes from the player backend to its consumers
	SendEvent(event Event)
}

// EventConsumerFunc adapts a function to EventConsumer.
type EventConsumerFunc func(event Event)

func (f EventConsumerFunc) SendEvent(event Event) {
	f(event)
}
