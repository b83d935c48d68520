// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpvplayer

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/spezifisch/mpvrpc/logger"
	"github.com/spezifisch/mpvrpc/player"
	"github.com/supersonic-app/go-mpv"
)

var _ player.Backend = (*Player)(nil)

// DefaultObserved are the properties every player reports through status
// events.
var DefaultObserved = []string{
	"mute",
	"pause",
	"duration",
	"volume",
	"filename",
	"path",
	"media-title",
	"playlist-pos",
	"playlist-count",
	"loop",
	"sub-visibility",
	"fullscreen",
}

type Options struct {
	// Monitor selects the screen for windowed and fullscreen playback.
	Monitor     *int
	OnTop       bool
	Fullscreen  bool
	AutoRestart bool
}

type Player struct {
	options Options
	logger  logger.LoggerInterface

	mu            sync.Mutex
	instance      *mpv.Mpv
	done          chan struct{}
	quitting      bool
	observed      []string
	eventConsumer player.EventConsumer
}

// NewPlayer prepares a player. The mpv core is only created by Start.
func NewPlayer(options Options, logger logger.LoggerInterface) *Player {
	observed := make([]string, len(DefaultObserved))
	copy(observed, DefaultObserved)

	return &Player{
		options:  options,
		logger:   logger,
		observed: observed,
	}
}

func (p *Player) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instance != nil
}

func (p *Player) RegisterEventConsumer(consumer player.EventConsumer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventConsumer = consumer
}

func (p *Player) Start(ctx context.Context) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.instance != nil {
		return nil
	}

	instance := mpv.Create()
	for _, option := range p.startupOptions() {
		if err = instance.SetOptionString(option[0], option[1]); err != nil {
			instance.TerminateDestroy()
			return player.NewBackendError("Start", player.CodeInitFailed, err)
		}
	}
	if err = instance.Initialize(); err != nil {
		instance.TerminateDestroy()
		return player.NewBackendError("Start", player.CodeInitFailed, err)
	}

	// observations outlive the mpv core, replay them on every start
	for _, name := range p.observed {
		if err := instance.ObserveProperty(0, name, formatOf(name)); err != nil {
			p.logger.PrintError("Start: ObserveProperty "+name, err)
		}
	}

	p.instance = instance
	p.done = make(chan struct{})
	p.quitting = false

	events := make(chan *mpv.Event)
	go p.mpvEngineEventHandler(instance, events)
	go p.EventLoop(instance, events, p.done)

	p.logger.Print("mpv started")
	return nil
}

func (p *Player) startupOptions() [][2]string {
	options := [][2]string{
		{"player-operation-mode", "pseudo-gui"},
		{"force-window", "yes"},
		{"idle", "yes"},
		{"input-default-bindings", "yes"},
		{"input-vo-keyboard", "yes"},
	}
	if p.options.Monitor != nil {
		screen := strconv.Itoa(*p.options.Monitor)
		options = append(options, [2]string{"screen", screen}, [2]string{"fs-screen", screen})
	}
	if p.options.OnTop {
		options = append(options, [2]string{"ontop", "yes"})
	}
	if p.options.Fullscreen {
		options = append(options, [2]string{"fs", "yes"})
	}
	return options
}

// Quit shuts the mpv core down and waits until the event loop released it.
func (p *Player) Quit(ctx context.Context) error {
	p.mu.Lock()
	instance, done := p.instance, p.done
	if instance == nil {
		p.mu.Unlock()
		return nil
	}
	p.quitting = true
	p.mu.Unlock()

	if err := instance.Command([]string{"quit"}); err != nil {
		return player.NewBackendError("Quit", player.CodeCommandFailed, err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Player) Stop(ctx context.Context) error {
	return p.command("Stop", "stop")
}

func (p *Player) Load(ctx context.Context, file string, mode string, options map[string]any) error {
	if mode == "" {
		mode = "replace"
	}
	args := []string{"loadfile", file, mode}
	if len(options) > 0 {
		// mpv >= 0.38 takes an insertion index before the per-file options
		args = append(args, "-1", formatLoadOptions(options))
	}
	return p.command("Load", args...)
}

func (p *Player) AddSubtitles(ctx context.Context, file string) error {
	return p.command("AddSubtitles", "sub-add", file, "select")
}

// ObserveProperty registers name for status events. It is applied at once
// when the player is running and replayed on every later start.
func (p *Player) ObserveProperty(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, known := range p.observed {
		if known == name {
			return nil
		}
	}
	p.observed = append(p.observed, name)

	if p.instance == nil {
		return nil
	}
	if err := p.instance.ObserveProperty(0, name, formatOf(name)); err != nil {
		return player.NewBackendError("ObserveProperty", player.CodePropertyFailed, err)
	}
	return nil
}

func (p *Player) GetTimePosition(ctx context.Context) (float64, error) {
	instance, err := p.running("GetTimePosition")
	if err != nil {
		return 0, err
	}
	position, err := getPropertyFloat(instance, "time-pos")
	if err != nil {
		return 0, player.NewBackendError("GetTimePosition", player.CodePropertyFailed, err)
	}
	return position, nil
}

func (p *Player) GetProperty(ctx context.Context, name string) (any, error) {
	instance, err := p.running("GetProperty")
	if err != nil {
		return nil, err
	}
	value, err := instance.GetProperty(name, formatOf(name))
	if err != nil {
		return nil, player.NewBackendError("GetProperty", player.CodePropertyFailed, err)
	}
	return normalizeValue(value), nil
}

func (p *Player) SetProperty(ctx context.Context, name string, value any) error {
	instance, err := p.running("SetProperty")
	if err != nil {
		return err
	}
	format, data, typed := typedValue(value)
	if typed {
		err = instance.SetProperty(name, format, data)
	} else {
		err = instance.Command([]string{"set", name, formatValue(value)})
	}
	if err != nil {
		return player.NewBackendError("SetProperty", player.CodePropertyFailed, err)
	}
	return nil
}

func (p *Player) SetMultipleProperties(ctx context.Context, properties map[string]any) error {
	for _, name := range sortedNames(properties) {
		if err := p.SetProperty(ctx, name, properties[name]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) AddProperty(ctx context.Context, name string, value float64) error {
	return p.command("AddProperty", "add", name, formatFloat(value))
}

func (p *Player) MultiplyProperty(ctx context.Context, name string, value float64) error {
	return p.command("MultiplyProperty", "multiply", name, formatFloat(value))
}

func (p *Player) CycleProperty(ctx context.Context, name string) error {
	return p.command("CycleProperty", "cycle", name)
}

func (p *Player) Pause(ctx context.Context) error {
	return p.SetProperty(ctx, "pause", true)
}

func (p *Player) Resume(ctx context.Context) error {
	return p.SetProperty(ctx, "pause", false)
}

func (p *Player) Seek(ctx context.Context, seconds float64) error {
	return p.command("Seek", "seek", formatFloat(seconds), "relative")
}

func (p *Player) GoToPosition(ctx context.Context, seconds float64) error {
	return p.command("GoToPosition", "seek", formatFloat(seconds), "absolute")
}

func (p *Player) Mute(ctx context.Context) error {
	return p.SetProperty(ctx, "mute", true)
}

func (p *Player) Unmute(ctx context.Context) error {
	return p.SetProperty(ctx, "mute", false)
}

func (p *Player) Volume(ctx context.Context, percent float64) error {
	if percent > 100 {
		percent = 100
	} else if percent < 0 {
		percent = 0
	}
	return p.SetProperty(ctx, "volume", percent)
}

func (p *Player) SubtitleScale(ctx context.Context, scale float64) error {
	return p.SetProperty(ctx, "sub-scale", scale)
}

func (p *Player) AdjustSubtitleTiming(ctx context.Context, seconds float64) error {
	return p.SetProperty(ctx, "sub-delay", seconds)
}

func (p *Player) HideSubtitles(ctx context.Context) error {
	return p.SetProperty(ctx, "sub-visibility", false)
}

func (p *Player) ShowSubtitles(ctx context.Context) error {
	return p.SetProperty(ctx, "sub-visibility", true)
}

func (p *Player) ShowProgress(ctx context.Context) error {
	return p.command("ShowProgress", "show-progress")
}

func (p *Player) PlaylistNext(ctx context.Context) error {
	return p.command("PlaylistNext", "playlist-next")
}

func (p *Player) PlaylistPrev(ctx context.Context) error {
	return p.command("PlaylistPrev", "playlist-prev")
}

func (p *Player) running(method string) (*mpv.Mpv, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.instance == nil {
		return nil, player.NewBackendError(method, player.CodeNotRunning, player.ErrNotRunning)
	}
	return p.instance, nil
}

func (p *Player) command(method string, args ...string) error {
	instance, err := p.running(method)
	if err != nil {
		return err
	}
	if err := instance.Command(args); err != nil {
		return player.NewBackendError(method, player.CodeCommandFailed, fmt.Errorf("%s: %w", args[0], err))
	}
	return nil
}
