// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package remote exposes the player on the D-Bus session bus as an MPRIS2
// media player. Every MPRIS method is dispatched through the kernel, so it is
// validated, hooked and logged like a call from a network client.
package remote

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/logger"
	"github.com/spezifisch/mpvrpc/player"
	"github.com/spezifisch/mpvrpc/status"
)

const (
	objectPath  = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	rootIface   = "org.mpris.MediaPlayer2"
	playerIface = "org.mpris.MediaPlayer2.Player"
	busName     = "org.mpris.MediaPlayer2.mpvrpc"

	callTimeout = 10 * time.Second
)

var ErrNameTaken = errors.New("name already owned")

// propertySetter is the part of *prop.Properties used after export.
type propertySetter interface {
	SetMust(iface, property string, v interface{})
}

type MprisPlayer struct {
	dbus       *dbus.Conn
	dispatcher Dispatcher
	logger     logger.LoggerInterface

	props propertySetter
	emit  func(name string, values ...interface{}) error

	mu   sync.Mutex
	last status.Snapshot
}

func newMprisPlayer(dispatcher Dispatcher, logger_ logger.LoggerInterface) *MprisPlayer {
	return &MprisPlayer{
		dispatcher: dispatcher,
		logger:     logger_,
		last:       status.Defaults(),
	}
}

// RegisterMprisPlayer connects to the session bus and claims the MPRIS name
// of this server.
func RegisterMprisPlayer(dispatcher Dispatcher, logger_ logger.LoggerInterface) (mpp *MprisPlayer, err error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return
	}

	mpp = newMprisPlayer(dispatcher, logger_)
	mpp.dbus = conn
	mpp.emit = func(name string, values ...interface{}) error {
		return conn.Emit(objectPath, name, values...)
	}

	defer func() {
		if err != nil {
			_ = conn.Close()
			mpp = nil
		}
	}()

	playerObj := &playerObject{mpp}
	root := &rootObject{mpp}
	if err = conn.ExportAll(playerObj, objectPath, playerIface); err != nil {
		return
	}
	if err = conn.ExportAll(root, objectPath, rootIface); err != nil {
		return
	}

	snapshot := status.Defaults()
	var mprisPlayer = map[string]*prop.Prop{
		"CanControl":     {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanGoNext":      {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanGoPrevious":  {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanPause":       {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanPlay":        {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanSeek":        {Value: true, Writable: false, Emit: prop.EmitFalse},
		"Metadata":       {Value: Metadata(snapshot), Writable: false, Emit: prop.EmitTrue},
		"PlaybackStatus": {Value: PlaybackStatus(snapshot), Writable: false, Emit: prop.EmitTrue},
		"Position":       {Value: Position(snapshot), Writable: false, Emit: prop.EmitFalse},
		"Volume":         {Value: Volume(snapshot), Writable: true, Emit: prop.EmitTrue, Callback: mpp.volumeChange},
		"Rate":           {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
		"MinimumRate":    {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
		"MaximumRate":    {Value: 1.0, Writable: false, Emit: prop.EmitFalse},
	}

	var mediaPlayer = map[string]*prop.Prop{
		"CanQuit":             {Value: true, Writable: false, Emit: prop.EmitFalse},
		"CanRaise":            {Value: false, Writable: false, Emit: prop.EmitFalse},
		"HasTrackList":        {Value: false, Writable: false, Emit: prop.EmitFalse},
		"Identity":            {Value: "mpvrpc", Writable: false, Emit: prop.EmitFalse},
		"SupportedUriSchemes": {Value: []string{"file", "http", "https"}, Writable: false, Emit: prop.EmitFalse},
		"SupportedMimeTypes":  {Value: []string{}, Writable: false, Emit: prop.EmitFalse},
	}

	props, err := prop.Export(conn, objectPath, prop.Map{
		rootIface:   mediaPlayer,
		playerIface: mprisPlayer,
	})
	if err != nil {
		return
	}
	mpp.props = props

	n := &introspect.Node{
		Name: string(objectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       rootIface,
				Methods:    introspect.Methods(root),
				Properties: props.Introspection(rootIface),
			},
			{
				Name:       playerIface,
				Methods:    introspect.Methods(playerObj),
				Properties: props.Introspection(playerIface),
				Signals: []introspect.Signal{{
					Name: "Seeked",
					Args: []introspect.Arg{{Name: "Position", Type: "x"}},
				}},
			},
		},
	}
	err = conn.Export(introspect.NewIntrospectable(n), objectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		return
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		err = ErrNameTaken
		return
	}
	return
}

// Attach follows the status and seek events of k.
func (m *MprisPlayer) Attach(k *kernel.Kernel) {
	k.RegisterEventPostHook(player.EventStatus.String(), func(ctx context.Context, inv *kernel.Invocation) error {
		if len(inv.Args) == 0 {
			return nil
		}
		if snapshot, ok := inv.Args[0].(map[string]any); ok {
			m.OnStatus(snapshot)
		}
		return nil
	})
	k.RegisterEventPostHook(player.EventSeek.String(), func(ctx context.Context, inv *kernel.Invocation) error {
		if len(inv.Args) == 0 {
			return nil
		}
		if seek, ok := inv.Args[0].(player.SeekData); ok {
			return m.OnSeek(seek)
		}
		return nil
	})
}

func (m *MprisPlayer) Close() {
	if m.dbus == nil {
		return
	}
	if err := m.dbus.Close(); err != nil {
		m.logger.PrintError("mpris Close", err)
	}
}

// OnStatus publishes a status snapshot as MPRIS properties.
func (m *MprisPlayer) OnStatus(snapshot status.Snapshot) {
	m.mu.Lock()
	m.last = snapshot.Clone()
	m.mu.Unlock()

	m.setProperty("PlaybackStatus", PlaybackStatus(snapshot))
	m.setProperty("Metadata", Metadata(snapshot))
	m.setProperty("Volume", Volume(snapshot))
	m.setProperty("Position", Position(snapshot))
}

// OnSeek tells MPRIS clients that the position jumped.
func (m *MprisPlayer) OnSeek(seek player.SeekData) error {
	position := microseconds(seek.End)
	m.setProperty("Position", position)
	if m.emit == nil {
		return nil
	}
	return m.emit(playerIface+".Seeked", position)
}

func (m *MprisPlayer) snapshot() status.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.Clone()
}

// setProperty stores a value without letting a failing emission take the
// event loop down.
func (m *MprisPlayer) setProperty(name string, value interface{}) {
	if m.props == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("mpris: set %s: %v", name, r)
		}
	}()
	m.props.SetMust(playerIface, name, value)
}

func (m *MprisPlayer) call(name string, args ...any) *dbus.Error {
	if args == nil {
		args = []any{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	if _, err := m.dispatcher.Call(ctx, name, args); err != nil {
		m.logger.PrintError("mpris "+name, err)
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (m *MprisPlayer) volumeChange(c *prop.Change) *dbus.Error {
	fVol, ok := c.Value.(float64)
	if !ok {
		return prop.ErrInvalidArg
	}
	if fVol < 0 {
		fVol = 0
	}

	// convert to %
	percentVol := fVol * 100
	m.logger.Printf("mpris: adjust volume %f -> %.0f%%", fVol, percentVol)
	return m.call("volume", percentVol)
}

// playerObject carries the org.mpris.MediaPlayer2.Player methods. It is kept
// apart from MprisPlayer so only these are exported on the bus.
type playerObject struct {
	m *MprisPlayer
}

func (p *playerObject) Next() *dbus.Error {
	return p.m.call("playlistNext")
}

func (p *playerObject) Previous() *dbus.Error {
	return p.m.call("playlistPrev")
}

// set paused
func (p *playerObject) Pause() *dbus.Error {
	return p.m.call("pause")
}

// set playing
func (p *playerObject) Play() *dbus.Error {
	return p.m.call("resume")
}

func (p *playerObject) PlayPause() *dbus.Error {
	if PlaybackStatus(p.m.snapshot()) == "Playing" {
		return p.m.call("pause")
	}
	return p.m.call("resume")
}

func (p *playerObject) Stop() *dbus.Error {
	return p.m.call("stop")
}

// Seek moves by offset microseconds.
func (p *playerObject) Seek(offset int64) *dbus.Error {
	return p.m.call("seek", float64(offset)/1e6)
}

// SetPosition is ignored unless trackID names the current media.
func (p *playerObject) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	snapshot := p.m.snapshot()
	if trackID != TrackID(snapshot) || position < 0 {
		return nil
	}
	return p.m.call("goToPosition", float64(position)/1e6)
}

func (p *playerObject) OpenUri(uri string) *dbus.Error {
	return p.m.call("play", uri)
}

// rootObject carries the org.mpris.MediaPlayer2 methods.
type rootObject struct {
	m *MprisPlayer
}

// Raise is a no-op: the mpv window is not ours to focus.
func (r *rootObject) Raise() *dbus.Error {
	return nil
}

func (r *rootObject) Quit() *dbus.Error {
	return r.m.call("quit")
}
