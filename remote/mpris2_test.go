// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/logger"
	"github.com/spezifisch/mpvrpc/player"
	"github.com/spezifisch/mpvrpc/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (d *fakeDispatcher) Call(ctx context.Context, name string, args []any) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	call := name
	for _, arg := range args {
		call += fmt.Sprintf(" %v", arg)
	}
	d.calls = append(d.calls, call)
	return nil, d.err
}

type fakeProps struct {
	values map[string]interface{}
}

func (p *fakeProps) SetMust(iface, property string, v interface{}) {
	if iface != playerIface {
		panic("unexpected interface " + iface)
	}
	p.values[property] = v
}

type signal struct {
	name   string
	values []interface{}
}

func newTestPlayer() (*MprisPlayer, *fakeDispatcher, *fakeProps, *[]signal) {
	dispatcher := &fakeDispatcher{}
	props := &fakeProps{values: make(map[string]interface{})}
	signals := &[]signal{}

	mpp := newMprisPlayer(dispatcher, &logger.Logger{})
	mpp.props = props
	mpp.emit = func(name string, values ...interface{}) error {
		*signals = append(*signals, signal{name, values})
		return nil
	}
	return mpp, dispatcher, props, signals
}

func playing() status.Snapshot {
	snapshot := status.Defaults()
	snapshot["path"] = "/media/a.mkv"
	snapshot["filename"] = "a.mkv"
	snapshot["mediaTitle"] = "A Movie"
	snapshot["duration"] = 90.5
	snapshot["position"] = 1.25
	snapshot["volume"] = 40.0
	return snapshot
}

func TestPlaybackStatus(t *testing.T) {
	assert.Equal(t, "Stopped", PlaybackStatus(status.Defaults()))

	snapshot := playing()
	assert.Equal(t, "Playing", PlaybackStatus(snapshot))

	snapshot["pause"] = true
	assert.Equal(t, "Paused", PlaybackStatus(snapshot))
}

func TestMetadata(t *testing.T) {
	metadata := Metadata(status.Defaults())
	assert.Equal(t, map[string]dbus.Variant{"mpris:trackid": dbus.MakeVariant(noTrack)}, metadata)

	snapshot := playing()
	metadata = Metadata(snapshot)
	assert.Equal(t, int64(90500000), metadata["mpris:length"].Value())
	assert.Equal(t, "A Movie", metadata["xesam:title"].Value())
	assert.Equal(t, "/media/a.mkv", metadata["xesam:url"].Value())

	trackID := metadata["mpris:trackid"].Value().(dbus.ObjectPath)
	assert.True(t, trackID.IsValid())
	assert.Equal(t, TrackID(snapshot), trackID)
	assert.NotEqual(t, noTrack, trackID)

	snapshot["mediaTitle"] = nil
	assert.Equal(t, "a.mkv", Metadata(snapshot)["xesam:title"].Value(), "falls back to the file name")
}

func TestVolumeAndPosition(t *testing.T) {
	snapshot := playing()
	assert.InDelta(t, 0.4, Volume(snapshot), 1e-9)
	assert.Equal(t, int64(1250000), Position(snapshot))

	snapshot["volume"] = nil
	snapshot["position"] = "later"
	assert.Equal(t, 0.0, Volume(snapshot))
	assert.Equal(t, int64(0), Position(snapshot))
}

func TestPlayerMethodsDispatch(t *testing.T) {
	mpp, dispatcher, _, _ := newTestPlayer()
	p := &playerObject{mpp}
	r := &rootObject{mpp}

	assert.Nil(t, p.Play())
	assert.Nil(t, p.Pause())
	assert.Nil(t, p.Stop())
	assert.Nil(t, p.Next())
	assert.Nil(t, p.Previous())
	assert.Nil(t, p.Seek(-2500000))
	assert.Nil(t, p.OpenUri("file:///media/b.mkv"))
	assert.Nil(t, r.Raise())
	assert.Nil(t, r.Quit())

	assert.Equal(t, []string{
		"resume",
		"pause",
		"stop",
		"playlistNext",
		"playlistPrev",
		"seek -2.5",
		"play file:///media/b.mkv",
		"quit",
	}, dispatcher.calls)
}

func TestPlayPauseFollowsStatus(t *testing.T) {
	mpp, dispatcher, _, _ := newTestPlayer()
	p := &playerObject{mpp}

	assert.Nil(t, p.PlayPause())

	mpp.OnStatus(playing())
	assert.Nil(t, p.PlayPause())

	assert.Equal(t, []string{"resume", "pause"}, dispatcher.calls)
}

func TestSetPositionChecksTrack(t *testing.T) {
	mpp, dispatcher, _, _ := newTestPlayer()
	p := &playerObject{mpp}
	snapshot := playing()
	mpp.OnStatus(snapshot)

	assert.Nil(t, p.SetPosition(noTrack, 1000000))
	assert.Nil(t, p.SetPosition(TrackID(snapshot), -1))
	assert.Nil(t, p.SetPosition(TrackID(snapshot), 30000000))

	assert.Equal(t, []string{"goToPosition 30"}, dispatcher.calls)
}

func TestDispatchFailure(t *testing.T) {
	mpp, dispatcher, _, _ := newTestPlayer()
	dispatcher.err = errors.New("player is not running")

	dbusErr := (&playerObject{mpp}).Pause()
	require.NotNil(t, dbusErr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", dbusErr.Name)
	assert.Equal(t, []interface{}{"player is not running"}, dbusErr.Body)
}

func TestVolumeChange(t *testing.T) {
	mpp, dispatcher, _, _ := newTestPlayer()

	assert.Nil(t, mpp.volumeChange(&prop.Change{Iface: playerIface, Name: "Volume", Value: 0.25}))
	assert.Nil(t, mpp.volumeChange(&prop.Change{Iface: playerIface, Name: "Volume", Value: -1.0}))
	assert.Equal(t, prop.ErrInvalidArg, mpp.volumeChange(&prop.Change{Iface: playerIface, Name: "Volume", Value: "loud"}))

	assert.Equal(t, []string{"volume 25", "volume 0"}, dispatcher.calls)
}

func TestOnStatusSetsProperties(t *testing.T) {
	mpp, _, props, _ := newTestPlayer()
	snapshot := playing()
	mpp.OnStatus(snapshot)

	assert.Equal(t, "Playing", props.values["PlaybackStatus"])
	assert.Equal(t, Metadata(snapshot), props.values["Metadata"])
	assert.InDelta(t, 0.4, props.values["Volume"], 1e-9)
	assert.Equal(t, int64(1250000), props.values["Position"])
}

func TestSetPropertySurvivesPanic(t *testing.T) {
	mpp, _, _, _ := newTestPlayer()
	mpp.props = panickingProps{}
	assert.NotPanics(t, func() { mpp.OnStatus(playing()) })
}

type panickingProps struct{}

func (panickingProps) SetMust(iface, property string, v interface{}) {
	panic("emit failed")
}

func TestAttach(t *testing.T) {
	mpp, _, props, signals := newTestPlayer()
	k := kernel.New(nil, &logger.Logger{})
	k.RegisterEvent(player.EventStatus.String())
	k.RegisterEvent(player.EventSeek.String())
	mpp.Attach(k)

	require.NoError(t, k.Emit(context.Background(), "status", map[string]any(playing())))
	assert.Equal(t, "Playing", props.values["PlaybackStatus"])

	require.NoError(t, k.Emit(context.Background(), "seek", player.SeekData{Start: 1, End: 12.5}))
	assert.Equal(t, int64(12500000), props.values["Position"])
	require.Len(t, *signals, 1)
	assert.Equal(t, signal{playerIface + ".Seeked", []interface{}{int64(12500000)}}, (*signals)[0])
}
