// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpvplayer

import (
	"context"
	"errors"

	"github.com/spezifisch/mpvrpc/player"
	"github.com/supersonic-app/go-mpv"
)

var errUnexpectedShutdown = errors.New("mpv core shut down unexpectedly")

// loopState is owned by the EventLoop goroutine of one mpv core.
type loopState struct {
	last      propertyCache
	loaded    bool
	seeking   bool
	seekStart float64
}

func (p *Player) mpvEngineEventHandler(instance *mpv.Mpv, events chan<- *mpv.Event) {
	defer close(events)
	for {
		evt := instance.WaitEvent(1)
		if evt == nil {
			continue
		}
		events <- evt
		if evt.Event_Id == mpv.EVENT_SHUTDOWN {
			return
		}
	}
}

// EventLoop translates the events of one mpv core into player events until
// the core shuts down, then releases the core.
func (p *Player) EventLoop(instance *mpv.Mpv, events <-chan *mpv.Event, done chan<- struct{}) {
	state := loopState{last: make(propertyCache)}

	for evt := range events {
		switch evt.Event_Id {
		case mpv.EVENT_PROPERTY_CHANGE:
			// the changed property is not decoded, poll every observed one
			// and report what differs
			p.pollProperties(instance, &state, false)

		case mpv.EVENT_START_FILE:
			state.loaded = true
			p.sendEvent(player.EventStarted, nil)

		case mpv.EVENT_FILE_LOADED:
			p.pollProperties(instance, &state, true)
			p.sendPosition(instance)

		case mpv.EVENT_IDLE:
			if state.loaded {
				state.loaded = false
				p.sendEvent(player.EventStopped, nil)
			}

		case mpv.EVENT_SEEK:
			if position, err := getPropertyFloat(instance, "time-pos"); err == nil {
				state.seekStart = position
			}
			state.seeking = true

		case mpv.EVENT_PLAYBACK_RESTART:
			if !state.seeking {
				continue
			}
			state.seeking = false
			end, err := getPropertyFloat(instance, "time-pos")
			if err != nil {
				p.logger.PrintError("mpv.EventLoop: seek end", err)
				continue
			}
			p.sendEvent(player.EventSeek, player.SeekData{Start: state.seekStart, End: end})
			p.sendEvent(player.EventStatus, player.PropertyChange{Name: "time-pos", Value: end})

		case mpv.EVENT_SHUTDOWN, mpv.EVENT_END_FILE, mpv.EVENT_NONE:
			continue

		default:
			p.logger.Printf("mpv.EventLoop: unhandled event id %v", evt.Event_Id)
		}
	}

	instance.TerminateDestroy()
	p.shutdown(state.loaded)
	close(done)
}

func (p *Player) pollProperties(instance *mpv.Mpv, state *loopState, resend bool) {
	p.mu.Lock()
	observed := make([]string, len(p.observed))
	copy(observed, p.observed)
	p.mu.Unlock()

	read := func(name string) interface{} {
		value, err := instance.GetProperty(name, formatOf(name))
		if err != nil {
			// unavailable, e.g. no file loaded
			return nil
		}
		return normalizeValue(value)
	}

	for _, report := range state.last.collect(observed, read, resend) {
		p.sendEvent(player.EventStatus, player.PropertyChange{Name: report.name, Value: report.value})

		if paused, ok := report.value.(bool); ok && report.name == "pause" && report.changed {
			if paused {
				p.sendEvent(player.EventPaused, nil)
			} else {
				p.sendEvent(player.EventResumed, nil)
			}
		}
	}
}

// sendPosition reports the position once per file; it is not observed
// since it changes on every frame.
func (p *Player) sendPosition(instance *mpv.Mpv) {
	position, err := getPropertyFloat(instance, "time-pos")
	if err != nil {
		position = 0
	}
	p.sendEvent(player.EventStatus, player.PropertyChange{Name: "time-pos", Value: position})
}

func (p *Player) shutdown(wasLoaded bool) {
	p.mu.Lock()
	requested := p.quitting
	p.instance = nil
	p.quitting = false
	p.mu.Unlock()

	if wasLoaded {
		p.sendEvent(player.EventStopped, nil)
	}

	if requested {
		p.logger.Print("mpv.EventLoop: mpv quit")
		p.sendEvent(player.EventQuit, nil)
		return
	}

	p.logger.PrintError("mpv.EventLoop", errUnexpectedShutdown)
	p.sendEvent(player.EventCrashed, errUnexpectedShutdown)

	if p.options.AutoRestart {
		if err := p.Start(context.Background()); err != nil {
			p.logger.PrintError("mpv.EventLoop: restart", err)
		}
	}
}

func (p *Player) sendEvent(typ player.EventType, data interface{}) {
	p.mu.Lock()
	consumer := p.eventConsumer
	p.mu.Unlock()

	if consumer != nil {
		consumer.SendEvent(player.Event{
			Type: typ,
			Data: data,
		})
	}
}
