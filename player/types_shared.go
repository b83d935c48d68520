// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package player

import "fmt"

type EventType int

const (
	// playback of a new file started, data: nil
	EventStarted EventType = iota
	// playback stopped, data: nil
	EventStopped
	EventPaused
	EventResumed
	// a seek completed, data: SeekData
	EventSeek
	// an observed property changed, data: PropertyChange
	EventStatus
	// the player exited on request, data: nil
	EventQuit
	// the player exited unexpectedly, data: error or nil
	EventCrashed
)

var eventNames = [...]string{
	EventStarted: "started",
	EventStopped: "stopped",
	EventPaused:  "paused",
	EventResumed: "resumed",
	EventSeek:    "seek",
	EventStatus:  "status",
	EventQuit:    "quit",
	EventCrashed: "crashed",
}

// String returns the outbound event name.
func (t EventType) String() string {
	if t >= 0 && int(t) < len(eventNames) {
		return eventNames[t]
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// EventTypes lists every event type in declaration order.
func EventTypes() []EventType {
	types := make([]EventType, len(eventNames))
	for i := range types {
		types[i] = EventType(i)
	}
	return types
}

type Event struct {
	Type EventType
	Data interface{}
}

// PropertyChange reports one observed property using the player's own
// property name (for example "media-title").
type PropertyChange struct {
	Name  string
	Value interface{}
}

type SeekData struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}
