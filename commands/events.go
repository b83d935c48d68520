// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package commands

import (
	"context"

	"github.com/spezifisch/mpvrpc/player"
)

var _ player.EventConsumer = (*Surface)(nil)

// RegisterEvents declares every player event on the kernel and subscribes to
// the player.
func (s *Surface) RegisterEvents() error {
	for _, typ := range player.EventTypes() {
		s.kernel.RegisterEvent(typ.String())
	}

	s.player.RegisterEventConsumer(s)

	// not part of the default status set
	return s.player.ObserveProperty("sub-scale")
}

// SendEvent forwards a player event to the clients. Property changes are
// merged into the synchronizer first and published as the whole snapshot.
func (s *Surface) SendEvent(event player.Event) {
	var args []any

	switch event.Type {
	case player.EventStatus:
		change, ok := event.Data.(player.PropertyChange)
		if !ok {
			s.logger.Printf("commands: status event without property change: %v", event.Data)
			return
		}
		s.status.Update(change.Name, change.Value)
		args = []any{map[string]any(s.status.Peek())}

	case player.EventSeek:
		args = []any{event.Data}

	case player.EventQuit:
		s.status.Stop()

	case player.EventCrashed:
		s.status.Stop()
		if err, ok := event.Data.(error); ok {
			args = []any{err.Error()}
		}
	}

	if err := s.kernel.Emit(context.Background(), event.Type.String(), args...); err != nil {
		s.logger.PrintError("commands: emit "+event.Type.String(), err)
	}
}
