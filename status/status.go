// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package status keeps the last known player state and reconciles the
// asynchronous, per-property notifications of the player into it.
//
// Starting playback clears the keys describing the current media and arms a
// one-shot waiter. A status query issued meanwhile blocks until every
// required key was reported again, playback stopped, or its bound elapsed,
// so it never answers with the metadata of the previous file.
package status

import (
	"context"
	"sync"
	"time"

	"github.com/spezifisch/mpvrpc/logger"
)

const DefaultTimeout = 5000 * time.Millisecond

// RequiredKeys must all be present before a snapshot is fresh again after
// playback started.
var RequiredKeys = []string{
	"duration",
	"position",
	"filename",
	"path",
	"mediaTitle",
	"playlistPos",
	"playlistCount",
}

type Snapshot map[string]any

// Defaults is the snapshot before the player reported anything.
func Defaults() Snapshot {
	return Snapshot{
		"mute":          false,
		"pause":         false,
		"duration":      0.0,
		"position":      0.0,
		"volume":        100.0,
		"filename":      nil,
		"path":          nil,
		"mediaTitle":    nil,
		"playlistPos":   0.0,
		"playlistCount": 0.0,
		"loop":          "no",
		"subVisibility": true,
		"subScale":      1.0,
		"fullscreen":    false,
	}
}

func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Path returns the path of the loaded media, if any.
func (s Snapshot) Path() (string, bool) {
	path, ok := s["path"].(string)
	return path, ok && path != ""
}

// complete reports whether every required key holds a value. A nil value is
// the player saying the property is unavailable, which happens while the
// previous file unloads, so it does not count.
func (s Snapshot) complete() bool {
	for _, key := range RequiredKeys {
		if s[key] == nil {
			return false
		}
	}
	return true
}

type State int

const (
	// nothing was reported since start up
	StateStale State = iota
	// playback started, waiting for the required keys
	StatePending
	StateFresh
	// no media loaded
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStale:
		return "stale"
	case StatePending:
		return "pending"
	case StateFresh:
		return "fresh"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// PositionSource is the part of the player the synchronizer queries
// directly, since the position changes too often to be pushed eagerly.
type PositionSource interface {
	IsRunning() bool
	GetTimePosition(ctx context.Context) (float64, error)
}

// waiter is closed once, when the snapshot converged.
type waiter struct {
	done chan struct{}
}

type Synchronizer struct {
	source  PositionSource
	logger  logger.LoggerInterface
	timeout time.Duration

	mu       sync.Mutex
	snapshot Snapshot
	waiter   *waiter
	state    State
}

type Option func(*Synchronizer)

// WithDefaultTimeout sets the bound used by Get when the caller gives none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Synchronizer) { s.timeout = d }
}

func New(source PositionSource, logger_ logger.LoggerInterface, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		source:   source,
		logger:   logger_,
		timeout:  DefaultTimeout,
		snapshot: Defaults(),
		state:    StateStale,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// resolve settles the pending waiter, if any. Callers hold s.mu.
func (s *Synchronizer) resolve() {
	if s.waiter == nil {
		return
	}
	close(s.waiter.done)
	s.waiter = nil
}

// Play marks the start of a playback session: the required keys are dropped
// and a new waiter replaces any previous one. A replaced waiter is abandoned,
// not resolved; its callers fall back on their own bound.
func (s *Synchronizer) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range RequiredKeys {
		delete(s.snapshot, key)
	}
	s.waiter = &waiter{done: make(chan struct{})}
	s.state = StatePending
}

// Stop clears the loaded media and resolves a pending waiter: no media is an
// answerable state too. Calling it when nothing is loaded is a no-op.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot["path"] = nil
	s.snapshot["filename"] = nil
	s.state = StateStopped
	s.resolve()
}

// Update merges one property, named the way the player names it.
func (s *Synchronizer) Update(property string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update(property, value)
}

// UpdateAll merges several properties at once.
func (s *Synchronizer) UpdateAll(properties map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for property, value := range properties {
		s.update(property, value)
	}
}

func (s *Synchronizer) update(property string, value any) {
	s.snapshot[Key(property)] = value

	if s.waiter != nil {
		if s.snapshot.complete() {
			s.state = StateFresh
			s.resolve()
		}
		return
	}
	switch s.state {
	case StateStale:
		s.state = StateFresh
	case StateStopped:
		// media loaded without play, e.g. through a native load
		if _, loaded := s.snapshot.Path(); loaded {
			s.state = StateFresh
		}
	}
}

// Peek returns a copy of the current snapshot without waiting.
func (s *Synchronizer) Peek() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

type getConfig struct {
	timeout  time.Duration
	fallback bool
}

type GetOption func(*getConfig)

// WithTimeout bounds the convergence wait of one Get call.
func WithTimeout(d time.Duration) GetOption {
	return func(c *getConfig) { c.timeout = d }
}

// WithoutFallback makes Get fail with a TimeoutError when the bound elapses,
// instead of answering with the partial snapshot.
func WithoutFallback() GetOption {
	return func(c *getConfig) { c.fallback = false }
}

// Get returns the snapshot once it is fresh. While playback is starting it
// waits for the pending waiter, at most for the configured bound. With media
// loaded the position is refreshed from the player before returning; a player
// that is no longer running counts as stopped.
func (s *Synchronizer) Get(ctx context.Context, opts ...GetOption) (Snapshot, error) {
	cfg := getConfig{timeout: s.timeout, fallback: true}
	for _, o := range opts {
		o(&cfg)
	}

	s.mu.Lock()
	w := s.waiter
	s.mu.Unlock()

	if w != nil {
		timer := time.NewTimer(cfg.timeout)
		defer timer.Stop()

		select {
		case <-w.done:
		case <-timer.C:
			if !cfg.fallback {
				return nil, &TimeoutError{After: cfg.timeout}
			}
			s.logger.Printf("status: no fresh state after %s, answering with partial state", cfg.timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	snapshot := s.Peek()
	path, loaded := snapshot.Path()
	if !loaded || s.source == nil {
		return snapshot, nil
	}

	if !s.source.IsRunning() {
		s.Stop()
		return s.Peek(), nil
	}

	position, err := s.source.GetTimePosition(ctx)
	if err != nil {
		s.logger.PrintError("status: GetTimePosition", err)
		return snapshot, nil
	}

	s.mu.Lock()
	if current, _ := s.snapshot.Path(); current == path {
		s.snapshot["position"] = position
	}
	snapshot = s.snapshot.Clone()
	s.mu.Unlock()
	return snapshot, nil
}
