// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package activity logs every command call and event emission of the
// kernel. It only observes: its hooks never fail.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spezifisch/mpvrpc/kernel"
	"github.com/spezifisch/mpvrpc/logger"
	"github.com/spezifisch/mpvrpc/player"
)

const (
	DefaultIgnoredCommandMaxTime = 300 * time.Millisecond
	DefaultHighFrequencyWindow   = 5 * time.Minute
)

type Config struct {
	// IgnoredCommands are not logged unless they fail or take longer than
	// IgnoredCommandMaxTime.
	IgnoredCommands       []string
	IgnoredCommandMaxTime time.Duration
	IgnoredEvents         []string
}

func DefaultConfig() Config {
	return Config{
		IgnoredCommandMaxTime: DefaultIgnoredCommandMaxTime,
		IgnoredEvents:         []string{"status"},
	}
}

// highFrequencyPattern collapses the calls of matching commands into one
// summary line per window.
type highFrequencyPattern struct {
	pattern *regexp.Regexp
	window  time.Duration

	started time.Time
	count   int
}

type Logger struct {
	log logger.ServiceLogger
	now func() time.Time

	mu                    sync.Mutex
	ignoredCommands       map[string]bool
	ignoredCommandMaxTime time.Duration
	ignoredEvents         map[string]bool
	patterns              []*highFrequencyPattern
}

func New(log logger.ServiceLogger, cfg Config) *Logger {
	l := &Logger{log: log, now: time.Now}
	l.Configure(cfg)
	return l
}

// Configure replaces the filtering rules. It is safe to call while the
// hooks run.
func (l *Logger) Configure(cfg Config) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ignoredCommands = toSet(cfg.IgnoredCommands)
	l.ignoredEvents = toSet(cfg.IgnoredEvents)
	l.ignoredCommandMaxTime = cfg.IgnoredCommandMaxTime
	if l.ignoredCommandMaxTime <= 0 {
		l.ignoredCommandMaxTime = DefaultIgnoredCommandMaxTime
	}
}

// RegisterHighFrequencyPattern collapses the successful calls of commands
// matching pattern: the first call of a window is logged, the others are
// counted and reported once the window elapsed.
func (l *Logger) RegisterHighFrequencyPattern(pattern *regexp.Regexp, window time.Duration) {
	if window <= 0 {
		window = DefaultHighFrequencyWindow
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.patterns = append(l.patterns, &highFrequencyPattern{pattern: pattern, window: window})
}

// Attach registers the logger on every command and event of k.
func (l *Logger) Attach(k *kernel.Kernel) {
	k.RegisterGlobalPreHook(l.Before())
	k.RegisterGlobalPostHook(l.After())
	k.RegisterGlobalEventHook(l.EventHook())
}

func (l *Logger) Before() kernel.Hook {
	return func(ctx context.Context, inv *kernel.Invocation) error {
		l.mu.Lock()
		quiet := l.ignoredCommands[inv.Name] || l.findPattern(inv.Name) != nil
		l.mu.Unlock()

		if !quiet {
			l.log.Service(inv.Name).Printf("%s running...", label(inv))
		}
		return nil
	}
}

func (l *Logger) After() kernel.Hook {
	return func(ctx context.Context, inv *kernel.Invocation) error {
		elapsed := inv.Elapsed()
		log := l.log.Service(inv.Name)

		l.mu.Lock()
		force := inv.Err != nil || elapsed > l.ignoredCommandMaxTime
		if l.ignoredCommands[inv.Name] && !force {
			l.mu.Unlock()
			return nil
		}
		if hfp := l.findPattern(inv.Name); hfp != nil && !force {
			first, summary := hfp.record(l.now())
			l.mu.Unlock()
			if first {
				log.Printf("%s %s", label(inv), elapsed.Round(time.Millisecond))
			} else if summary != "" {
				log.Print(summary)
			}
			return nil
		}
		l.mu.Unlock()

		if inv.Err == nil {
			log.Printf("%s %s", label(inv), elapsed.Round(time.Millisecond))
			return nil
		}

		log.Printf("%s %s FAILED", label(inv), elapsed.Round(time.Millisecond))
		log.Print(describe(inv.Err))
		return nil
	}
}

func (l *Logger) EventHook() kernel.Hook {
	return func(ctx context.Context, inv *kernel.Invocation) error {
		l.mu.Lock()
		ignored := l.ignoredEvents[inv.Name]
		l.mu.Unlock()
		if ignored {
			return nil
		}

		args, err := json.Marshal(inv.Args)
		if err != nil {
			args = []byte(fmt.Sprint(inv.Args))
		}
		l.log.Service(inv.Name).Printf("emit %s", args)
		return nil
	}
}

// findPattern returns the first pattern matching command. Callers hold l.mu.
func (l *Logger) findPattern(command string) *highFrequencyPattern {
	for _, hfp := range l.patterns {
		if hfp.pattern.MatchString(command) {
			return hfp
		}
	}
	return nil
}

// record counts one call. The first call of a window is logged as is, the
// window's summary is returned once it elapsed.
func (h *highFrequencyPattern) record(now time.Time) (first bool, summary string) {
	if h.started.IsZero() {
		h.started = now
		return true, ""
	}

	h.count++
	if now.Sub(h.started) < h.window {
		return false, ""
	}

	summary = fmt.Sprintf("%d calls in the last %s", h.count, now.Sub(h.started).Round(time.Second))
	h.started = now
	h.count = 0
	return false, summary
}

// describe formats a failed call: backend failures with their code, any
// other error with its message and, for panics, the stack.
func describe(err error) string {
	var backendErr *player.BackendError
	if errors.As(err, &backendErr) {
		return fmt.Sprintf("CODE %s %s: %s", backendErr.Code, backendErr.Method, backendErr.Message)
	}

	var handlerErr *kernel.HandlerError
	if errors.As(err, &handlerErr) && len(handlerErr.Stack) > 0 {
		return err.Error() + "\n" + string(handlerErr.Stack)
	}
	return err.Error()
}

// label starts the lines of one call: a short form of its invocation ID, so
// the lines of concurrent calls can be paired, followed by the arguments.
func label(inv *kernel.Invocation) string {
	id := inv.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if len(inv.Args) == 0 {
		return "#" + id
	}
	return "#" + id + " " + joinArgs(inv.Args)
}

func joinArgs(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	return strings.Join(parts, " ")
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
