// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package kernel

import (
	"context"
	"sync"
)

// Hook observes a command call or an event emission. Pre hooks see the
// invocation before the handler runs; post hooks see it again with Result and
// Err filled in. A pre hook returning an error aborts the call.
type Hook func(ctx context.Context, inv *Invocation) error

type hookList struct {
	global []Hook
	named  map[string][]Hook
}

func (l *hookList) add(name string, fn Hook) {
	if name == "" {
		l.global = append(l.global, fn)
		return
	}
	if l.named == nil {
		l.named = make(map[string][]Hook)
	}
	l.named[name] = append(l.named[name], fn)
}

// chain returns the global hooks followed by those registered for name.
func (l *hookList) chain(name string) []Hook {
	hooks := make([]Hook, 0, len(l.global)+len(l.named[name]))
	hooks = append(hooks, l.global...)
	return append(hooks, l.named[name]...)
}

// Hooks holds the ordered hook registries. Hooks can be added but never
// removed.
type Hooks struct {
	mu        sync.RWMutex
	pre       hookList
	post      hookList
	eventPre  hookList
	eventPost hookList
}

func (h *Hooks) register(list *hookList, name string, fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list.add(name, fn)
}

func (h *Hooks) RegisterGlobalPreHook(fn Hook) { h.register(&h.pre, "", fn) }

func (h *Hooks) RegisterGlobalPostHook(fn Hook) { h.register(&h.post, "", fn) }

func (h *Hooks) RegisterPreHook(command string, fn Hook) { h.register(&h.pre, command, fn) }

func (h *Hooks) RegisterPostHook(command string, fn Hook) { h.register(&h.post, command, fn) }

func (h *Hooks) RegisterGlobalEventHook(fn Hook) { h.register(&h.eventPre, "", fn) }

func (h *Hooks) RegisterEventHook(event string, fn Hook) { h.register(&h.eventPre, event, fn) }

func (h *Hooks) RegisterGlobalEventPostHook(fn Hook) { h.register(&h.eventPost, "", fn) }

func (h *Hooks) RegisterEventPostHook(event string, fn Hook) { h.register(&h.eventPost, event, fn) }

func (h *Hooks) chain(list *hookList, name string) []Hook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return list.chain(name)
}

// run awaits each hook in order and stops at the first error.
func run(ctx context.Context, hooks []Hook, inv *Invocation) error {
	for _, hook := range hooks {
		if err := hook(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// RunPre runs the global pre hooks, then those registered for inv.Name.
func (h *Hooks) RunPre(ctx context.Context, inv *Invocation) error {
	return run(ctx, h.chain(&h.pre, inv.Name), inv)
}

// RunPost runs the global post hooks, then those registered for inv.Name.
func (h *Hooks) RunPost(ctx context.Context, inv *Invocation) error {
	return run(ctx, h.chain(&h.post, inv.Name), inv)
}

// RunEvent runs the event hooks registered for inv.Name. Errors do not stop
// the remaining hooks; the first one is returned.
func (h *Hooks) RunEvent(ctx context.Context, inv *Invocation, post bool) error {
	list := &h.eventPre
	if post {
		list = &h.eventPost
	}
	var first error
	for _, hook := range h.chain(list, inv.Name) {
		if err := hook(ctx, inv); err != nil && first == nil {
			first = err
		}
	}
	return first
}
