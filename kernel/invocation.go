// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package kernel

import (
	"time"

	"github.com/google/uuid"
)

// Invocation is the scope of a single command call or event emission. A new
// one is created for every call and handed by reference to each hook, so pre
// hooks can leave values for post hooks. It is never shared between calls.
type Invocation struct {
	ID      string
	Name    string
	Args    []any
	Started time.Time

	// Result and Err hold the handler outcome once it settled. For events Err
	// is the transport emission error.
	Result any
	Err    error

	values map[string]any
}

func newInvocation(name string, args []any) *Invocation {
	return &Invocation{
		ID:      uuid.NewString(),
		Name:    name,
		Args:    append([]any(nil), args...),
		Started: time.Now(),
		values:  make(map[string]any),
	}
}

func (inv *Invocation) Set(key string, value any) {
	inv.values[key] = value
}

func (inv *Invocation) Value(key string) (any, bool) {
	v, ok := inv.values[key]
	return v, ok
}

func (inv *Invocation) Elapsed() time.Duration {
	return time.Since(inv.Started)
}
