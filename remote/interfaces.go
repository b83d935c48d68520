// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package remote

import "context"

// Dispatcher runs a command by name, with the same validation and hooks as
// a call from a network client.
type Dispatcher interface {
	Call(ctx context.Context, name string, args []any) (any, error)
}
