// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package status

import (
	"errors"
	"fmt"
	"time"
)

var ErrTimeout = errors.New("timed out waiting for player status")

// TimeoutError is returned by Get when the convergence wait elapsed and the
// caller asked for no fallback.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s after %s", ErrTimeout.Error(), e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
