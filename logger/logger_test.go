// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServicePrefix(t *testing.T) {
	l := Init()
	l.Service("rpc").Service("play").Print("running")
	assert.Equal(t, "[rpc/play] running", <-l.Prints)

	l.PrintError("load", errors.New("boom"))
	assert.Equal(t, "Error(load) -> boom", <-l.Prints)
}

func TestZeroLoggerDiscards(t *testing.T) {
	l := Logger{}
	assert.NotPanics(t, func() { l.Printf("%d", 1) })
}

func TestRun(t *testing.T) {
	l := Init()
	l.Print("one")
	l.Print("two")
	close(l.Prints)

	var buf bytes.Buffer
	l.Run(&buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.True(t, strings.HasSuffix(lines[0], " one"))
		assert.True(t, strings.HasSuffix(lines[1], " two"))
	}
}
