// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runMain runs main with args and returns the exit code it asked for, or -1
// when it returned without calling osExit.
func runMain(t *testing.T, args ...string) int {
	code := -1
	osExit = func(c int) {
		if code == -1 {
			code = c
		}
	}
	headlessMode = true
	oldArgs := os.Args
	flag.CommandLine = flag.NewFlagSet("mpvrpc", flag.ContinueOnError)

	// Restore patches after the test
	defer func() {
		osExit = os.Exit
		headlessMode = false
		os.Args = oldArgs
	}()

	os.Args = append([]string{"mpvrpc"}, args...)
	main()
	return code
}

func TestMainHelp(t *testing.T) {
	assert.Equal(t, 0, runMain(t, "--help"))
}

func TestMainVersion(t *testing.T) {
	assert.Equal(t, 0, runMain(t, "--version"))
}

func TestMainHeadless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpvrpc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 2020\n"), 0o600))

	assert.Equal(t, 0, runMain(t, "--config="+path))
}

func TestMainConfigAsArgument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpvrpc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 2021\n"), 0o600))

	assert.Equal(t, 0, runMain(t, path))
}

func TestMainConfigErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.toml")
	assert.Equal(t, 2, runMain(t, "--config="+missing))

	invalid := filepath.Join(t.TempDir(), "mpvrpc.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[server]\nport = -1\n"), 0o600))
	assert.Equal(t, 2, runMain(t, "--config="+invalid))
}
