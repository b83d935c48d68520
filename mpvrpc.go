// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spezifisch/mpvrpc/logger"
	"github.com/spezifisch/mpvrpc/mpvplayer"
	"github.com/spf13/viper"
)

var osExit = os.Exit  // A variable to allow mocking os.Exit in tests
var headlessMode bool // This can be set to true during tests

const DEVELOPMENT = "development"

// Name is the program name used in the version string
var Name string = "mpvrpc"

// Version is the program version; usually set from BuildInfo
var Version string = DEVELOPMENT

// return codes:
// 0 - OK
// 1 - generic errors
// 2 - config errors
func main() {
	// parse flags and config
	help := flag.Bool("help", false, "Print usage")
	enableMpris := flag.Bool("mpris", false, "Enable MPRIS2")
	configFile := flag.String("config", "", "use config `file`")
	version := flag.Bool("version", false, "print the mpvrpc version and exit")

	flag.Parse()
	if *help {
		fmt.Printf("USAGE: %s <args> [config file]\n", os.Args[0])
		flag.Usage()
		osExit(0)
		return
	}
	if Version == DEVELOPMENT {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
			Version = bi.Main.Version
		}
	}
	if *version {
		fmt.Printf("%s %s\n", Name, Version)
		osExit(0)
		return
	}

	// config gathering
	if *configFile == "" && flag.NArg() > 0 {
		*configFile = flag.Arg(0)
	}

	v := viper.New()
	if err := readConfig(v, *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read configuration: %v\n", err)
		osExit(2)
		return
	}
	cfg, err := loadConfig(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		osExit(2)
		return
	}
	if *enableMpris {
		cfg.Mpris = true
	}

	logger := logger.Init()
	go logger.Run(os.Stderr)

	player := mpvplayer.NewPlayer(cfg.Player, logger.Service("mpv"))
	server, err := NewServer(cfg, player, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to set up the server: %v\n", err)
		osExit(1)
		return
	}

	// init mpris2 player control (linux only but fails gracefully on other systems)
	if cfg.Mpris {
		if err := server.EnableMpris(); err != nil {
			fmt.Printf("Unable to register MPRIS with DBUS: %s\n", err)
			fmt.Println("Try running without MPRIS")
			osExit(1)
			return
		}
	}

	watchConfig(v, server.Reconfigure, func(err error) {
		logger.PrintError("config", err)
	})

	if headlessMode {
		fmt.Println("Running in headless mode for testing.")
		osExit(0)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Printf("%s %s starting", Name, Version)
	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		osExit(1)
		return
	}
}
