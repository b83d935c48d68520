// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spezifisch/mpvrpc/activity"
	"github.com/spezifisch/mpvrpc/mpvplayer"
	"github.com/spezifisch/mpvrpc/status"
	"github.com/spf13/viper"
)

// Config is the typed view of the viper settings.
type Config struct {
	Address string
	Port    int
	Path    string

	Player        mpvplayer.Options
	RestartOnPlay bool

	StatusTimeout time.Duration
	Log           activity.Config
	Mpris         bool
}

// ListenAddress is the host:port the transport binds to.
func (c Config) ListenAddress() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 2019)
	v.SetDefault("server.path", "/")
	v.SetDefault("player.onTop", false)
	v.SetDefault("player.fullscreen", false)
	v.SetDefault("player.restartOnPlay", false)
	v.SetDefault("player.autoRestart", true)
	v.SetDefault("status.timeout", status.DefaultTimeout)
	v.SetDefault("log.ignoredCommands", []string{})
	v.SetDefault("log.ignoredCommandMaxTime", activity.DefaultIgnoredCommandMaxTime)
	v.SetDefault("log.ignoredEvents", []string{"status"})
	v.SetDefault("mpris", false)
}

// readConfig merges the defaults, the config file and MPVRPC_* environment
// variables into v. Without an explicit file a missing default file is fine.
func readConfig(v *viper.Viper, configFile string) error {
	setDefaults(v)

	v.SetEnvPrefix("mpvrpc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		// use custom config file
		v.SetConfigFile(configFile)
	} else {
		// lookup default dirs
		v.SetConfigName("mpvrpc")
		v.SetConfigType("toml")
		v.AddConfigPath("$HOME/.config/mpvrpc")
		v.AddConfigPath(".")
	}

	// read it
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config file error: %w", err)
	}
	return nil
}

func loadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Address: v.GetString("server.address"),
		Port:    v.GetInt("server.port"),
		Path:    v.GetString("server.path"),
		Player: mpvplayer.Options{
			OnTop:       v.GetBool("player.onTop"),
			Fullscreen:  v.GetBool("player.fullscreen"),
			AutoRestart: v.GetBool("player.autoRestart"),
		},
		RestartOnPlay: v.GetBool("player.restartOnPlay"),
		StatusTimeout: v.GetDuration("status.timeout"),
		Log: activity.Config{
			IgnoredCommands:       v.GetStringSlice("log.ignoredCommands"),
			IgnoredCommandMaxTime: v.GetDuration("log.ignoredCommandMaxTime"),
			IgnoredEvents:         v.GetStringSlice("log.ignoredEvents"),
		},
		Mpris: v.GetBool("mpris"),
	}
	if v.IsSet("player.monitor") {
		monitor := v.GetInt("player.monitor")
		cfg.Player.Monitor = &monitor
	}

	// validate
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("config property server.port out of range: %d", cfg.Port)
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return cfg, fmt.Errorf("config property server.path must start with /: %q", cfg.Path)
	}
	if cfg.StatusTimeout <= 0 {
		return cfg, fmt.Errorf("config property status.timeout must be positive: %s", cfg.StatusTimeout)
	}
	return cfg, nil
}

// watchConfig calls apply with the new settings whenever the config file
// changes. Invalid edits are reported and ignored.
func watchConfig(v *viper.Viper, apply func(Config), onError func(error)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := loadConfig(v)
		if err != nil {
			onError(fmt.Errorf("reload %s: %w", e.Name, err))
			return
		}
		apply(cfg)
	})
	v.WatchConfig()
}
