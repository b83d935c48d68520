// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package remote

import (
	"crypto/sha1"
	"encoding/hex"
	"math"

	"github.com/godbus/dbus/v5"
	"github.com/spezifisch/mpvrpc/status"
)

const noTrack = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")

// PlaybackStatus maps a snapshot onto the MPRIS playback states.
func PlaybackStatus(snapshot status.Snapshot) string {
	if _, loaded := snapshot.Path(); !loaded {
		return "Stopped"
	}
	if paused, _ := snapshot["pause"].(bool); paused {
		return "Paused"
	}
	return "Playing"
}

// TrackID derives a stable object path from the media path.
func TrackID(snapshot status.Snapshot) dbus.ObjectPath {
	path, loaded := snapshot.Path()
	if !loaded {
		return noTrack
	}
	sum := sha1.Sum([]byte(path))
	return dbus.ObjectPath("/org/mpvrpc/track/" + hex.EncodeToString(sum[:8]))
}

func Metadata(snapshot status.Snapshot) map[string]dbus.Variant {
	metadata := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(TrackID(snapshot)),
	}
	if _, loaded := snapshot.Path(); !loaded {
		return metadata
	}

	metadata["mpris:length"] = dbus.MakeVariant(microseconds(snapshot["duration"]))

	title, _ := snapshot["mediaTitle"].(string)
	if title == "" {
		title, _ = snapshot["filename"].(string)
	}
	metadata["xesam:title"] = dbus.MakeVariant(title)

	if path, ok := snapshot.Path(); ok {
		metadata["xesam:url"] = dbus.MakeVariant(path)
	}
	return metadata
}

// Volume converts the player volume in percent to the MPRIS range.
func Volume(snapshot status.Snapshot) float64 {
	percent, ok := snapshot["volume"].(float64)
	if !ok {
		return 0
	}
	return percent / 100
}

func Position(snapshot status.Snapshot) int64 {
	return microseconds(snapshot["position"])
}

func microseconds(seconds any) int64 {
	s, ok := seconds.(float64)
	if !ok || math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return int64(math.Round(s * 1e6))
}
