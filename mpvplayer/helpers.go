// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpvplayer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/supersonic-app/go-mpv"
)

// formats maps properties to the format they are read in. Anything not
// listed is read as a string.
var formats = map[string]mpv.Format{
	"pause":          mpv.FORMAT_FLAG,
	"mute":           mpv.FORMAT_FLAG,
	"idle-active":    mpv.FORMAT_FLAG,
	"sub-visibility": mpv.FORMAT_FLAG,
	"fullscreen":     mpv.FORMAT_FLAG,
	"fs":             mpv.FORMAT_FLAG,
	"ontop":          mpv.FORMAT_FLAG,
	"seeking":        mpv.FORMAT_FLAG,

	"duration":      mpv.FORMAT_DOUBLE,
	"time-pos":      mpv.FORMAT_DOUBLE,
	"playback-time": mpv.FORMAT_DOUBLE,
	"percent-pos":   mpv.FORMAT_DOUBLE,
	"volume":        mpv.FORMAT_DOUBLE,
	"speed":         mpv.FORMAT_DOUBLE,
	"sub-scale":     mpv.FORMAT_DOUBLE,
	"sub-delay":     mpv.FORMAT_DOUBLE,
	"audio-delay":   mpv.FORMAT_DOUBLE,

	"playlist-pos":   mpv.FORMAT_INT64,
	"playlist-count": mpv.FORMAT_INT64,
	"chapter":        mpv.FORMAT_INT64,
}

func formatOf(name string) mpv.Format {
	if format, ok := formats[name]; ok {
		return format
	}
	return mpv.FORMAT_STRING
}

func getPropertyFloat(instance *mpv.Mpv, name string) (float64, error) {
	value, err := instance.GetProperty(name, mpv.FORMAT_DOUBLE)
	if err != nil {
		return 0, err
	} else if value == nil {
		return 0, errors.New("nil value")
	}
	return value.(float64), err
}

// normalizeValue turns integers into float64 so every number reaches
// clients the same way.
func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return value
}

// typedValue picks the property format for a value received from a client.
func typedValue(value interface{}) (mpv.Format, interface{}, bool) {
	switch v := value.(type) {
	case bool:
		return mpv.FORMAT_FLAG, v, true
	case float64:
		return mpv.FORMAT_DOUBLE, v, true
	case float32:
		return mpv.FORMAT_DOUBLE, float64(v), true
	case int:
		return mpv.FORMAT_INT64, int64(v), true
	case int64:
		return mpv.FORMAT_INT64, v, true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return mpv.FORMAT_DOUBLE, f, true
		}
	case string:
		return mpv.FORMAT_STRING, v, true
	}
	return 0, nil, false
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		return formatFloat(v)
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(value)
}

// formatLoadOptions renders per-file options as loadfile expects them,
// "key=value" pairs joined by commas, sorted by key.
func formatLoadOptions(options map[string]interface{}) string {
	names := sortedNames(options)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + formatValue(options[name])
	}
	return strings.Join(parts, ",")
}

func sortedNames(values map[string]interface{}) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
