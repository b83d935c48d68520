// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package status

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// aliases maps player property names whose snapshot key is not simply their
// camel cased form.
var aliases = map[string]string{
	"time-pos":      "position",
	"playback-time": "position",
	"fs":            "fullscreen",
}

// Key returns the snapshot key for a player property name.
func Key(property string) string {
	if key, ok := aliases[property]; ok {
		return key
	}
	return CamelCase(property)
}

// CamelCase converts kebab or snake case names to camel case
// ("playlist-pos" -> "playlistPos"). Names without separators keep their
// casing apart from the first letter.
func CamelCase(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	if len(parts) == 0 {
		return name
	}

	var b strings.Builder
	first, size := utf8.DecodeRuneInString(parts[0])
	b.WriteRune(unicode.ToLower(first))
	b.WriteString(parts[0][size:])

	// a Caser is stateful, so each call gets its own
	title := cases.Title(language.Und)
	for _, part := range parts[1:] {
		b.WriteString(title.String(part))
	}
	return b.String()
}

// ChangeCase renames every key of a property map to its snapshot key.
func ChangeCase(properties map[string]any) map[string]any {
	changed := make(map[string]any, len(properties))
	for k, v := range properties {
		changed[Key(k)] = v
	}
	return changed
}
