// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package mpvplayer

// propertyCache remembers the last value reported for each observed
// property. It is owned by the EventLoop goroutine.
type propertyCache map[string]interface{}

type propertyReport struct {
	name  string
	value interface{}
	// changed is set when the property was reported before with another value
	changed bool
}

// collect reads every observed property and returns the ones to report: those
// that differ from the last report, or all of them when resend is set. A
// freshly loaded file is resent in full, since a status query waits for every
// key of the new file even when its value equals the previous file's.
func (c propertyCache) collect(names []string, read func(name string) interface{}, resend bool) []propertyReport {
	var reports []propertyReport
	for _, name := range names {
		value := read(name)
		previous, seen := c[name]
		differs := !seen || previous != value
		c[name] = value

		if !differs && !resend {
			continue
		}
		reports = append(reports, propertyReport{
			name:    name,
			value:   value,
			changed: seen && differs,
		})
	}
	return reports
}
