// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package logger

import (
	"fmt"
	"io"
	"time"
)

const timestampFormat = "15:04:05"

type Logger struct {
	Prints chan string

	prefix string
}

func Init() *Logger {
	return &Logger{Prints: make(chan string, 100)}
}

// Service returns a logger sharing the same output whose lines are prefixed
// with name. Nested services are joined with "/".
func (l *Logger) Service(name string) ServiceLogger {
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "/" + name
	}
	return &Logger{Prints: l.Prints, prefix: prefix}
}

func (l *Logger) Print(s string) {
	if l.Prints == nil {
		return
	}
	if l.prefix != "" {
		s = "[" + l.prefix + "] " + s
	}
	l.Prints <- s
}

func (l *Logger) Printf(s string, as ...interface{}) {
	l.Print(fmt.Sprintf(s, as...))
}

func (l *Logger) PrintError(source string, err error) {
	l.Printf("Error(%s) -> %s", source, err.Error())
}

// Run drains Prints into w, one timestamped line per message, until Prints
// is closed.
func (l *Logger) Run(w io.Writer) {
	for msg := range l.Prints {
		fmt.Fprintf(w, "%s %s\n", time.Now().Format(timestampFormat), msg)
	}
}
