// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package logger

type LoggerInterface interface {
	Print(s string)
	Printf(s string, as ...interface{})
	PrintError(source string, err error)
}

// ServiceLogger is a LoggerInterface that can derive prefixed child loggers.
type ServiceLogger interface {
	LoggerInterface
	Service(name string) ServiceLogger
}
