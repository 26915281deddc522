// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import "strings"

// DiffToInfo is the number of levels in the driver that come before the "Info" level. This
// ensures that "Info" is the 0th level passed to the sink.
const DiffToInfo = 1

// Level is an enumeration representing the log severity levels supported by the driver. The
// order matters: a sink built with logr treats Info as level 0.
type Level int

const (
	// LevelOff suppresses logging.
	LevelOff Level = iota

	// LevelInfo enables logging of informational messages such as a cursor being closed.
	LevelInfo

	// LevelDebug enables logging of debug messages such as every batch a cursor receives.
	LevelDebug
)

const (
	levelLiteralOff       = "off"
	levelLiteralEmergency = "emergency"
	levelLiteralAlert     = "alert"
	levelLiteralCritical  = "critical"
	levelLiteralError     = "error"
	levelLiteralWarning   = "warn"
	levelLiteralNotice    = "notice"
	levelLiteralInfo      = "info"
	levelLiteralDebug     = "debug"
	levelLiteralTrace     = "trace"
)

var allLevelLiterals = []string{
	levelLiteralOff,
	levelLiteralEmergency,
	levelLiteralAlert,
	levelLiteralCritical,
	levelLiteralError,
	levelLiteralWarning,
	levelLiteralNotice,
	levelLiteralInfo,
	levelLiteralDebug,
	levelLiteralTrace,
}

// ParseLevel will check if the given string is a valid environment variable for a logging
// severity level. If it is, then it will return the associated driver's Level. The default
// Level is "LevelOff".
func ParseLevel(str string) Level {
	for _, literal := range allLevelLiterals {
		if !strings.EqualFold(literal, str) {
			continue
		}

		switch literal {
		case levelLiteralEmergency, levelLiteralAlert, levelLiteralCritical,
			levelLiteralError, levelLiteralWarning, levelLiteralNotice, levelLiteralInfo:
			return LevelInfo
		case levelLiteralDebug, levelLiteralTrace:
			return LevelDebug
		}
	}

	return LevelOff
}
