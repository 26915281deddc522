// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package options

import (
	"github.com/ikmak/reql-go-driver/internal/logger"
)

// LogLevel is an enumeration representing the supported log severity levels.
type LogLevel int

const (
	// LogLevelInfo enables logging of informational messages. These logs are high-level
	// information about normal driver behavior. Example: a cursor being closed.
	LogLevelInfo LogLevel = LogLevel(logger.LevelInfo)

	// LogLevelDebug enables logging of debug messages. These logs can be voluminous and are
	// intended for detailed information that may be helpful when debugging an application.
	// Example: every batch folded into a cursor.
	LogLevelDebug LogLevel = LogLevel(logger.LevelDebug)
)

// LogComponent is an enumeration representing the "components" which can be logged against. A
// LogLevel can be configured on a per-component basis.
type LogComponent int

const (
	// LogComponentAll enables logging for all components.
	LogComponentAll LogComponent = LogComponent(logger.ComponentAll)

	// LogComponentCursor enables cursor logging.
	LogComponentCursor LogComponent = LogComponent(logger.ComponentCursor)

	// LogComponentConnection enables connection dispatch logging.
	LogComponentConnection LogComponent = LogComponent(logger.ComponentConnection)
)

// LogSink is an interface that can be implemented to provide a custom sink for the driver's
// logs. Any github.com/go-logr/logr LogSink satisfies it.
type LogSink interface {
	// Info logs a non-error message with the given key/value pairs. This method will only be
	// called if the provided level has been defined for a component in the LoggerOptions.
	//
	// Here are the following level mappings for V = "Verbosity":
	//
	//  - V(0): Info
	//  - V(1): Debug
	Info(level int, message string, keysAndValues ...interface{})

	// Error logs an error message with the given key/value pairs.
	Error(err error, message string, keysAndValues ...interface{})
}

// ComponentLevels is a map of LogComponent to LogLevel.
type ComponentLevels map[LogComponent]LogLevel

// LoggerOptions represent options used to configure logging in the driver.
type LoggerOptions struct {
	// ComponentLevels is a map of LogComponent to LogLevel. The LogLevel for a given
	// LogComponent will be used to determine if a log message should be logged.
	ComponentLevels ComponentLevels

	// Sink is the LogSink that will be used to log messages. If this is nil, the driver will
	// write JSON lines to stderr, or to the path named by REQL_LOG_PATH.
	Sink LogSink

	// MaxDocumentLength is the maximum length of a logged item. If zero, the driver uses
	// REQL_LOG_MAX_DOCUMENT_LENGTH or 1000.
	MaxDocumentLength uint
}

// Logger creates a new LoggerOptions instance.
func Logger() *LoggerOptions {
	return &LoggerOptions{
		ComponentLevels: ComponentLevels{},
	}
}

// SetComponentLevel sets the LogLevel value for a LogComponent.
func (opts *LoggerOptions) SetComponentLevel(component LogComponent, level LogLevel) *LoggerOptions {
	if opts.ComponentLevels == nil {
		opts.ComponentLevels = ComponentLevels{}
	}

	opts.ComponentLevels[component] = level

	return opts
}

// SetMaxDocumentLength sets the maximum length of a logged item.
func (opts *LoggerOptions) SetMaxDocumentLength(maxDocumentLength uint) *LoggerOptions {
	opts.MaxDocumentLength = maxDocumentLength

	return opts
}

// SetSink sets the LogSink to use for logging.
func (opts *LoggerOptions) SetSink(sink LogSink) *LoggerOptions {
	opts.Sink = sink

	return opts
}

// NewLogger builds the driver's internal logger from opts. A nil opts still honours the
// REQL_LOG_* environment variables.
func NewLogger(opts *LoggerOptions) (*logger.Logger, error) {
	if opts == nil {
		opts = Logger()
	}

	levels := make(map[logger.Component]logger.Level, len(opts.ComponentLevels))
	for component, level := range opts.ComponentLevels {
		levels[logger.Component(component)] = logger.Level(level)
	}

	var sink logger.LogSink
	if opts.Sink != nil {
		sink = opts.Sink
	}

	return logger.New(sink, opts.MaxDocumentLength, levels)
}
