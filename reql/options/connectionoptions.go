// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package options

import "github.com/ikmak/reql-go-driver/event"

// DefaultRTTSamples is the number of continue round trips kept for connection statistics.
const DefaultRTTSamples = 100

// ConnectionOptions represents the options used to wrap a network connection.
type ConnectionOptions struct {
	// LoggerOptions configures the connection's and its cursors' logging.
	LoggerOptions *LoggerOptions

	// CursorMonitor is used by every cursor created on the connection unless the cursor has its
	// own monitor.
	CursorMonitor *event.CursorMonitor

	// RTTSamples is the number of continue round trips kept for Stats. Defaults to
	// DefaultRTTSamples.
	RTTSamples *int

	// MaxMessageSize bounds the size of a single response body. Zero means the wire default.
	MaxMessageSize *int32
}

// Connection creates a new ConnectionOptions instance.
func Connection() *ConnectionOptions {
	return &ConnectionOptions{}
}

// SetLoggerOptions specifies the logger configuration.
func (co *ConnectionOptions) SetLoggerOptions(lo *LoggerOptions) *ConnectionOptions {
	co.LoggerOptions = lo
	return co
}

// SetCursorMonitor specifies the default monitor for cursors created on the connection.
func (co *ConnectionOptions) SetCursorMonitor(m *event.CursorMonitor) *ConnectionOptions {
	co.CursorMonitor = m
	return co
}

// SetRTTSamples specifies how many continue round trips are kept for statistics.
func (co *ConnectionOptions) SetRTTSamples(n int) *ConnectionOptions {
	co.RTTSamples = &n
	return co
}

// SetMaxMessageSize specifies the largest response body the connection accepts.
func (co *ConnectionOptions) SetMaxMessageSize(n int32) *ConnectionOptions {
	co.MaxMessageSize = &n
	return co
}

// MergeConnectionOptions combines the argued ConnectionOptions into a single
// ConnectionOptions in a last-one-wins fashion.
func MergeConnectionOptions(opts ...*ConnectionOptions) *ConnectionOptions {
	connOpts := Connection()
	for _, co := range opts {
		if co == nil {
			continue
		}
		if co.LoggerOptions != nil {
			connOpts.LoggerOptions = co.LoggerOptions
		}
		if co.CursorMonitor != nil {
			connOpts.CursorMonitor = co.CursorMonitor
		}
		if co.RTTSamples != nil {
			connOpts.RTTSamples = co.RTTSamples
		}
		if co.MaxMessageSize != nil {
			connOpts.MaxMessageSize = co.MaxMessageSize
		}
	}

	return connOpts
}
