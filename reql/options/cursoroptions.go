// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package options

import "github.com/ikmak/reql-go-driver/event"

// CursorOptions represents the possible options for a single cursor.
type CursorOptions struct {
	// Monitor receives the cursor's lifecycle events. It overrides the connection-wide cursor
	// monitor.
	Monitor *event.CursorMonitor
}

// Cursor creates a new CursorOptions instance.
func Cursor() *CursorOptions {
	return &CursorOptions{}
}

// SetMonitor specifies the monitor notified of the cursor's events.
func (co *CursorOptions) SetMonitor(m *event.CursorMonitor) *CursorOptions {
	co.Monitor = m
	return co
}

// MergeCursorOptions combines the argued CursorOptions into a single CursorOptions in a
// last-one-wins fashion.
func MergeCursorOptions(opts ...*CursorOptions) *CursorOptions {
	cursorOpts := Cursor()
	for _, co := range opts {
		if co == nil {
			continue
		}
		if co.Monitor != nil {
			cursorOpts.Monitor = co.Monitor
		}
	}

	return cursorOpts
}
