// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package event // import "github.com/ikmak/reql-go-driver/event"

import (
	"context"
	"time"
)

// CursorStartedEvent represents an event generated when a cursor is created and registered with
// its connection.
type CursorStartedEvent struct {
	ConnectionID string
	Token        int64
}

// BatchReceivedEvent represents an event generated when a response is folded into a cursor.
type BatchReceivedEvent struct {
	ConnectionID string
	Token        int64
	ResponseType string
	// Size is the number of items in the response.
	Size int
	// Buffered is the number of items waiting in the cursor after the response was folded in.
	Buffered int
}

// CursorFinishedEvent represents an event generated when a cursor reaches its terminal state and
// has no requests left in flight, i.e. when it is removed from its connection.
type CursorFinishedEvent struct {
	ConnectionID string
	Token        int64
	Duration     time.Duration
	// Failure is nil when the cursor was exhausted or closed.
	Failure error
}

// CursorMonitor represents a monitor that is triggered for different cursor events. Callbacks
// are invoked synchronously and must not call back into the cursor.
type CursorMonitor struct {
	Started       func(context.Context, *CursorStartedEvent)
	BatchReceived func(context.Context, *BatchReceivedEvent)
	Finished      func(context.Context, *CursorFinishedEvent)
}
