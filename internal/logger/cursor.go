// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

// Cursor log messages.
const (
	CursorStarted        = "Cursor started"
	CursorBatchReceived  = "Cursor batch received"
	CursorFetchRequested = "Cursor requested next batch"
	CursorClosed         = "Cursor closed"
	CursorFailed         = "Cursor failed"
	CursorFinished       = "Cursor finished"
)

// Connection log messages.
const (
	ConnectionQueryStarted    = "Query started"
	ConnectionResponseDropped = "Response for unknown token dropped"
	ConnectionClosed          = "Connection closed"
	ConnectionReadFailed      = "Connection read failed"
)

// CursorMessage contains the fields shared by every cursor log message.
type CursorMessage struct {
	ConnectionID string
	Token        int64
	Outstanding  int
	Buffered     int
}

// SerializeCursor serializes a CursorMessage into a slice of keys and values that can be
// passed to a logger, followed by any extra pairs.
func SerializeCursor(msg CursorMessage, extraKeysAndValues ...interface{}) KeyValues {
	keysAndValues := KeyValues{
		KeyConnectionID, msg.ConnectionID,
		KeyToken, msg.Token,
		KeyOutstanding, msg.Outstanding,
		KeyBuffered, msg.Buffered,
	}

	return append(keysAndValues, extraKeysAndValues...)
}
