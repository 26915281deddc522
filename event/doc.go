// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package event is a library for monitoring events from the driver. Monitors can be set on a
// connection or on an individual cursor through the options package.
//
// A CursorMonitor can be used to follow the batches a cursor receives:
//
//	monitor := &event.CursorMonitor{
//		BatchReceived: func(_ context.Context, evt *event.BatchReceivedEvent) {
//			log.Printf("token %d received %d items", evt.Token, evt.Size)
//		},
//	}
//	opts := options.Cursor().SetMonitor(monitor)
package event // import "github.com/ikmak/reql-go-driver/event"
