// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package reql provides a streaming cursor API over ReQL query results.
//
// Queries are sent on a connection created from an established network connection:
//
//	conn, err := connection.New(nc)
//	if err != nil { log.Fatal(err) }
//	defer conn.Close()
//
// Run sends a serialized term and returns a cursor over its result. The cursor buffers the
// batches the server sends and requests the next one before the buffer runs dry:
//
//	cur, err := reql.Run(ctx, conn, term, map[string]interface{}{"db": "test"})
//	if err != nil { log.Fatal(err) }
//	defer cur.Close(ctx)
//	for cur.Next(ctx) {
//	   var row map[string]interface{}
//	   if err := cur.Decode(&row); err != nil { log.Fatal(err) }
//	   // do something with row....
//	}
//	if err := cur.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Results are converted from their wire pseudotypes: TIME values become time.Time, BINARY
// values []byte and GROUPED_DATA values a slice of pseudotype.GroupedResult. Setting the
// time_format, binary_format or group_format global optional argument to "raw" disables the
// corresponding conversion.
//
// A context passed to Next bounds that call only. When it ends first, Next returns false and Err
// reports a timeout, but the cursor keeps streaming and a later Next may succeed.
package reql
