// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package driver

import "context"

// Connection is the part of a connection a Cursor drives. Implementations must be safe for
// concurrent use by many cursors.
type Connection interface {
	// AddToCache registers a live cursor under its token so responses can be routed to it.
	AddToCache(Token, *Cursor)

	// RemoveFromCache forgets the cursor registered under token.
	RemoveFromCache(Token)

	// Continue asks the server for the next batch of token. The response is delivered later
	// through Cursor.Extend.
	Continue(context.Context, Token) error

	// Stop asks the server to abandon the query of token. The acknowledgement is delivered
	// through Cursor.Extend.
	Stop(context.Context, Token) error

	// ReadResponse blocks until at least one response for token has been folded into its
	// cursor, the context ends, or the connection closes. It may deliver responses for other
	// tokens along the way, and may fold synchronously into the calling cursor.
	ReadResponse(context.Context, Token) error

	// IsOpen reports whether requests can still be sent.
	IsOpen() bool
}
