// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reql

import (
	"errors"

	"github.com/ikmak/reql-go-driver/x/reql/driver"
)

// ErrNilCursor is returned by Run when the connection hands back no cursor.
var ErrNilCursor = errors.New("cursor is nil")

// Error is a query failure reported by the server or raised when the connection fails
// underneath a cursor.
type Error = driver.Error

// IsTimeout reports whether err is a Next or Run call whose context ended before data arrived.
// Such errors never end a cursor.
func IsTimeout(err error) bool {
	return driver.IsTimeout(err)
}
