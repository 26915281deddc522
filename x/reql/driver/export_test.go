// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package driver

// Counters exposes the request accounting of c to tests.
func (c *Cursor) Counters() (outstanding, threshold int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outstanding, c.threshold
}
