// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package drivertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ikmak/reql-go-driver/x/reql/driver"
)

// ErrConnectionClosed is returned by a ScriptedConn after Close.
var ErrConnectionClosed = errors.New("scripted connection closed")

type requestKind uint8

const (
	answerRequest requestKind = iota
	stopRequest
)

type request struct {
	kind    requestKind
	readyAt time.Time
}

// ScriptedConn implements the driver.Connection interface by answering each request of a
// token with the next scripted Step. Registering a cursor counts as the START request being in
// flight. STOP requests are acknowledged with an empty SUCCESS_SEQUENCE.
//
// By default responses are delivered synchronously from inside ReadResponse, on the goroutine
// that is pulling. With Async set, ReadResponse only waits and responses are delivered by
// calling Deliver from another goroutine.
type ScriptedConn struct {
	ContinueErr error
	StopErr     error
	Async       bool

	mu          sync.Mutex
	closed      bool
	cursors     map[driver.Token]*driver.Cursor
	scripts     map[driver.Token][]Step
	pending     map[driver.Token][]*request
	continues   map[driver.Token]int
	stops       map[driver.Token]int
	added       map[driver.Token]int
	removed     map[driver.Token]int
	maxInFlight int
}

var _ driver.Connection = (*ScriptedConn)(nil)

// NewScriptedConn returns an open connection without scripts.
func NewScriptedConn() *ScriptedConn {
	return &ScriptedConn{
		cursors:   make(map[driver.Token]*driver.Cursor),
		scripts:   make(map[driver.Token][]Step),
		pending:   make(map[driver.Token][]*request),
		continues: make(map[driver.Token]int),
		stops:     make(map[driver.Token]int),
		added:     make(map[driver.Token]int),
		removed:   make(map[driver.Token]int),
	}
}

// Script appends steps to the replies for token.
func (c *ScriptedConn) Script(token driver.Token, steps ...Step) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[token] = append(c.scripts[token], steps...)
}

// AddToCache implements the driver.Connection interface.
func (c *ScriptedConn) AddToCache(token driver.Token, cur *driver.Cursor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursors[token] = cur
	c.added[token]++
	c.enqueueLocked(token, answerRequest)
}

// RemoveFromCache implements the driver.Connection interface.
func (c *ScriptedConn) RemoveFromCache(token driver.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cursors, token)
	c.removed[token]++
}

// Continue implements the driver.Connection interface.
func (c *ScriptedConn) Continue(_ context.Context, token driver.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ContinueErr != nil {
		return c.ContinueErr
	}
	if c.closed {
		return ErrConnectionClosed
	}
	c.continues[token]++
	c.enqueueLocked(token, answerRequest)
	return nil
}

// Stop implements the driver.Connection interface.
func (c *ScriptedConn) Stop(_ context.Context, token driver.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.StopErr != nil {
		return c.StopErr
	}
	if c.closed {
		return ErrConnectionClosed
	}
	c.stops[token]++
	c.enqueueLocked(token, stopRequest)
	return nil
}

// IsOpen implements the driver.Connection interface.
func (c *ScriptedConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// ReadResponse implements the driver.Connection interface.
func (c *ScriptedConn) ReadResponse(ctx context.Context, token driver.Token) error {
	c.mu.Lock()
	cur, ok := c.cursors[token]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}

	if c.Async {
		c.mu.Unlock()
		select {
		case <-cur.Notify():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	step, req, err := c.peekLocked(token)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if req.readyAt.IsZero() {
		req.readyAt = time.Now().Add(step.Delay)
	}
	wait := time.Until(req.readyAt)
	c.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return c.Deliver(token)
}

// Deliver answers the oldest in-flight request of token immediately, ignoring any delay.
func (c *ScriptedConn) Deliver(token driver.Token) error {
	c.mu.Lock()
	step, _, err := c.peekLocked(token)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	queue := c.pending[token]
	if queue[0].kind == answerRequest {
		c.scripts[token] = c.scripts[token][1:]
	}
	c.pending[token] = queue[1:]
	cur := c.cursors[token]
	c.mu.Unlock()

	rr, err := step.Raw()
	if err != nil {
		return err
	}
	if cur != nil {
		cur.Extend(driver.NewResponse(token, rr))
	}
	return nil
}

// Close marks the connection closed and fails every registered cursor.
func (c *ScriptedConn) Close() {
	c.mu.Lock()
	c.closed = true
	cursors := make([]*driver.Cursor, 0, len(c.cursors))
	for _, cur := range c.cursors {
		cursors = append(cursors, cur)
	}
	c.mu.Unlock()

	for _, cur := range cursors {
		cur.Abandon(ErrConnectionClosed)
	}
}

// Continues returns the number of CONTINUE requests sent for token.
func (c *ScriptedConn) Continues(token driver.Token) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.continues[token]
}

// Stops returns the number of STOP requests sent for token.
func (c *ScriptedConn) Stops(token driver.Token) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops[token]
}

// Added returns how many times a cursor was registered under token.
func (c *ScriptedConn) Added(token driver.Token) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.added[token]
}

// Removed returns how many times token was unregistered.
func (c *ScriptedConn) Removed(token driver.Token) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removed[token]
}

// Cached reports whether a cursor is registered under token.
func (c *ScriptedConn) Cached(token driver.Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.cursors[token]
	return ok
}

// InFlight returns the number of unanswered requests for token.
func (c *ScriptedConn) InFlight(token driver.Token) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending[token])
}

// MaxInFlight returns the largest number of unanswered requests any token ever had.
func (c *ScriptedConn) MaxInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxInFlight
}

func (c *ScriptedConn) enqueueLocked(token driver.Token, kind requestKind) {
	c.pending[token] = append(c.pending[token], &request{kind: kind})
	if n := len(c.pending[token]); n > c.maxInFlight {
		c.maxInFlight = n
	}
}

func (c *ScriptedConn) peekLocked(token driver.Token) (Step, *request, error) {
	queue := c.pending[token]
	if len(queue) == 0 {
		return Step{}, nil, fmt.Errorf("no request in flight for token %d", token)
	}
	req := queue[0]
	if req.kind == stopRequest {
		return stopAck, req, nil
	}
	script := c.scripts[token]
	if len(script) == 0 {
		return Step{}, nil, fmt.Errorf("script for token %d exhausted", token)
	}
	return script[0], req, nil
}
