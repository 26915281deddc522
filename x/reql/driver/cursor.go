// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package driver

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikmak/reql-go-driver/event"
	"github.com/ikmak/reql-go-driver/internal/logger"
	"github.com/ikmak/reql-go-driver/x/reql/driver/pseudotype"
	"github.com/ikmak/reql-go-driver/x/reql/wiremessage"
)

// initialOutstanding accounts for the START query that created a cursor: its answer is the
// first in-flight fetch and resolves through Extend like any other.
const initialOutstanding = 1

type terminalState uint8

const (
	streaming terminalState = iota
	exhausted
	failed
)

// terminal is the cursor's end state. It moves away from streaming at most once.
type terminal struct {
	state terminalState
	err   error
}

func (t terminal) set() bool { return t.state != streaming }

// cause is the error replayed to every pull once the buffer is drained.
func (t terminal) cause() error {
	switch t.state {
	case exhausted:
		return ErrCursorExhausted
	case failed:
		return t.err
	default:
		return nil
	}
}

// CursorOptions configures a cursor created by NewCursor.
type CursorOptions struct {
	Monitor      *event.CursorMonitor
	Logger       *logger.Logger
	ConnectionID string
}

// Cursor streams the result of a query. It buffers the items of the batches folded in by its
// connection and hands them out one at a time, requesting the next batch ahead of need.
//
// Locking: mu guards every mutable field. The cursor never calls into its Connection while
// holding mu. Each transition records the collaborator calls it requires (continue, stop,
// unregister) and issues them after unlocking, so ReadResponse may fold synchronously into the
// very cursor that is pulling, and a dispatch goroutine may fold concurrently.
type Cursor struct {
	conn    Connection
	query   *Query
	token   Token
	format  pseudotype.FormatOptions
	monitor *event.CursorMonitor
	logger  *logger.Logger
	connID  string
	started time.Time

	// notify is signalled after every fold so asynchronous pumps cannot miss a wakeup.
	notify chan struct{}

	mu           sync.Mutex
	items        []json.RawMessage
	outstanding  int
	threshold    int
	terminal     terminal
	unregistered bool
}

// transition holds what a state change asks of the outside world.
type transition struct {
	fetch      bool
	unregister bool
	batch      *event.BatchReceivedEvent
	first      json.RawMessage
	snapshot   logger.CursorMessage
}

// NewCursor creates a cursor for q and registers it with conn. The START query is assumed to be
// in flight already.
func NewCursor(conn Connection, q *Query, opts CursorOptions) *Cursor {
	c := &Cursor{
		conn:        conn,
		query:       q,
		token:       q.Token,
		format:      q.FormatOptions(),
		monitor:     opts.Monitor,
		logger:      opts.Logger,
		connID:      opts.ConnectionID,
		started:     time.Now(),
		notify:      make(chan struct{}, 1),
		outstanding: initialOutstanding,
	}
	conn.AddToCache(c.token, c)

	if c.monitor != nil && c.monitor.Started != nil {
		c.monitor.Started(context.Background(), &event.CursorStartedEvent{
			ConnectionID: c.connID,
			Token:        int64(c.token),
		})
	}
	if c.logger.LevelComponentEnabled(logger.LevelDebug, logger.ComponentCursor) {
		c.logger.Print(logger.LevelDebug, logger.ComponentCursor, logger.CursorStarted,
			logger.SerializeCursor(logger.CursorMessage{
				ConnectionID: c.connID,
				Token:        int64(c.token),
				Outstanding:  initialOutstanding,
			})...)
	}

	return c
}

// Token returns the token shared by the cursor and its query.
func (c *Cursor) Token() Token { return c.token }

// Query returns the query that created the cursor.
func (c *Cursor) Query() *Query { return c.query }

// Notify returns a channel that receives a value after responses are folded into the cursor or
// it is closed. A pending value may be stale; receivers must re-check the cursor's state.
func (c *Cursor) Notify() <-chan struct{} { return c.notify }

// Buffered returns the number of items received but not yet pulled.
func (c *Cursor) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Err returns the error that ended the cursor, or nil if the cursor is still streaming or ended
// cleanly.
func (c *Cursor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal.state == failed {
		return c.terminal.err
	}
	return nil
}

// Close ends the cursor. Later pulls drain the buffer and then report ErrCursorExhausted. If the
// connection is open a STOP is sent; its acknowledgement resolves through Extend. Closing an
// ended cursor is a no-op.
func (c *Cursor) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	open := c.conn.IsOpen()

	c.mu.Lock()
	if c.terminal.set() {
		c.mu.Unlock()
		return nil
	}
	c.terminal = terminal{state: exhausted}
	if open {
		c.outstanding++
	}
	tr := transition{unregister: c.shouldUnregisterLocked()}
	tr.snapshot = c.snapshotLocked()
	c.mu.Unlock()

	c.signal()
	c.logger.Print(logger.LevelInfo, logger.ComponentCursor, logger.CursorClosed,
		logger.SerializeCursor(tr.snapshot)...)

	var stopErr error
	if open {
		if stopErr = c.conn.Stop(ctx, c.token); stopErr != nil {
			// A STOP that never left will never be acknowledged.
			c.mu.Lock()
			c.resolveLocked()
			tr.unregister = c.shouldUnregisterLocked()
			tr.snapshot = c.snapshotLocked()
			c.mu.Unlock()
		}
	}

	c.apply(tr)
	return stopErr
}

// Extend folds a response for this cursor's token into its state. It is called by the
// connection, possibly from inside ReadResponse on the goroutine that is pulling.
func (c *Cursor) Extend(resp *Response) {
	c.mu.Lock()
	tr := c.foldLocked(resp)
	c.mu.Unlock()

	c.signal()
	c.apply(tr)
}

// SetError fails the cursor with a local fault, e.g. when its connection breaks. The fault is
// folded like a final, empty batch so the usual accounting and unregistration apply. It is a
// no-op if the cursor has already ended.
func (c *Cursor) SetError(err error) { c.fail(err, false) }

// fail is SetError. With settle set it also resolves one request on a cursor that has already
// ended, for a CONTINUE whose write failed after the cursor was closed.
func (c *Cursor) fail(err error, settle bool) {
	var tr transition

	c.mu.Lock()
	switch {
	case !c.terminal.set():
		c.terminal = terminal{state: failed, err: newLocalError(err)}
		tr = c.foldLocked(&Response{Token: c.token, Type: wiremessage.SuccessSequence})
		tr.batch = nil
	case settle:
		c.resolveLocked()
		tr = transition{unregister: c.shouldUnregisterLocked(), snapshot: c.snapshotLocked()}
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.signal()
	c.apply(tr)
}

// Abandon is SetError for a connection that has closed. No response can arrive any more, so
// every request still in flight is given up and the cursor leaves the cache even if it had
// already ended, e.g. closed with its STOP unacknowledged.
func (c *Cursor) Abandon(err error) {
	var tr transition

	c.mu.Lock()
	if !c.terminal.set() {
		c.terminal = terminal{state: failed, err: newLocalError(err)}
		tr = c.foldLocked(&Response{Token: c.token, Type: wiremessage.SuccessSequence})
		tr.batch = nil
	}
	c.outstanding = 0
	if c.shouldUnregisterLocked() {
		tr.unregister = true
	}
	tr.snapshot = c.snapshotLocked()
	c.mu.Unlock()

	c.signal()
	c.apply(tr)
}

// Next pulls the next item and converts its pseudotypes. The context bounds this pull only: if
// it ends first, Next returns a TimeoutError and the cursor keeps streaming. Once the cursor has
// ended and its buffer is drained, every call returns the same terminal error, which is
// ErrCursorExhausted for a clean end.
func (c *Cursor) Next(ctx context.Context) (interface{}, error) {
	raw, err := c.NextRaw(ctx)
	if err != nil {
		return nil, err
	}
	return pseudotype.Decode(raw, c.format)
}

// NextRaw is Next without pseudotype conversion.
func (c *Cursor) NextRaw(ctx context.Context) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		c.mu.Lock()
		if len(c.items) > 0 {
			item := c.items[0]
			c.items[0] = nil
			c.items = c.items[1:]
			fetch := c.maybeFetchBatchLocked()
			c.mu.Unlock()

			if fetch {
				c.sendContinue()
			}
			return item, nil
		}

		fetch := c.maybeFetchBatchLocked()
		cause := c.terminal.cause()
		c.mu.Unlock()

		if fetch {
			c.sendContinue()
		}
		if cause != nil {
			return nil, cause
		}

		if err := c.pump(ctx); err != nil {
			return nil, err
		}
	}
}

// HasNext reports whether a pull would return an item, waiting for data if the buffer is empty.
// It returns false once the cursor has ended and drained, or when ctx ends first.
func (c *Cursor) HasNext(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		c.mu.Lock()
		if len(c.items) > 0 {
			c.mu.Unlock()
			return true
		}
		fetch := c.maybeFetchBatchLocked()
		ended := c.terminal.set()
		c.mu.Unlock()

		if fetch {
			c.sendContinue()
		}
		if ended {
			return false
		}
		if err := c.pump(ctx); err != nil {
			return false
		}
	}
}

// pump waits on the connection for this cursor's next response. Context errors surface as a
// TimeoutError; any other failure of the connection ends the cursor.
func (c *Cursor) pump(ctx context.Context) error {
	err := c.conn.ReadResponse(ctx, c.token)
	if err == nil {
		return nil
	}
	if isContextErr(err) || ctx.Err() != nil {
		return TimeoutError{Wrapped: err}
	}
	c.SetError(err)
	return nil
}

// foldLocked applies a response. The order matters: the request is resolved before the
// unregistration check so that a response which both ends the stream and settles the last
// request unregisters in this same step.
func (c *Cursor) foldLocked(resp *Response) transition {
	c.resolveLocked()
	c.threshold = len(resp.Data)

	if !c.terminal.set() {
		switch {
		case resp.IsPartial():
			c.items = append(c.items, resp.Data...)
		case resp.IsSequence():
			c.items = append(c.items, resp.Data...)
			c.terminal = terminal{state: exhausted}
		default:
			c.terminal = terminal{state: failed, err: resp.MakeError(c.query)}
		}
	}

	tr := transition{
		fetch:      c.maybeFetchBatchLocked(),
		unregister: c.shouldUnregisterLocked(),
		snapshot:   c.snapshotLocked(),
		batch: &event.BatchReceivedEvent{
			ConnectionID: c.connID,
			Token:        int64(c.token),
			ResponseType: resp.Type.String(),
			Size:         len(resp.Data),
			Buffered:     len(c.items),
		},
	}
	if len(resp.Data) > 0 {
		tr.first = resp.Data[0]
	}
	return tr
}

// resolveLocked settles one in-flight request. The count never drops below zero, which a local
// fault on an idle cursor would otherwise cause.
func (c *Cursor) resolveLocked() {
	if c.outstanding > 0 {
		c.outstanding--
	}
}

// maybeFetchBatchLocked implements the prefetch policy: at most one request in flight, and a
// new one as soon as the buffer is no larger than the last batch.
func (c *Cursor) maybeFetchBatchLocked() bool {
	if c.terminal.set() || len(c.items) > c.threshold || c.outstanding != 0 {
		return false
	}
	c.outstanding++
	return true
}

func (c *Cursor) shouldUnregisterLocked() bool {
	if c.unregistered || !c.terminal.set() || c.outstanding != 0 {
		return false
	}
	c.unregistered = true
	return true
}

func (c *Cursor) snapshotLocked() logger.CursorMessage {
	return logger.CursorMessage{
		ConnectionID: c.connID,
		Token:        int64(c.token),
		Outstanding:  c.outstanding,
		Buffered:     len(c.items),
	}
}

func (c *Cursor) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Cursor) sendContinue() {
	if c.logger.LevelComponentEnabled(logger.LevelDebug, logger.ComponentCursor) {
		c.mu.Lock()
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Print(logger.LevelDebug, logger.ComponentCursor, logger.CursorFetchRequested,
			logger.SerializeCursor(snapshot)...)
	}

	if err := c.conn.Continue(context.Background(), c.token); err != nil {
		// The request never left, so it will never be answered.
		c.fail(err, true)
	}
}

// apply performs the collaborator calls and notifications recorded by a transition.
func (c *Cursor) apply(tr transition) {
	if tr.batch != nil {
		if c.monitor != nil && c.monitor.BatchReceived != nil {
			c.monitor.BatchReceived(context.Background(), tr.batch)
		}
		if c.logger.LevelComponentEnabled(logger.LevelDebug, logger.ComponentCursor) {
			c.logger.Print(logger.LevelDebug, logger.ComponentCursor, logger.CursorBatchReceived,
				logger.SerializeCursor(tr.snapshot,
					logger.KeyResponseType, tr.batch.ResponseType,
					logger.KeyBatchSize, tr.batch.Size,
					logger.KeyFirstItem, logger.FormatDocument(tr.first, c.logger.MaxDocumentLength),
				)...)
		}
	}

	if tr.fetch {
		c.sendContinue()
	}

	if tr.unregister {
		c.conn.RemoveFromCache(c.token)
		c.finish(tr.snapshot)
	}
}

// finish reports the end of the cursor once it has left its connection's cache.
func (c *Cursor) finish(snapshot logger.CursorMessage) {
	failure := c.Err()
	duration := time.Since(c.started)

	if c.monitor != nil && c.monitor.Finished != nil {
		c.monitor.Finished(context.Background(), &event.CursorFinishedEvent{
			ConnectionID: c.connID,
			Token:        int64(c.token),
			Duration:     duration,
			Failure:      failure,
		})
	}

	kvs := logger.SerializeCursor(snapshot, logger.KeyDurationMS, duration.Milliseconds())
	if failure != nil {
		c.logger.Error(failure, logger.ComponentCursor, logger.CursorFailed, kvs...)
		return
	}
	c.logger.Print(logger.LevelInfo, logger.ComponentCursor, logger.CursorFinished, kvs...)
}
