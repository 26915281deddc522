// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package connection multiplexes queries and their cursors over an established network
// connection.
package connection // import "github.com/ikmak/reql-go-driver/x/reql/driver/connection"

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ikmak/reql-go-driver/event"
	"github.com/ikmak/reql-go-driver/internal/logger"
	"github.com/ikmak/reql-go-driver/reql/options"
	"github.com/ikmak/reql-go-driver/x/reql/driver"
	"github.com/ikmak/reql-go-driver/x/reql/wiremessage"
)

// Connection implements driver.Connection over a net.Conn on which the handshake has already
// completed. A single goroutine reads responses and routes them by token: the first response of
// a query to the RunQuery call waiting for it, later ones to the query's cursor.
type Connection struct {
	id             string
	nc             net.Conn
	logger         *logger.Logger
	monitor        *event.CursorMonitor
	maxMessageSize int32
	rtt            *rttMonitor

	nextToken int64

	writeMu sync.Mutex
	wbuf    []byte

	mu       sync.Mutex
	cursors  map[driver.Token]*driver.Cursor
	waiters  map[driver.Token]chan *driver.Response
	inflight map[driver.Token]time.Time
	closed   bool
	closeErr error

	done chan struct{}
}

var _ driver.Connection = (*Connection)(nil)

// New wraps nc and starts reading from it. The returned connection owns nc.
func New(nc net.Conn, opts ...*options.ConnectionOptions) (*Connection, error) {
	co := options.MergeConnectionOptions(opts...)

	var lg *logger.Logger
	if co.LoggerOptions != nil || logger.EnvHasComponentVariables() {
		var err error
		if lg, err = options.NewLogger(co.LoggerOptions); err != nil {
			return nil, errors.Wrap(err, "unable to create logger")
		}
	}

	samples := options.DefaultRTTSamples
	if co.RTTSamples != nil {
		samples = *co.RTTSamples
	}
	var maxSize int32
	if co.MaxMessageSize != nil {
		maxSize = *co.MaxMessageSize
	}

	c := &Connection{
		id:             uuid.New().String(),
		nc:             nc,
		logger:         lg,
		monitor:        co.CursorMonitor,
		maxMessageSize: maxSize,
		rtt:            newRTTMonitor(samples),
		cursors:        make(map[driver.Token]*driver.Cursor),
		waiters:        make(map[driver.Token]chan *driver.Response),
		inflight:       make(map[driver.Token]time.Time),
		done:           make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string { return c.id }

// Stats returns round-trip statistics of the CONTINUE requests sent so far.
func (c *Connection) Stats() Stats { return c.rtt.stats() }

// RunQuery sends a START query for term and waits for its first response. Error responses are
// returned as *driver.Error. Any other answer is wrapped in a cursor: a SUCCESS_ATOM becomes a
// single final batch, holding the elements of the atom if it is an array.
func (c *Connection) RunQuery(ctx context.Context, term json.RawMessage, globalOpts map[string]interface{},
	opts ...*options.CursorOptions) (*driver.Cursor, error) {

	if ctx == nil {
		ctx = context.Background()
	}

	q := driver.NewStartQuery(driver.Token(atomic.AddInt64(&c.nextToken, 1)), term, globalOpts)
	body, err := q.Body()
	if err != nil {
		return nil, err
	}

	wait := make(chan *driver.Response, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, c.closedError()
	}
	c.waiters[q.Token] = wait
	c.mu.Unlock()

	c.logger.Print(logger.LevelDebug, logger.ComponentConnection, logger.ConnectionQueryStarted,
		logger.KeyConnectionID, c.id,
		logger.KeyToken, int64(q.Token),
		logger.KeyFirstItem, logger.FormatDocument(term, c.maxDocumentLength()),
	)

	if err := c.write(ctx, q.Token, body); err != nil {
		c.forgetWaiter(q.Token)
		return nil, err
	}

	var resp *driver.Response
	select {
	case resp = <-wait:
	case <-ctx.Done():
		c.forgetWaiter(q.Token)
		// The query keeps running on the server until told otherwise.
		_ = c.write(context.Background(), q.Token, wiremessage.StopBody())
		return nil, driver.TimeoutError{Wrapped: ctx.Err()}
	case <-c.done:
		return nil, c.closedError()
	}

	switch {
	case resp.IsError():
		return nil, resp.MakeError(q)
	case resp.IsAtom():
		resp = atomAsSequence(resp)
	case resp.IsPartial(), resp.IsSequence():
	default:
		return nil, resp.MakeError(q)
	}

	co := options.MergeCursorOptions(opts...)
	monitor := c.monitor
	if co.Monitor != nil {
		monitor = co.Monitor
	}

	cur := driver.NewCursor(c, q, driver.CursorOptions{
		Monitor:      monitor,
		Logger:       c.logger,
		ConnectionID: c.id,
	})
	cur.Extend(resp)
	return cur, nil
}

// atomAsSequence turns a SUCCESS_ATOM into the final batch of a cursor.
func atomAsSequence(resp *driver.Response) *driver.Response {
	seq := *resp
	seq.Type = wiremessage.SuccessSequence
	if len(resp.Data) != 1 {
		return &seq
	}

	atom := bytes.TrimSpace(resp.Data[0])
	if len(atom) > 0 && atom[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(atom, &elems); err == nil {
			seq.Data = elems
		}
	}
	return &seq
}

// AddToCache implements the driver.Connection interface.
func (c *Connection) AddToCache(token driver.Token, cur *driver.Cursor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursors[token] = cur
}

// RemoveFromCache implements the driver.Connection interface.
func (c *Connection) RemoveFromCache(token driver.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cursors, token)
	delete(c.inflight, token)
}

// Continue implements the driver.Connection interface.
func (c *Connection) Continue(ctx context.Context, token driver.Token) error {
	c.mu.Lock()
	c.inflight[token] = time.Now()
	c.mu.Unlock()

	return c.write(ctx, token, wiremessage.ContinueBody())
}

// Stop implements the driver.Connection interface.
func (c *Connection) Stop(ctx context.Context, token driver.Token) error {
	return c.write(ctx, token, wiremessage.StopBody())
}

// IsOpen implements the driver.Connection interface.
func (c *Connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// ReadResponse implements the driver.Connection interface. Responses are folded by the read
// goroutine, so this only waits for the cursor of token to be signalled.
func (c *Connection) ReadResponse(ctx context.Context, token driver.Token) error {
	c.mu.Lock()
	cur, ok := c.cursors[token]
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return c.closedError()
	}
	if !ok {
		return nil
	}

	select {
	case <-cur.Notify():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return c.closedError()
	}
}

// Close closes the network connection and fails every cursor still registered on it. It is
// safe to call more than once.
func (c *Connection) Close() error {
	return c.close(nil)
}

func (c *Connection) close(cause error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.closeErr = cause
	cursors := make([]*driver.Cursor, 0, len(c.cursors))
	for _, cur := range c.cursors {
		cursors = append(cursors, cur)
	}
	c.mu.Unlock()

	close(c.done)
	err := c.nc.Close()

	fault := c.closedError()
	for _, cur := range cursors {
		cur.Abandon(fault)
	}

	c.logger.Print(logger.LevelInfo, logger.ComponentConnection, logger.ConnectionClosed,
		logger.KeyConnectionID, c.id,
		logger.KeyReason, reason(cause),
	)

	if err != nil && cause == nil {
		return Error{ConnectionID: c.id, Wrapped: err, message: "unable to close"}
	}
	return nil
}

func reason(cause error) string {
	if cause == nil {
		return "closed by client"
	}
	return cause.Error()
}

func (c *Connection) closedError() error {
	c.mu.Lock()
	cause := c.closeErr
	c.mu.Unlock()

	if cause == nil {
		return Error{ConnectionID: c.id, Wrapped: ErrConnectionClosed}
	}
	return Error{ConnectionID: c.id, Wrapped: cause, message: "connection failed"}
}

func (c *Connection) forgetWaiter(token driver.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.waiters, token)
}

func (c *Connection) maxDocumentLength() uint {
	if c.logger == nil {
		return logger.DefaultMaxDocumentLength
	}
	return c.logger.MaxDocumentLength
}

func (c *Connection) write(ctx context.Context, token driver.Token, body []byte) error {
	if !c.IsOpen() {
		return c.closedError()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.nc.SetWriteDeadline(deadline)
		defer func() { _ = c.nc.SetWriteDeadline(time.Time{}) }()
	}

	c.wbuf = wiremessage.AppendMessage(c.wbuf[:0], int64(token), body)
	if _, err := c.nc.Write(c.wbuf); err != nil {
		err = Error{ConnectionID: c.id, Wrapped: err, message: "unable to write query"}
		_ = c.close(err)
		return err
	}
	return nil
}

func (c *Connection) readLoop() {
	for {
		token, body, err := wiremessage.ReadMessage(c.nc, c.maxMessageSize)
		if err != nil {
			if c.IsOpen() {
				c.logger.Error(err, logger.ComponentConnection, logger.ConnectionReadFailed,
					logger.KeyConnectionID, c.id)
				_ = c.close(errors.Wrap(err, "read failed"))
			}
			return
		}

		resp, err := driver.ParseResponse(driver.Token(token), body)
		if err != nil {
			c.logger.Error(err, logger.ComponentConnection, logger.ConnectionReadFailed,
				logger.KeyConnectionID, c.id, logger.KeyToken, token)
			_ = c.close(err)
			return
		}

		c.dispatch(resp)
	}
}

func (c *Connection) dispatch(resp *driver.Response) {
	c.mu.Lock()
	if wait, ok := c.waiters[resp.Token]; ok {
		delete(c.waiters, resp.Token)
		c.mu.Unlock()
		wait <- resp
		return
	}
	cur := c.cursors[resp.Token]
	sentAt, sent := c.inflight[resp.Token]
	delete(c.inflight, resp.Token)
	c.mu.Unlock()

	if sent && (resp.IsPartial() || resp.IsSequence()) {
		c.rtt.addSample(time.Since(sentAt))
	}

	if cur == nil {
		c.logger.Print(logger.LevelDebug, logger.ComponentConnection, logger.ConnectionResponseDropped,
			logger.KeyConnectionID, c.id,
			logger.KeyToken, int64(resp.Token),
			logger.KeyResponseType, resp.Type.String(),
		)
		return
	}
	cur.Extend(resp)
}
