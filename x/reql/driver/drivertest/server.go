// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package drivertest

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ikmak/reql-go-driver/x/reql/wiremessage"
)

// ReceivedQuery is a query read by a Server.
type ReceivedQuery struct {
	Token int64
	wiremessage.ParsedQuery
}

// Server answers wire-protocol queries on a net.Conn from scripts. The n-th START query it
// reads is answered from the n-th script; each CONTINUE for that token is answered with the
// next step. Queries are handled one at a time, so a delayed step holds back every token.
type Server struct {
	mu       sync.Mutex
	scripts  [][]Step
	active   map[int64][]Step
	received []ReceivedQuery
}

// NewServer returns a server that will answer START queries with scripts in order.
func NewServer(scripts ...[]Step) *Server {
	return &Server{
		scripts: scripts,
		active:  make(map[int64][]Step),
	}
}

// Received returns a copy of the queries read so far.
func (s *Server) Received() []ReceivedQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedQuery(nil), s.received...)
}

// Serve answers queries on nc until ctx ends or the peer closes the connection. It closes nc
// before returning. A clean close by the peer is not an error.
func (s *Server) Serve(ctx context.Context, nc net.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = nc.Close()
		case <-done:
		}
	}()
	defer nc.Close()

	var out []byte
	for {
		token, body, err := wiremessage.ReadMessage(nc, wiremessage.DefaultMaxMessageSize)
		if err != nil {
			if ctx.Err() != nil || errors.Cause(err) == io.EOF || isClosedPipe(err) {
				return nil
			}
			return err
		}

		pq, err := wiremessage.ParseQuery(body)
		if err != nil {
			return err
		}

		step, ok := s.next(token, pq)
		if !ok {
			continue
		}

		if step.Delay > 0 {
			timer := time.NewTimer(step.Delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil
			}
		}

		rr, err := step.Raw()
		if err != nil {
			return errors.Wrap(err, "unable to render scripted step")
		}
		resp, err := wiremessage.MarshalResponse(rr)
		if err != nil {
			return err
		}
		out = wiremessage.AppendMessage(out[:0], token, resp)
		if _, err := nc.Write(out); err != nil {
			if ctx.Err() != nil || isClosedPipe(err) {
				return nil
			}
			return errors.Wrap(err, "unable to write response")
		}
	}
}

// next picks the reply for a query. NOREPLY_WAIT and SERVER_INFO are answered with a bare
// acknowledgement.
func (s *Server) next(token int64, pq wiremessage.ParsedQuery) (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, ReceivedQuery{Token: token, ParsedQuery: pq})

	switch pq.Type {
	case wiremessage.StartQuery:
		if len(s.scripts) == 0 {
			return Step{
				Type: wiremessage.ClientError,
				Data: []interface{}{"no script for query"},
			}, true
		}
		s.active[token] = s.scripts[0]
		s.scripts = s.scripts[1:]
		return s.popLocked(token), true
	case wiremessage.ContinueQuery:
		return s.popLocked(token), true
	case wiremessage.StopQuery:
		delete(s.active, token)
		return stopAck, true
	case wiremessage.NoreplyWaitQuery:
		return Step{Type: wiremessage.WaitComplete}, true
	case wiremessage.ServerInfoQuery:
		return Step{Type: wiremessage.ServerInfo, Data: []interface{}{map[string]string{"name": "drivertest"}}}, true
	default:
		return Step{}, false
	}
}

func (s *Server) popLocked(token int64) Step {
	script, ok := s.active[token]
	if !ok || len(script) == 0 {
		return Step{
			Type: wiremessage.ClientError,
			Data: []interface{}{"token is not streaming"},
		}
	}
	step := script[0]
	s.active[token] = script[1:]
	if step.Type != wiremessage.SuccessPartial {
		delete(s.active, token)
	}
	return step
}

func isClosedPipe(err error) bool {
	cause := errors.Cause(err)
	return cause == io.ErrClosedPipe || errors.Is(cause, net.ErrClosed)
}
