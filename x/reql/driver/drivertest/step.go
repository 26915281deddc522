// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package drivertest

import (
	"encoding/json"
	"time"

	"github.com/ikmak/reql-go-driver/x/reql/wiremessage"
)

// Step is one scripted server reply.
type Step struct {
	Type      wiremessage.ResponseType
	ErrorType wiremessage.ErrorType
	Data      []interface{}
	// Delay is how long the reply takes to arrive, measured from the first time it is waited
	// for.
	Delay time.Duration
}

// Partial returns a SUCCESS_PARTIAL step carrying items.
func Partial(items ...interface{}) Step {
	return Step{Type: wiremessage.SuccessPartial, Data: items}
}

// Sequence returns a final SUCCESS_SEQUENCE step carrying items.
func Sequence(items ...interface{}) Step {
	return Step{Type: wiremessage.SuccessSequence, Data: items}
}

// Atom returns a SUCCESS_ATOM step carrying v.
func Atom(v interface{}) Step {
	return Step{Type: wiremessage.SuccessAtom, Data: []interface{}{v}}
}

// RuntimeError returns a RUNTIME_ERROR step with the given message.
func RuntimeError(et wiremessage.ErrorType, msg string) Step {
	return Step{Type: wiremessage.RuntimeError, ErrorType: et, Data: []interface{}{msg}}
}

// After returns a copy of s that is delivered d after it is first waited for.
func (s Step) After(d time.Duration) Step {
	s.Delay = d
	return s
}

// Raw renders the step as a response body.
func (s Step) Raw() (wiremessage.RawResponse, error) {
	rr := wiremessage.RawResponse{
		Type:      s.Type,
		ErrorType: s.ErrorType,
		Data:      make([]json.RawMessage, 0, len(s.Data)),
	}
	for _, item := range s.Data {
		if raw, ok := item.(json.RawMessage); ok {
			rr.Data = append(rr.Data, raw)
			continue
		}
		b, err := json.Marshal(item)
		if err != nil {
			return wiremessage.RawResponse{}, err
		}
		rr.Data = append(rr.Data, b)
	}
	return rr, nil
}

// stopAck is the reply a server sends to a STOP query.
var stopAck = Step{Type: wiremessage.SuccessSequence}
