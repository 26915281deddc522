// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package wiremessage

import (
	"encoding/json"

	"github.com/pkg/errors"
)

var (
	continueBody = []byte("[2]")
	stopBody     = []byte("[3]")
)

// StartBody builds the JSON body of a START query for term with the given global optional
// arguments.
func StartBody(term json.RawMessage, globalOpts map[string]interface{}) ([]byte, error) {
	if len(term) == 0 {
		return nil, errors.New("wiremessage: START query requires a term")
	}
	if globalOpts == nil {
		globalOpts = map[string]interface{}{}
	}
	body, err := json.Marshal([]interface{}{StartQuery, term, globalOpts})
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal START query")
	}
	return body, nil
}

// ContinueBody returns the JSON body of a CONTINUE query.
func ContinueBody() []byte { return continueBody }

// StopBody returns the JSON body of a STOP query.
func StopBody() []byte { return stopBody }

// RawResponse is the JSON body of a server response.
type RawResponse struct {
	Type      ResponseType      `json:"t"`
	ErrorType ErrorType         `json:"e,omitempty"`
	Notes     []ResponseNote    `json:"n,omitempty"`
	Data      []json.RawMessage `json:"r"`
	Backtrace json.RawMessage   `json:"b,omitempty"`
	Profile   json.RawMessage   `json:"p,omitempty"`
}

// ParseResponse decodes a response body.
func ParseResponse(body []byte) (RawResponse, error) {
	var rr RawResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return RawResponse{}, errors.Wrap(err, "malformed response body")
	}
	if rr.Type == 0 {
		return RawResponse{}, errors.New("malformed response body: missing response type")
	}
	return rr, nil
}

// MarshalResponse encodes a response body. It is the inverse of ParseResponse and is used by
// test servers.
func MarshalResponse(rr RawResponse) ([]byte, error) {
	if rr.Data == nil {
		rr.Data = []json.RawMessage{}
	}
	body, err := json.Marshal(rr)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal response")
	}
	return body, nil
}

// ParsedQuery is a decoded query body.
type ParsedQuery struct {
	Type       QueryType
	Term       json.RawMessage
	GlobalOpts map[string]interface{}
}

// ParseQuery decodes a query body of the form [type, term?, optargs?].
func ParseQuery(body []byte) (ParsedQuery, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return ParsedQuery{}, errors.Wrap(err, "malformed query body")
	}
	if len(parts) == 0 {
		return ParsedQuery{}, errors.New("malformed query body: empty array")
	}

	var pq ParsedQuery
	if err := json.Unmarshal(parts[0], &pq.Type); err != nil {
		return ParsedQuery{}, errors.Wrap(err, "malformed query type")
	}
	if len(parts) > 1 {
		pq.Term = parts[1]
	}
	if len(parts) > 2 {
		if err := json.Unmarshal(parts[2], &pq.GlobalOpts); err != nil {
			return ParsedQuery{}, errors.Wrap(err, "malformed global optargs")
		}
	}
	if pq.Type == StartQuery && len(pq.Term) == 0 {
		return ParsedQuery{}, errors.New("malformed query body: START without term")
	}
	return pq, nil
}
