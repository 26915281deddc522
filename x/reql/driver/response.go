// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package driver

import (
	"encoding/json"
	"fmt"

	"github.com/ikmak/reql-go-driver/x/reql/wiremessage"
)

// Response is an already decoded server reply. Data holds the raw items of the batch; their
// pseudotypes are converted only when a consumer pulls them from a cursor.
type Response struct {
	Token     Token
	Type      wiremessage.ResponseType
	ErrorType wiremessage.ErrorType
	Notes     []wiremessage.ResponseNote
	Data      []json.RawMessage
	Backtrace json.RawMessage
	Profile   json.RawMessage
}

// NewResponse wraps a parsed response body for token.
func NewResponse(token Token, rr wiremessage.RawResponse) *Response {
	return &Response{
		Token:     token,
		Type:      rr.Type,
		ErrorType: rr.ErrorType,
		Notes:     rr.Notes,
		Data:      rr.Data,
		Backtrace: rr.Backtrace,
		Profile:   rr.Profile,
	}
}

// ParseResponse decodes a response body for token.
func ParseResponse(token Token, body []byte) (*Response, error) {
	rr, err := wiremessage.ParseResponse(body)
	if err != nil {
		return nil, err
	}
	return NewResponse(token, rr), nil
}

// IsPartial reports whether more batches follow this one.
func (r *Response) IsPartial() bool { return r.Type == wiremessage.SuccessPartial }

// IsSequence reports whether this is the final batch of a sequence.
func (r *Response) IsSequence() bool { return r.Type == wiremessage.SuccessSequence }

// IsAtom reports whether the response carries a single value rather than a stream.
func (r *Response) IsAtom() bool { return r.Type == wiremessage.SuccessAtom }

// IsError reports whether the response reports a failed query.
func (r *Response) IsError() bool { return r.Type.IsError() }

// IsFeed reports whether the response belongs to a changefeed.
func (r *Response) IsFeed() bool {
	for _, note := range r.Notes {
		switch note {
		case wiremessage.SequenceFeed, wiremessage.AtomFeed, wiremessage.OrderByLimitFeed, wiremessage.UnionedFeed:
			return true
		}
	}
	return false
}

// MakeError builds the error carried by an error response, annotated with the query that
// produced it. Non-error responses that cannot be folded into a cursor yield an
// UnexpectedResponseError.
func (r *Response) MakeError(q *Query) error {
	if !r.IsError() {
		return UnexpectedResponseError{Token: r.Token, Type: r.Type}
	}

	e := &Error{
		Type:      r.Type,
		ErrorType: r.ErrorType,
		Backtrace: r.Backtrace,
	}
	if q != nil {
		e.Term = q.Term
	}
	if len(r.Data) > 0 {
		var msg string
		if err := json.Unmarshal(r.Data[0], &msg); err == nil {
			e.Message = msg
		} else {
			e.Message = string(r.Data[0])
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("server returned %s without a message", r.Type)
	}
	return e
}
