// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ikmak/reql-go-driver/x/reql/wiremessage"
)

// ErrCursorExhausted is returned by Next once every item has been consumed from a cursor that
// reached the end of its stream or was closed.
var ErrCursorExhausted = errors.New("cursor exhausted")

var errLocalFault = errors.New("cursor failed locally")

// Error is a query failure. It is either reported by the server in an error response or
// raised locally when the connection fails underneath a cursor; in the latter case Wrapped
// holds the cause and ErrorType is zero.
type Error struct {
	Type      wiremessage.ResponseType
	ErrorType wiremessage.ErrorType
	Message   string
	Backtrace json.RawMessage
	Term      json.RawMessage
	Wrapped   error
}

func newLocalError(err error) *Error {
	if err == nil {
		err = errLocalFault
	}
	return &Error{
		Type:    wiremessage.RuntimeError,
		Message: err.Error(),
		Wrapped: err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.kind())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Term) > 0 {
		b.WriteString(" in: ")
		b.Write(e.Term)
	}
	return b.String()
}

// Unwrap returns the local cause of the error, if any.
func (e *Error) Unwrap() error { return e.Wrapped }

// Local reports whether the error was raised by the driver rather than the server.
func (e *Error) Local() bool { return e.Wrapped != nil }

func (e *Error) kind() string {
	switch e.Type {
	case wiremessage.ClientError:
		return "client error"
	case wiremessage.CompileError:
		return "compile error"
	}

	switch e.ErrorType {
	case wiremessage.InternalError:
		return "internal error"
	case wiremessage.ResourceLimitError:
		return "resource limit error"
	case wiremessage.QueryLogicError:
		return "query logic error"
	case wiremessage.NonExistenceError:
		return "non-existence error"
	case wiremessage.OpFailedError:
		return "operation failed"
	case wiremessage.OpIndeterminateError:
		return "operation indeterminate"
	case wiremessage.UserError:
		return "user error"
	case wiremessage.PermissionError:
		return "permission error"
	default:
		return "runtime error"
	}
}

// UnexpectedResponseError is the terminal error of a cursor that received a response type it
// cannot fold, such as a SUCCESS_ATOM answering a CONTINUE.
type UnexpectedResponseError struct {
	Token Token
	Type  wiremessage.ResponseType
}

// Error implements the error interface.
func (e UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected %s response for token %d", e.Type, e.Token)
}

// TimeoutError is returned by a pull whose context ended before an item or a terminal condition
// arrived. It never ends the cursor; a later pull may succeed.
type TimeoutError struct {
	Wrapped error
}

// Error implements the error interface.
func (e TimeoutError) Error() string {
	return "timed out waiting for cursor data: " + e.Wrapped.Error()
}

// Unwrap returns the context error that ended the pull.
func (e TimeoutError) Unwrap() error { return e.Wrapped }

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var te TimeoutError
	return errors.As(err, &te)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
