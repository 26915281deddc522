// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package wiremessage contains the types and framing helpers of the ReQL JSON wire protocol.
//
// Every message in either direction is framed as an 8 byte little endian query token, a 4 byte
// little endian body length and a JSON body.
package wiremessage

import (
	"strconv"
)

// QueryType is the type of a query sent to the server.
type QueryType int32

// These constants are the query types understood by the server.
const (
	StartQuery       QueryType = 1
	ContinueQuery    QueryType = 2
	StopQuery        QueryType = 3
	NoreplyWaitQuery QueryType = 4
	ServerInfoQuery  QueryType = 5
)

// String implements the fmt.Stringer interface.
func (qt QueryType) String() string {
	switch qt {
	case StartQuery:
		return "START"
	case ContinueQuery:
		return "CONTINUE"
	case StopQuery:
		return "STOP"
	case NoreplyWaitQuery:
		return "NOREPLY_WAIT"
	case ServerInfoQuery:
		return "SERVER_INFO"
	default:
		return "<invalid query type " + strconv.Itoa(int(qt)) + ">"
	}
}

// ResponseType is the kind tag carried by every server response.
type ResponseType int32

// These constants are the response types sent by the server.
const (
	SuccessAtom     ResponseType = 1
	SuccessSequence ResponseType = 2
	SuccessPartial  ResponseType = 3
	WaitComplete    ResponseType = 4
	ServerInfo      ResponseType = 5
	ClientError     ResponseType = 16
	CompileError    ResponseType = 17
	RuntimeError    ResponseType = 18
)

// String implements the fmt.Stringer interface.
func (rt ResponseType) String() string {
	switch rt {
	case SuccessAtom:
		return "SUCCESS_ATOM"
	case SuccessSequence:
		return "SUCCESS_SEQUENCE"
	case SuccessPartial:
		return "SUCCESS_PARTIAL"
	case WaitComplete:
		return "WAIT_COMPLETE"
	case ServerInfo:
		return "SERVER_INFO"
	case ClientError:
		return "CLIENT_ERROR"
	case CompileError:
		return "COMPILE_ERROR"
	case RuntimeError:
		return "RUNTIME_ERROR"
	default:
		return "<invalid response type " + strconv.Itoa(int(rt)) + ">"
	}
}

// IsError reports whether the response type carries an error instead of data.
func (rt ResponseType) IsError() bool {
	return rt == ClientError || rt == CompileError || rt == RuntimeError
}

// ErrorType refines a RuntimeError response.
type ErrorType int32

// These constants are the runtime error types reported by the server.
const (
	InternalError        ErrorType = 1000000
	ResourceLimitError   ErrorType = 2000000
	QueryLogicError      ErrorType = 3000000
	NonExistenceError    ErrorType = 3100000
	OpFailedError        ErrorType = 4100000
	OpIndeterminateError ErrorType = 4200000
	UserError            ErrorType = 5000000
	PermissionError      ErrorType = 6000000
)

// String implements the fmt.Stringer interface.
func (et ErrorType) String() string {
	switch et {
	case 0:
		return "UNKNOWN"
	case InternalError:
		return "INTERNAL"
	case ResourceLimitError:
		return "RESOURCE_LIMIT"
	case QueryLogicError:
		return "QUERY_LOGIC"
	case NonExistenceError:
		return "NON_EXISTENCE"
	case OpFailedError:
		return "OP_FAILED"
	case OpIndeterminateError:
		return "OP_INDETERMINATE"
	case UserError:
		return "USER"
	case PermissionError:
		return "PERMISSION_ERROR"
	default:
		return "<invalid error type " + strconv.Itoa(int(et)) + ">"
	}
}

// ResponseNote describes extra properties of a response, mostly for changefeeds.
type ResponseNote int32

// These constants are the notes the server may attach to a response.
const (
	SequenceFeed     ResponseNote = 1
	AtomFeed         ResponseNote = 2
	OrderByLimitFeed ResponseNote = 3
	UnionedFeed      ResponseNote = 4
	IncludesStates   ResponseNote = 5
)

// String implements the fmt.Stringer interface.
func (rn ResponseNote) String() string {
	switch rn {
	case SequenceFeed:
		return "SEQUENCE_FEED"
	case AtomFeed:
		return "ATOM_FEED"
	case OrderByLimitFeed:
		return "ORDER_BY_LIMIT_FEED"
	case UnionedFeed:
		return "UNIONED_FEED"
	case IncludesStates:
		return "INCLUDES_STATES"
	default:
		return "<invalid response note " + strconv.Itoa(int(rn)) + ">"
	}
}
