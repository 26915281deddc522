// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package driver

import (
	"encoding/json"
	"strconv"

	"github.com/ikmak/reql-go-driver/x/reql/driver/pseudotype"
	"github.com/ikmak/reql-go-driver/x/reql/wiremessage"
)

// Token correlates a query, its cursor and every response that answers it.
type Token int64

// String implements the fmt.Stringer interface.
func (t Token) String() string { return strconv.FormatInt(int64(t), 10) }

// Query is a query sent over a connection. Only START queries carry a term and global optional
// arguments; CONTINUE and STOP queries reuse the token of the START that created the cursor.
type Query struct {
	Type       wiremessage.QueryType
	Token      Token
	Term       json.RawMessage
	GlobalOpts map[string]interface{}
}

// NewStartQuery creates a START query for a serialized term.
func NewStartQuery(token Token, term json.RawMessage, globalOpts map[string]interface{}) *Query {
	return &Query{
		Type:       wiremessage.StartQuery,
		Token:      token,
		Term:       term,
		GlobalOpts: globalOpts,
	}
}

// FormatOptions returns the pseudotype conversion options requested by the query's global
// optional arguments.
func (q *Query) FormatOptions() pseudotype.FormatOptions {
	if q == nil {
		return pseudotype.DefaultFormatOptions()
	}
	return pseudotype.FormatOptionsFrom(q.GlobalOpts)
}

// Body serializes the query into its wire body.
func (q *Query) Body() ([]byte, error) {
	switch q.Type {
	case wiremessage.ContinueQuery:
		return wiremessage.ContinueBody(), nil
	case wiremessage.StopQuery:
		return wiremessage.StopBody(), nil
	default:
		return wiremessage.StartBody(q.Term, q.GlobalOpts)
	}
}
