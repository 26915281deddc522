// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package wiremessage

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMessage(t *testing.T) {
	t.Parallel()

	t.Run("reads consecutive frames", func(t *testing.T) {
		t.Parallel()

		var buf []byte
		buf = AppendMessage(buf, 7, ContinueBody())
		buf = AppendMessage(buf, 1<<40, StopBody())
		r := bytes.NewReader(buf)

		token, body, err := ReadMessage(r, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(7), token)
		assert.Equal(t, "[2]", string(body))

		token, body, err = ReadMessage(r, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1<<40), token)
		assert.Equal(t, "[3]", string(body))

		_, _, err = ReadMessage(r, 0)
		assert.Equal(t, io.EOF, errors.Cause(err))
	})

	t.Run("rejects oversized bodies", func(t *testing.T) {
		t.Parallel()

		buf := AppendMessage(nil, 3, []byte(`{"t":1,"r":[1]}`))
		_, _, err := ReadMessage(bytes.NewReader(buf), 4)
		assert.Equal(t, ErrMessageTooLarge, errors.Cause(err))
	})

	t.Run("truncated body", func(t *testing.T) {
		t.Parallel()

		buf := AppendMessage(nil, 3, []byte(`{"t":1,"r":[1]}`))
		_, _, err := ReadMessage(bytes.NewReader(buf[:len(buf)-2]), 0)
		assert.Equal(t, io.ErrUnexpectedEOF, errors.Cause(err))
	})
}

func TestReadHeader(t *testing.T) {
	t.Parallel()

	_, _, ok := ReadHeader(make([]byte, HeaderLen-1))
	assert.False(t, ok, "expected short header to be rejected")

	hdr := AppendHeader(nil, -2, 42)
	token, length, ok := ReadHeader(hdr)
	require.True(t, ok)
	assert.Equal(t, int64(-2), token)
	assert.Equal(t, int32(42), length)
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	start, err := StartBody(json.RawMessage(`[15,[[14,["blog"]],"posts"]]`), map[string]interface{}{"time_format": "raw"})
	require.NoError(t, err)

	testCases := []struct {
		name    string
		body    []byte
		want    QueryType
		wantErr bool
	}{
		{"start", start, StartQuery, false},
		{"continue", ContinueBody(), ContinueQuery, false},
		{"stop", StopBody(), StopQuery, false},
		{"empty array", []byte(`[]`), 0, true},
		{"not json", []byte(`[2`), 0, true},
		{"start without term", []byte(`[1]`), 0, true},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pq, err := ParseQuery(tc.body)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, pq.Type)
		})
	}

	pq, err := ParseQuery(start)
	require.NoError(t, err)
	assert.JSONEq(t, `[15,[[14,["blog"]],"posts"]]`, string(pq.Term))
	assert.Equal(t, "raw", pq.GlobalOpts["time_format"])
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	rr, err := ParseResponse([]byte(`{"t":3,"r":[1,{"a":2}],"n":[1]}`))
	require.NoError(t, err)
	assert.Equal(t, SuccessPartial, rr.Type)
	assert.Len(t, rr.Data, 2)
	assert.Equal(t, []ResponseNote{SequenceFeed}, rr.Notes)

	rr, err = ParseResponse([]byte(`{"t":18,"e":4100000,"r":["boom"],"b":[0]}`))
	require.NoError(t, err)
	assert.True(t, rr.Type.IsError())
	assert.Equal(t, OpFailedError, rr.ErrorType)

	_, err = ParseResponse([]byte(`{"r":[]}`))
	assert.Error(t, err, "expected missing type to be rejected")

	body, err := MarshalResponse(RawResponse{Type: SuccessSequence})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":2,"r":[]}`, string(body))
}

func TestStringers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CONTINUE", ContinueQuery.String())
	assert.Equal(t, "SUCCESS_PARTIAL", SuccessPartial.String())
	assert.Equal(t, "NON_EXISTENCE", NonExistenceError.String())
	assert.Equal(t, "INCLUDES_STATES", IncludesStates.String())
	assert.Equal(t, "<invalid response type 99>", ResponseType(99).String())
}
