// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package wiremessage

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// HeaderLen is the length in bytes of a frame header.
const HeaderLen = 12

// DefaultMaxMessageSize is the largest body ReadMessage accepts unless told otherwise.
const DefaultMaxMessageSize = 64 * 1024 * 1024

// ErrMessageTooLarge is returned when a frame announces a body larger than the allowed maximum.
var ErrMessageTooLarge = errors.New("wiremessage: message body exceeds maximum size")

// AppendHeader appends a frame header for the given token and body length to dst.
func AppendHeader(dst []byte, token int64, length int32) []byte {
	var hdr [HeaderLen]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(token))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(length))
	return append(dst, hdr[:]...)
}

// ReadHeader parses a frame header. ok is false if src is shorter than HeaderLen.
func ReadHeader(src []byte) (token int64, length int32, ok bool) {
	if len(src) < HeaderLen {
		return 0, 0, false
	}
	token = int64(binary.LittleEndian.Uint64(src[0:8]))
	length = int32(binary.LittleEndian.Uint32(src[8:12]))
	return token, length, true
}

// AppendMessage appends a complete frame carrying body to dst.
func AppendMessage(dst []byte, token int64, body []byte) []byte {
	dst = AppendHeader(dst, token, int32(len(body)))
	return append(dst, body...)
}

// ReadMessage reads one frame from r and returns its token and body. A maxSize of zero means
// DefaultMaxMessageSize.
func ReadMessage(r io.Reader, maxSize int32) (int64, []byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}

	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, errors.Wrap(err, "unable to read message header")
	}

	token, length, _ := ReadHeader(hdr[:])
	if length < 0 || length > maxSize {
		return token, nil, errors.Wrapf(ErrMessageTooLarge, "token %d announced %d bytes", token, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return token, nil, errors.Wrapf(err, "unable to read message body for token %d", token)
	}
	return token, body, nil
}
