// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/ikmak/reql-go-driver/x/reql/driver/drivertest"
	"github.com/ikmak/reql-go-driver/x/reql/wiremessage"
)

// captureLine is one captured response: {"query":1,"t":3,"r":[...]}.
type captureLine struct {
	Query     int                      `json:"query"`
	Type      wiremessage.ResponseType `json:"t"`
	ErrorType wiremessage.ErrorType    `json:"e"`
	Data      []json.RawMessage        `json:"r"`
	DelayMS   int64                    `json:"delay_ms"`
}

// openCapture opens a capture file, decompressing it according to its extension: .sz for
// snappy framed streams and .zst for zstd. "-" reads stdin.
func openCapture(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open capture %s", name)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".sz":
		return readCloser{Reader: snappy.NewReader(f), close: f.Close}, nil
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "cannot read zstd capture %s", name)
		}
		return readCloser{Reader: dec, close: func() error {
			dec.Close()
			return f.Close()
		}}, nil
	default:
		return f, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error { return rc.close() }

// readCapture groups captured responses into one script per query, ordered by the first
// appearance of each query number.
func readCapture(r io.Reader) ([][]drivertest.Step, error) {
	var order []int
	scripts := make(map[int][]drivertest.Step)

	lineNumber := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), wiremessage.DefaultMaxMessageSize)
	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		var cl captureLine
		if err := json.Unmarshal([]byte(line), &cl); err != nil {
			return nil, errors.Wrapf(err, "error parsing line %d", lineNumber)
		}
		if cl.Type == 0 {
			return nil, errors.Errorf("error parsing line %d: missing response type", lineNumber)
		}

		step := drivertest.Step{
			Type:      cl.Type,
			ErrorType: cl.ErrorType,
			Delay:     time.Duration(cl.DelayMS) * time.Millisecond,
		}
		for _, item := range cl.Data {
			step.Data = append(step.Data, item)
		}

		if _, ok := scripts[cl.Query]; !ok {
			order = append(order, cl.Query)
		}
		scripts[cl.Query] = append(scripts[cl.Query], step)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading capture")
	}

	out := make([][]drivertest.Step, 0, len(order))
	for _, q := range order {
		out = append(out, scripts[q])
	}
	return out, nil
}
