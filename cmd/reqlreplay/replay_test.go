// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/pretty"

	"github.com/ikmak/reql-go-driver/x/reql/driver/drivertest"
	"github.com/ikmak/reql-go-driver/x/reql/wiremessage"
)

const sampleCapture = `# two queries
{"query":1,"t":3,"r":[{"id":1},{"id":2}]}
{"query":2,"t":18,"e":3000000,"r":["No attribute ` + "`x`" + ` in object."]}
{"query":1,"t":2,"r":[{"id":3,"at":{"$reql_type$":"TIME","epoch_time":0,"timezone":"+00:00"}}],"delay_ms":1}
`

func TestReadCapture(t *testing.T) {
	t.Parallel()

	scripts, err := readCapture(strings.NewReader(sampleCapture))
	require.NoError(t, err)
	require.Len(t, scripts, 2)

	require.Len(t, scripts[0], 2)
	assert.Equal(t, wiremessage.SuccessPartial, scripts[0][0].Type)
	assert.Len(t, scripts[0][0].Data, 2)
	assert.Equal(t, wiremessage.SuccessSequence, scripts[0][1].Type)
	assert.Equal(t, time.Millisecond, scripts[0][1].Delay)

	require.Len(t, scripts[1], 1)
	assert.Equal(t, wiremessage.RuntimeError, scripts[1][0].Type)
	assert.Equal(t, wiremessage.QueryLogicError, scripts[1][0].ErrorType)

	t.Run("errors carry the line number", func(t *testing.T) {
		t.Parallel()

		_, err := readCapture(strings.NewReader("{\"query\":1,\"t\":2,\"r\":[]}\nnot json\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")

		_, err = readCapture(strings.NewReader(`{"query":1,"r":[]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing response type")
	})
}

func TestOpenCapture(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	plain := filepath.Join(dir, "capture.jsonl")
	require.NoError(t, os.WriteFile(plain, []byte(sampleCapture), 0o600))

	var sz bytes.Buffer
	w := snappy.NewBufferedWriter(&sz)
	_, err := w.Write([]byte(sampleCapture))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	snappyPath := filepath.Join(dir, "capture.jsonl.sz")
	require.NoError(t, os.WriteFile(snappyPath, sz.Bytes(), 0o600))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zstdPath := filepath.Join(dir, "capture.jsonl.zst")
	require.NoError(t, os.WriteFile(zstdPath, enc.EncodeAll([]byte(sampleCapture), nil), 0o600))
	require.NoError(t, enc.Close())

	for _, name := range []string{plain, snappyPath, zstdPath} {
		name := name
		t.Run(filepath.Ext(name), func(t *testing.T) {
			t.Parallel()

			rc, err := openCapture(name)
			require.NoError(t, err)
			defer rc.Close()

			scripts, err := readCapture(rc)
			require.NoError(t, err)
			assert.Len(t, scripts, 2)
		})
	}

	_, err = openCapture(filepath.Join(dir, "missing.jsonl"))
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "replay.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeout = "250ms"
raw_time = true
log_level = "debug"
db = "blog"
`), 0o600))

	cfg, err = loadConfig(path)
	require.NoError(t, err)
	d, err := cfg.timeout()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, defaultTerm, cfg.Term, "unset keys keep their defaults")
	assert.Equal(t, map[string]interface{}{
		"db":          []interface{}{14, []interface{}{"blog"}},
		"time_format": "raw",
	}, cfg.globalOpts())

	partial := filepath.Join(t.TempDir(), "partial.toml")
	require.NoError(t, os.WriteFile(partial, []byte(`
log_level = "debug"
max_document_length = 64
`), 0o600))

	cfg, err = loadConfig(partial)
	require.NoError(t, err)
	want := defaultConfig()
	want.LogLevel = "debug"
	want.MaxDocumentLength = 64
	assert.Equal(t, want, cfg, "unset keys keep their defaults")
	d, err = cfg.timeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte(`timeout = "soon"`), 0o600))
	_, err = loadConfig(bad)
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	t.Parallel()

	scripts, err := readCapture(strings.NewReader(sampleCapture))
	require.NoError(t, err)

	log := logrus.New()
	var logs bytes.Buffer
	log.SetOutput(&logs)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	sum, err := replay(ctx, defaultConfig(), scripts, nil, log, &out)
	require.NoError(t, err)

	assert.Equal(t, summary{Queries: 2, Items: 3, Failed: 1}, sum)
	assert.Equal(t, string(pretty.Pretty([]byte(`{"id":1}`)))+
		string(pretty.Pretty([]byte(`{"id":2}`)))+
		string(pretty.Pretty([]byte(`{"at":"1970-01-01T00:00:00Z","id":3}`))), out.String())
	assert.Contains(t, logs.String(), "query failed")
	assert.Contains(t, logs.String(), "replay finished")
}

func TestReplayRawTime(t *testing.T) {
	t.Parallel()

	scripts := [][]drivertest.Step{{
		drivertest.Sequence(map[string]interface{}{
			"$reql_type$": "TIME", "epoch_time": 0, "timezone": "+00:00",
		}),
	}}

	cfg := defaultConfig()
	cfg.RawTime = true

	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})

	var out bytes.Buffer
	sum, err := replay(context.Background(), cfg, scripts, nil, log, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Items)
	assert.Contains(t, out.String(), `"$reql_type$": "TIME"`)
}
