// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/bombsimon/logrusr/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogSink struct{}

func (mockLogSink) Info(int, string, ...interface{})    {}
func (mockLogSink) Error(error, string, ...interface{}) {}

type recordingSink struct {
	mu      sync.Mutex
	levels  []int
	msgs    []string
	errs    []error
	lastKVs []interface{}
}

func (s *recordingSink) Info(level int, msg string, kv ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = append(s.levels, level)
	s.msgs = append(s.msgs, msg)
	s.lastKVs = kv
}

func (s *recordingSink) Error(err error, msg string, kv ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
	s.msgs = append(s.msgs, msg)
	s.lastKVs = kv
}

func BenchmarkLogger(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	b.Run("Print", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		logger, err := New(mockLogSink{}, 0, map[Component]Level{
			ComponentCursor: LevelDebug,
		})
		if err != nil {
			b.Fatal(err)
		}

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				logger.Print(LevelInfo, ComponentCursor, "foo", "bar", "baz")
			}
		})
	})
}

func mockKeyValues(length int) (KeyValues, map[string]interface{}) {
	keysAndValues := KeyValues{}
	m := map[string]interface{}{}

	for i := 0; i < length; i++ {
		keyName := fmt.Sprintf("key%d", i)
		valueName := fmt.Sprintf("value%d", i)

		keysAndValues.Add(keyName, valueName)
		m[keyName] = valueName
	}

	return keysAndValues, m
}

func TestIOSinkInfo(t *testing.T) {
	t.Parallel()

	const threshold = 1000

	mockKeyValues, kvmap := mockKeyValues(10)

	buf := new(bytes.Buffer)
	sink := NewIOSink(buf)

	wg := sync.WaitGroup{}
	wg.Add(threshold)

	for i := 0; i < threshold; i++ {
		go func() {
			defer wg.Done()

			sink.Info(0, "foo", mockKeyValues...)
		}()
	}

	wg.Wait()

	lines := 0
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]interface{}
		require.NoError(t, dec.Decode(&m), "error unmarshaling JSON")
		lines++

		assert.Equal(t, "foo", m[KeyMessage])
		assert.Equal(t, "info", m["level"])

		delete(m, KeyTimestamp)
		delete(m, KeyMessage)
		delete(m, "level")

		assert.Equal(t, kvmap, m)
	}
	assert.Equal(t, threshold, lines)
}

func TestIOSinkLevelsAndErrors(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	sink := NewIOSink(buf)

	sink.Info(1, "debugging", KeyToken, 4)
	sink.Error(errors.New("boom"), "failed", KeyToken, 5)

	dec := json.NewDecoder(buf)

	var debug map[string]interface{}
	require.NoError(t, dec.Decode(&debug))
	assert.Equal(t, "debug", debug["level"])
	assert.Equal(t, float64(4), debug[KeyToken])

	var failed map[string]interface{}
	require.NoError(t, dec.Decode(&failed))
	assert.Equal(t, "error", failed["level"])
	assert.Equal(t, "boom", failed[logrus.ErrorKey])
}

func TestSelectMaxDocumentLength(t *testing.T) {
	for _, tcase := range []struct {
		name     string
		arg      uint
		expected uint
		env      map[string]string
	}{
		{
			name:     "default",
			arg:      0,
			expected: DefaultMaxDocumentLength,
		},
		{
			name:     "non-zero",
			arg:      100,
			expected: 100,
		},
		{
			name:     "valid env",
			arg:      0,
			expected: 100,
			env: map[string]string{
				maxDocumentLengthEnvVar: "100",
			},
		},
		{
			name:     "invalid env",
			arg:      0,
			expected: DefaultMaxDocumentLength,
			env: map[string]string{
				maxDocumentLengthEnvVar: "foo",
			},
		},
	} {
		tcase := tcase

		t.Run(tcase.name, func(t *testing.T) {
			for k, v := range tcase.env {
				t.Setenv(k, v)
			}

			actual := selectMaxDocumentLength(tcase.arg)
			assert.Equal(t, tcase.expected, actual)
		})
	}
}

func TestSelectLogSink(t *testing.T) {
	t.Run("user sink wins", func(t *testing.T) {
		t.Setenv(logSinkPathEnvVar, logSinkPathStdout)

		actual, file, err := selectLogSink(mockLogSink{})
		require.NoError(t, err)
		assert.Nil(t, file)
		assert.Equal(t, mockLogSink{}, actual)
	})

	for _, tcase := range []struct {
		name     string
		env      string
		expected *os.File
	}{
		{name: "default", env: "", expected: os.Stderr},
		{name: "stdout", env: logSinkPathStdout, expected: os.Stdout},
		{name: "stderr", env: "STDERR", expected: os.Stderr},
	} {
		tcase := tcase

		t.Run(tcase.name, func(t *testing.T) {
			t.Setenv(logSinkPathEnvVar, tcase.env)

			actual, _, err := selectLogSink(nil)
			require.NoError(t, err)

			ioSink, ok := actual.(*IOSink)
			require.True(t, ok, "expected *IOSink, got %T", actual)
			assert.Equal(t, tcase.expected, ioSink.log.Out)
		})
	}

	t.Run("file", func(t *testing.T) {
		path := t.TempDir() + "/driver.log"
		t.Setenv(logSinkPathEnvVar, path)

		logger, err := New(nil, 0, map[Component]Level{ComponentCursor: LevelInfo})
		require.NoError(t, err)

		logger.Print(LevelInfo, ComponentCursor, CursorClosed, KeyToken, 1)
		require.NoError(t, logger.Close())

		contents, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(contents), CursorClosed)
	})
}

func TestSelectedComponentLevels(t *testing.T) {
	for _, tcase := range []struct {
		name     string
		arg      map[Component]Level
		expected map[Component]Level
		env      map[string]string
	}{
		{
			name: "default",
			arg:  nil,
			expected: map[Component]Level{
				ComponentCursor:     LevelOff,
				ComponentConnection: LevelOff,
			},
		},
		{
			name: "non-nil",
			arg: map[Component]Level{
				ComponentCursor: LevelDebug,
			},
			expected: map[Component]Level{
				ComponentCursor:     LevelDebug,
				ComponentConnection: LevelOff,
			},
		},
		{
			name: "valid env",
			arg:  nil,
			expected: map[Component]Level{
				ComponentCursor:     LevelDebug,
				ComponentConnection: LevelInfo,
			},
			env: map[string]string{
				reqlLogCursorEnvVar:     levelLiteralDebug,
				reqlLogConnectionEnvVar: levelLiteralWarning,
			},
		},
		{
			name: "all env",
			arg: map[Component]Level{
				ComponentConnection: LevelInfo,
			},
			expected: map[Component]Level{
				ComponentAll:        LevelDebug,
				ComponentCursor:     LevelDebug,
				ComponentConnection: LevelInfo,
			},
			env: map[string]string{
				reqlLogAllEnvVar: "TRACE",
			},
		},
		{
			name: "invalid env",
			arg:  nil,
			expected: map[Component]Level{
				ComponentCursor:     LevelOff,
				ComponentConnection: LevelOff,
			},
			env: map[string]string{
				reqlLogCursorEnvVar:     "foo",
				reqlLogConnectionEnvVar: "bar",
			},
		},
	} {
		tcase := tcase

		t.Run(tcase.name, func(t *testing.T) {
			for k, v := range tcase.env {
				t.Setenv(k, v)
			}

			actual := selectComponentLevels(tcase.arg)
			for k, v := range tcase.expected {
				assert.Equal(t, v, actual[k], "unexpected level for component %d", k)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	for _, tcase := range []struct {
		name     string
		arg      string
		width    uint
		expected string
	}{
		{
			name:     "empty",
			arg:      "",
			width:    0,
			expected: "",
		},
		{
			name:     "short",
			arg:      "foo",
			width:    DefaultMaxDocumentLength,
			expected: "foo",
		},
		{
			name:     "long",
			arg:      "foo bar baz",
			width:    9,
			expected: "foo bar b...",
		},
		{
			name:     "multi-byte",
			arg:      "你好",
			width:    4,
			expected: "你...",
		},
	} {
		tcase := tcase

		t.Run(tcase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tcase.expected, truncate(tcase.arg, tcase.width))
		})
	}
}

func TestFormatDocument(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1,"b":[1,2]}`, FormatDocument([]byte("{\n  \"a\": 1,\n  \"b\": [1, 2]\n}"), DefaultMaxDocumentLength))
	assert.Equal(t, `{"a":...`, FormatDocument([]byte(`{"a": 12345}`), 5))
	assert.Equal(t, "", FormatDocument(nil, 10))
}

func TestLogger_LevelComponentEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		logger    *Logger
		level     Level
		component Component
		want      bool
	}{
		{
			name:      "nil",
			logger:    nil,
			level:     LevelInfo,
			component: ComponentCursor,
			want:      false,
		},
		{
			name:      "zero",
			logger:    &Logger{},
			level:     LevelOff,
			component: ComponentCursor,
			want:      false,
		},
		{
			name: "empty",
			logger: &Logger{
				ComponentLevels: map[Component]Level{},
			},
			level:     LevelOff,
			component: ComponentCursor,
			want:      false,
		},
		{
			name: "one level below",
			logger: &Logger{
				ComponentLevels: map[Component]Level{
					ComponentCursor: LevelDebug,
				},
			},
			level:     LevelInfo,
			component: ComponentCursor,
			want:      true,
		},
		{
			name: "one level above",
			logger: &Logger{
				ComponentLevels: map[Component]Level{
					ComponentCursor: LevelInfo,
				},
			},
			level:     LevelDebug,
			component: ComponentCursor,
			want:      false,
		},
		{
			name: "component mismatch",
			logger: &Logger{
				ComponentLevels: map[Component]Level{
					ComponentCursor: LevelDebug,
				},
			},
			level:     LevelDebug,
			component: ComponentConnection,
			want:      false,
		},
		{
			name: "component all enables all components",
			logger: &Logger{
				ComponentLevels: map[Component]Level{
					ComponentAll: LevelDebug,
				},
			},
			level:     LevelDebug,
			component: ComponentConnection,
			want:      true,
		},
	}

	for _, tcase := range tests {
		tcase := tcase

		t.Run(tcase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tcase.want, tcase.logger.LevelComponentEnabled(tcase.level, tcase.component))
		})
	}
}

func TestLoggerPrint(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	logger, err := New(sink, 0, map[Component]Level{ComponentCursor: LevelDebug})
	require.NoError(t, err)

	logger.Print(LevelDebug, ComponentCursor, CursorBatchReceived, SerializeCursor(CursorMessage{Token: 3, Buffered: 2}, KeyBatchSize, 2)...)
	logger.Print(LevelInfo, ComponentConnection, ConnectionClosed)
	logger.Error(errors.New("bad"), ComponentCursor, CursorFailed)

	assert.Equal(t, []string{CursorBatchReceived, CursorFailed}, sink.msgs)
	assert.Equal(t, []int{int(LevelDebug) - DiffToInfo}, sink.levels)
	assert.Len(t, sink.errs, 1)
}

func TestLogrSinkCompatibility(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	lr := logrus.New()
	lr.SetOutput(buf)
	lr.SetLevel(logrus.DebugLevel)

	var sink LogSink = logrusr.New(lr).GetSink()
	logger, err := New(sink, 0, map[Component]Level{ComponentAll: LevelDebug})
	require.NoError(t, err)

	logger.Print(LevelInfo, ComponentConnection, ConnectionQueryStarted, KeyToken, 9)
	assert.Contains(t, buf.String(), ConnectionQueryStarted)
}
