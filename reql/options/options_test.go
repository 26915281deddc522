// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikmak/reql-go-driver/event"
	"github.com/ikmak/reql-go-driver/internal/logger"
)

type nopSink struct{}

func (nopSink) Info(int, string, ...interface{})    {}
func (nopSink) Error(error, string, ...interface{}) {}

func TestMergeCursorOptions(t *testing.T) {
	t.Parallel()

	first := &event.CursorMonitor{}
	second := &event.CursorMonitor{}

	merged := MergeCursorOptions(nil, Cursor().SetMonitor(first), nil, Cursor().SetMonitor(second), Cursor())
	assert.Same(t, second, merged.Monitor, "last non-nil monitor wins")

	assert.Nil(t, MergeCursorOptions().Monitor)
}

func TestMergeConnectionOptions(t *testing.T) {
	t.Parallel()

	lo := Logger().SetMaxDocumentLength(10)
	monitor := &event.CursorMonitor{}

	merged := MergeConnectionOptions(
		Connection().SetRTTSamples(5).SetMaxMessageSize(1024),
		nil,
		Connection().SetLoggerOptions(lo).SetCursorMonitor(monitor).SetRTTSamples(7),
	)

	require.NotNil(t, merged.RTTSamples)
	assert.Equal(t, 7, *merged.RTTSamples)
	require.NotNil(t, merged.MaxMessageSize)
	assert.Equal(t, int32(1024), *merged.MaxMessageSize)
	assert.Same(t, lo, merged.LoggerOptions)
	assert.Same(t, monitor, merged.CursorMonitor)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	sink := nopSink{}
	lo := Logger().
		SetSink(sink).
		SetMaxDocumentLength(42).
		SetComponentLevel(LogComponentCursor, LogLevelDebug).
		SetComponentLevel(LogComponentConnection, LogLevelInfo)

	lg, err := NewLogger(lo)
	require.NoError(t, err)

	assert.Equal(t, uint(42), lg.MaxDocumentLength)
	assert.Equal(t, sink, lg.Sink)
	assert.True(t, lg.LevelComponentEnabled(logger.LevelDebug, logger.ComponentCursor))
	assert.True(t, lg.LevelComponentEnabled(logger.LevelInfo, logger.ComponentConnection))
	assert.False(t, lg.LevelComponentEnabled(logger.LevelDebug, logger.ComponentConnection))
}

func TestSetComponentLevelOnZeroValue(t *testing.T) {
	t.Parallel()

	var lo LoggerOptions
	lo.SetComponentLevel(LogComponentAll, LogLevelInfo)
	assert.Equal(t, LogLevelInfo, lo.ComponentLevels[LogComponentAll])
}
