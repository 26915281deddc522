// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// IOSink writes JSON lines to an io.Writer through logrus and is the default sink for the
// logger, with the default IO being os.Stderr.
type IOSink struct {
	log *logrus.Logger
}

// Compile-time check to ensure IOSink implements the LogSink interface.
var _ LogSink = &IOSink{}

// NewIOSink will create a new IOSink that writes to the provided io.Writer.
func NewIOSink(out io.Writer) *IOSink {
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: KeyTimestamp,
			logrus.FieldKeyMsg:  KeyMessage,
		},
	})

	return &IOSink{log: log}
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		f[key] = keysAndValues[i+1]
	}
	return f
}

// Info will write the provided message and key-value pairs to the io.Writer as a JSON line.
// Level 0 is written at logrus' info level, anything above at debug level.
func (sink *IOSink) Info(level int, msg string, keysAndValues ...interface{}) {
	entry := sink.log.WithFields(fields(keysAndValues))
	if level > 0 {
		entry.Debug(msg)
		return
	}
	entry.Info(msg)
}

// Error will write the provided error and key-value pairs to the io.Writer as a JSON line.
func (sink *IOSink) Error(err error, msg string, keysAndValues ...interface{}) {
	sink.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}
