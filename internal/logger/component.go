// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"os"
	"strconv"
)

const (
	logSinkPathEnvVar       = "REQL_LOG_PATH"
	maxDocumentLengthEnvVar = "REQL_LOG_MAX_DOCUMENT_LENGTH"
	reqlLogAllEnvVar        = "REQL_LOG_ALL"
	reqlLogCursorEnvVar     = "REQL_LOG_CURSOR"
	reqlLogConnectionEnvVar = "REQL_LOG_CONNECTION"
	logSinkPathStdout       = "stdout"
	logSinkPathStderr       = "stderr"
)

// Keys shared by every structured log message.
const (
	KeyTimestamp    = "time"
	KeyMessage      = "msg"
	KeyConnectionID = "connectionId"
	KeyToken        = "token"
	KeyOutstanding  = "outstandingRequests"
	KeyBuffered     = "buffered"
	KeyThreshold    = "threshold"
	KeyResponseType = "responseType"
	KeyBatchSize    = "batchSize"
	KeyFirstItem    = "firstItem"
	KeyFailure      = "failure"
	KeyReason       = "reason"
	KeyDurationMS   = "durationMS"
)

// KeyValues is a list of key-value pairs.
type KeyValues []interface{}

// Add adds a key-value pair to an instance of a KeyValues list.
func (kvs *KeyValues) Add(key string, value interface{}) {
	*kvs = append(*kvs, key, value)
}

// Component is an enumeration representing the "components" which can be logged against. A
// Level can be configured on a per-component basis.
type Component int

const (
	// ComponentAll enables logging for all components.
	ComponentAll Component = iota

	// ComponentCursor enables cursor lifecycle and batch logging.
	ComponentCursor

	// ComponentConnection enables connection dispatch logging.
	ComponentConnection
)

var componentEnvVarMap = map[string]Component{
	reqlLogAllEnvVar:        ComponentAll,
	reqlLogCursorEnvVar:     ComponentCursor,
	reqlLogConnectionEnvVar: ComponentConnection,
}

// EnvHasComponentVariables returns true if the environment contains any of the component
// environment variables.
func EnvHasComponentVariables() bool {
	for envVar := range componentEnvVarMap {
		if os.Getenv(envVar) != "" {
			return true
		}
	}

	return false
}

// getEnvMaxDocumentLength returns the maximum document length from the environment, or zero
// if the variable is unset or not a positive integer.
func getEnvMaxDocumentLength() uint {
	max := os.Getenv(maxDocumentLengthEnvVar)
	if max == "" {
		return 0
	}

	n, err := strconv.ParseUint(max, 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}
