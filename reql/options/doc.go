// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package options defines the optional configurations for connections, cursors and logging.
// Every options type is built with a constructor and chained setters:
//
//	opts := options.Connection().
//		SetLoggerOptions(options.Logger().SetComponentLevel(options.LogComponentCursor, options.LogLevelDebug)).
//		SetRTTSamples(50)
package options
