// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package pseudotype converts the server's placeholder objects (times, grouped data and binary
// blobs tagged with "$reql_type$") into native Go values.
package pseudotype

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// TypeKey is the object key marking a pseudotype.
const TypeKey = "$reql_type$"

// Format selects how a pseudotype is presented to the caller.
type Format string

// These constants are the supported formats.
const (
	Native Format = "native"
	Raw    Format = "raw"
)

// FormatOptions controls pseudotype conversion per kind.
type FormatOptions struct {
	TimeFormat   Format
	GroupFormat  Format
	BinaryFormat Format
}

// DefaultFormatOptions converts every pseudotype natively.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{TimeFormat: Native, GroupFormat: Native, BinaryFormat: Native}
}

// FormatOptionsFrom reads the time_format, group_format and binary_format global optional
// arguments of a query. Missing or unrecognised values fall back to Native.
func FormatOptionsFrom(globalOpts map[string]interface{}) FormatOptions {
	return FormatOptions{
		TimeFormat:   formatOpt(globalOpts, "time_format"),
		GroupFormat:  formatOpt(globalOpts, "group_format"),
		BinaryFormat: formatOpt(globalOpts, "binary_format"),
	}
}

func formatOpt(opts map[string]interface{}, key string) Format {
	if s, ok := opts[key].(string); ok && Format(s) == Raw {
		return Raw
	}
	return Native
}

// GroupedResult is one group of a GROUPED_DATA pseudotype.
type GroupedResult struct {
	Group     interface{} `json:"group"`
	Reduction interface{} `json:"reduction"`
}

// UnknownTypeError is returned for objects tagged with a pseudotype this package does not know.
type UnknownTypeError struct {
	Type string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown pseudotype %q", e.Type)
}

// Decode decodes a raw JSON item, keeping numbers as json.Number, and converts its pseudotypes.
func Decode(raw json.RawMessage, fo FormatOptions) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("unable to decode item: %w", err)
	}
	return Convert(v, fo)
}

// Convert walks a decoded JSON value and replaces pseudotype objects according to fo.
func Convert(v interface{}, fo FormatOptions) (interface{}, error) {
	switch tv := v.(type) {
	case map[string]interface{}:
		if reqlType, ok := tv[TypeKey].(string); ok {
			return convertPseudotype(reqlType, tv, fo)
		}
		for k, elem := range tv {
			converted, err := Convert(elem, fo)
			if err != nil {
				return nil, err
			}
			tv[k] = converted
		}
		return tv, nil
	case []interface{}:
		for i, elem := range tv {
			converted, err := Convert(elem, fo)
			if err != nil {
				return nil, err
			}
			tv[i] = converted
		}
		return tv, nil
	default:
		return v, nil
	}
}

func convertPseudotype(reqlType string, obj map[string]interface{}, fo FormatOptions) (interface{}, error) {
	switch reqlType {
	case "TIME":
		if fo.TimeFormat == Raw {
			return obj, nil
		}
		return convertTime(obj)
	case "GROUPED_DATA":
		if fo.GroupFormat == Raw {
			return obj, nil
		}
		return convertGroupedData(obj, fo)
	case "BINARY":
		if fo.BinaryFormat == Raw {
			return obj, nil
		}
		return convertBinary(obj)
	case "GEOMETRY":
		// GeoJSON is passed through untouched.
		return obj, nil
	default:
		return nil, UnknownTypeError{Type: reqlType}
	}
}

func convertTime(obj map[string]interface{}) (time.Time, error) {
	epoch, err := toFloat(obj["epoch_time"])
	if err != nil {
		return time.Time{}, fmt.Errorf("TIME pseudotype: invalid epoch_time: %w", err)
	}

	sec, frac := math.Modf(epoch)
	t := time.Unix(int64(sec), int64(math.Round(frac*1e9)))

	tz, _ := obj["timezone"].(string)
	if tz == "" {
		return t.UTC(), nil
	}
	offset, err := time.Parse("Z07:00", tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("TIME pseudotype: invalid timezone %q", tz)
	}
	_, secondsEast := offset.Zone()
	return t.In(time.FixedZone(tz, secondsEast)), nil
}

func convertGroupedData(obj map[string]interface{}, fo FormatOptions) ([]GroupedResult, error) {
	data, ok := obj["data"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("GROUPED_DATA pseudotype: data is %T, not an array", obj["data"])
	}

	groups := make([]GroupedResult, 0, len(data))
	for _, pair := range data {
		kv, ok := pair.([]interface{})
		if !ok || len(kv) != 2 {
			return nil, fmt.Errorf("GROUPED_DATA pseudotype: malformed group %v", pair)
		}
		group, err := Convert(kv[0], fo)
		if err != nil {
			return nil, err
		}
		reduction, err := Convert(kv[1], fo)
		if err != nil {
			return nil, err
		}
		groups = append(groups, GroupedResult{Group: group, Reduction: reduction})
	}
	return groups, nil
}

func convertBinary(obj map[string]interface{}) ([]byte, error) {
	s, ok := obj["data"].(string)
	if !ok {
		return nil, fmt.Errorf("BINARY pseudotype: data is %T, not a string", obj["data"])
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("BINARY pseudotype: %w", err)
	}
	return b, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("%v (%T) is not a number", v, v)
	}
}
