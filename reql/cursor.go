// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package reql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/ikmak/reql-go-driver/reql/options"
	"github.com/ikmak/reql-go-driver/x/reql/driver"
	"github.com/ikmak/reql-go-driver/x/reql/driver/pseudotype"
)

// Runner starts queries. *connection.Connection implements it.
type Runner interface {
	RunQuery(ctx context.Context, term json.RawMessage, globalOpts map[string]interface{},
		opts ...*options.CursorOptions) (*driver.Cursor, error)
}

// Run sends term with the given global optional arguments and returns a cursor over its result.
// Errors reported by the server in answer to the query are returned as *Error.
func Run(ctx context.Context, r Runner, term json.RawMessage, globalOpts map[string]interface{},
	opts ...*options.CursorOptions) (*Cursor, error) {

	dc, err := r.RunQuery(ctx, term, globalOpts, opts...)
	if err != nil {
		return nil, err
	}
	return newCursor(dc)
}

// Cursor is used to iterate the result of a query.
//
// A typical usage of the Cursor type would be:
//
//	defer cur.Close(ctx)
//
//	for cur.Next(ctx) {
//		var row map[string]interface{}
//		if err := cur.Decode(&row); err != nil {
//			log.Fatal(err)
//		}
//
//		// do something with row....
//	}
//
//	if err := cur.Err(); err != nil {
//		log.Fatal(err)
//	}
type Cursor struct {
	dc      *driver.Cursor
	format  pseudotype.FormatOptions
	current interface{}
	raw     json.RawMessage

	err error
}

func newCursor(dc *driver.Cursor) (*Cursor, error) {
	if dc == nil {
		return nil, ErrNilCursor
	}
	return &Cursor{dc: dc, format: dc.Query().FormatOptions()}, nil
}

// Token returns the token of the query the cursor reads.
func (c *Cursor) Token() int64 { return int64(c.dc.Token()) }

// Next gets the next result from this cursor. Returns true if there were no errors and the next
// result is available through Current and Decode. It returns false at the end of the result, on
// error, and when ctx ends before a result arrives; Err tells these apart.
func (c *Cursor) Next(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.err != nil && !driver.IsTimeout(c.err) {
		return false
	}
	c.err = nil

	raw, err := c.dc.NextRaw(ctx)
	if err != nil {
		c.current, c.raw = nil, nil
		if !errors.Is(err, driver.ErrCursorExhausted) {
			c.err = err
		}
		return false
	}

	current, err := pseudotype.Decode(raw, c.format)
	if err != nil {
		c.current, c.raw = nil, nil
		c.err = err
		return false
	}
	c.current, c.raw = current, raw
	return true
}

// Current returns the current result with its pseudotypes converted.
func (c *Cursor) Current() interface{} { return c.current }

// Raw returns the current result as received from the server.
func (c *Cursor) Raw() json.RawMessage { return c.raw }

// Decode will decode the current result into val. Converted pseudotypes decode into their Go
// types, so a TIME may be decoded into a time.Time field.
func (c *Cursor) Decode(val interface{}) error {
	if c.raw == nil {
		return errors.New("no current result to decode")
	}
	b, err := json.Marshal(c.current)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, val)
}

// All iterates the cursor and decodes every remaining result into results, which must be a
// pointer to a slice. The slice is reset first. The cursor is closed when All returns.
func (c *Cursor) All(ctx context.Context, results interface{}) error {
	resultsVal := reflect.ValueOf(results)
	if resultsVal.Kind() != reflect.Ptr {
		return fmt.Errorf("results argument must be a pointer to a slice, but was a %s", resultsVal.Kind())
	}

	sliceVal := resultsVal.Elem()
	if sliceVal.Kind() == reflect.Interface {
		sliceVal = sliceVal.Elem()
	}
	if sliceVal.Kind() != reflect.Slice {
		return fmt.Errorf("results argument must be a pointer to a slice, but was a pointer to %s", sliceVal.Kind())
	}

	elementType := sliceVal.Type().Elem()
	var index int
	var err error

	defer c.Close(ctx)

	for c.Next(ctx) {
		if sliceVal, err = c.addFromBatch(sliceVal, elementType, index); err != nil {
			return err
		}
		index++
	}

	resultsVal.Elem().Set(sliceVal.Slice(0, index))
	return c.Err()
}

func (c *Cursor) addFromBatch(sliceVal reflect.Value, elemType reflect.Type, index int) (reflect.Value, error) {
	if sliceVal.Len() == index {
		// slice is full
		newElem := reflect.New(elemType)
		sliceVal = reflect.Append(sliceVal, newElem.Elem())
		sliceVal = sliceVal.Slice(0, sliceVal.Cap())
	}

	sliceVal.Index(index).Set(reflect.Zero(elemType))
	currElem := sliceVal.Index(index).Addr().Interface()
	if err := c.Decode(currElem); err != nil {
		return sliceVal, err
	}
	return sliceVal, nil
}

// Err returns the error that stopped the last call to Next, or nil if the result ended cleanly.
func (c *Cursor) Err() error { return c.err }

// Close closes this cursor. Results already buffered may still be read with Next.
func (c *Cursor) Close(ctx context.Context) error { return c.dc.Close(ctx) }
