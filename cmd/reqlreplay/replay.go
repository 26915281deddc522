// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/pretty"
	"golang.org/x/sync/errgroup"

	"github.com/ikmak/reql-go-driver/reql"
	"github.com/ikmak/reql-go-driver/reql/options"
	"github.com/ikmak/reql-go-driver/x/reql/driver/connection"
	"github.com/ikmak/reql-go-driver/x/reql/driver/drivertest"
)

// summary counts what a replay produced.
type summary struct {
	Queries int
	Items   int
	Failed  int
}

// replay serves scripts to a connection over an in-memory pipe, runs one query per script and
// writes every result to out as indented JSON. A failed query is reported and counted; it does
// not stop the replay.
func replay(ctx context.Context, cfg config, scripts [][]drivertest.Step, connOpts *options.ConnectionOptions,
	log logrus.FieldLogger, out io.Writer) (summary, error) {

	timeout, err := cfg.timeout()
	if err != nil {
		return summary{}, err
	}

	client, server := net.Pipe()
	srv := drivertest.NewServer(scripts...)

	conn, err := connection.New(client, connOpts)
	if err != nil {
		_ = client.Close()
		_ = server.Close()
		return summary{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, server)
	})

	var sum summary
	g.Go(func() error {
		defer conn.Close()

		for i := range scripts {
			sum.Queries++
			n, err := runOne(gctx, conn, cfg, timeout, out)
			sum.Items += n
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				sum.Failed++
				log.WithError(err).WithField("query", i+1).Warn("query failed")
			}
		}

		stats := conn.Stats()
		log.WithFields(logrus.Fields{
			"connection": conn.ID(),
			"samples":    stats.Samples,
			"rtt_avg":    stats.Average,
			"rtt_min":    stats.Min,
			"rtt_p90":    stats.P90,
		}).Info("replay finished")
		return nil
	})

	if err := g.Wait(); err != nil {
		return sum, errors.Wrap(err, "replay aborted")
	}
	return sum, nil
}

func runOne(ctx context.Context, conn *connection.Connection, cfg config, timeout time.Duration,
	out io.Writer) (int, error) {

	cur, err := reql.Run(ctx, conn, json.RawMessage(cfg.Term), cfg.globalOpts())
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	items := 0
	for {
		pullCtx, cancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			pullCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		ok := cur.Next(pullCtx)
		cancel()
		if !ok {
			break
		}

		b, err := json.Marshal(cur.Current())
		if err != nil {
			return items, err
		}
		if _, err := fmt.Fprintf(out, "%s", pretty.Pretty(b)); err != nil {
			return items, err
		}
		items++
	}
	return items, cur.Err()
}
