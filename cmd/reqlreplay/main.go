// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Command reqlreplay replays captured server responses through the driver's connection and
// cursor, printing every result.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/bombsimon/logrusr/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ikmak/reql-go-driver/reql/options"
)

var (
	configPath  string
	envFile     string
	timeoutFlag string
	rawTime     bool
	logLevel    string
	maxDocLen   uint
)

var rootCmd = &cobra.Command{
	Use:   "reqlreplay [capture]",
	Short: "Replay captured ReQL responses through a cursor",
	Long: `reqlreplay reads a capture of server responses, one JSON object per line,
and serves it to a real connection over an in-memory pipe. Each query in the
capture is run once and its results are printed as indented JSON.

A line looks like {"query":1,"t":3,"r":[1,2,3]} where t is the response type.
Captures ending in .sz are read as snappy streams and .zst as zstd.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "-"
		if len(args) > 0 {
			name = args[0]
		}
		return run(cmd, name, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "File of environment variables to load, e.g. REQL_LOG_PATH")
	rootCmd.Flags().StringVar(&timeoutFlag, "timeout", "", "Deadline for each pull (default from config, 5s)")
	rootCmd.Flags().BoolVar(&rawTime, "raw-time", false, "Print TIME values as received instead of converting them")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: info or debug (default from config, info)")
	rootCmd.Flags().UintVar(&maxDocLen, "max-document-length", 0, "Truncate logged items to this many bytes")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Error("reqlreplay failed")
		stop()
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, captureName string, stdout, stderr io.Writer) error {
	if err := loadEnv(envFile); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.validate(); err != nil {
		return err
	}

	log := newLogger(cfg, stderr)

	rc, err := openCapture(captureName)
	if err != nil {
		return err
	}
	scripts, err := readCapture(rc)
	_ = rc.Close()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sum, err := replay(ctx, cfg, scripts, connectionOptions(cfg, log), log, stdout)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"queries": sum.Queries,
		"items":   sum.Items,
		"failed":  sum.Failed,
	}).Info("done")
	return nil
}

// applyFlags overrides cfg with the flags the user set.
func applyFlags(cmd *cobra.Command, cfg *config) {
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Timeout = timeoutFlag
	}
	if flags.Changed("raw-time") {
		cfg.RawTime = rawTime
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("max-document-length") {
		cfg.MaxDocumentLength = maxDocLen
	}
}

func newLogger(cfg config, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if cfg.LogLevel == "debug" {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// connectionOptions routes the driver's logs to log through a logr sink.
func connectionOptions(cfg config, log *logrus.Logger) *options.ConnectionOptions {
	level := options.LogLevelInfo
	if cfg.LogLevel == "debug" {
		level = options.LogLevelDebug
	}

	lo := options.Logger().
		SetSink(logrusr.New(log).GetSink()).
		SetComponentLevel(options.LogComponentAll, level).
		SetMaxDocumentLength(cfg.MaxDocumentLength)

	return options.Connection().SetLoggerOptions(lo)
}
