// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

const defaultTerm = `[15,[[14,["test"]],"items"]]`

// config is the replay configuration. Values come from the TOML file named by --config and
// are overridden by flags that were set explicitly.
type config struct {
	Timeout           string `toml:"timeout"`
	RawTime           bool   `toml:"raw_time"`
	LogLevel          string `toml:"log_level"`
	MaxDocumentLength uint   `toml:"max_document_length"`
	Term              string `toml:"term"`
	DB                string `toml:"db"`
}

func defaultConfig() config {
	return config{
		Timeout:  "5s",
		LogLevel: "info",
		Term:     defaultTerm,
	}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "cannot read config %s", path)
	}
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return cfg, errors.Wrapf(err, "cannot parse config %s", path)
	}
	// Unmarshal zeroes the fields a file leaves out, so decode aside and copy what is set.
	var file config
	if err := tree.Unmarshal(&file); err != nil {
		return cfg, errors.Wrapf(err, "cannot parse config %s", path)
	}
	cfg.merge(tree, file)
	return cfg, cfg.validate()
}

func (cfg *config) merge(tree *toml.Tree, file config) {
	if tree.Has("timeout") {
		cfg.Timeout = file.Timeout
	}
	if tree.Has("raw_time") {
		cfg.RawTime = file.RawTime
	}
	if tree.Has("log_level") {
		cfg.LogLevel = file.LogLevel
	}
	if tree.Has("max_document_length") {
		cfg.MaxDocumentLength = file.MaxDocumentLength
	}
	if tree.Has("term") {
		cfg.Term = file.Term
	}
	if tree.Has("db") {
		cfg.DB = file.DB
	}
}

// loadEnv loads environment variables such as REQL_LOG_PATH from an env file. Variables already
// set in the environment win.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	return errors.Wrapf(godotenv.Load(path), "cannot load env file %s", path)
}

func (cfg config) validate() error {
	if _, err := cfg.timeout(); err != nil {
		return err
	}
	if !json.Valid([]byte(cfg.Term)) {
		return errors.Errorf("term is not valid JSON: %s", cfg.Term)
	}
	return nil
}

func (cfg config) timeout() (time.Duration, error) {
	if cfg.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(cfg.Timeout)
	return d, errors.Wrapf(err, "invalid timeout %q", cfg.Timeout)
}

// globalOpts returns the global optional arguments sent with every replayed query.
func (cfg config) globalOpts() map[string]interface{} {
	opts := map[string]interface{}{}
	if cfg.DB != "" {
		opts["db"] = []interface{}{14, []interface{}{cfg.DB}}
	}
	if cfg.RawTime {
		opts["time_format"] = "raw"
	}
	return opts
}
