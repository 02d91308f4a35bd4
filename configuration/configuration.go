// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - client settings loaded from a YAML file
package configuration

import (
	"time"

	"github.com/spf13/viper"

	"github.com/keomprotocol/miden-client/fault"
	"github.com/keomprotocol/miden-client/syncer"
)

// NodeConfiguration - the rollup node connection
type NodeConfiguration struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SyncConfiguration - synchroniser tuning
type SyncConfiguration struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`

	// checkpoints a submitted transaction may stay unobserved before it
	// is discarded; zero keeps it pending forever
	Horizon uint64 `mapstructure:"horizon"`
}

// ReservationConfiguration - stalled reservation reclaim
type ReservationConfiguration struct {
	// checkpoints before an unsubmitted transaction is reclaimed;
	// zero leaves reclaim entirely to explicit calls
	Timeout uint64 `mapstructure:"timeout"`

	// how often the background reclaim sweeps
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LoggerConfiguration - log file rotation settings
type LoggerConfiguration struct {
	Directory string            `mapstructure:"directory"`
	File      string            `mapstructure:"file"`
	Size      int               `mapstructure:"size"`
	Count     int               `mapstructure:"count"`
	Levels    map[string]string `mapstructure:"levels"`
}

// Configuration - the whole client configuration
type Configuration struct {
	Database    string                   `mapstructure:"database"`
	Node        NodeConfiguration        `mapstructure:"node"`
	Sync        SyncConfiguration        `mapstructure:"sync"`
	Reservation ReservationConfiguration `mapstructure:"reservation"`
	Logging     LoggerConfiguration      `mapstructure:"logging"`
}

// Load - read and validate a configuration file
func Load(path string) (*Configuration, error) {

	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("database", "miden-client.leveldb")
	v.SetDefault("node.timeout", 30*time.Second)
	v.SetDefault("sync.interval", syncer.DefaultInterval)
	v.SetDefault("sync.batch_size", syncer.DefaultBatchSize)
	v.SetDefault("sync.horizon", 64)
	v.SetDefault("reservation.sweep_interval", time.Minute)
	v.SetDefault("logging.directory", "log")
	v.SetDefault("logging.file", "miden-client.log")
	v.SetDefault("logging.size", 1048576)
	v.SetDefault("logging.count", 10)

	err := v.ReadInConfig()
	if nil != err {
		return nil, err
	}

	cfg := &Configuration{}
	err = v.Unmarshal(cfg)
	if nil != err {
		return nil, err
	}

	if "" == cfg.Node.Endpoint {
		return nil, fault.InvalidEndpoint
	}
	if cfg.Sync.BatchSize <= 0 || cfg.Sync.BatchSize > 0xffff {
		return nil, fault.InvalidBatchSize
	}

	return cfg, nil
}
