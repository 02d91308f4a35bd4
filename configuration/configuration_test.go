// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/keomprotocol/miden-client/configuration"
	"github.com/keomprotocol/miden-client/fault"
)

const configFileName = "test-config.yaml"

func writeConfig(t *testing.T, content string) {
	err := os.WriteFile(configFileName, []byte(content), 0o600)
	if nil != err {
		t.Fatalf("write config error: %s", err)
	}
}

func TestLoadFull(t *testing.T) {
	writeConfig(t, `
database: data/client.leveldb
node:
  endpoint: tcp://127.0.0.1:2130
  timeout: 10s
sync:
  interval: 5s
  batch_size: 250
  horizon: 32
reservation:
  timeout: 16
  sweep_interval: 30s
logging:
  directory: var/log
  file: client.log
  size: 65536
  count: 5
  levels:
    DEFAULT: info
    syncer: debug
`)
	defer os.Remove(configFileName)

	cfg, err := configuration.Load(configFileName)
	assert.Nil(t, err, "load error")
	assert.Equal(t, "data/client.leveldb", cfg.Database, "wrong database")
	assert.Equal(t, "tcp://127.0.0.1:2130", cfg.Node.Endpoint, "wrong endpoint")
	assert.Equal(t, 10*time.Second, cfg.Node.Timeout, "wrong timeout")
	assert.Equal(t, 250, cfg.Sync.BatchSize, "wrong batch size")
	assert.Equal(t, uint64(32), cfg.Sync.Horizon, "wrong horizon")
	assert.Equal(t, uint64(16), cfg.Reservation.Timeout, "wrong reservation timeout")
	assert.Equal(t, "debug", cfg.Logging.Levels["syncer"], "wrong log level")
}

func TestLoadDefaults(t *testing.T) {
	writeConfig(t, `
node:
  endpoint: tcp://node.example.com:2130
`)
	defer os.Remove(configFileName)

	cfg, err := configuration.Load(configFileName)
	assert.Nil(t, err, "load error")
	assert.Equal(t, "miden-client.leveldb", cfg.Database, "wrong default database")
	assert.Equal(t, 30*time.Second, cfg.Node.Timeout, "wrong default timeout")
	assert.Equal(t, uint64(64), cfg.Sync.Horizon, "wrong default horizon")
	assert.Equal(t, uint64(0), cfg.Reservation.Timeout, "reclaim enabled by default")
}

func TestLoadMissingEndpoint(t *testing.T) {
	writeConfig(t, `
database: data/client.leveldb
`)
	defer os.Remove(configFileName)

	_, err := configuration.Load(configFileName)
	assert.Equal(t, fault.InvalidEndpoint, err, "endpointless config accepted")
}

func TestLoadBadBatchSize(t *testing.T) {
	writeConfig(t, `
node:
  endpoint: tcp://127.0.0.1:2130
sync:
  batch_size: -5
`)
	defer os.Remove(configFileName)

	_, err := configuration.Load(configFileName)
	assert.Equal(t, fault.InvalidBatchSize, err, "bad batch size accepted")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := configuration.Load("no-such-file.yaml")
	assert.NotNil(t, err, "missing file accepted")
}
