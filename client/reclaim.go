// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package client

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/keomprotocol/miden-client/store"
)

// periodic sweep returning stalled reservations to the spendable pool
type reclaimer struct {
	log      *logger.L
	maxAge   uint64
	interval time.Duration
}

func (r *reclaimer) Run(_ interface{}, shutdown <-chan struct{}) {
	log := r.log
	log.Info("starting…")
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-time.After(r.interval):
			reclaimed, err := store.ReclaimExpiredReservations(r.maxAge)
			if nil != err {
				log.Errorf("reclaim error: %s", err)
				continue
			}
			for _, txId := range reclaimed {
				log.Warnf("reclaimed: %s", txId)
			}
		}
	}
	log.Info("stopped")
}
