// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Keom Protocol Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - control of background processes
package background

// Process - type signature for a background process
// and a callback to show shutdown is complete
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// T - handle type for the stop
type T struct {
	count    int
	shutdown chan struct{}
	finished chan struct{}
}

// Start - start up a set of background processes
// all with the same arg value
func Start(processes Processes, args interface{}) *T {

	register := &T{
		count:    len(processes),
		shutdown: make(chan struct{}),
		finished: make(chan struct{}),
	}

	// start each background
	for _, p := range processes {
		go func(p Process) {
			// pass the shutdown to the Run loop for shutdown signalling
			p.Run(args, register.shutdown)
			// flag for the stop routine to wait for shutdown
			register.finished <- struct{}{}
		}(p)
	}
	return register
}

// Stop - stop a set of background processes
func (t *T) Stop() {

	if nil == t {
		return
	}

	// trigger shutdown of all background tasks
	close(t.shutdown)

	// wait for all background tasks to finish
	for i := 0; i < t.count; i += 1 {
		<-t.finished
	}
}
