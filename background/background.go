// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - run a set of processes in goroutines and stop
// them together when the daemon shuts down
package background

import (
	"sync"
)

// Process - a long running component of the daemon
//
// Run must return promptly after the shutdown channel is closed
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - the list of processes to start
type Processes []Process

// T - handle over a started set of processes
type T struct {
	wg       sync.WaitGroup
	shutdown chan struct{}
}

// Start - run each process in its own goroutine
func Start(processes Processes, args interface{}) *T {
	register := &T{
		shutdown: make(chan struct{}),
	}

	for _, p := range processes {
		register.wg.Add(1)
		go func(p Process) {
			defer register.wg.Done()
			p.Run(args, register.shutdown)
		}(p)
	}
	return register
}

// Stop - signal shutdown and wait until every process has returned
func (t *T) Stop() {
	if nil == t {
		return
	}
	close(t.shutdown)
	t.wg.Wait()
}
