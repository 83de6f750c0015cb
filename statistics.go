// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2020 ODC Network Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/odcnet/odcd/storage"
)

// interval between database statistics reports
const statisticsInterval = 10 * time.Minute

// periodic database statistics reporting
type statisticsLogger struct {
	log *logger.L
}

func (s *statisticsLogger) Run(args interface{}, shutdown <-chan struct{}) {
	ticker := time.NewTicker(statisticsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			report, err := storage.Statistics()
			if nil != err {
				s.log.Errorf("statistics error: %s", err)
				continue
			}
			s.log.Infof("database statistics:\n%s", report)
		}
	}
}
