// Package core contains the periodic tasks of the truck controller and the
// Truck type that manages their lifecycle.
package core

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// runPeriodic runs tick at a fixed period until stop is closed. The ticker
// keeps its own monotonic schedule, so an overrun on one tick does not shift
// the following wake-ups. dt is the nominal tick length in seconds.
func runPeriodic(logger *log.Entry, period time.Duration, stop <-chan struct{}, tick func(dt float64)) {
	logger.Info("task started")
	defer logger.Info("task stopped")

	dt := period.Seconds()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tick(dt)
		}
	}
}
