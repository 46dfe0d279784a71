// Package util provides logging helpers shared by the truck tasks.
package util

import (
	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the process-wide log format and level.
func SetupLogging(verbose bool) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// TaskLogger returns the logger used by one periodic task of one truck.
func TaskLogger(task string, truckID int) *log.Entry {
	return log.WithFields(log.Fields{"task": task, "truck_id": truckID})
}
