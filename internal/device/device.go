// Package device provides the serial operator console: a line-oriented
// command source for the local operator, fed into the command queue.
package device

import "time"

// Device is an abstract line-based communication endpoint.
type Device interface {
	// ReadLine reads a single line terminated by '\n'.
	// If timeout > 0, it must return after timeout even if no data available.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes s followed by '\n' to the device.
	WriteLine(s string) error

	// Close closes the device and releases underlying resources.
	Close() error
}
