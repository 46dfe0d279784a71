package model

import "time"

// SensorSample is one raw sensor reading produced by the mine simulator
// (or physical sensors). Values carry measurement noise.
type SensorSample struct {
	X           float64
	Y           float64
	Theta       float64
	Velocity    float64
	Temperature float64
	Timestamp   time.Time
}

// FilteredSample is the moving-average output of the sensor processing task,
// stored in the circular buffer.
type FilteredSample struct {
	X               float64
	Y               float64
	Theta           float64
	Velocity        float64
	AngularVelocity float64
	Temperature     float64
	Timestamp       time.Time
}
