// Package sim implements the simulated vehicle dynamics that close the
// control loop: a first-order lag on both velocities, kinematic position
// integration and noisy sensor readout.
package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"MineTruck/internal/control"
	"MineTruck/internal/model"
)

const ambientTemp = 25.0

// Dynamics holds the true vehicle state of the simulation. The navigation
// task writes commanded velocities, the simulator task integrates, and the
// sensor task reads noisy samples; all three touch it concurrently.
type Dynamics struct {
	mu    sync.Mutex
	cfg   model.VehicleConfig
	noise model.NoiseConfig
	rng   *rand.Rand

	x, y, theta float64
	velocity    float64
	angular     float64
	vCmd, wCmd  float64

	temperature float64
	forcedTemp  float64
	tempForced  bool

	electrical bool
	hydraulic  bool

	latest model.SensorSample
	ready  bool
}

// NewDynamics creates the simulated vehicle at its configured initial pose.
// seed fixes the noise PRNG; pass 0 for a time-based seed.
func NewDynamics(cfg model.VehicleConfig, noise model.NoiseConfig, seed int64) *Dynamics {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Dynamics{
		cfg:         cfg,
		noise:       noise,
		rng:         rand.New(rand.NewSource(seed)),
		x:           cfg.InitialX,
		y:           cfg.InitialY,
		theta:       control.WrapAngle(cfg.InitialTheta),
		temperature: ambientTemp,
	}
}

// SetCommand stores the commanded linear and angular velocities.
func (d *Dynamics) SetCommand(v, w float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vCmd, d.wCmd = v, w
}

// Command returns the commanded velocities, exposed for tests.
func (d *Dynamics) Command() (v, w float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vCmd, d.wCmd
}

// SetPose places the vehicle, used at startup and by tests.
func (d *Dynamics) SetPose(x, y, theta float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.x, d.y, d.theta = x, y, control.WrapAngle(theta)
}

// Pose returns the true pose and velocity of the simulation.
func (d *Dynamics) Pose() (x, y, theta, velocity float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.x, d.y, d.theta, d.velocity
}

// Step advances the simulation by dt: first-order lag toward the commanded
// velocities, clamping to physical limits, kinematic integration and a fresh
// noisy sensor sample.
func (d *Dynamics) Step(dt float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tau := d.cfg.Tau
	if tau <= 0 {
		tau = dt
	}
	d.velocity += (d.vCmd - d.velocity) * dt / tau
	d.angular += (d.wCmd - d.angular) * dt / tau

	d.velocity = clamp(d.velocity, -d.cfg.MaxVelocity, d.cfg.MaxVelocity)
	d.angular = clamp(d.angular, -d.cfg.MaxAngularVelocity, d.cfg.MaxAngularVelocity)

	d.x += d.velocity * math.Cos(d.theta) * dt
	d.y += d.velocity * math.Sin(d.theta) * dt
	d.theta = control.WrapAngle(d.theta + d.angular*dt)

	// Engine temperature relaxes toward a load-dependent target.
	target := ambientTemp + 2.0*math.Abs(d.velocity) + 5.0*math.Abs(d.vCmd)/math.Max(d.cfg.MaxVelocity, 1)
	d.temperature += (target - d.temperature) * dt / 5.0

	temp := d.temperature
	if d.tempForced {
		temp = d.forcedTemp
	}

	s := model.SensorSample{
		X:           d.x,
		Y:           d.y,
		Theta:       d.theta,
		Velocity:    d.velocity,
		Temperature: temp,
		Timestamp:   time.Now(),
	}
	if !d.noise.Disable {
		s.X += d.rng.NormFloat64() * d.noise.PositionXY
		s.Y += d.rng.NormFloat64() * d.noise.PositionXY
		s.Theta = control.WrapAngle(s.Theta + d.rng.NormFloat64()*d.noise.Theta)
		s.Velocity += d.rng.NormFloat64() * d.noise.Velocity
		s.Temperature += d.rng.NormFloat64() * d.noise.Temperature
	}
	d.latest = s
	d.ready = true
}

// Latest returns the most recent sensor sample, or false before the first
// step.
func (d *Dynamics) Latest() (model.SensorSample, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest, d.ready
}

// EmergencyStop zeroes the true velocities immediately.
func (d *Dynamics) EmergencyStop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.velocity, d.angular = 0, 0
	d.vCmd, d.wCmd = 0, 0
}

// ForceTemperature overrides the sensed temperature, a test and commissioning
// hook for the thermal fault path.
func (d *Dynamics) ForceTemperature(t float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forcedTemp, d.tempForced = t, true
}

// ClearForcedTemperature removes the override.
func (d *Dynamics) ClearForcedTemperature() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tempForced = false
}

// InjectElectrical sets or clears the simulated electrical fault line.
func (d *Dynamics) InjectElectrical(fault bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.electrical = fault
}

// InjectHydraulic sets or clears the simulated hydraulic fault line.
func (d *Dynamics) InjectHydraulic(fault bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hydraulic = fault
}

// FaultLines returns the injected fault sensor readings.
func (d *Dynamics) FaultLines() (electrical, hydraulic bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.electrical, d.hydraulic
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
