// Package control implements the discrete controllers and sensor filters of
// the navigation loop.
package control

import "MineTruck/internal/model"

// PID is a discrete PID controller with symmetric output saturation and
// conditional-integration anti-windup. It is not safe for concurrent use;
// each instance is owned by the navigation task.
type PID struct {
	cfg model.PIDConfig

	integral  float64
	prevError float64
}

// NewPID creates a controller with the given gains and saturation.
func NewPID(cfg model.PIDConfig) *PID {
	return &PID{cfg: cfg}
}

// Update computes one control output for the tick of length dt.
// The integral update is not committed while the raw output is saturated in
// the direction of the error, so the integral cannot wind up.
func (p *PID) Update(setpoint, measurement, dt float64) float64 {
	err := setpoint - measurement

	integral := p.integral + err*dt
	var derivative float64
	if dt > 0 {
		derivative = (err - p.prevError) / dt
	}

	raw := p.cfg.Kp*err + p.cfg.Ki*integral + p.cfg.Kd*derivative

	out := raw
	switch {
	case raw > p.cfg.Sat:
		out = p.cfg.Sat
		if err <= 0 {
			p.integral = integral
		}
	case raw < -p.cfg.Sat:
		out = -p.cfg.Sat
		if err >= 0 {
			p.integral = integral
		}
	default:
		p.integral = integral
	}

	p.prevError = err
	return out
}

// Hold advances the error history without committing the integral. Used in
// EMERGENCY, where the controller must stay fresh but not accumulate.
func (p *PID) Hold(setpoint, measurement float64) {
	p.prevError = setpoint - measurement
}

// Reinit recomputes the integral so that the next Update over a tick of
// length dt with an unchanged error produces exactly output: bumpless
// transfer on mode switch. The error history is seeded so the derivative
// term starts at zero.
func (p *PID) Reinit(output, setpoint, measurement, dt float64) {
	err := setpoint - measurement
	if p.cfg.Ki != 0 {
		p.integral = (output-p.cfg.Kp*err)/p.cfg.Ki - err*dt
	} else {
		p.integral = 0
	}
	p.prevError = err
}

// Reset clears the controller state.
func (p *PID) Reset() {
	p.integral = 0
	p.prevError = 0
}

// Integral returns the current integral term, exposed for anti-windup tests.
func (p *PID) Integral() float64 { return p.integral }
