package core

import (
	"time"

	log "github.com/sirupsen/logrus"

	"MineTruck/internal/control"
	"MineTruck/internal/model"
	"MineTruck/internal/sim"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

// NavTask closes the control loop: each tick it runs the velocity and
// angular PID controllers against the filtered measurements and commands the
// vehicle dynamics. On a signalled mode change it reinitializes both
// controllers so the transfer is bumpless.
type NavTask struct {
	store  *state.Store
	events *state.Events
	dyn    *sim.Dynamics
	period time.Duration
	log    *log.Entry

	vPID *control.PID
	wPID *control.PID

	lastV, lastW float64
}

// NewNavTask creates the navigation controller task.
func NewNavTask(truckID int, store *state.Store, events *state.Events, dyn *sim.Dynamics, pids model.PIDSetConfig, period time.Duration) *NavTask {
	return &NavTask{
		store:  store,
		events: events,
		dyn:    dyn,
		period: period,
		log:    util.TaskLogger("navigation", truckID),
		vPID:   control.NewPID(pids.Linear),
		wPID:   control.NewPID(pids.Angular),
	}
}

// Run loops until stop is closed.
func (t *NavTask) Run(stop <-chan struct{}) {
	runPeriodic(t.log, t.period, stop, t.Tick)
}

// Tick executes one control cycle.
func (t *NavTask) Tick(dt float64) {
	s := t.store.Snapshot()

	if t.events.Poll(state.EventModeChanged) {
		t.vPID.Reinit(t.lastV, s.SetpointVelocity, s.Velocity, dt)
		t.wPID.Reinit(t.lastW, s.SetpointAngular, s.AngularVelocity, dt)
		t.log.WithField("mode", s.Mode).Info("controllers reinitialized")
	}
	if t.events.Poll(state.EventRouteDone) {
		// Discharge the integrators so the truck brakes instead of creeping
		// on the accumulated integral term. The error history is reseeded to
		// keep the derivative quiet.
		t.vPID.Reset()
		t.wPID.Reset()
		t.vPID.Hold(0, s.Velocity)
		t.wPID.Hold(0, s.AngularVelocity)
	}

	switch s.Status {
	case model.StatusRunning:
		t.lastV = t.vPID.Update(s.SetpointVelocity, s.Velocity, dt)
		t.lastW = t.wPID.Update(s.SetpointAngular, s.AngularVelocity, dt)
		t.dyn.SetCommand(t.lastV, t.lastW)
	case model.StatusEmergency:
		// actuation forced to zero, integrals frozen
		t.vPID.Hold(s.SetpointVelocity, s.Velocity)
		t.wPID.Hold(s.SetpointAngular, s.AngularVelocity)
		t.lastV, t.lastW = 0, 0
		t.dyn.SetCommand(0, 0)
	default: // STOPPED
		t.vPID.Update(0, s.Velocity, dt)
		t.wPID.Update(0, s.AngularVelocity, dt)
		t.lastV, t.lastW = 0, 0
		t.dyn.SetCommand(0, 0)
	}
}

// LastCommand returns the actuator command of the most recent tick.
func (t *NavTask) LastCommand() (v, w float64) { return t.lastV, t.lastW }
