package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MineTruck/internal/model"
	"MineTruck/internal/sim"
	"MineTruck/internal/state"
)

func newNavFixture() (*NavTask, *state.Store, *state.Events, *sim.Dynamics) {
	cfg := model.DefaultConfig()
	cfg.Noise.Disable = true
	store := state.NewStore(1)
	events := state.NewEvents()
	dyn := sim.NewDynamics(cfg.Vehicle, cfg.Noise, 1)
	nav := NewNavTask(1, store, events, dyn, cfg.PID, 50*time.Millisecond)
	return nav, store, events, dyn
}

func TestNavEmergencyZeroesActuation(t *testing.T) {
	nav, store, _, dyn := newNavFixture()
	store.Update(func(s *model.VehicleState) {
		s.Status = model.StatusEmergency
		s.SetpointVelocity = 5.0
		s.Velocity = 2.0
	})
	nav.Tick(0.05)
	v, w := dyn.Command()
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, w)
}

func TestNavStoppedZeroesActuation(t *testing.T) {
	nav, store, _, dyn := newNavFixture()
	store.Update(func(s *model.VehicleState) {
		s.SetpointVelocity = 5.0
	})
	nav.Tick(0.05)
	v, w := dyn.Command()
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, w)
}

func TestNavRunningCommandsDynamics(t *testing.T) {
	nav, store, _, dyn := newNavFixture()
	store.Update(func(s *model.VehicleState) {
		s.Status = model.StatusRunning
		s.SetpointVelocity = 5.0
	})
	nav.Tick(0.05)
	v, _ := dyn.Command()
	assert.Greater(t, v, 0.0)
	lv, _ := nav.LastCommand()
	assert.Equal(t, v, lv)
}

func TestNavEmergencyFreezesIntegral(t *testing.T) {
	nav, store, _, _ := newNavFixture()
	store.Update(func(s *model.VehicleState) {
		s.Status = model.StatusRunning
		s.SetpointVelocity = 5.0
	})
	for i := 0; i < 10; i++ {
		nav.Tick(0.05)
	}
	before := nav.vPID.Integral()
	store.Update(func(s *model.VehicleState) { s.Status = model.StatusEmergency })
	for i := 0; i < 10; i++ {
		nav.Tick(0.05)
	}
	assert.Equal(t, before, nav.vPID.Integral())
}

func TestNavBumplessModeSwitch(t *testing.T) {
	nav, store, events, _ := newNavFixture()
	store.Update(func(s *model.VehicleState) {
		s.Status = model.StatusRunning
		s.Mode = model.ModeManualRemote
		s.SetpointVelocity = 3.0
	})

	// settle the loop: feed the measurement toward the setpoint
	for i := 0; i < 400; i++ {
		nav.Tick(0.05)
		v, _ := nav.LastCommand()
		store.Update(func(s *model.VehicleState) {
			s.Velocity += (v - s.Velocity) * 0.05 / 0.5
		})
	}
	lastManual, _ := nav.LastCommand()

	store.Update(func(s *model.VehicleState) { s.Mode = model.ModeAutomaticRemote })
	events.Signal(state.EventModeChanged)

	nav.Tick(0.05)
	firstAuto, _ := nav.LastCommand()
	assert.InDelta(t, lastManual, firstAuto, 0.01)
	assert.LessOrEqual(t, math.Abs(firstAuto-lastManual), 0.01)
}
