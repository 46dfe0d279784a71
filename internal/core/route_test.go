package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MineTruck/internal/model"
	"MineTruck/internal/state"
)

func newRouteFixture() (*RouteTask, *state.Store, *state.Events) {
	store := state.NewStore(1)
	events := state.NewEvents()
	cfg := model.RouteConfig{AcceptRadius: 2.0, CruiseVelocity: 5.0, HeadingGain: 1.0}
	task := NewRouteTask(1, store, events, cfg, 1.0, 500*time.Millisecond)
	return task, store, events
}

func TestRouteInactiveOutsideAutomatic(t *testing.T) {
	task, store, _ := newRouteFixture()
	store.Update(func(s *model.VehicleState) {
		s.Mode = model.ModeManualRemote
		s.Route = []model.Waypoint{{X: 10, Y: 0}}
		s.SetpointVelocity = 1.23
	})
	task.Tick()
	s := store.Snapshot()
	assert.Equal(t, 1.23, s.SetpointVelocity)
	assert.Equal(t, 0, s.CurrentWaypoint)
}

func TestRoutePointsAtWaypoint(t *testing.T) {
	task, store, _ := newRouteFixture()
	store.Update(func(s *model.VehicleState) {
		s.Mode = model.ModeAutomaticRemote
		s.Route = []model.Waypoint{{X: 10, Y: 0}}
	})
	task.Tick()
	s := store.Snapshot()
	// aligned with the target: full cruise, no turn
	assert.InDelta(t, 5.0, s.SetpointVelocity, 1e-9)
	assert.InDelta(t, 0.0, s.SetpointAngular, 1e-9)
}

func TestRouteSlowsWhenMisaligned(t *testing.T) {
	task, store, _ := newRouteFixture()
	store.Update(func(s *model.VehicleState) {
		s.Mode = model.ModeAutomaticRemote
		s.Route = []model.Waypoint{{X: 0, Y: 10}} // target 90 deg off heading
	})
	task.Tick()
	s := store.Snapshot()
	assert.InDelta(t, 0.0, s.SetpointVelocity, 1e-9)
	// heading error +pi/2, clamped to the angular limit
	assert.InDelta(t, 1.0, s.SetpointAngular, 1e-9)
}

func TestRouteBehindScalesToZero(t *testing.T) {
	task, store, _ := newRouteFixture()
	store.Update(func(s *model.VehicleState) {
		s.Mode = model.ModeAutomaticRemote
		s.Route = []model.Waypoint{{X: -10, Y: 0}} // directly behind
	})
	task.Tick()
	s := store.Snapshot()
	assert.Equal(t, 0.0, s.SetpointVelocity)
	assert.InDelta(t, 1.0, math.Abs(s.SetpointAngular), 1e-9)
}

func TestRouteAdvancesInsideAcceptRadius(t *testing.T) {
	task, store, _ := newRouteFixture()
	store.Update(func(s *model.VehicleState) {
		s.Mode = model.ModeAutomaticRemote
		s.Route = []model.Waypoint{{X: 1, Y: 0}, {X: 20, Y: 0}}
	})
	task.Tick()
	s := store.Snapshot()
	assert.Equal(t, 1, s.CurrentWaypoint)
	// immediately retargets the next waypoint
	assert.Greater(t, s.SetpointVelocity, 0.0)
}

func TestRouteCompletion(t *testing.T) {
	task, store, events := newRouteFixture()
	store.Update(func(s *model.VehicleState) {
		s.Mode = model.ModeAutomaticRemote
		s.Route = []model.Waypoint{{X: 1, Y: 1}}
		s.SetpointVelocity = 4.0
	})
	task.Tick()
	s := store.Snapshot()
	assert.Equal(t, 1, s.CurrentWaypoint)
	assert.Equal(t, 0.0, s.SetpointVelocity)
	assert.Equal(t, 0.0, s.SetpointAngular)
	assert.Equal(t, "Rota concluída", s.LastEvent)
	assert.True(t, events.Poll(state.EventRouteDone))

	// further ticks are no-ops after completion
	task.Tick()
	assert.Equal(t, 1, store.Snapshot().CurrentWaypoint)
	assert.False(t, events.Poll(state.EventRouteDone))
}

func TestRouteNoRouteNoWrites(t *testing.T) {
	task, store, _ := newRouteFixture()
	store.Update(func(s *model.VehicleState) {
		s.Mode = model.ModeAutomaticRemote
		s.SetpointVelocity = 2.0
	})
	task.Tick()
	assert.Equal(t, 2.0, store.Snapshot().SetpointVelocity)
}
