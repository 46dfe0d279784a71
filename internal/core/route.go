package core

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"MineTruck/internal/control"
	"MineTruck/internal/model"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

// RouteTask sequences the waypoint route while the truck is in
// AUTOMATIC_REMOTE mode: it points the angular setpoint at the active
// waypoint, scales the cruise velocity down when misaligned and advances the
// waypoint index inside the acceptance radius. On completion it zeroes the
// setpoints and signals the navigation task to discharge its integrators.
type RouteTask struct {
	store  *state.Store
	events *state.Events
	cfg    model.RouteConfig
	maxW   float64
	period time.Duration
	log    *log.Entry
}

// NewRouteTask creates the route planner task. maxAngular bounds the angular
// setpoint written for the controller.
func NewRouteTask(truckID int, store *state.Store, events *state.Events, cfg model.RouteConfig, maxAngular float64, period time.Duration) *RouteTask {
	return &RouteTask{
		store:  store,
		events: events,
		cfg:    cfg,
		maxW:   maxAngular,
		period: period,
		log:    util.TaskLogger("route", truckID),
	}
}

// Run loops until stop is closed.
func (t *RouteTask) Run(stop <-chan struct{}) {
	runPeriodic(t.log, t.period, stop, func(float64) { t.Tick() })
}

// Tick executes one planning cycle.
func (t *RouteTask) Tick() {
	completed := false
	reached := -1
	t.store.Update(func(s *model.VehicleState) {
		if s.Mode != model.ModeAutomaticRemote || len(s.Route) == 0 {
			return
		}
		if s.CurrentWaypoint >= len(s.Route) {
			return
		}

		target := s.Route[s.CurrentWaypoint]
		dx := target.X - s.Position.X
		dy := target.Y - s.Position.Y
		dist := math.Hypot(dx, dy)

		if dist <= t.cfg.AcceptRadius {
			reached = s.CurrentWaypoint
			s.CurrentWaypoint++
			if s.CurrentWaypoint >= len(s.Route) {
				s.SetpointVelocity = 0
				s.SetpointAngular = 0
				s.LastEvent = "Rota concluída"
				completed = true
				return
			}
			target = s.Route[s.CurrentWaypoint]
			dx = target.X - s.Position.X
			dy = target.Y - s.Position.Y
		}

		heading := math.Atan2(dy, dx)
		headingErr := control.WrapAngle(heading - s.Position.Theta)

		w := t.cfg.HeadingGain * headingErr
		if w > t.maxW {
			w = t.maxW
		} else if w < -t.maxW {
			w = -t.maxW
		}
		s.SetpointAngular = w
		s.SetpointVelocity = t.cfg.CruiseVelocity * alignFactor(headingErr)
	})

	if reached >= 0 {
		t.log.WithField("waypoint", reached).Info("waypoint reached")
	}
	if completed {
		t.events.Signal(state.EventRouteDone)
		t.log.Info("route complete")
	}
}

// alignFactor scales cruise velocity by heading alignment: cos^2 of the
// error, zero beyond 90 degrees.
func alignFactor(headingErr float64) float64 {
	if math.Abs(headingErr) >= math.Pi/2 {
		return 0
	}
	c := math.Cos(headingErr)
	return c * c
}
