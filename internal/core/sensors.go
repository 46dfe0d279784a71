package core

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"MineTruck/internal/control"
	"MineTruck/internal/model"
	"MineTruck/internal/sim"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

// These limits bound plausible raw readings; anything outside is a glitch.
const (
	maxPlausiblePosition = 1e5  // m
	maxPlausibleVelocity = 50.0 // m/s
	minPlausibleTemp     = -60.0
	maxPlausibleTemp     = 300.0
)

// SensorTask samples the simulator, smooths each channel with a
// moving-average filter and publishes the filtered state to the store and
// the circular buffer.
type SensorTask struct {
	dyn    *sim.Dynamics
	store  *state.Store
	ring   *state.Ring
	period time.Duration
	log    *log.Entry

	fx, fy, fv, ft *control.MovingAverage
	ftheta         *control.AngleAverage

	prevTheta float64
	hasPrev   bool
	glitches  int
}

// NewSensorTask creates the sensor processing task with window-M filters.
func NewSensorTask(truckID int, dyn *sim.Dynamics, store *state.Store, ring *state.Ring, window int, period time.Duration) *SensorTask {
	return &SensorTask{
		dyn:    dyn,
		store:  store,
		ring:   ring,
		period: period,
		log:    util.TaskLogger("sensors", truckID),
		fx:     control.NewMovingAverage(window),
		fy:     control.NewMovingAverage(window),
		fv:     control.NewMovingAverage(window),
		ft:     control.NewMovingAverage(window),
		ftheta: control.NewAngleAverage(window),
	}
}

// Run loops until stop is closed.
func (t *SensorTask) Run(stop <-chan struct{}) {
	runPeriodic(t.log, t.period, stop, t.Tick)
}

// Tick executes one sampling cycle.
func (t *SensorTask) Tick(dt float64) {
	raw, ok := t.dyn.Latest()
	if !ok {
		return
	}
	if !plausible(raw) {
		t.glitches++
		t.log.WithField("glitches", t.glitches).Debug("sample discarded")
		return
	}

	f := model.FilteredSample{
		X:           t.fx.Filter(raw.X),
		Y:           t.fy.Filter(raw.Y),
		Theta:       t.ftheta.Filter(raw.Theta),
		Velocity:    t.fv.Filter(raw.Velocity),
		Temperature: t.ft.Filter(raw.Temperature),
		Timestamp:   raw.Timestamp,
	}
	if t.hasPrev && dt > 0 {
		f.AngularVelocity = control.WrapAngle(f.Theta-t.prevTheta) / dt
	}
	t.prevTheta = f.Theta
	t.hasPrev = true

	t.store.Update(func(s *model.VehicleState) {
		s.Position = model.Position{X: f.X, Y: f.Y, Theta: f.Theta}
		s.Velocity = f.Velocity
		s.AngularVelocity = f.AngularVelocity
		s.Temperature = f.Temperature
	})
	t.ring.Push(f)
}

// Glitches returns the number of discarded samples.
func (t *SensorTask) Glitches() int { return t.glitches }

func plausible(s model.SensorSample) bool {
	vals := []float64{s.X, s.Y, s.Theta, s.Velocity, s.Temperature}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return math.Abs(s.X) <= maxPlausiblePosition &&
		math.Abs(s.Y) <= maxPlausiblePosition &&
		math.Abs(s.Velocity) <= maxPlausibleVelocity &&
		s.Temperature >= minPlausibleTemp && s.Temperature <= maxPlausibleTemp
}
