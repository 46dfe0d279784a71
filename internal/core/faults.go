package core

import (
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"MineTruck/internal/model"
	"MineTruck/internal/sim"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

// FaultTask watches engine temperature and the electrical/hydraulic fault
// lines, draws the stochastic fault injections and maps every critical
// condition to an EMERGENCY command on the queue. It never writes status
// itself.
type FaultTask struct {
	store  *state.Store
	queue  *state.CommandQueue
	events *state.Events
	dyn    *sim.Dynamics
	cfg    model.FaultConfig
	period time.Duration
	rng    *rand.Rand
	log    *log.Entry

	warned   bool
	critical bool
}

// NewFaultTask creates the fault monitor. A zero seed in cfg gives a
// time-based PRNG; tests pin it.
func NewFaultTask(truckID int, store *state.Store, queue *state.CommandQueue, events *state.Events, dyn *sim.Dynamics, cfg model.FaultConfig, period time.Duration) *FaultTask {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &FaultTask{
		store:  store,
		queue:  queue,
		events: events,
		dyn:    dyn,
		cfg:    cfg,
		period: period,
		rng:    rand.New(rand.NewSource(seed)),
		log:    util.TaskLogger("faults", truckID),
	}
}

// Run loops until stop is closed.
func (t *FaultTask) Run(stop <-chan struct{}) {
	runPeriodic(t.log, t.period, stop, func(float64) { t.Tick() })
}

// Tick executes one monitoring cycle.
func (t *FaultTask) Tick() {
	s := t.store.Snapshot()

	// Thermal checks on the filtered temperature.
	switch {
	case s.Temperature >= t.cfg.TempCrit:
		if !t.critical {
			t.critical = true
			reason := fmt.Sprintf("Temperatura crítica (%.1f°C)", s.Temperature)
			t.log.WithField("temperature", s.Temperature).Error("critical temperature")
			t.trip(reason)
		}
	case s.Temperature >= t.cfg.TempWarn:
		t.critical = false
		if !t.warned {
			t.warned = true
			warn := fmt.Sprintf("Temperatura elevada (%.1f°C)", s.Temperature)
			t.log.WithField("temperature", s.Temperature).Warn("high temperature")
			t.store.Update(func(vs *model.VehicleState) { vs.LastEvent = warn })
		}
	default:
		t.warned, t.critical = false, false
	}

	// Fault lines plus independent Bernoulli draws per tick. Flags stick in
	// the shared state until an explicit RESET.
	elecLine, hydrLine := t.dyn.FaultLines()
	elec := elecLine || t.rng.Float64() < t.cfg.Probability
	hydr := hydrLine || t.rng.Float64() < t.cfg.Probability

	if elec && !s.Faults.Electrical {
		t.store.Update(func(vs *model.VehicleState) { vs.Faults.Electrical = true })
		t.log.Error("electrical fault")
		t.trip("Falha elétrica")
	}
	if hydr && !s.Faults.Hydraulic {
		t.store.Update(func(vs *model.VehicleState) { vs.Faults.Hydraulic = true })
		t.log.Error("hydraulic fault")
		t.trip("Falha hidráulica")
	}
}

// trip injects an EMERGENCY command and wakes the command logic.
func (t *FaultTask) trip(reason string) {
	if t.queue.Push(model.Command{Kind: model.CmdEmergency, Reason: reason}) {
		t.log.Warn("command queue full, oldest dropped")
	}
	t.events.Signal(state.EventFault)
}
