package core

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"MineTruck/internal/device"
	"MineTruck/internal/model"
	"MineTruck/internal/monitor"
	"MineTruck/internal/mqtt"
	"MineTruck/internal/sim"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

// joinTimeout bounds how long StopAll waits for the periodic tasks.
const joinTimeout = 2 * time.Second

// Options selects the optional boundary components of a truck.
type Options struct {
	EnableMQTT bool
	SimSeed    int64 // 0 = time-seeded noise
}

// Truck wires the shared substrate, the periodic tasks and the optional
// boundary components of one vehicle, and manages their lifecycle.
type Truck struct {
	ID  int
	cfg model.Config

	Store  *state.Store
	Ring   *state.Ring
	Events *state.Events
	Queue  *state.CommandQueue
	Dyn    *sim.Dynamics

	Simulator *SimulatorTask
	Sensors   *SensorTask
	Logic     *LogicTask
	Nav       *NavTask
	Route     *RouteTask
	Faults    *FaultTask
	Collector *CollectorTask

	Adapter *mqtt.Adapter
	Monitor *monitor.Server
	Console *device.Console

	log *log.Entry

	stop      chan struct{}
	wg        sync.WaitGroup
	started   bool
	startLock sync.Mutex
}

// NewTruck constructs a truck and all of its components from cfg.
func NewTruck(id int, cfg model.Config, opts Options) *Truck {
	t := &Truck{
		ID:     id,
		cfg:    cfg,
		Store:  state.NewStore(id),
		Ring:   state.NewRing(cfg.Filter.BufferSize),
		Events: state.NewEvents(),
		Queue:  state.NewCommandQueue(cfg.MQTT.QueueSize),
		log:    util.TaskLogger("truck", id),
		stop:   make(chan struct{}),
	}
	t.Dyn = sim.NewDynamics(cfg.Vehicle, cfg.Noise, opts.SimSeed)

	tm := cfg.Timing
	t.Simulator = NewSimulatorTask(id, t.Dyn, model.Period(tm.SimPeriodMs))
	t.Sensors = NewSensorTask(id, t.Dyn, t.Store, t.Ring, cfg.Filter.Window, model.Period(tm.SensorPeriodMs))
	t.Logic = NewLogicTask(id, t.Store, t.Queue, t.Events, model.Period(tm.LogicPeriodMs))
	t.Nav = NewNavTask(id, t.Store, t.Events, t.Dyn, cfg.PID, model.Period(tm.NavPeriodMs))
	t.Route = NewRouteTask(id, t.Store, t.Events, cfg.Route, cfg.Vehicle.MaxAngularVelocity, model.Period(tm.RoutePeriodMs))
	t.Faults = NewFaultTask(id, t.Store, t.Queue, t.Events, t.Dyn, cfg.Faults, model.Period(tm.FaultPeriodMs))
	t.Collector = NewCollectorTask(id, t.Store, cfg.Log.Dir, model.Period(tm.LogPeriodMs))

	if opts.EnableMQTT {
		t.Adapter = mqtt.NewAdapter(id, cfg.MQTT, t.Store, t.Queue)
	}
	if cfg.Monitor.Enabled && cfg.Monitor.Addr != "" {
		t.Monitor = monitor.NewServer(id, cfg.Monitor.Addr, t.Store, t.Collector)
	}
	if cfg.Console.Device != "" {
		dev, err := device.NewSerialDevice(cfg.Console.Device, cfg.Console.Baud)
		if err != nil {
			// run without the local console (e.g. headless test rigs)
			t.log.WithError(err).Warn("operator console unavailable")
		} else {
			t.Console = device.NewConsole(id, dev, t.Queue)
		}
	}
	return t
}

// StartAll launches every task and boundary component.
func (t *Truck) StartAll() error {
	t.startLock.Lock()
	defer t.startLock.Unlock()
	if t.started {
		return nil
	}

	runners := []func(<-chan struct{}){
		t.Simulator.Run,
		t.Sensors.Run,
		t.Logic.Run,
		t.Nav.Run,
		t.Route.Run,
		t.Faults.Run,
		t.Collector.Run,
	}
	for _, run := range runners {
		run := run
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			run(t.stop)
		}()
	}

	if t.Adapter != nil {
		if err := t.Adapter.Start(); err != nil {
			t.log.WithError(err).Warn("messaging adapter failed to start")
		}
	}
	if t.Monitor != nil {
		if err := t.Monitor.Start(); err != nil {
			t.log.WithError(err).Warn("monitor failed to start")
		}
	}
	if t.Console != nil {
		t.Console.Start()
	}

	t.started = true
	t.log.Info("truck started")
	return nil
}

// StopAll shuts the truck down: actuation is zeroed, the shutdown event is
// broadcast, every task observes the stop flag at its next tick and the
// orchestrator joins them with a bounded timeout. Tasks still alive after
// the timeout are abandoned.
func (t *Truck) StopAll() {
	t.startLock.Lock()
	defer t.startLock.Unlock()
	if !t.started {
		return
	}

	t.Dyn.EmergencyStop()
	t.Events.Broadcast(state.EventShutdown)
	close(t.stop)

	if t.Console != nil {
		t.Console.Stop()
	}
	if t.Adapter != nil {
		t.Adapter.Stop()
	}
	if t.Monitor != nil {
		t.Monitor.Stop()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.log.Info("truck stopped")
	case <-time.After(joinTimeout):
		t.log.Warn("some tasks did not stop in time, abandoning")
	}
	t.started = false
}
