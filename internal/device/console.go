package device

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"MineTruck/internal/model"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

// Console reads operator command lines from a Device and enqueues them for
// the command logic task. Line format:
//
//	CMD,<TYPE>[,<VALUE>]
//
// e.g. CMD,SET_STATUS,RUNNING or CMD,SET_SETPOINT_VELOCITY,3.5
type Console struct {
	dev   Device
	queue *state.CommandQueue
	log   *log.Entry
	stop  chan struct{}
	wg    sync.WaitGroup
}

// NewConsole creates the operator console over an already-open device.
func NewConsole(truckID int, dev Device, queue *state.CommandQueue) *Console {
	return &Console{
		dev:   dev,
		queue: queue,
		log:   util.TaskLogger("console", truckID),
		stop:  make(chan struct{}),
	}
}

// Start launches the reader goroutine.
func (c *Console) Start() {
	c.wg.Add(1)
	go c.loop()
}

func (c *Console) loop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stop:
			return
		default:
		}
		line, err := c.dev.ReadLine(500 * time.Millisecond)
		if err != nil {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := ParseConsoleLine(line)
		if err != nil {
			c.log.WithError(err).Warn("console line rejected")
			_ = c.dev.WriteLine("ERR," + err.Error())
			continue
		}
		if c.queue.Push(cmd) {
			c.log.Warn("command queue full, oldest dropped")
		}
		_ = c.dev.WriteLine("ACK," + string(cmd.Kind))
	}
}

// Stop halts the reader and closes the device.
func (c *Console) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	if c.dev != nil {
		_ = c.dev.Close()
	}
	c.wg.Wait()
}

// ParseConsoleLine parses one operator line into a Command.
func ParseConsoleLine(line string) (model.Command, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 || fields[0] != "CMD" {
		return model.Command{}, fmt.Errorf("expected CMD,<TYPE>[,<VALUE>], got %q", line)
	}
	kind := model.CommandKind(strings.ToUpper(strings.TrimSpace(fields[1])))
	arg := ""
	if len(fields) > 2 {
		arg = strings.TrimSpace(fields[2])
	}

	switch kind {
	case model.CmdEmergency:
		return model.Command{Kind: kind, Reason: "Operador local"}, nil
	case model.CmdReset, model.CmdStop:
		return model.Command{Kind: kind}, nil
	case model.CmdSetStatus:
		s := model.Status(strings.ToUpper(arg))
		if !model.ValidStatus(s) {
			return model.Command{}, fmt.Errorf("unknown status %q", arg)
		}
		return model.Command{Kind: kind, Status: s}, nil
	case model.CmdSetMode:
		m := model.Mode(strings.ToUpper(arg))
		if !model.ValidMode(m) {
			return model.Command{}, fmt.Errorf("unknown mode %q", arg)
		}
		return model.Command{Kind: kind, Mode: m}, nil
	case model.CmdSetSetpointVelocity, model.CmdSetSetpointAngular:
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return model.Command{}, fmt.Errorf("invalid value %q", arg)
		}
		return model.Command{Kind: kind, Value: v}, nil
	default:
		return model.Command{}, fmt.Errorf("unknown command type %q", fields[1])
	}
}
