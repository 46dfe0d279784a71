// Package mqtt bridges the truck controller to the mine broker: inbound
// command and route topics feed the command queue, outbound state and
// position snapshots are published periodically.
package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"MineTruck/internal/model"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

// Adapter is the messaging bridge of one truck.
type Adapter struct {
	truckID int
	cfg     model.MQTTConfig
	store   *state.Store
	queue   *state.CommandQueue
	log     *log.Entry

	client paho.Client
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewAdapter creates the adapter; Start connects and begins publishing.
func NewAdapter(truckID int, cfg model.MQTTConfig, store *state.Store, queue *state.CommandQueue) *Adapter {
	return &Adapter{
		truckID: truckID,
		cfg:     cfg,
		store:   store,
		queue:   queue,
		log:     util.TaskLogger("mqtt", truckID),
		stop:    make(chan struct{}),
	}
}

func (a *Adapter) topic(leaf string) string {
	return fmt.Sprintf("mine/truck/%d/%s", a.truckID, leaf)
}

// Start connects to the broker (retrying with backoff) and launches the
// outbound publisher. Subscriptions are installed on every (re)connect.
func (a *Adapter) Start() error {
	opts := paho.NewClientOptions().
		AddBroker(a.cfg.Broker).
		SetClientID(fmt.Sprintf("truck-%d", a.truckID)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(100 * time.Millisecond).
		SetMaxReconnectInterval(5 * time.Second).
		SetOnConnectHandler(a.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			a.log.WithError(err).Warn("broker connection lost")
		})
	a.client = paho.NewClient(opts)

	// With ConnectRetry the token completes only once a connection is made,
	// so the wait happens in the background and the truck keeps operating
	// offline in the meantime.
	token := a.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			a.log.WithError(err).Error("mqtt connect")
		}
	}()

	a.wg.Add(1)
	go a.publishLoop()
	return nil
}

func (a *Adapter) onConnect(c paho.Client) {
	a.log.Info("connected to broker")
	if token := c.Subscribe(a.topic("command"), a.cfg.QoS, a.handleCommand); token.Wait() && token.Error() != nil {
		a.log.WithError(token.Error()).Error("subscribe command")
	}
	if token := c.Subscribe(a.topic("route"), a.cfg.QoS, a.handleRoute); token.Wait() && token.Error() != nil {
		a.log.WithError(token.Error()).Error("subscribe route")
	}
}

func (a *Adapter) handleCommand(_ paho.Client, msg paho.Message) {
	cmd, err := model.DecodeCommand(msg.Payload())
	if err != nil {
		a.log.WithError(err).Warn("command rejected")
		return
	}
	if a.queue.Push(cmd) {
		a.log.Warn("command queue full, oldest dropped")
	}
}

func (a *Adapter) handleRoute(_ paho.Client, msg paho.Message) {
	wps, err := model.DecodeRoute(msg.Payload())
	if err != nil {
		a.log.WithError(err).Warn("route rejected")
		return
	}
	if a.queue.Push(model.Command{Kind: model.CmdSetRoute, Route: wps}) {
		a.log.Warn("command queue full, oldest dropped")
	}
}

// publishLoop publishes state and position snapshots at the configured
// period. While disconnected snapshots are silently dropped; there is no
// backlog.
func (a *Adapter) publishLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(model.Period(a.cfg.PublishPerMs))
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			if !a.client.IsConnectionOpen() {
				continue
			}
			s := a.store.Snapshot()
			ts := float64(time.Now().UnixNano()) / 1e9
			a.publishJSON(a.topic("state"), model.NewStateMessage(s, ts))
			a.publishJSON(a.topic("position"), model.NewPositionMessage(s))
		}
	}
}

func (a *Adapter) publishJSON(topic string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		a.log.WithError(err).Error("encode payload")
		return
	}
	a.client.Publish(topic, a.cfg.QoS, false, b)
}

// Stop halts publishing and disconnects from the broker.
func (a *Adapter) Stop() {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	a.wg.Wait()
	if a.client != nil {
		a.client.Disconnect(250)
	}
}
