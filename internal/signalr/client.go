package signalr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/philippseith/signalr"
	log "github.com/sirupsen/logrus"

	"github.com/connectedcar/edge-vehicle-adapter/internal/config"
	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
)

// State represents the state of the push channel client.
type State int

func (s State) String() string {
	if s == Disconnected {
		return "disconnected"
	}

	return "connected"
}

const (
	Disconnected State = iota
	Connected
)

// Client is the interface for the push channel client. Every Start builds a
// fresh underlying connection, so the supervisor can cycle it across
// reconnects.
type Client interface {
	// Start starts the push client.
	Start() error
	// Close stops the push client.
	Close() error

	// SubscribeVehicle subscribes to receive telemetry frames for a vehicle.
	SubscribeVehicle(id string) error
	// UnsubscribeVehicle unsubscribes from receiving vehicle frames.
	UnsubscribeVehicle(id string) error
	// Connected returns true if the push client is connected.
	Connected() bool
	// StateC returns a channel that will receive state updates.
	StateC() <-chan State
	// FrameC returns a channel that will receive telemetry frames.
	FrameC() <-chan model.Frame
}

type client struct {
	mu      sync.Mutex
	running bool
	done    chan struct{}

	c            signalr.Client
	cfg          *config.Service
	serverStopFn context.CancelFunc
	connFactory  *connectionFactory
	receiver     *receiver
	stateC       chan State
	connState    State
}

// NewClient creates a new push channel client.
func NewClient(cfg *config.Service, tokenProvider func() (string, error)) Client {
	return &client{
		cfg:         cfg,
		receiver:    newReceiver(),
		connFactory: newConnectionFactory(cfg, tokenProvider),
		stateC:      make(chan State, 10),
	}
}

func (c *client) SubscribeVehicle(id string) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()

		return fmt.Errorf("client is not running")
	}

	c.mu.Unlock()

	return c.invoke("SubscribeWithCurrentState", id, true) // true requests an initial batch of data
}

func (c *client) UnsubscribeVehicle(id string) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()

		return fmt.Errorf("client is not running")
	}

	c.mu.Unlock()

	return c.invoke("Unsubscribe", id)
}

func (c *client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return false
	}

	return c.connState == Connected
}

func (c *client) StateC() <-chan State {
	return c.stateC
}

func (c *client) FrameC() <-chan model.Frame {
	return c.receiver.frameC()
}

func (c *client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	client, stopFn, err := c.clientFactory(c.connFactory, c.receiver)
	if err != nil {
		return err
	}

	c.c = client
	c.serverStopFn = stopFn

	c.done = make(chan struct{})

	c.c.Start()

	go c.notifyState()

	c.running = true

	return nil
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	c.serverStopFn()
	close(c.done)

	c.running = false
	c.connState = Disconnected

	// Stale state events queued by the dying session must not leak into the
	// next one, where they would be mistaken for its connection coming up.
	for {
		select {
		case <-c.stateC:
		default:
			return nil
		}
	}
}

func (c *client) invoke(method string, args ...any) error {
	timer := time.NewTimer(c.cfg.GetPushInvokeTimeout())
	defer timer.Stop()

	results := c.c.Invoke(method, args...)

	select {
	case result := <-results:
		return result.Error
	case <-timer.C:
		return fmt.Errorf("timeout")
	}
}

func (c *client) notifyState() {
	ch := make(chan signalr.ClientState, 1)
	cancel := c.c.ObserveStateChanged(ch)

	for {
		select {
		case <-c.done:
			cancel()

			return
		case newState := <-ch:
			var state State
			if newState == signalr.ClientConnected {
				state = Connected
			}

			c.mu.Lock()

			if c.connState == state {
				c.mu.Unlock()

				continue
			}

			c.connState = state

			c.mu.Unlock()

			log.Info("push client state: ", state)

			select {
			case c.stateC <- state:
			case <-c.done:
				cancel()

				return
			}
		}
	}
}

func (c *client) clientFactory(connFactory *connectionFactory, rec *receiver) (signalr.Client, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	client, err := signalr.NewClient(
		ctx,
		signalr.KeepAliveInterval(c.cfg.GetPushKeepAliveInterval()),
		signalr.TimeoutInterval(c.cfg.GetPushTimeoutInterval()),
		signalr.WithConnector(connFactory.Create),
		signalr.WithReceiver(rec),
		signalr.Logger(newLogger(), false),
	)
	if err != nil {
		cancel()

		return nil, nil, err
	}

	return client, cancel, nil
}
