package signalr

import (
	"context"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/michalkurzeja/go-clock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/connectedcar/edge-vehicle-adapter/internal/api"
	"github.com/connectedcar/edge-vehicle-adapter/internal/backoff"
	"github.com/connectedcar/edge-vehicle-adapter/internal/config"
	"github.com/connectedcar/edge-vehicle-adapter/internal/metrics"
	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
)

// Supervisor lifecycle states.
const (
	StateDisconnected   = "disconnected"
	StateConnecting     = "connecting"
	StateAuthenticating = "authenticating"
	StateActive         = "active"
	StateRecovering     = "recovering"
	StateStopped        = "stopped"
)

const (
	eventConnect      = "connect"
	eventAuthenticate = "authenticate"
	eventEstablished  = "established"
	eventDrop         = "drop"
	eventStop         = "stop"
)

var errShutdown = errors.New("supervisor is shutting down")

// FrameHandler consumes decoded push frames.
type FrameHandler interface {
	// HandleFrame applies one incremental frame to the local state.
	HandleFrame(frame model.Frame)
}

// Supervisor owns the lifecycle of the push channel: connect, authenticate,
// receive, detect failure and reconnect with escalating backoff. Credential
// renewal is requested when a drop was authorization related. Reconnection
// is serialized; at most one connection attempt is outstanding at any time.
type Supervisor struct {
	mu       sync.Mutex
	running  bool
	done     chan struct{}
	finished chan struct{}

	cfg      *config.Service
	client   Client
	auth     api.Authenticator
	handler  FrameHandler
	vehicles func() []string
	backoff  *backoff.Backoff

	machine *fsm.FSM

	onConnected   func()
	setupComplete bool
	activeSince   time.Time
}

// NewSupervisor creates a supervisor for the given push client. The
// onConnected callback fires on the first successful session of the process
// lifetime only, never on reconnects.
func NewSupervisor(
	cfg *config.Service,
	client Client,
	auth api.Authenticator,
	handler FrameHandler,
	vehicles func() []string,
	onConnected func(),
) *Supervisor {
	s := &Supervisor{
		cfg:         cfg,
		client:      client,
		auth:        auth,
		handler:     handler,
		vehicles:    vehicles,
		backoff:     backoff.New(cfg.GetReconnectBackoff()),
		onConnected: onConnected,
	}

	s.machine = fsm.NewFSM(
		StateDisconnected,
		fsm.Events{
			{Name: eventConnect, Src: []string{StateDisconnected, StateRecovering}, Dst: StateConnecting},
			{Name: eventAuthenticate, Src: []string{StateConnecting}, Dst: StateAuthenticating},
			{Name: eventEstablished, Src: []string{StateAuthenticating}, Dst: StateActive},
			{Name: eventDrop, Src: []string{StateConnecting, StateAuthenticating, StateActive}, Dst: StateRecovering},
			{Name: eventStop, Src: []string{StateDisconnected, StateConnecting, StateAuthenticating, StateActive, StateRecovering}, Dst: StateStopped},
		},
		fsm.Callbacks{
			"enter_" + StateActive:     s.enterActive,
			"enter_" + StateRecovering: s.enterRecovering,
		},
	)

	return s
}

// Start launches the supervisor loop.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.done = make(chan struct{})
	s.finished = make(chan struct{})
	s.running = true

	go s.run()

	return nil
}

// Stop requests shutdown, cancels any pending reconnect timer, closes the
// transport and blocks until the supervisor loop has terminated.
func (s *Supervisor) Stop() error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()

		return nil
	}

	s.running = false
	close(s.done)
	finished := s.finished

	s.mu.Unlock()

	<-finished

	return nil
}

// State returns the current lifecycle state.
func (s *Supervisor) State() string {
	return s.machine.Current()
}

func (s *Supervisor) run() {
	defer close(s.finished)

	ctx := context.Background()

	for {
		select {
		case <-s.done:
			s.shutdown(ctx)

			return
		default:
		}

		err := s.establish(ctx)
		if err == nil {
			err = s.serve(ctx)
		}

		if errors.Is(err, errShutdown) {
			s.shutdown(ctx)

			return
		}

		log.WithError(err).Warn("supervisor: push session ended")

		if !s.await(ctx, err) {
			s.shutdown(ctx)

			return
		}
	}
}

// establish drives one serialized connection attempt up to the active
// state.
func (s *Supervisor) establish(ctx context.Context) error {
	s.transition(ctx, eventConnect)
	metrics.Reconnects.Inc()

	if _, err := s.auth.AccessToken(ctx); err != nil {
		s.transition(ctx, eventDrop)

		return errors.Wrap(err, "no valid credential for push session")
	}

	if err := s.client.Start(); err != nil {
		s.transition(ctx, eventDrop)

		return errors.Wrap(err, "failed to start push client")
	}

	s.transition(ctx, eventAuthenticate)

	timer := time.NewTimer(s.cfg.GetPushConnTimeout())
	defer timer.Stop()

	select {
	case <-s.done:
		return errShutdown
	case state := <-s.client.StateC():
		if state != Connected {
			_ = s.client.Close()
			s.transition(ctx, eventDrop)

			return errors.New("push channel closed before becoming active")
		}
	case <-timer.C:
		_ = s.client.Close()
		s.transition(ctx, eventDrop)

		return errors.New("timed out waiting for push session")
	}

	s.transition(ctx, eventEstablished)
	s.subscribeAll()

	return nil
}

// serve pumps frames into the handler until the channel drops or shutdown
// is requested.
func (s *Supervisor) serve(ctx context.Context) error {
	for {
		select {
		case <-s.done:
			return errShutdown
		case frame := <-s.client.FrameC():
			s.handler.HandleFrame(frame)
		case state := <-s.client.StateC():
			if state == Disconnected {
				s.transition(ctx, eventDrop)
				_ = s.client.Close()

				return errors.New("push channel dropped")
			}
		}
	}
}

// await sits out the recovery delay before the next connection attempt,
// requesting credential renewal first when the drop was authorization
// related. It reports false when shutdown was requested meanwhile.
func (s *Supervisor) await(ctx context.Context, cause error) bool {
	if errors.Is(cause, api.ErrAuthExpired) {
		log.Info("supervisor: authorization expired, requesting credential renewal")

		if err := s.auth.Renew(ctx); err != nil {
			log.WithError(err).Warn("supervisor: credential renewal failed")
		}
	}

	delay := s.backoff.Next()
	log.Debugf("supervisor: reconnecting in %s", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-s.done:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Supervisor) subscribeAll() {
	for _, id := range s.vehicles() {
		if err := s.client.SubscribeVehicle(id); err != nil {
			log.WithError(err).Warnf("supervisor: failed to subscribe vehicle %s", model.MaskVIN(id))
		}
	}
}

func (s *Supervisor) shutdown(ctx context.Context) {
	s.transition(ctx, eventStop)

	if err := s.client.Close(); err != nil {
		log.WithError(err).Warn("supervisor: failed to close push client")
	}

	metrics.PushConnected.Set(0)
	log.Debug("supervisor: stopped")
}

func (s *Supervisor) transition(ctx context.Context, event string) {
	if err := s.machine.Event(ctx, event); err != nil {
		log.WithError(err).Debugf("supervisor: transition %s skipped", event)
	}
}

// enterActive fires the deferred-setup latch on the first successful
// session of the process lifetime.
func (s *Supervisor) enterActive(_ context.Context, _ *fsm.Event) {
	s.activeSince = clock.Now()
	metrics.PushConnected.Set(1)

	if s.setupComplete {
		return
	}

	s.setupComplete = true

	if s.onConnected != nil {
		s.onConnected()
	}
}

// enterRecovering resets the backoff when the session survived the grace
// window. Drops during connection setup keep escalating.
func (s *Supervisor) enterRecovering(_ context.Context, e *fsm.Event) {
	metrics.PushConnected.Set(0)

	if e.Src == StateActive && clock.Now().Sub(s.activeSince) >= s.cfg.GetReconnectGraceWindow() {
		s.backoff.Reset()
	}
}
