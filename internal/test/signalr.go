package test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/philippseith/signalr"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
)

var (
	// DefaultSignalRAddr is the default address for the test signalR server.
	DefaultSignalRAddr = "localhost:9999"
)

// SignalRServer is a test signalR server.
type SignalRServer struct {
	t *testing.T

	signalr signalr.Server
	http    *http.Server
	router  *http.ServeMux
	hub     *signalRHub

	running      bool
	mockedFrames []frameBatch
}

// NewSignalRServer creates a new test signalR server.
func NewSignalRServer(t *testing.T, address string) *SignalRServer {
	t.Helper()

	hub := newSignalRHub(t)
	router := http.NewServeMux()

	srv, err := signalr.NewServer(context.Background(), signalr.UseHub(hub))
	require.NoError(t, err)

	srv.MapHTTP(signalr.WithHTTPServeMux(router), "/hubs/vehicles")

	return &SignalRServer{
		t:       t,
		router:  router,
		hub:     hub,
		signalr: srv,
		http:    &http.Server{Addr: address, Handler: router}, //nolint:gosec
	}
}

func (s *SignalRServer) Start() {
	if s.running {
		return
	}

	log.Infof("signalR test server: starting on addr %s", s.http.Addr)

	go s.scheduleFrames()
	go s.runHTTPServer() //nolint:staticcheck

	s.running = true
}

func (s *SignalRServer) Close() {
	if !s.running {
		return
	}

	log.Infof("signalR test server: stopping")

	err := s.http.Shutdown(context.Background())
	require.NoError(s.t, err)

	s.running = false
}

// MockFrames schedules telemetry frames to be pushed to connected clients after a delay.
func (s *SignalRServer) MockFrames(delay time.Duration, frames []model.Frame) {
	s.mockedFrames = append(s.mockedFrames, frameBatch{
		delay:  delay,
		frames: frames,
	})
}

// Subscriptions returns vehicle IDs for which clients subscribed.
func (s *SignalRServer) Subscriptions() []string {
	return s.hub.subscriptions
}

func (s *SignalRServer) scheduleFrames() {
	for _, batch := range s.mockedFrames {
		time.Sleep(batch.delay)

		s.hub.propagate(batch.frames)
	}
}

func (s *SignalRServer) runHTTPServer() {
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		s.t.Fatal("signalR test server: http server error", err) //nolint:staticcheck
	}
}

type signalRHub struct {
	signalr.Hub

	t *testing.T

	numConnections int
	frames         []model.Frame
	subscriptions  []string
}

func newSignalRHub(t *testing.T) *signalRHub {
	t.Helper()

	return &signalRHub{t: t}
}

// SubscribeWithCurrentState is invoked by connecting clients. Any frames
// already known for the vehicle are replayed to the caller.
func (h *signalRHub) SubscribeWithCurrentState(vehicleID string, sendInitialState bool) {
	log.Infof("signalR test server: SubscribeWithCurrentState called: vehicleID %s, sendInitialState %t", vehicleID, sendInitialState)

	h.subscriptions = append(h.subscriptions, vehicleID)

	for _, f := range h.frames {
		h.Clients().Caller().Send("vehicleUpdate", f)
	}
}

// Unsubscribe is invoked by disconnecting clients.
func (h *signalRHub) Unsubscribe(vehicleID string) {
	log.Infof("signalR test server: Unsubscribe called: vehicleID %s", vehicleID)
}

// OnConnected is called when the hub is connected.
func (h *signalRHub) OnConnected(connID string) {
	log.Infof("signalR test server: new client connected: connID %s", connID)

	h.numConnections++
}

// OnDisconnected is called when the hub is disconnected.
func (h *signalRHub) OnDisconnected(connID string) {
	log.Infof("signalR test server: client disconnected: connID %s", connID)

	h.numConnections--
}

func (h *signalRHub) propagate(frames []model.Frame) {
	h.frames = frames

	if h.numConnections == 0 {
		return
	}

	for _, f := range frames {
		h.Clients().All().Send("vehicleUpdate", f)
	}
}

type frameBatch struct {
	delay  time.Duration
	frames []model.Frame
}
