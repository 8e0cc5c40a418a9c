package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/connectedcar/edge-vehicle-adapter/internal/api"
	"github.com/connectedcar/edge-vehicle-adapter/internal/config"
	"github.com/connectedcar/edge-vehicle-adapter/internal/signalr"
	"github.com/connectedcar/edge-vehicle-adapter/internal/telemetry"
	"github.com/connectedcar/edge-vehicle-adapter/internal/vehicle"
)

// ErrNotReady signals that setup could not complete. The caller is expected
// to retry the whole setup after a delay instead of exposing a partially
// populated vehicle list.
var ErrNotReady = errors.New("vehicle adapter is not ready")

// Application ties the synchronization engine together: it owns the setup
// and teardown of one synchronization session.
type Application struct {
	cfgSvc     *config.Service
	auth       api.Authenticator
	poll       *telemetry.PollSynchronizer
	registry   *vehicle.Registry
	notifier   *vehicle.Notifier
	supervisor *signalr.Supervisor
}

// New creates a new Application.
func New(
	cfgSvc *config.Service,
	auth api.Authenticator,
	poll *telemetry.PollSynchronizer,
	registry *vehicle.Registry,
	notifier *vehicle.Notifier,
	supervisor *signalr.Supervisor,
) *Application {
	return &Application{
		cfgSvc:     cfgSvc,
		auth:       auth,
		poll:       poll,
		registry:   registry,
		notifier:   notifier,
		supervisor: supervisor,
	}
}

// Registry exposes the consumer-facing read API.
func (a *Application) Registry() *vehicle.Registry {
	return a.registry
}

// Notifier exposes the subscription API.
func (a *Application) Notifier() *vehicle.Notifier {
	return a.notifier
}

// Setup authenticates, loads the vehicle registry and starts the push
// channel supervisor. Failures affecting the whole session surface as
// ErrNotReady; per-vehicle capability failures are absorbed during the
// load.
func (a *Application) Setup(ctx context.Context) error {
	if err := a.auth.Login(ctx); err != nil {
		if errors.Is(err, api.ErrAuthUnavailable) {
			log.WithError(err).Warn("app: identity provider unreachable, will retry")

			return errors.Wrap(ErrNotReady, err.Error())
		}

		return errors.Wrap(err, "failed to authenticate")
	}

	if err := a.poll.LoadRegistry(ctx); err != nil {
		return errors.Wrap(ErrNotReady, err.Error())
	}

	log.Infof("app: vehicle load complete, %d vehicles registered", a.registry.Len())

	a.poll.RefreshAll(ctx)

	if err := a.supervisor.Start(); err != nil {
		return errors.Wrap(err, "failed to start push supervisor")
	}

	return nil
}

// Teardown stops the supervisor and discards the session state. The
// registry is only released after the supervisor has fully stopped, so no
// late frame writes into torn down state.
func (a *Application) Teardown() error {
	if err := a.supervisor.Stop(); err != nil {
		return errors.Wrap(err, "failed to stop push supervisor")
	}

	log.Debug("app: session torn down")

	return nil
}

// RunRefresh periodically re-polls the full state of every registered
// vehicle until the context is cancelled.
func (a *Application) RunRefresh(ctx context.Context) error {
	interval := a.cfgSvc.GetPollingInterval()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.poll.RefreshAll(ctx)
		}
	}
}
