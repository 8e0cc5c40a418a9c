package cmd

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/connectedcar/edge-vehicle-adapter/internal/api"
	"github.com/connectedcar/edge-vehicle-adapter/internal/app"
	"github.com/connectedcar/edge-vehicle-adapter/internal/config"
	"github.com/connectedcar/edge-vehicle-adapter/internal/signalr"
	"github.com/connectedcar/edge-vehicle-adapter/internal/telemetry"
	"github.com/connectedcar/edge-vehicle-adapter/internal/vehicle"
)

func build(cfgSvc *config.Service) (*app.Application, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	restClient := api.NewHTTPClient(httpClient, cfgSvc.GetAPIBaseURL())
	auth := api.NewAuthenticator(restClient, cfgSvc)
	client := api.NewAPIClient(restClient, auth)

	registry := vehicle.NewRegistry(cfgSvc.GetExcludedVehicles())
	notifier := vehicle.NewNotifier()

	poll := telemetry.NewPollSynchronizer(client, cfgSvc, registry, notifier)
	push := telemetry.NewPushSynchronizer(registry, notifier)

	pushClient := signalr.NewClient(cfgSvc, func() (string, error) {
		return auth.AccessToken(context.Background())
	})

	vehicleIDs := func() []string {
		vehicles := registry.All()

		ids := make([]string, 0, len(vehicles))
		for _, v := range vehicles {
			ids = append(ids, v.ID())
		}

		return ids
	}

	onConnected := func() {
		log.Info("push session established, consumer setup can proceed")
	}

	supervisor := signalr.NewSupervisor(cfgSvc, pushClient, auth, push, vehicleIDs, onConnected)

	return app.New(cfgSvc, auth, poll, registry, notifier, supervisor), nil
}
