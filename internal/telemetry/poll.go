package telemetry

import (
	"context"

	"github.com/michalkurzeja/go-clock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/connectedcar/edge-vehicle-adapter/internal/api"
	"github.com/connectedcar/edge-vehicle-adapter/internal/config"
	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
	"github.com/connectedcar/edge-vehicle-adapter/internal/vehicle"
)

// PollSynchronizer performs full-state fetches against the REST API and
// folds the results into the vehicle registry. Poll snapshots carry no
// freshness metadata and are authoritative for every field they report.
type PollSynchronizer struct {
	client   api.Client
	cfgSvc   *config.Service
	registry *vehicle.Registry
	notifier *vehicle.Notifier
}

// NewPollSynchronizer creates a poll synchronizer over the given registry.
func NewPollSynchronizer(client api.Client, cfgSvc *config.Service, registry *vehicle.Registry, notifier *vehicle.Notifier) *PollSynchronizer {
	return &PollSynchronizer{
		client:   client,
		cfgSvc:   cfgSvc,
		registry: registry,
		notifier: notifier,
	}
}

// LoadRegistry fetches the account master data and registers every
// non-excluded vehicle. A master data failure aborts the whole load and is
// returned to the caller; per-vehicle capability failures are logged and
// the vehicle keeps default feature flags.
func (p *PollSynchronizer) LoadRegistry(ctx context.Context) error {
	masterData, err := p.client.MasterData(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch vehicle master data")
	}

	for _, summary := range masterData.AssignedVehicles {
		id := summary.ID()
		if id == "" {
			log.Warn("poll: master data entry without VIN or FIN, skipping")

			continue
		}

		if summary.VIN == "" {
			log.Debugf("poll: VIN not found in master data, used FIN %s instead", model.MaskVIN(id))
		}

		if p.registry.Excluded(id) {
			continue
		}

		v := vehicle.New(id)
		v.SetMetadata(summary.LicensePlate, summary.IsOwner)

		p.loadFeatures(ctx, v)
		p.loadRcpOptions(ctx, v)

		if p.registry.Add(v) {
			log.Debugf("poll: vehicle added - %s", model.MaskVIN(id))
		}
	}

	return nil
}

// RefreshAll refreshes the vehicle-level metadata and performs a full-state
// poll of every registered vehicle. Failures are absorbed per vehicle so one
// unreachable vehicle does not starve its siblings.
func (p *PollSynchronizer) RefreshAll(ctx context.Context) {
	if err := p.RefreshMetadata(ctx); err != nil {
		log.WithError(err).Warn("poll: failed to refresh vehicle metadata")
	}

	for _, v := range p.registry.All() {
		if err := p.Refresh(ctx, v.ID()); err != nil {
			log.WithError(err).Warnf("poll: failed to refresh vehicle %s", model.MaskVIN(v.ID()))
		}
	}
}

// RefreshMetadata re-fetches the account master data and refreshes the
// metadata of already registered vehicles. Vehicles added to or removed from
// the account mid-session are picked up on the next restart.
func (p *PollSynchronizer) RefreshMetadata(ctx context.Context) error {
	masterData, err := p.client.MasterData(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch vehicle master data")
	}

	for _, summary := range masterData.AssignedVehicles {
		v, ok := p.registry.Get(summary.ID())
		if !ok {
			continue
		}

		v.SetMetadata(summary.LicensePlate, summary.IsOwner)
	}

	return nil
}

// Refresh fetches the full current state of one vehicle and applies every
// reported attribute without a timestamp ordering check.
func (p *PollSynchronizer) Refresh(ctx context.Context, vehicleID string) error {
	v, ok := p.registry.Get(vehicleID)
	if !ok {
		return errors.Errorf("unknown vehicle %s", model.MaskVIN(vehicleID))
	}

	records, err := p.client.VehicleState(ctx, vehicleID)
	if err != nil {
		return errors.Wrap(err, "failed to fetch vehicle state snapshot")
	}

	now := clock.Now().UTC()

	for _, record := range records {
		status := model.RetrievalStatus(record.Status)
		if status == "" {
			status = model.StatusValid
		}

		v.Apply(record.Feature, record.Object, record.Attribute, record.Value, status, now, false)
	}

	if v.ConsumeChanged() {
		p.notifier.Notify(vehicleID)
	}

	return nil
}

// loadFeatures folds the capability set and the remote command availability
// flags into the vehicle. Some vehicles answer with HTTP 401 here; the
// failure is absorbed and defaults remain in place.
func (p *PollSynchronizer) loadFeatures(ctx context.Context, v *vehicle.Vehicle) {
	features := make(vehicle.Features)

	capabilities, err := p.client.Capabilities(ctx, v.ID())
	if err != nil {
		log.Infof("poll: capabilities not available for vehicle %s", model.MaskVIN(v.ID()))
	} else {
		for name, available := range capabilities.Features {
			features[name] = available
		}
	}

	commands, err := p.client.CommandCapabilities(ctx, v.ID())
	if err != nil {
		log.Infof("poll: command capabilities not available for vehicle %s", model.MaskVIN(v.ID()))
	} else {
		for _, command := range commands.Commands {
			features[command.CommandName] = command.IsAvailable
		}
	}

	v.SetFeatures(features)
}

// loadRcpOptions probes remote charge programming support. Resolution of
// the supported-settings sub-resource stays behind the rcpEnabled gate.
func (p *PollSynchronizer) loadRcpOptions(ctx context.Context, v *vehicle.Vehicle) {
	now := clock.Now().UTC()

	supported, err := p.client.RcpSupported(ctx, v.ID())
	if err != nil {
		log.WithError(err).Infof("poll: rcp support not available for vehicle %s", model.MaskVIN(v.ID()))

		supported = false
	}

	log.Debugf("poll: rcp supported for vehicle %s: %t", model.MaskVIN(v.ID()), supported)

	v.Apply("rcp", "options", "supported", supported, model.StatusValid, now, false)

	if !supported || !p.cfgSvc.GetRcpEnabled() {
		return
	}

	settings, err := p.client.RcpSettings(ctx, v.ID())
	if err != nil {
		log.WithError(err).Infof("poll: rcp settings not available for vehicle %s", model.MaskVIN(v.ID()))

		return
	}

	if len(settings.Data.Attributes.SupportedSettings) == 0 {
		return
	}

	v.Apply("rcp", "options", "supportedSettings", settings.Data.Attributes.SupportedSettings, model.StatusValid, now, false)
}
