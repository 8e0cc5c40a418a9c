package telemetry

import (
	"github.com/michalkurzeja/go-clock"
	log "github.com/sirupsen/logrus"

	"github.com/connectedcar/edge-vehicle-adapter/internal/metrics"
	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
	"github.com/connectedcar/edge-vehicle-adapter/internal/vehicle"
)

// PushSynchronizer applies incremental frames to the vehicle registry,
// enforcing last-writer-wins by source timestamp. Frames for unknown
// vehicles are dropped with a warning; they never abort the pipeline.
type PushSynchronizer struct {
	registry *vehicle.Registry
	notifier *vehicle.Notifier
}

// NewPushSynchronizer creates a push synchronizer over the given registry.
func NewPushSynchronizer(registry *vehicle.Registry, notifier *vehicle.Notifier) *PushSynchronizer {
	return &PushSynchronizer{
		registry: registry,
		notifier: notifier,
	}
}

// HandleFrame applies every delta of the frame using the frame timestamp
// for ordering. A delta that is not newer than the cell it targets is
// ignored, which protects against out-of-order delivery during reconnect
// replay. Subscribers are notified once per frame, after all deltas.
func (s *PushSynchronizer) HandleFrame(frame model.Frame) {
	v, ok := s.registry.Get(frame.VehicleID)
	if !ok {
		log.Warnf("push: dropping frame for unknown vehicle %s", model.MaskVIN(frame.VehicleID))
		metrics.FramesDropped.Inc()

		return
	}

	for _, delta := range frame.Deltas {
		status := delta.Status
		if status == "" {
			status = model.StatusValid
		}

		v.Apply(delta.Feature, delta.Object, delta.Attribute, delta.TypedValue(), status, frame.Timestamp, true)
	}

	v.TouchPush(clock.Now().UTC())
	metrics.FramesApplied.Inc()

	if v.ConsumeChanged() {
		s.notifier.Notify(frame.VehicleID)
	}
}
