package vehicle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/connectedcar/edge-vehicle-adapter/internal/vehicle"
)

func TestNotifier_Notify_RegistrationOrder(t *testing.T) {
	t.Parallel()

	n := vehicle.NewNotifier()

	var calls []string

	n.Subscribe("VIN1", func() { calls = append(calls, "first") })
	n.Subscribe("VIN1", func() { calls = append(calls, "second") })
	n.Subscribe("VIN2", func() { calls = append(calls, "other") })

	n.Notify("VIN1")

	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	t.Parallel()

	n := vehicle.NewNotifier()

	var calls int

	handle := n.Subscribe("VIN1", func() { calls++ })
	n.Subscribe("VIN1", func() { calls++ })

	n.Unsubscribe(handle)
	n.Notify("VIN1")

	assert.Equal(t, 1, calls)

	// Unknown handles are ignored.
	n.Unsubscribe(vehicle.Subscription(42))
	n.Unsubscribe(handle)
}

func TestNotifier_Notify_RecoversPanickingListener(t *testing.T) {
	t.Parallel()

	n := vehicle.NewNotifier()

	var called bool

	n.Subscribe("VIN1", func() { panic("boom") })
	n.Subscribe("VIN1", func() { called = true })

	assert.NotPanics(t, func() { n.Notify("VIN1") })
	assert.True(t, called)
}

func TestNotifier_Notify_UnknownVehicle(t *testing.T) {
	t.Parallel()

	n := vehicle.NewNotifier()

	assert.NotPanics(t, func() { n.Notify("VIN9") })
}
