package vehicle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
	"github.com/connectedcar/edge-vehicle-adapter/internal/vehicle"
)

func TestVehicle_Apply_Ordering(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		updates    []update
		wantValue  any
		wantStatus model.RetrievalStatus
	}{
		{
			name: "newer push update replaces older value",
			updates: []update{
				{value: 12, ts: base, enforceOrder: true},
				{value: 32, ts: base.Add(100 * time.Second), enforceOrder: true},
			},
			wantValue:  32,
			wantStatus: model.StatusValid,
		},
		{
			name: "stale push update is ignored",
			updates: []update{
				{value: 32, ts: base.Add(100 * time.Second), enforceOrder: true},
				{value: 12, ts: base.Add(90 * time.Second), enforceOrder: true},
			},
			wantValue:  32,
			wantStatus: model.StatusValid,
		},
		{
			name: "equal timestamp push update is ignored",
			updates: []update{
				{value: 32, ts: base, enforceOrder: true},
				{value: 12, ts: base, enforceOrder: true},
			},
			wantValue:  32,
			wantStatus: model.StatusValid,
		},
		{
			name: "poll update applies regardless of timestamp",
			updates: []update{
				{value: 32, ts: base.Add(100 * time.Second), enforceOrder: true},
				{value: 12, ts: base.Add(90 * time.Second), enforceOrder: false},
			},
			wantValue:  12,
			wantStatus: model.StatusValid,
		},
		{
			name: "status change is preserved",
			updates: []update{
				{value: 32, ts: base, enforceOrder: true},
				{value: nil, status: model.StatusError, ts: base.Add(time.Second), enforceOrder: true},
			},
			wantValue:  nil,
			wantStatus: model.StatusError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v := vehicle.New("WDB12345678901234")

			for _, u := range tc.updates {
				status := u.status
				if status == "" {
					status = model.StatusValid
				}

				v.Apply("doors", "frontLeft", "lockState", u.value, status, u.ts, u.enforceOrder)
			}

			value, status := v.Get("doors", "frontLeft", "lockState")

			assert.Equal(t, tc.wantValue, value)
			assert.Equal(t, tc.wantStatus, status)
		})
	}
}

func TestVehicle_Apply_ReportsChange(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	v := vehicle.New("WDB12345678901234")

	assert.True(t, v.Apply("doors", "frontLeft", "lockState", 1, model.StatusValid, base, true))
	assert.True(t, v.ConsumeChanged())

	// Same value at a later timestamp: applied, but nothing observable changed.
	assert.False(t, v.Apply("doors", "frontLeft", "lockState", 1, model.StatusValid, base.Add(time.Second), true))
	assert.False(t, v.ConsumeChanged())

	assert.True(t, v.Apply("doors", "frontLeft", "lockState", 2, model.StatusValid, base.Add(2*time.Second), true))
	assert.True(t, v.ConsumeChanged())
	assert.False(t, v.ConsumeChanged())
}

func TestVehicle_Apply_PollKeepsTimestampMonotonic(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	v := vehicle.New("WDB12345678901234")

	v.Apply("doors", "frontLeft", "lockState", 32, model.StatusValid, base.Add(100*time.Second), true)
	v.Apply("doors", "frontLeft", "lockState", 12, model.StatusValid, base.Add(90*time.Second), false)

	// A push frame between the poll snapshot time and the cell's high-water
	// mark must still be rejected.
	applied := v.Apply("doors", "frontLeft", "lockState", 99, model.StatusValid, base.Add(95*time.Second), true)

	assert.False(t, applied)

	value, _ := v.Get("doors", "frontLeft", "lockState")
	assert.Equal(t, 12, value)
}

func TestVehicle_Get_Defaults(t *testing.T) {
	t.Parallel()

	v := vehicle.New("WDB12345678901234")

	value, status := v.Get("doors", "frontLeft", "lockState")

	assert.Nil(t, value)
	assert.Equal(t, model.StatusNotReceived, status)
}

func TestVehicle_SetMetadata(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		plate string
		want  string
	}{
		{
			name:  "plate is kept",
			plate: "AB-123",
			want:  "AB-123",
		},
		{
			name:  "blank plate falls back to identifier",
			plate: "  ",
			want:  "WDB12345678901234",
		},
		{
			name:  "empty plate falls back to identifier",
			plate: "",
			want:  "WDB12345678901234",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v := vehicle.New("WDB12345678901234")
			v.SetMetadata(tc.plate, true)

			assert.Equal(t, tc.want, v.LicensePlate())
			assert.True(t, v.IsOwner())
		})
	}
}

func TestVehicle_SetMetadata_RefreshDropsPlate(t *testing.T) {
	t.Parallel()

	v := vehicle.New("VIN123")

	v.SetMetadata("AB-123", true)
	assert.Equal(t, "AB-123", v.LicensePlate())

	// A later master data refresh without a plate falls back to the
	// identifier instead of going blank.
	v.SetMetadata("", true)
	assert.Equal(t, "VIN123", v.LicensePlate())
}

func TestVehicle_TouchPush(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	v := vehicle.New("WDB12345678901234")

	v.TouchPush(base)
	v.TouchPush(base.Add(-time.Minute))

	assert.Equal(t, base, v.LastPushReceived())
}

func TestFeatures_Supports(t *testing.T) {
	t.Parallel()

	f := vehicle.Features{"doorsLock": true, "engineStart": false}

	assert.True(t, f.Supports("doorsLock"))
	assert.False(t, f.Supports("engineStart"))
	assert.False(t, f.Supports("auxHeat"))
}

type update struct {
	value        any
	status       model.RetrievalStatus
	ts           time.Time
	enforceOrder bool
}
