package vehicle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/connectedcar/edge-vehicle-adapter/internal/vehicle"
)

func TestRegistry_Add(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		excluded []string
		ids      []string
		wantLen  int
	}{
		{
			name:    "vehicles are registered",
			ids:     []string{"VIN1", "VIN2"},
			wantLen: 2,
		},
		{
			name:     "excluded vehicle is skipped",
			excluded: []string{"VIN2"},
			ids:      []string{"VIN1", "VIN2"},
			wantLen:  1,
		},
		{
			name:    "duplicate registration is skipped",
			ids:     []string{"VIN1", "VIN1"},
			wantLen: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := vehicle.NewRegistry(tc.excluded)

			for _, id := range tc.ids {
				r.Add(vehicle.New(id))
			}

			assert.Equal(t, tc.wantLen, r.Len())
		})
	}
}

func TestRegistry_All_IsOrdered(t *testing.T) {
	t.Parallel()

	r := vehicle.NewRegistry(nil)
	r.Add(vehicle.New("VIN3"))
	r.Add(vehicle.New("VIN1"))
	r.Add(vehicle.New("VIN2"))

	var ids []string
	for _, v := range r.All() {
		ids = append(ids, v.ID())
	}

	assert.Equal(t, []string{"VIN1", "VIN2", "VIN3"}, ids)
}

func TestRegistry_Excluded(t *testing.T) {
	t.Parallel()

	r := vehicle.NewRegistry([]string{"VIN2"})

	assert.True(t, r.Excluded("VIN2"))
	assert.False(t, r.Excluded("VIN1"))

	_, ok := r.Get("VIN2")
	assert.False(t, ok)
}
