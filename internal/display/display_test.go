package display_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/connectedcar/edge-vehicle-adapter/internal/display"
)

func TestDecorate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		attribute string
		value     string
		want      display.Decoration
		wantOK    bool
	}{
		{
			name:      "ignition state is decorated",
			attribute: "ignitionstate",
			value:     "4",
			want:      display.Decoration{Short: "on", Description: "Ignition on"},
			wantOK:    true,
		},
		{
			name:      "starter battery state is decorated",
			attribute: "starterBatteryState",
			value:     "0",
			want:      display.Decoration{Short: "green", Description: "Vehicle ok"},
			wantOK:    true,
		},
		{
			name:      "aux heat status is decorated",
			attribute: "auxheatstatus",
			value:     "6",
			want:      display.Decoration{Short: "auto heating", Description: "auto heating"},
			wantOK:    true,
		},
		{
			name:      "value outside the table",
			attribute: "ignitionstate",
			value:     "3",
		},
		{
			name:      "attribute without a table",
			attribute: "odometer",
			value:     "0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			decoration, ok := display.Decorate(tc.attribute, tc.value)

			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, decoration)
		})
	}
}

func TestUnit(t *testing.T) {
	t.Parallel()

	unit, ok := display.Unit("odo")

	assert.True(t, ok)
	assert.Equal(t, "km", unit)

	_, ok = display.Unit("lockState")

	assert.False(t, ok)
}
