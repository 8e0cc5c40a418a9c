// Package display maps raw enum telemetry values onto human readable
// strings. It is presentation logic: consumers apply it after reading a
// cell, the synchronization core never touches it.
package display

// Decoration is a human readable rendering of an enum telemetry value.
type Decoration struct {
	Short       string
	Description string
}

var decorations = map[string]map[string]Decoration{
	"ignitionstate": {
		"0": {Short: "lock", Description: "Ignition lock"},
		"1": {Short: "off", Description: "Ignition off"},
		"2": {Short: "accessory", Description: "Ignition accessory"},
		"4": {Short: "on", Description: "Ignition on"},
		"5": {Short: "start", Description: "Ignition start"},
	},
	"starterBatteryState": {
		"0": {Short: "green", Description: "Vehicle ok"},
		"1": {Short: "yellow", Description: "Battery partly charged"},
		"2": {Short: "red", Description: "Vehicle not available"},
		"3": {Short: "serviceDisabled", Description: "Remote service disabled"},
		"4": {Short: "vehicleNotAvailable", Description: "Vehicle no longer available"},
	},
	"auxheatstatus": {
		"0": {Short: "inactive", Description: "inactive"},
		"1": {Short: "normal heating", Description: "normal heating"},
		"2": {Short: "normal ventilation", Description: "normal ventilation"},
		"3": {Short: "manual heating", Description: "manual heating"},
		"4": {Short: "post heating", Description: "post heating"},
		"5": {Short: "post ventilation", Description: "post ventilation"},
		"6": {Short: "auto heating", Description: "auto heating"},
	},
}

var units = map[string]string{
	"odo":                    "km",
	"rangeliquid":            "km",
	"rangeelectric":          "km",
	"soc":                    "%",
	"tanklevelpercent":       "%",
	"liquidconsumptionkm":    "l/100km",
	"electricconsumptionkm":  "kWh/100km",
	"outsideTemperature":     "°C",
	"tirepressureFrontLeft":  "kPa",
	"tirepressureFrontRight": "kPa",
	"tirepressureRearLeft":   "kPa",
	"tirepressureRearRight":  "kPa",
}

// Decorate resolves the display strings for an attribute value. The second
// return value is false for attributes without a decoration table or values
// outside of it.
func Decorate(attribute, value string) (Decoration, bool) {
	table, ok := decorations[attribute]
	if !ok {
		return Decoration{}, false
	}

	decoration, ok := table[value]

	return decoration, ok
}

// Unit returns the display unit of a numeric attribute, or false for
// attributes without one.
func Unit(attribute string) (string, bool) {
	unit, ok := units[attribute]

	return unit, ok
}
