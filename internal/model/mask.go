package model

// MaskVIN hides the middle of a vehicle identification number for log
// output. Identifiers shorter than eight characters are masked entirely.
func MaskVIN(vin string) string {
	if len(vin) < 8 {
		return "***"
	}

	return vin[:4] + "*********" + vin[len(vin)-4:]
}
