package test

var (
	// VehicleID is the VIN of the vehicle used in tests.
	VehicleID = "WDB12345678901234"
	// AccessToken is the access token used in tests.
	AccessToken = "test.access.token"
)
