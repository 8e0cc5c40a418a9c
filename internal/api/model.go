package api

// Credentials stands for telemetry service API credentials.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// MasterData is the account-level vehicle list returned by the service.
type MasterData struct {
	AssignedVehicles []VehicleSummary `json:"assignedVehicles"`
}

// VehicleSummary represents one vehicle entry of the master data.
type VehicleSummary struct {
	VIN          string `json:"vin"`
	FIN          string `json:"fin"`
	LicensePlate string `json:"licensePlate"`
	IsOwner      bool   `json:"isOwner"`
	Model        string `json:"model"`
}

// ID returns the vehicle identity key: the VIN, or the FIN when the master
// data carries no VIN.
func (s VehicleSummary) ID() string {
	if s.VIN != "" {
		return s.VIN
	}

	return s.FIN
}

// Capabilities is the feature capability set of a vehicle.
type Capabilities struct {
	Features map[string]bool `json:"features"`
}

// CommandCapabilities lists the remote commands a vehicle supports.
type CommandCapabilities struct {
	Commands []CommandCapability `json:"commands"`
}

// CommandCapability is a single remote command availability flag.
type CommandCapability struct {
	CommandName string `json:"commandName"`
	IsAvailable bool   `json:"isAvailable"`
}

// RcpSupport reports whether remote charge programming is available for a
// vehicle.
type RcpSupport struct {
	Supported bool `json:"supported"`
}

// RcpSettings is the supported-settings sub-resource of remote charge
// programming.
type RcpSettings struct {
	Data struct {
		Attributes struct {
			SupportedSettings []string `json:"supportedSettings"`
		} `json:"attributes"`
	} `json:"data"`
}

// AttributeRecord is one attribute of a full-state poll snapshot. Poll
// records carry no freshness metadata: the snapshot is authoritative for
// every field it reports.
type AttributeRecord struct {
	Feature   string `json:"feature"`
	Object    string `json:"object"`
	Attribute string `json:"attribute"`
	Value     any    `json:"value"`
	Status    string `json:"status"`
}

// loginBody represents a login request body.
type loginBody struct {
	Username string `json:"userName"`
	Password string `json:"password"`
}

// refreshBody represents a token refresh request body.
type refreshBody struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
