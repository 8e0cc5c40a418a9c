package api

import (
	"context"
	"fmt"
)

// Client is a wrapper around the telemetry service HTTP client with
// authentication capabilities.
type Client interface {
	// MasterData retrieves the account master data including the assigned vehicle list.
	MasterData(ctx context.Context) (*MasterData, error)
	// Capabilities retrieves the feature capability set of a vehicle.
	Capabilities(ctx context.Context, vehicleID string) (*Capabilities, error)
	// CommandCapabilities retrieves the remote command availability flags of a vehicle.
	CommandCapabilities(ctx context.Context, vehicleID string) (*CommandCapabilities, error)
	// RcpSupported checks whether remote charge programming is supported by a vehicle.
	RcpSupported(ctx context.Context, vehicleID string) (bool, error)
	// RcpSettings retrieves the supported remote charge programming settings.
	RcpSettings(ctx context.Context, vehicleID string) (*RcpSettings, error)
	// VehicleState retrieves the full current state snapshot of a vehicle.
	VehicleState(ctx context.Context, vehicleID string) ([]AttributeRecord, error)
}

type apiClient struct {
	httpClient HTTPClient
	auth       Authenticator
}

// NewAPIClient creates a Client injecting access tokens from the
// authenticator into every call.
func NewAPIClient(http HTTPClient, auth Authenticator) Client {
	return &apiClient{
		httpClient: http,
		auth:       auth,
	}
}

func (a *apiClient) MasterData(ctx context.Context) (*MasterData, error) {
	token, err := a.auth.AccessToken(ctx)
	if err != nil {
		return nil, a.tokenError(err)
	}

	return a.httpClient.MasterData(ctx, token)
}

func (a *apiClient) Capabilities(ctx context.Context, vehicleID string) (*Capabilities, error) {
	token, err := a.auth.AccessToken(ctx)
	if err != nil {
		return nil, a.tokenError(err)
	}

	return a.httpClient.Capabilities(ctx, token, vehicleID)
}

func (a *apiClient) CommandCapabilities(ctx context.Context, vehicleID string) (*CommandCapabilities, error) {
	token, err := a.auth.AccessToken(ctx)
	if err != nil {
		return nil, a.tokenError(err)
	}

	return a.httpClient.CommandCapabilities(ctx, token, vehicleID)
}

func (a *apiClient) RcpSupported(ctx context.Context, vehicleID string) (bool, error) {
	token, err := a.auth.AccessToken(ctx)
	if err != nil {
		return false, a.tokenError(err)
	}

	return a.httpClient.RcpSupported(ctx, token, vehicleID)
}

func (a *apiClient) RcpSettings(ctx context.Context, vehicleID string) (*RcpSettings, error) {
	token, err := a.auth.AccessToken(ctx)
	if err != nil {
		return nil, a.tokenError(err)
	}

	return a.httpClient.RcpSettings(ctx, token, vehicleID)
}

func (a *apiClient) VehicleState(ctx context.Context, vehicleID string) ([]AttributeRecord, error) {
	token, err := a.auth.AccessToken(ctx)
	if err != nil {
		return nil, a.tokenError(err)
	}

	return a.httpClient.VehicleState(ctx, token, vehicleID)
}

func (a *apiClient) tokenError(err error) error {
	return fmt.Errorf("unable to get access token: %w", err)
}
