package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
)

const (
	loginURI        = "/auth/login"
	tokenRefreshURI = "/auth/refresh_token" //nolint:gosec
	masterDataURI   = "/v1/vehicle/self/masterdata"

	capabilitiesURITemplate        = "/v1/vehicle/%s/capabilities"
	commandCapabilitiesURITemplate = "/v1/vehicle/%s/capabilities/commands"
	rcpSupportedURITemplate        = "/v1/rcp/%s/supported"
	rcpSettingsURITemplate         = "/v1/rcp/%s/settings"
	vehicleStateURITemplate        = "/v1/vehicle/%s/state"

	authorizationHeader = "Authorization"
	contentTypeHeader   = "Content-Type"

	jsonContentType = "application/json"
)

// HTTPClient represents the telemetry service HTTP API client.
type HTTPClient interface {
	// Login logs the user in the telemetry service and retrieves credentials.
	Login(ctx context.Context, userName, password string) (*Credentials, error)
	// RefreshToken retrieves new credentials based on an access token and a refresh token.
	RefreshToken(ctx context.Context, accessToken, refreshToken string) (*Credentials, error)
	// MasterData retrieves the account master data including the assigned vehicle list.
	MasterData(ctx context.Context, accessToken string) (*MasterData, error)
	// Capabilities retrieves the feature capability set of a vehicle.
	Capabilities(ctx context.Context, accessToken, vehicleID string) (*Capabilities, error)
	// CommandCapabilities retrieves the remote command availability flags of a vehicle.
	CommandCapabilities(ctx context.Context, accessToken, vehicleID string) (*CommandCapabilities, error)
	// RcpSupported checks whether remote charge programming is supported by a vehicle.
	RcpSupported(ctx context.Context, accessToken, vehicleID string) (bool, error)
	// RcpSettings retrieves the supported remote charge programming settings.
	RcpSettings(ctx context.Context, accessToken, vehicleID string) (*RcpSettings, error)
	// VehicleState retrieves the full current state snapshot of a vehicle.
	VehicleState(ctx context.Context, accessToken, vehicleID string) ([]AttributeRecord, error)
}

type httpClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPClient returns a new instance of the telemetry service HTTPClient.
func NewHTTPClient(http *http.Client, baseURL string) HTTPClient {
	return &httpClient{
		httpClient: http,
		baseURL:    baseURL,
	}
}

func (c *httpClient) Login(ctx context.Context, userName, password string) (*Credentials, error) {
	body := loginBody{
		Username: strings.TrimSpace(userName),
		Password: strings.TrimSpace(password),
	}

	req, err := newRequestBuilder(ctx, http.MethodPost, c.buildURL(loginURI)).
		withBody(body).
		addHeader(contentTypeHeader, jsonContentType).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create login request")
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(err, "login request failed")
	}

	defer resp.Body.Close()

	credentials := &Credentials{}

	if err = c.readResponseBody(resp, credentials); err != nil {
		return nil, errors.Wrap(err, "could not read login response body")
	}

	return credentials, nil
}

func (c *httpClient) RefreshToken(ctx context.Context, accessToken, refreshToken string) (*Credentials, error) {
	body := refreshBody{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	req, err := newRequestBuilder(ctx, http.MethodPost, c.buildURL(tokenRefreshURI)).
		withBody(body).
		addHeader(contentTypeHeader, jsonContentType).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create token refresh request")
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform token refresh api call")
	}

	defer resp.Body.Close()

	credentials := &Credentials{}

	if err = c.readResponseBody(resp, credentials); err != nil {
		return nil, errors.Wrap(err, "could not read token refresh response body")
	}

	return credentials, nil
}

func (c *httpClient) MasterData(ctx context.Context, accessToken string) (*MasterData, error) {
	req, err := newRequestBuilder(ctx, http.MethodGet, c.buildURL(masterDataURI)).
		addHeader(authorizationHeader, c.bearerTokenHeader(accessToken)).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master data request")
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch master data from api")
	}

	defer resp.Body.Close()

	masterData := &MasterData{}

	if err := c.readResponseBody(resp, masterData); err != nil {
		return nil, errors.Wrap(err, "could not read master data response body")
	}

	return masterData, nil
}

func (c *httpClient) Capabilities(ctx context.Context, accessToken, vehicleID string) (*Capabilities, error) {
	u := c.buildURL(capabilitiesURITemplate, vehicleID)

	req, err := newRequestBuilder(ctx, http.MethodGet, u).
		addHeader(authorizationHeader, c.bearerTokenHeader(accessToken)).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create capabilities request")
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(err, "could not perform capabilities api call")
	}

	defer resp.Body.Close()

	capabilities := &Capabilities{}

	if err = c.readResponseBody(resp, capabilities); err != nil {
		return nil, errors.Wrap(err, "could not read capabilities response body")
	}

	return capabilities, nil
}

func (c *httpClient) CommandCapabilities(ctx context.Context, accessToken, vehicleID string) (*CommandCapabilities, error) {
	u := c.buildURL(commandCapabilitiesURITemplate, vehicleID)

	req, err := newRequestBuilder(ctx, http.MethodGet, u).
		addHeader(authorizationHeader, c.bearerTokenHeader(accessToken)).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create command capabilities request")
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(err, "could not perform command capabilities api call")
	}

	defer resp.Body.Close()

	capabilities := &CommandCapabilities{}

	if err = c.readResponseBody(resp, capabilities); err != nil {
		return nil, errors.Wrap(err, "could not read command capabilities response body")
	}

	return capabilities, nil
}

func (c *httpClient) RcpSupported(ctx context.Context, accessToken, vehicleID string) (bool, error) {
	u := c.buildURL(rcpSupportedURITemplate, vehicleID)

	req, err := newRequestBuilder(ctx, http.MethodGet, u).
		addHeader(authorizationHeader, c.bearerTokenHeader(accessToken)).
		build()
	if err != nil {
		return false, errors.Wrap(err, "failed to create rcp support request")
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return false, errors.Wrap(err, "could not perform rcp support api call")
	}

	defer resp.Body.Close()

	support := &RcpSupport{}

	if err = json.NewDecoder(resp.Body).Decode(support); err != nil {
		return false, errors.Wrap(err, "could not decode rcp support response body")
	}

	return support.Supported, nil
}

func (c *httpClient) RcpSettings(ctx context.Context, accessToken, vehicleID string) (*RcpSettings, error) {
	u := c.buildURL(rcpSettingsURITemplate, vehicleID)

	req, err := newRequestBuilder(ctx, http.MethodGet, u).
		addHeader(authorizationHeader, c.bearerTokenHeader(accessToken)).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rcp settings request")
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(err, "could not perform rcp settings api call")
	}

	defer resp.Body.Close()

	settings := &RcpSettings{}

	if err = c.readResponseBody(resp, settings); err != nil {
		return nil, errors.Wrap(err, "could not read rcp settings response body")
	}

	return settings, nil
}

func (c *httpClient) VehicleState(ctx context.Context, accessToken, vehicleID string) ([]AttributeRecord, error) {
	u := c.buildURL(vehicleStateURITemplate, vehicleID)

	req, err := newRequestBuilder(ctx, http.MethodGet, u).
		addHeader(authorizationHeader, c.bearerTokenHeader(accessToken)).
		build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vehicle state request")
	}

	resp, err := c.performRequest(req, http.StatusOK)
	if err != nil {
		return nil, errors.Wrap(err, "could not perform vehicle state api call")
	}

	defer resp.Body.Close()

	var records []AttributeRecord

	if err = json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "could not decode vehicle state response body")
	}

	return records, nil
}

func (c *httpClient) buildURL(path string, args ...interface{}) string {
	return c.baseURL + fmt.Sprintf(path, args...)
}

func (c *httpClient) performRequest(req *http.Request, wantResponseCode int) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not perform http call")
	}

	if resp.StatusCode != wantResponseCode {
		return nil, HTTPError{
			Err:    errors.Errorf("expected response code to be %d, but got %d instead", wantResponseCode, resp.StatusCode),
			Status: resp.StatusCode,
			Body:   resp.Body,
		}
	}

	return resp, nil
}

func (c *httpClient) readResponseBody(r *http.Response, body interface{}) error {
	err := json.NewDecoder(r.Body).Decode(body)
	if err != nil {
		return errors.Wrap(err, "could not decode response body")
	}

	if funk.IsEmpty(body) {
		return errors.New("response body does not contain expected data")
	}

	return nil
}

func (c *httpClient) bearerTokenHeader(authToken string) string {
	return "Bearer " + authToken
}
