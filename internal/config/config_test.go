package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectedcar/edge-vehicle-adapter/internal/config"
)

func TestLoad(t *testing.T) { //nolint:paralleltest
	workDir := t.TempDir()

	raw := `
logLevel: debug
apiBaseURL: https://api.example.com
pushBaseURL: https://push.example.com
username: user
password: pwd
excludedVehicles:
  - VIN3
pollingInterval: 2m
rcpEnabled: true
`

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "config.yaml"), []byte(raw), 0o600))

	cfg, err := config.Load(workDir)
	require.NoError(t, err)

	svc := config.NewService(cfg)

	assert.Equal(t, "debug", svc.GetLogLevel())
	assert.Equal(t, "text", svc.GetLogFormat())
	assert.Equal(t, "https://api.example.com", svc.GetAPIBaseURL())
	assert.Equal(t, "https://push.example.com", svc.GetPushBaseURL())
	assert.Equal(t, "user", svc.GetUsername())
	assert.Equal(t, "pwd", svc.GetPassword())
	assert.Equal(t, []string{"VIN3"}, svc.GetExcludedVehicles())
	assert.Equal(t, 2*time.Minute, svc.GetPollingInterval())
	assert.True(t, svc.GetRcpEnabled())
}

func TestLoad_EnvWithoutFile(t *testing.T) { //nolint:paralleltest
	t.Setenv("VEHICLE_USERNAME", "envuser")
	t.Setenv("VEHICLE_PASSWORD", "envpwd")
	t.Setenv("VEHICLE_APIBASEURL", "https://api.env.example.com")
	t.Setenv("VEHICLE_PUSHBASEURL", "https://push.env.example.com")
	t.Setenv("VEHICLE_POLLINGINTERVAL", "90s")
	t.Setenv("VEHICLE_RCPENABLED", "true")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	svc := config.NewService(cfg)

	assert.Equal(t, "envuser", svc.GetUsername())
	assert.Equal(t, "envpwd", svc.GetPassword())
	assert.Equal(t, "https://api.env.example.com", svc.GetAPIBaseURL())
	assert.Equal(t, "https://push.env.example.com", svc.GetPushBaseURL())
	assert.Equal(t, 90*time.Second, svc.GetPollingInterval())
	assert.True(t, svc.GetRcpEnabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) { //nolint:paralleltest
	workDir := t.TempDir()

	raw := `
username: fileuser
apiBaseURL: https://api.example.com
`

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "config.yaml"), []byte(raw), 0o600))

	t.Setenv("VEHICLE_USERNAME", "envuser")

	cfg, err := config.Load(workDir)
	require.NoError(t, err)

	svc := config.NewService(cfg)

	assert.Equal(t, "envuser", svc.GetUsername())
	assert.Equal(t, "https://api.example.com", svc.GetAPIBaseURL())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) { //nolint:paralleltest
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	svc := config.NewService(cfg)

	assert.Equal(t, "info", svc.GetLogLevel())
	assert.Equal(t, "Europe", svc.GetRegion())
	assert.Equal(t, 5*time.Minute, svc.GetPollingInterval())
	assert.Equal(t, ":2112", svc.GetMetricsBindAddress())
	assert.False(t, svc.GetRcpEnabled())
}

func TestService_DurationDefaults(t *testing.T) {
	t.Parallel()

	svc := config.NewService(&config.Config{PollingInterval: "not-a-duration"})

	assert.Equal(t, 5*time.Minute, svc.GetPollingInterval())
	assert.Equal(t, 30*time.Second, svc.GetPushConnTimeout())
	assert.Equal(t, 15*time.Second, svc.GetPushKeepAliveInterval())
	assert.Equal(t, 30*time.Second, svc.GetPushTimeoutInterval())
	assert.Equal(t, 15*time.Second, svc.GetPushInvokeTimeout())
	assert.Equal(t, 30*time.Second, svc.GetReconnectGraceWindow())
}

func TestService_ReconnectBackoffDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.NewService(&config.Config{}).GetReconnectBackoff()

	assert.Equal(t, 5*time.Second, cfg.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.RepeatedDelay)
	assert.Equal(t, 5*time.Minute, cfg.FinalDelay)
	assert.Equal(t, uint32(3), cfg.InitialFailureCount)
	assert.Equal(t, uint32(5), cfg.RepeatedFailureCount)
}
