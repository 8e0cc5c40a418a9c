package config

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/connectedcar/edge-vehicle-adapter/internal/backoff"
)

// Config is a model containing all application configuration settings.
type Config struct {
	LogLevel  string `json:"logLevel" mapstructure:"logLevel"`
	LogFormat string `json:"logFormat" mapstructure:"logFormat"`

	APIBaseURL  string `json:"apiBaseURL" mapstructure:"apiBaseURL"`
	PushBaseURL string `json:"pushBaseURL" mapstructure:"pushBaseURL"`
	Region      string `json:"region" mapstructure:"region"`

	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`

	ExcludedVehicles []string `json:"excludedVehicles" mapstructure:"excludedVehicles"`
	PollingInterval  string   `json:"pollingInterval" mapstructure:"pollingInterval"`

	// RcpEnabled gates resolution of remote charge programming settings.
	// The upstream service behaves inconsistently here, so the whole path
	// ships disabled until confirmed working.
	RcpEnabled bool `json:"rcpEnabled" mapstructure:"rcpEnabled"`

	MetricsBindAddress string `json:"metricsBindAddress" mapstructure:"metricsBindAddress"`

	PushConnTimeout       string `json:"pushConnTimeout" mapstructure:"pushConnTimeout"`
	PushKeepAliveInterval string `json:"pushKeepAliveInterval" mapstructure:"pushKeepAliveInterval"`
	PushTimeoutInterval   string `json:"pushTimeoutInterval" mapstructure:"pushTimeoutInterval"`
	PushInvokeTimeout     string `json:"pushInvokeTimeout" mapstructure:"pushInvokeTimeout"`

	ReconnectInitialDelay         string `json:"reconnectInitialDelay" mapstructure:"reconnectInitialDelay"`
	ReconnectRepeatedDelay        string `json:"reconnectRepeatedDelay" mapstructure:"reconnectRepeatedDelay"`
	ReconnectFinalDelay           string `json:"reconnectFinalDelay" mapstructure:"reconnectFinalDelay"`
	ReconnectInitialFailureCount  uint32 `json:"reconnectInitialFailureCount" mapstructure:"reconnectInitialFailureCount"`
	ReconnectRepeatedFailureCount uint32 `json:"reconnectRepeatedFailureCount" mapstructure:"reconnectRepeatedFailureCount"`
	ReconnectGraceWindow          string `json:"reconnectGraceWindow" mapstructure:"reconnectGraceWindow"`
}

// Load reads the configuration file from the working directory and overlays
// environment variables prefixed with VEHICLE_.
func Load(workDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(workDir)

	v.SetEnvPrefix("vehicle")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "text")
	v.SetDefault("region", "Europe")
	v.SetDefault("pollingInterval", "5m")
	v.SetDefault("metricsBindAddress", ":2112")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read configuration file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}

	return cfg, nil
}

// bindEnv registers every configuration key with viper, as automatic
// environment resolution does not cover keys absent from both the
// configuration file and the defaults.
func bindEnv(v *viper.Viper) {
	t := reflect.TypeOf(Config{})

	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("mapstructure")
		if key == "" {
			continue
		}

		_ = v.BindEnv(key)
	}
}

// Service is a configuration service responsible for providing concurrency
// safe access to settings.
type Service struct {
	lock  *sync.RWMutex
	model *Config
}

// NewService creates a new configuration service.
func NewService(cfg *Config) *Service {
	return &Service{
		lock:  &sync.RWMutex{},
		model: cfg,
	}
}

// GetLogLevel allows to safely access a configuration setting.
func (cs *Service) GetLogLevel() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.model.LogLevel
}

// GetLogFormat allows to safely access a configuration setting.
func (cs *Service) GetLogFormat() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.model.LogFormat
}

// GetAPIBaseURL allows to safely access a configuration setting.
func (cs *Service) GetAPIBaseURL() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.model.APIBaseURL
}

// GetPushBaseURL allows to safely access a configuration setting.
func (cs *Service) GetPushBaseURL() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.model.PushBaseURL
}

// GetRegion allows to safely access a configuration setting.
func (cs *Service) GetRegion() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.model.Region
}

// GetUsername allows to safely access a configuration setting.
func (cs *Service) GetUsername() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.model.Username
}

// GetPassword allows to safely access a configuration setting.
func (cs *Service) GetPassword() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.model.Password
}

// GetExcludedVehicles allows to safely access a configuration setting.
func (cs *Service) GetExcludedVehicles() []string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	out := make([]string, len(cs.model.ExcludedVehicles))
	copy(out, cs.model.ExcludedVehicles)

	return out
}

// GetPollingInterval allows to safely access a configuration setting.
func (cs *Service) GetPollingInterval() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.model.PollingInterval, 5*time.Minute)
}

// GetRcpEnabled allows to safely access a configuration setting.
func (cs *Service) GetRcpEnabled() bool {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.model.RcpEnabled
}

// GetMetricsBindAddress allows to safely access a configuration setting.
func (cs *Service) GetMetricsBindAddress() string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return cs.model.MetricsBindAddress
}

// GetPushConnTimeout allows to safely access a configuration setting.
func (cs *Service) GetPushConnTimeout() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.model.PushConnTimeout, 30*time.Second)
}

// GetPushKeepAliveInterval allows to safely access a configuration setting.
func (cs *Service) GetPushKeepAliveInterval() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.model.PushKeepAliveInterval, 15*time.Second)
}

// GetPushTimeoutInterval allows to safely access a configuration setting.
func (cs *Service) GetPushTimeoutInterval() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.model.PushTimeoutInterval, 30*time.Second)
}

// GetPushInvokeTimeout allows to safely access a configuration setting.
func (cs *Service) GetPushInvokeTimeout() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.model.PushInvokeTimeout, 15*time.Second)
}

// GetReconnectBackoff returns the backoff tiers for push reconnection.
func (cs *Service) GetReconnectBackoff() backoff.Config {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	cfg := backoff.Config{
		InitialDelay:         parseDuration(cs.model.ReconnectInitialDelay, 5*time.Second),
		RepeatedDelay:        parseDuration(cs.model.ReconnectRepeatedDelay, 30*time.Second),
		FinalDelay:           parseDuration(cs.model.ReconnectFinalDelay, 5*time.Minute),
		InitialFailureCount:  cs.model.ReconnectInitialFailureCount,
		RepeatedFailureCount: cs.model.ReconnectRepeatedFailureCount,
	}

	if cfg.InitialFailureCount == 0 {
		cfg.InitialFailureCount = 3
	}

	if cfg.RepeatedFailureCount == 0 {
		cfg.RepeatedFailureCount = 5
	}

	return cfg
}

// GetReconnectGraceWindow returns the minimum connected period after which
// the reconnect backoff resets to its minimum.
func (cs *Service) GetReconnectGraceWindow() time.Duration {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	return parseDuration(cs.model.ReconnectGraceWindow, 30*time.Second)
}

func parseDuration(raw string, def time.Duration) time.Duration {
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}

	return duration
}
