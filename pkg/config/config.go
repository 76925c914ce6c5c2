// Package config loads taskmate settings from defaults, a .taskmate config
// file, TASKMATE_* environment variables and bound command flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	KeyMode            = "mode"
	KeyLatencyMin      = "latency.min"
	KeyLatencyMax      = "latency.max"
	KeyFixtures        = "fixtures"
	KeyWatch           = "watch"
	KeyHTTPAddr        = "http.addr"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyPendingTimeout  = "pending.timeout"
	KeyPendingRollback = "pending.rollback"
	KeyWriteback       = "writeback"
)

// EnvConfigPath names an extra directory searched for the config file.
const EnvConfigPath = "TASKMATE_CONFIG_PATH"

// Config is the resolved configuration.
type Config struct {
	Mode            string        `json:"mode"`
	LatencyMin      time.Duration `json:"latencyMin"`
	LatencyMax      time.Duration `json:"latencyMax"`
	Fixtures        string        `json:"fixtures"`
	Watch           bool          `json:"watch"`
	HTTPAddr        string        `json:"httpAddr"`
	LogLevel        string        `json:"logLevel"`
	LogFormat       string        `json:"logFormat"`
	PendingTimeout  time.Duration `json:"pendingTimeout"`
	PendingRollback bool          `json:"pendingRollback"`
	Writeback       bool          `json:"writeback"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyMode, "direct")
	v.SetDefault(KeyLatencyMin, 100*time.Millisecond)
	v.SetDefault(KeyLatencyMax, 300*time.Millisecond)
	v.SetDefault(KeyFixtures, "")
	v.SetDefault(KeyWatch, false)
	v.SetDefault(KeyHTTPAddr, "127.0.0.1:8081")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyPendingTimeout, 10*time.Second)
	v.SetDefault(KeyPendingRollback, true)
	v.SetDefault(KeyWriteback, false)
}

// New returns a viper instance with defaults, config search paths and
// environment binding set up. The config file is read by Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName(".taskmate") // .yaml is implicit
	v.SetEnvPrefix("TASKMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv(EnvConfigPath); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	return v
}

// Load reads the config file if there is one and resolves every key. A
// missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = New()
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	fixtures, err := homedir.Expand(strings.TrimSpace(v.GetString(KeyFixtures)))
	if err != nil {
		return Config{}, fmt.Errorf("config: expanding %s: %w", KeyFixtures, err)
	}

	cfg := Config{
		Mode:            strings.ToLower(strings.TrimSpace(v.GetString(KeyMode))),
		LatencyMin:      v.GetDuration(KeyLatencyMin),
		LatencyMax:      v.GetDuration(KeyLatencyMax),
		Fixtures:        fixtures,
		Watch:           v.GetBool(KeyWatch),
		HTTPAddr:        v.GetString(KeyHTTPAddr),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		PendingTimeout:  v.GetDuration(KeyPendingTimeout),
		PendingRollback: v.GetBool(KeyPendingRollback),
		Writeback:       v.GetBool(KeyWriteback),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.LatencyMin < 0 || c.LatencyMax < 0 {
		return fmt.Errorf("config: latency must not be negative")
	}
	if c.LatencyMax < c.LatencyMin {
		return fmt.Errorf("config: %s (%s) is below %s (%s)", KeyLatencyMax, c.LatencyMax, KeyLatencyMin, c.LatencyMin)
	}
	if c.PendingTimeout < 0 {
		return fmt.Errorf("config: %s must not be negative", KeyPendingTimeout)
	}
	if (c.Watch || c.Writeback) && c.Fixtures == "" {
		return fmt.Errorf("config: %s and %s need a fixtures directory", KeyWatch, KeyWriteback)
	}
	return nil
}
