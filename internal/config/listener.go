package config

import (
	"time"

	pkgconfig "github.com/nikhil123421/theGlobalMixtape/pkg/config"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

// ListenerConfig is the configuration of the headless listener client.
type ListenerConfig struct {
	// ServerURL is the HTTP base of the radio server, e.g.
	// "http://localhost:5000".
	ServerURL string `mapstructure:"server_url"`

	// Transport selects how snapshots arrive: "push" (websocket) or
	// "poll".
	Transport string

	// PollInterval applies to the poll transport only.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// DriftThreshold overrides the per-transport default (2s push,
	// 3s poll) when non-zero. Push justifies the tighter bound because
	// its update latency is lower.
	DriftThreshold time.Duration `mapstructure:"drift_threshold"`

	// AutoStart skips the interactive "press enter to start" gate.
	AutoStart bool `mapstructure:"auto_start"`

	Player PlayerConfig
	Log    log.Config
}

type PlayerConfig struct {
	// MPVPath is the mpv binary to launch.
	MPVPath string `mapstructure:"mpv_path"`

	// SocketPath is the JSON IPC socket; empty picks a per-process
	// path under the temp dir.
	SocketPath string `mapstructure:"socket_path"`

	// Volume is applied when a track loads, so a freshly joined
	// listener is audible.
	Volume int
}

// Default drift thresholds per transport.
const (
	DefaultPushDriftThreshold = 2 * time.Second
	DefaultPollDriftThreshold = 3 * time.Second
)

// LoadListener reads the listener configuration.
func LoadListener() (*ListenerConfig, error) {
	v, err := pkgconfig.Load("./config", "listener")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server_url", "http://localhost:5000")
	v.SetDefault("transport", "push")
	v.SetDefault("poll_interval", "2s")
	v.SetDefault("drift_threshold", "0s")
	v.SetDefault("auto_start", true)
	v.SetDefault("player.mpv_path", "mpv")
	v.SetDefault("player.socket_path", "")
	v.SetDefault("player.volume", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	// Override from environment
	v.BindEnv("server_url", "RADIO_SERVER_URL")
	v.BindEnv("transport", "RADIO_TRANSPORT")
	v.BindEnv("player.mpv_path", "MPV_PATH")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg ListenerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.PollInterval = pkgconfig.Duration(v, "poll_interval", 2*time.Second)
	cfg.DriftThreshold = pkgconfig.Duration(v, "drift_threshold", 0)

	return &cfg, nil
}

// EffectiveDriftThreshold resolves the threshold for the configured
// transport.
func (c *ListenerConfig) EffectiveDriftThreshold() time.Duration {
	if c.DriftThreshold > 0 {
		return c.DriftThreshold
	}
	if c.Transport == "poll" {
		return DefaultPollDriftThreshold
	}
	return DefaultPushDriftThreshold
}
