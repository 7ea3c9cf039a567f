package config

import (
	"time"

	pkgconfig "github.com/nikhil123421/theGlobalMixtape/pkg/config"
	"github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

// Config is the server configuration.
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Store     StoreConfig
	Cache     CacheConfig
	Resolver  ResolverConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

// StoreConfig selects the session state mirror.
type StoreConfig struct {
	Type     string // "redis" or "none"
	Address  string
	Password string
	DB       int
	Key      string
}

// CacheConfig selects the track metadata cache.
type CacheConfig struct {
	Type string // "sqlite" or "none"
	Path string
}

type ResolverConfig struct {
	// Endpoint overrides the oEmbed endpoint; empty means the default.
	Endpoint string
	Timeout  time.Duration
}

// Load reads the server configuration.
func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "server")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("store.type", "redis")
	v.SetDefault("store.address", "localhost:6379")
	v.SetDefault("store.password", "")
	v.SetDefault("store.db", 0)
	v.SetDefault("store.key", "radio_state")
	v.SetDefault("cache.type", "sqlite")
	v.SetDefault("cache.path", "tracks.db")
	v.SetDefault("resolver.endpoint", "")
	v.SetDefault("resolver.timeout", "3s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("store.type", "STORE_TYPE")
	v.BindEnv("store.address", "REDIS_ADDRESS")
	v.BindEnv("store.password", "REDIS_PASSWORD")
	v.BindEnv("cache.type", "CACHE_TYPE")
	v.BindEnv("cache.path", "CACHE_PATH")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.Resolver.Timeout = pkgconfig.Duration(v, "resolver.timeout", 3*time.Second)

	return &cfg, nil
}
