package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Token    TokenConfig    `yaml:"token"`
	Session  SessionConfig  `yaml:"session"`
	Presence PresenceConfig `yaml:"presence"`
	Rooms    RoomsConfig    `yaml:"rooms"`
	CORS     CORSConfig     `yaml:"cors"`
	Storage  StorageConfig  `yaml:"storage"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	WSPath string `yaml:"ws_path"`
}

// TokenConfig holds bearer-token settings. The secret is never logged.
type TokenConfig struct {
	Secret     string `yaml:"secret"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// SessionConfig holds channel session settings
type SessionConfig struct {
	IdleTimeoutSec int `yaml:"idle_timeout_sec"`
}

// PresenceConfig holds the inactive-player reaper settings
type PresenceConfig struct {
	ReapTimeoutMs   int `yaml:"reap_timeout_ms"`
	ReapIntervalSec int `yaml:"reap_interval_sec"`
}

// RoomsConfig holds room defaults
type RoomsConfig struct {
	DefaultMaxPlayers int `yaml:"default_max_players"`
}

// CORSConfig holds cross-origin settings shared by the REST surface and
// the channel handshake
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig selects the user directory backend
type StorageConfig struct {
	Type     string `yaml:"type"` // memory or redis
	RedisURL string `yaml:"redis_url"`
}

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Default returns the configuration defaults
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:   8080,
			WSPath: "/game",
		},
		Token: TokenConfig{
			TTLMinutes: 1440,
		},
		Session: SessionConfig{
			IdleTimeoutSec: 60,
		},
		Presence: PresenceConfig{
			ReapTimeoutMs:   300000,
			ReapIntervalSec: 30,
		},
		Rooms: RoomsConfig{
			DefaultMaxPlayers: 50,
		},
		Storage: StorageConfig{
			Type: StorageTypeMemory,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and GAMESERVER_* environment overrides, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GAMESERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("GAMESERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("GAMESERVER_WS_PATH"); v != "" {
		c.Server.WSPath = v
	}
	if v := os.Getenv("GAMESERVER_TOKEN_SECRET"); v != "" {
		c.Token.Secret = v
	}
	if v := os.Getenv("GAMESERVER_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("GAMESERVER_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("GAMESERVER_CORS_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = strings.Split(v, ",")
	}
}

// Validate checks the configuration for structural problems. Token
// secret length is enforced by the token codec itself.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required when storage.type is %q", StorageTypeRedis)
		}
	default:
		return fmt.Errorf("invalid storage.type %q: must be %q or %q", c.Storage.Type, StorageTypeMemory, StorageTypeRedis)
	}

	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("server.ws_path must start with /, got %q", c.Server.WSPath)
	}
	return nil
}

// TokenTTL returns the token lifetime as a duration
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Token.TTLMinutes) * time.Minute
}

// IdleTimeout returns the unauthenticated-session idle timeout
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Session.IdleTimeoutSec) * time.Second
}

// ReapTimeout returns how long a player may go unseen before removal
func (c *Config) ReapTimeout() time.Duration {
	return time.Duration(c.Presence.ReapTimeoutMs) * time.Millisecond
}

// ReapInterval returns how often the reaper runs
func (c *Config) ReapInterval() time.Duration {
	return time.Duration(c.Presence.ReapIntervalSec) * time.Second
}
