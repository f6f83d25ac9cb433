package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/finbot/core/config"
	coredatabase "github.com/m3rciful/finbot/core/database"
	"github.com/m3rciful/finbot/finbot/news"
	"github.com/m3rciful/finbot/finbot/quotes"
)

const (
	// StateMemory keeps conversations in process memory.
	StateMemory = "memory"
	// StateRedis keeps conversations in Redis.
	StateRedis = "redis"

	defaultSweepInterval = time.Minute
)

// RedisConfig holds Redis connection settings for the redis state backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// StateConfig selects and tunes the conversation store.
type StateConfig struct {
	Backend string `yaml:"backend" envconfig:"STATE_BACKEND"`
	// TTL drops conversations idle for longer; 0 keeps them until they finish.
	TTL           time.Duration `yaml:"ttl" envconfig:"STATE_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"STATE_SWEEP_INTERVAL"`
	Redis         RedisConfig   `yaml:"redis"`
}

// Config is the finbot configuration: the shared core sections plus the bot's own.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	State    StateConfig         `yaml:"state"`
	Quotes   quotes.Config       `yaml:"quotes"`
	News     news.Config         `yaml:"news"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path, applies the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	backend := strings.ToLower(strings.TrimSpace(c.State.Backend))
	if backend == "" {
		backend = StateMemory
	}
	switch backend {
	case StateMemory:
	case StateRedis:
		if strings.TrimSpace(c.State.Redis.Addr) == "" {
			return fmt.Errorf("state.redis.addr is required when state.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid state.backend %q; allowed: memory, redis", c.State.Backend)
	}
	c.State.Backend = backend

	if c.State.TTL < 0 {
		return fmt.Errorf("state.ttl must be >= 0")
	}
	if c.State.SweepInterval <= 0 {
		c.State.SweepInterval = defaultSweepInterval
	}
	if c.Quotes.RPS < 0 || c.News.RPS < 0 {
		return fmt.Errorf("quotes.rps and news.rps must be >= 0")
	}
	return nil
}
