package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the shell needs to wire the engine: which
// repository backend to use and the two coalescing windows.
type Config struct {
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	Namespace      string `envconfig:"POS_NAMESPACE" default:"balancoffee"`
	SaveDelayMS    int    `envconfig:"SAVE_DELAY_MS" default:"100"`
	RenderWindowMS int    `envconfig:"RENDER_WINDOW_MS" default:"50"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.SaveDelayMS < 1 {
		cfg.SaveDelayMS = 100
	}
	if cfg.RenderWindowMS < 1 {
		cfg.RenderWindowMS = 50
	}
	return cfg, nil
}

func (c Config) SaveDelay() time.Duration {
	return time.Duration(c.SaveDelayMS) * time.Millisecond
}

func (c Config) RenderWindow() time.Duration {
	return time.Duration(c.RenderWindowMS) * time.Millisecond
}
