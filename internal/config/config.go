package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the whole runtime surface. Everything can come from the
// optional kmscheck.toml or from environment variables; secrets are
// expected to arrive via env.
type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`
	Record     RecordConfig     `mapstructure:"record"`
	Source     SourceConfig     `mapstructure:"source"`
	Probe      ProbeConfig      `mapstructure:"probe"`
}

type CloudflareConfig struct {
	APIToken string `mapstructure:"api_token"`
	ZoneID   string `mapstructure:"zone_id"`
}

type RecordConfig struct {
	Name string `mapstructure:"name"`
	TTL  int    `mapstructure:"ttl"`
}

type SourceConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ProbeConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// Load reads configuration from viper's current state (config file plus
// environment overrides) and applies defaults.
func Load() (*Config, error) {
	viper.SetDefault("log_level", "info")
	// Keys without a natural default still need to be registered so that
	// env-only values survive Unmarshal.
	viper.SetDefault("record.name", "")
	viper.SetDefault("record.ttl", 120)
	viper.SetDefault("source.url", "https://api.github.com/repos/iougemini/kmscheck/issues/1")
	viper.SetDefault("source.timeout", 10*time.Second)
	viper.SetDefault("probe.timeout", 5*time.Second)
	viper.SetDefault("probe.concurrency", 16)

	viper.SetEnvPrefix("KMSCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Secrets follow the conventional variable names rather than the
	// KMSCHECK_ prefix.
	_ = viper.BindEnv("cloudflare.api_token", "CLOUDFLARE_API_TOKEN", "KMSCHECK_CLOUDFLARE_API_TOKEN")
	_ = viper.BindEnv("cloudflare.zone_id", "CLOUDFLARE_ZONE_ID", "KMSCHECK_CLOUDFLARE_ZONE_ID")
	_ = viper.BindEnv("source.token", "GITHUB_TOKEN", "KMSCHECK_SOURCE_TOKEN")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Probe.Timeout <= 0 {
		cfg.Probe.Timeout = 5 * time.Second
	}
	if cfg.Probe.Concurrency <= 0 {
		cfg.Probe.Concurrency = 16
	}
	if cfg.Record.TTL <= 0 {
		cfg.Record.TTL = 120
	}

	return &cfg, nil
}

// ValidatePublish checks the fields required to reach the DNS provider.
// Only the run command needs them; scan works without credentials.
func (c *Config) ValidatePublish() error {
	if c.Cloudflare.APIToken == "" {
		return fmt.Errorf("cloudflare.api_token is required (set CLOUDFLARE_API_TOKEN)")
	}
	if c.Cloudflare.ZoneID == "" {
		return fmt.Errorf("cloudflare.zone_id is required (set CLOUDFLARE_ZONE_ID)")
	}
	if c.Record.Name == "" {
		return fmt.Errorf("record.name is required")
	}
	return nil
}
