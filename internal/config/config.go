package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/shriya-upadhyay/meridian/internal/errors"
	"github.com/shriya-upadhyay/meridian/internal/models"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Parties   []PartyConfig   `yaml:"parties"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type LedgerConfig struct {
	BaseURL string `yaml:"baseURL"`
	// PackageRef is the package part of template ids until the real
	// package id has been discovered from a query.
	PackageRef     string        `yaml:"packageRef"`
	ModuleName     string        `yaml:"moduleName"`
	UserID         string        `yaml:"userId"`
	AuthToken      string        `yaml:"authToken"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

type PartyConfig struct {
	Handle      string           `yaml:"handle"`
	FullID      string           `yaml:"fullId"`
	DisplayName string           `yaml:"displayName"`
	Role        models.PartyRole `yaml:"role"`
}

type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
	Shards        int           `yaml:"shards"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3000",
			Mode: "release",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Ledger: LedgerConfig{
			BaseURL:        "http://localhost:7575",
			PackageRef:     "#cross-border-tx",
			ModuleName:     "CrossBorderTransaction",
			RequestTimeout: 30 * time.Second,
		},
		Parties: []PartyConfig{
			{Handle: "AliceCorp_Singapore", DisplayName: "AliceCorp (Sender)", Role: models.RoleSender},
			{Handle: "BobLtd_London", DisplayName: "BobLtd (Recipient)", Role: models.RoleRecipient},
			{Handle: "MAS_Regulator", DisplayName: "MAS Regulator", Role: models.RoleRegulator},
		},
		Cache: CacheConfig{
			TTL:           24 * time.Hour,
			SweepInterval: 10 * time.Minute,
			Shards:        32,
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
	}
}

// Load reads the YAML file at path, or the first default candidate that
// exists, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	candidates := []string{"configs/config.yaml", "config.yaml"}
	if path != "" {
		candidates = []string{path}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if path != "" {
				return nil, apperrors.NewConfigError("failed to read config "+candidate, err)
			}
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to parse config "+candidate, err)
		}
		break
	}

	ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ApplyEnvOverrides(cfg *Config) {
	if v := env("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := env("GIN_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := env("LEDGER_URL"); v != "" {
		cfg.Ledger.BaseURL = v
	}
	if v := env("LEDGER_AUTH_TOKEN"); v != "" {
		cfg.Ledger.AuthToken = v
	}
	if v := env("LEDGER_USER_ID"); v != "" {
		cfg.Ledger.UserID = v
	}
	if v := env("LEDGER_PACKAGE_REF"); v != "" {
		cfg.Ledger.PackageRef = v
	}
	if v := env("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := env("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.RPS = f
		}
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ledger.BaseURL) == "" {
		return apperrors.NewConfigError("ledger.baseURL is required", nil)
	}
	if c.Ledger.ModuleName == "" {
		return apperrors.NewConfigError("ledger.moduleName is required", nil)
	}
	for i, p := range c.Parties {
		if p.Handle == "" {
			return apperrors.NewConfigError(fmt.Sprintf("parties[%d]: handle is required", i), nil)
		}
		switch p.Role {
		case models.RoleSender, models.RoleRecipient, models.RoleRegulator:
		default:
			return apperrors.NewConfigError(fmt.Sprintf("parties[%d]: unknown role %q", i, p.Role), nil)
		}
	}
	if c.Ledger.RequestTimeout <= 0 {
		c.Ledger.RequestTimeout = 30 * time.Second
	}
	if c.Cache.Shards <= 0 {
		c.Cache.Shards = 32
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
