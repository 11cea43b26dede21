// Package config loads settings from an optional YAML file and GROCERY_*
// environment variables. The environment wins over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/grocerytracker/internal/backup"
)

const envPrefix = "GROCERY_"

type Config struct {
	Port           string        `yaml:"port" validate:"required,numeric"`
	DBPath         string        `yaml:"db_path" validate:"required"`
	LogLevel       string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	BootstrapKey   string        `yaml:"bootstrap_key"`
	SecureCookies  bool          `yaml:"secure_cookies"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ProductLookup  bool          `yaml:"product_lookup"`
	Backup         backup.Config `yaml:"backup"`
}

func Default() Config {
	return Config{
		Port:          "8080",
		DBPath:        "grocerytracker.db",
		LogLevel:      "info",
		ProductLookup: true,
		Backup: backup.Config{
			S3:            backup.S3Config{Region: "us-east-1", Prefix: "grocerytracker"},
			RetentionDays: 30,
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("PORT", &cfg.Port)
	str("DB_PATH", &cfg.DBPath)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("BOOTSTRAP_KEY", &cfg.BootstrapKey)
	boolean("SECURE_COOKIES", &cfg.SecureCookies)
	boolean("PRODUCT_LOOKUP", &cfg.ProductLookup)
	if v, ok := lookup(envPrefix + "ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitList(v)
	}

	str("S3_ENDPOINT", &cfg.Backup.S3.Endpoint)
	str("S3_BUCKET", &cfg.Backup.S3.Bucket)
	str("S3_REGION", &cfg.Backup.S3.Region)
	str("S3_ACCESS_KEY", &cfg.Backup.S3.AccessKey)
	str("S3_SECRET_KEY", &cfg.Backup.S3.SecretKey)
	str("S3_PREFIX", &cfg.Backup.S3.Prefix)
	str("BACKUP_PASSPHRASE", &cfg.Backup.Passphrase)

	if v, ok := lookup(envPrefix + "BACKUP_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sBACKUP_INTERVAL: %w", envPrefix, err))
		} else {
			cfg.Backup.Interval = d
		}
	}
	if v, ok := lookup(envPrefix + "BACKUP_RETENTION_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sBACKUP_RETENTION_DAYS: %w", envPrefix, err))
		} else {
			cfg.Backup.RetentionDays = n
		}
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
