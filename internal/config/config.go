// Package config defines the top-level configuration for the scanner and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by POLYSCAN_* environment
// variables.
type Config struct {
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Scanner  ScannerConfig  `toml:"scanner"`
	Analysis AnalysisConfig `toml:"analysis"`
	Server   ServerConfig   `toml:"server"`
	Scan     ScanConfig     `toml:"scan"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional: with
// Enabled false the server runs without a market cache, live fan-out, or
// scan history.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds object storage parameters for the scan report archive.
// Optional: with Enabled false scan results are not archived.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ScannerConfig holds the default rule thresholds applied when a scan
// request does not carry its own overrides.
type ScannerConfig struct {
	SumToOneThreshold  float64  `toml:"sum_to_one_threshold"`
	ThresholdMargin    float64  `toml:"threshold_margin"`
	MinArbitrageProfit float64  `toml:"min_arbitrage_profit"`
	EnabledRules       []string `toml:"enabled_rules"`
}

// Rules converts the configured rule names to the domain config. Unknown
// names were already rejected by Validate.
func (c ScannerConfig) Rules() domain.ScannerConfig {
	rules := make([]domain.RuleType, 0, len(c.EnabledRules))
	for _, r := range c.EnabledRules {
		rules = append(rules, domain.RuleType(r))
	}
	return domain.ScannerConfig{
		SumToOneThreshold:  c.SumToOneThreshold,
		ThresholdMargin:    c.ThresholdMargin,
		MinArbitrageProfit: c.MinArbitrageProfit,
		EnabledRules:       rules,
	}
}

// AnalysisConfig holds the default grid resolution for payoff curves and
// surfaces.
type AnalysisConfig struct {
	CurveSteps   int     `toml:"curve_steps"`
	ProbSteps    int     `toml:"prob_steps"`
	TimeSteps    int     `toml:"time_steps"`
	MaxDays      float64 `toml:"max_days"`
	DiscountRate float64 `toml:"discount_rate"`
}

// ServerConfig holds the HTTP API parameters. ScanRatePerMinute caps scan
// requests per client IP; 0 disables the limiter.
type ServerConfig struct {
	Port              int      `toml:"port"`
	CORSOrigins       []string `toml:"cors_origins"`
	ScanRatePerMinute int      `toml:"scan_rate_per_minute"`
}

// NotifyConfig configures alert delivery for severe flags. A sender is
// active only when its credentials are set.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	MinSeverity       string `toml:"min_severity"` // low | medium | high
}

// ScanConfig drives the one-shot "scan" mode: a JSON file of market
// snapshots is scanned as a single cluster and the result printed.
// RescanMinutes controls the background re-scan cadence in "full" mode.
type ScanConfig struct {
	MarketsFile   string `toml:"markets_file"`
	ClusterName   string `toml:"cluster_name"`
	ClusterType   string `toml:"cluster_type"` // empty means auto-detect
	RescanMinutes int    `toml:"rescan_minutes"`
}

// Defaults returns a Config with conservative local-development values.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "polyscan",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "polyscan-reports",
			ForcePathStyle: true,
		},
		Scanner: ScannerConfig{
			SumToOneThreshold:  domain.DefaultSumToOneThreshold,
			ThresholdMargin:    domain.DefaultThresholdMargin,
			MinArbitrageProfit: domain.DefaultMinArbitrageProfit,
			EnabledRules: []string{
				string(domain.RuleSumToOne),
				string(domain.RuleThresholdConsistency),
				string(domain.RuleArbitrageBundle),
			},
		},
		Analysis: AnalysisConfig{
			CurveSteps:   20,
			ProbSteps:    10,
			TimeSteps:    10,
			MaxDays:      90,
			DiscountRate: domain.DefaultDiscountRate,
		},
		Server: ServerConfig{
			Port:              8000,
			CORSOrigins:       []string{"http://localhost:3000", "http://localhost:5173"},
			ScanRatePerMinute: 60,
		},
		Notify: NotifyConfig{
			MinSeverity: "high",
		},
		Scan: ScanConfig{
			ClusterName:   "ad-hoc scan",
			RescanMinutes: 15,
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true, // HTTP + WebSocket API
	"scan":   true, // one-shot scan of a markets file, then exit
	"full":   true, // server plus background re-scans of stored clusters
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validRules = map[string]bool{
	string(domain.RuleSumToOne):             true,
	string(domain.RuleThresholdConsistency): true,
	string(domain.RuleArbitrageBundle):      true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, scan, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Postgres is required for the server modes, not for one-shot scans.
	if c.Mode != "scan" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
	}

	if c.Scanner.SumToOneThreshold < 0 {
		errs = append(errs, "scanner: sum_to_one_threshold must be >= 0")
	}
	if c.Scanner.ThresholdMargin < 0 {
		errs = append(errs, "scanner: threshold_margin must be >= 0")
	}
	if c.Scanner.MinArbitrageProfit < 0 {
		errs = append(errs, "scanner: min_arbitrage_profit must be >= 0")
	}
	for _, r := range c.Scanner.EnabledRules {
		if !validRules[r] {
			errs = append(errs, fmt.Sprintf("scanner: unknown rule %q (valid: sum_to_one, threshold_consistency, arbitrage_bundle)", r))
		}
	}

	if c.Analysis.CurveSteps < 1 {
		errs = append(errs, "analysis: curve_steps must be >= 1")
	}
	if c.Analysis.ProbSteps < 1 {
		errs = append(errs, "analysis: prob_steps must be >= 1")
	}
	if c.Analysis.TimeSteps < 1 {
		errs = append(errs, "analysis: time_steps must be >= 1")
	}
	if c.Analysis.MaxDays <= 0 {
		errs = append(errs, "analysis: max_days must be > 0")
	}
	if c.Analysis.DiscountRate < 0 {
		errs = append(errs, "analysis: discount_rate must be >= 0")
	}

	if c.Mode != "scan" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.ScanRatePerMinute < 0 {
			errs = append(errs, "server: scan_rate_per_minute must be >= 0")
		}
	}

	switch c.Notify.MinSeverity {
	case "", "low", "medium", "high":
	default:
		errs = append(errs, fmt.Sprintf("notify: unknown min_severity %q (valid: low, medium, high)", c.Notify.MinSeverity))
	}

	if c.Mode == "scan" && strings.TrimSpace(c.Scan.MarketsFile) == "" {
		errs = append(errs, "scan: markets_file must be set in scan mode")
	}
	if c.Mode == "full" && c.Scan.RescanMinutes < 1 {
		errs = append(errs, "scan: rescan_minutes must be >= 1 in full mode")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
