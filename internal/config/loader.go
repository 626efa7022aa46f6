package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYSCAN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "POLYSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POLYSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POLYSCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POLYSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POLYSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POLYSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POLYSCAN_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "POLYSCAN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "POLYSCAN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "POLYSCAN_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYSCAN_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYSCAN_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "POLYSCAN_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "POLYSCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYSCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYSCAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYSCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYSCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYSCAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYSCAN_S3_FORCE_PATH_STYLE")

	// ── Scanner ──
	setFloat64(&cfg.Scanner.SumToOneThreshold, "POLYSCAN_SCANNER_SUM_TO_ONE_THRESHOLD")
	setFloat64(&cfg.Scanner.ThresholdMargin, "POLYSCAN_SCANNER_THRESHOLD_MARGIN")
	setFloat64(&cfg.Scanner.MinArbitrageProfit, "POLYSCAN_SCANNER_MIN_ARBITRAGE_PROFIT")
	setStringSlice(&cfg.Scanner.EnabledRules, "POLYSCAN_SCANNER_ENABLED_RULES")

	// ── Analysis ──
	setInt(&cfg.Analysis.CurveSteps, "POLYSCAN_ANALYSIS_CURVE_STEPS")
	setInt(&cfg.Analysis.ProbSteps, "POLYSCAN_ANALYSIS_PROB_STEPS")
	setInt(&cfg.Analysis.TimeSteps, "POLYSCAN_ANALYSIS_TIME_STEPS")
	setFloat64(&cfg.Analysis.MaxDays, "POLYSCAN_ANALYSIS_MAX_DAYS")
	setFloat64(&cfg.Analysis.DiscountRate, "POLYSCAN_ANALYSIS_DISCOUNT_RATE")

	// ── Server ──
	setInt(&cfg.Server.Port, "POLYSCAN_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYSCAN_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.ScanRatePerMinute, "POLYSCAN_SERVER_SCAN_RATE_PER_MINUTE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYSCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYSCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYSCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.MinSeverity, "POLYSCAN_NOTIFY_MIN_SEVERITY")

	// ── Scan ──
	setStr(&cfg.Scan.MarketsFile, "POLYSCAN_SCAN_MARKETS_FILE")
	setStr(&cfg.Scan.ClusterName, "POLYSCAN_SCAN_CLUSTER_NAME")
	setStr(&cfg.Scan.ClusterType, "POLYSCAN_SCAN_CLUSTER_TYPE")
	setInt(&cfg.Scan.RescanMinutes, "POLYSCAN_SCAN_RESCAN_MINUTES")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYSCAN_MODE")
	setStr(&cfg.LogLevel, "POLYSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
