package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "turbo"`)
}

func TestValidateScanModeRequiresMarketsFile(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "scan"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "markets_file")

	cfg.Scan.MarketsFile = "markets.json"
	assert.NoError(t, cfg.Validate())
}

func TestValidateScanModeSkipsPostgresAndServer(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "scan"
	cfg.Scan.MarketsFile = "markets.json"
	cfg.Postgres = PostgresConfig{}
	cfg.Server.Port = 0
	cfg.Redis.Enabled = false

	assert.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Scanner.SumToOneThreshold = -1
	cfg.Scanner.EnabledRules = []string{"moon_phase"}
	cfg.Analysis.MaxDays = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum_to_one_threshold")
	assert.Contains(t, err.Error(), `unknown rule "moon_phase"`)
	assert.Contains(t, err.Error(), "max_days")
}

func TestValidateRejectsBadMinSeverity(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.MinSeverity = "catastrophic"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_severity")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	toml := `
mode = "full"

[server]
port = 9100

[scanner]
sum_to_one_threshold = 0.08
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o600))

	t.Setenv("POLYSCAN_SERVER_PORT", "9200")
	t.Setenv("POLYSCAN_REDIS_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "full", cfg.Mode)
	assert.Equal(t, 9200, cfg.Server.Port, "env override wins over file")
	assert.InDelta(t, 0.08, cfg.Scanner.SumToOneThreshold, 1e-12)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost", cfg.Postgres.Host, "defaults survive partial files")
}

func TestRulesConversion(t *testing.T) {
	cfg := Defaults()
	rules := cfg.Scanner.Rules()

	assert.InDelta(t, cfg.Scanner.SumToOneThreshold, rules.SumToOneThreshold, 1e-12)
	assert.Len(t, rules.EnabledRules, 3)
}
