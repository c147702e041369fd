package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/shelfwatch/pkg/application/services/monitor"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_MatchesMonitorDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	options, err := cfg.MonitorOptions()
	require.NoError(t, err)
	defaults := monitor.DefaultOptions()

	assert.True(t, options.Deviation.Attention.Equal(defaults.Deviation.Attention))
	assert.True(t, options.Deviation.Outside.Equal(defaults.Deviation.Outside))
	assert.True(t, options.Urgency.Critical.Equal(defaults.Urgency.Critical))
	assert.True(t, options.Urgency.Attention.Equal(defaults.Urgency.Attention))
	assert.Equal(t, defaults.Urgency.FallbackCriticalDays, options.Urgency.FallbackCriticalDays)
	assert.Equal(t, defaults.CacheTTL, options.CacheTTL)
	assert.Equal(t, defaults.ExcludedCategories, options.ExcludedCategories)
	assert.Equal(t, defaults.CategoryRules, options.CategoryRules)
	assert.Equal(t, entities.NoExpiryYear, options.NoExpiryYear)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "shelfwatch.yaml", `
log:
  level: debug
deviation:
  attention: 0.1
  outside: 0.2
audit:
  date_tolerance_days: 3
  quantity_relative: 0.01
cache:
  ttl_seconds: 60
timeline:
  excluded_categories: [scrap]
  rules:
    - category: SCRAP
      locations: ["1000/0001"]
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.25, cfg.Urgency.Attention, "unset keys keep their defaults")

	options, err := cfg.MonitorOptions()
	require.NoError(t, err)
	assert.True(t, options.Deviation.Attention.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, 3, options.Tolerances.DateDays)
	assert.True(t, options.Tolerances.QuantityRelative.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, time.Minute, options.CacheTTL)
	assert.Equal(t, entities.NewCategorySet(entities.CategoryScrap), options.ExcludedCategories)
	require.Len(t, options.CategoryRules, 1)
	assert.Equal(t, entities.Location{Plant: "1000", Depot: "0001"}, options.CategoryRules[0].Locations[0])
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SHELFWATCH_CACHE_TTL_SECONDS", "30")
	t.Setenv("SHELFWATCH_EXCLUDED_CATEGORIES", "")
	t.Setenv("SHELFWATCH_URGENCY_CRITICAL", "0.05")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Cache.TTLSeconds)
	assert.Empty(t, cfg.Timeline.ExcludedCategories)
	assert.Equal(t, 0.05, cfg.Urgency.Critical)

	excluded, err := cfg.ExcludedCategories()
	require.NoError(t, err)
	assert.Empty(t, excluded, "an empty list excludes nothing")
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "SHELFWATCH_LOG_LEVEL=warn\nSHELFWATCH_LOG_PRETTY=true\n")
	t.Cleanup(func() {
		os.Unsetenv("SHELFWATCH_LOG_LEVEL")
		os.Unsetenv("SHELFWATCH_LOG_PRETTY")
	})

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "outside below attention", yaml: "deviation:\n  attention: 0.2\n  outside: 0.1\n"},
		{name: "attention below critical", yaml: "urgency:\n  critical: 0.3\n  attention: 0.2\n"},
		{name: "zero ttl", yaml: "cache:\n  ttl_seconds: 0\n"},
		{name: "unknown level", yaml: "log:\n  level: loud\n"},
		{name: "rule without category", yaml: "timeline:\n  rules:\n    - locations: [\"1/2\"]\n"},
		{name: "malformed yaml", yaml: "deviation: [\n"},
		{name: "bad env number", env: map[string]string{"SHELFWATCH_CACHE_TTL_SECONDS": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, "config.yaml", tt.yaml)
			}
			_, err := Load(path, "")
			assert.Error(t, err)
		})
	}
}

func TestMonitorOptions_RejectsBadRules(t *testing.T) {
	cfg := Default()
	cfg.Timeline.Rules = []RuleConfig{{Category: "SCRAP", Locations: []string{"no-slash"}}}
	_, err := cfg.MonitorOptions()
	assert.Error(t, err)

	cfg = Default()
	cfg.Timeline.ExcludedCategories = []string{"EVERYTHING"}
	_, err = cfg.MonitorOptions()
	assert.Error(t, err)
}
