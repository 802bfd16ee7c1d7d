package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/mentor-regress/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60, cfg.API.TimeoutSecs)
	assert.Equal(t, "compare.xlsx", cfg.Files.Benchmark)
	assert.Equal(t, "Direct Query Master List V_Test.xlsx", cfg.Files.Output)
	assert.Equal(t, "Degraded_Responses_Report.xlsx", cfg.Files.DegradedReport)
	assert.Equal(t, 0, cfg.Compare.RowLimit)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "powerautomate", cfg.Archive.Driver)
	assert.Equal(t, 30, cfg.Archive.TimeoutSecs)
	assert.False(t, cfg.Notify.Enabled)
	assert.Equal(t, "teams", cfg.Notify.Driver)
	assert.Equal(t, 10, cfg.Notify.TimeoutSecs)
	assert.Equal(t, DefaultMentors(), cfg.Mentors)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
api:
  base_url: https://qa.example.com
  timeout_secs: 15
mentors:
  - sheet: 2
    name: Only Mentor
    api_path: /api/only
    agent_id: only
log:
  level: debug
  format: console
compare:
  row_limit: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://qa.example.com", cfg.API.BaseURL)
	assert.Equal(t, 15, cfg.API.TimeoutSecs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 25, cfg.Compare.RowLimit)
	assert.Equal(t, []model.Mentor{{Sheet: 2, Name: "Only Mentor", APIPath: "/api/only", AgentID: "only"}}, cfg.Mentors)
	// Defaults still apply for unset values
	assert.Equal(t, "compare.xlsx", cfg.Files.Benchmark)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("REGRESS_STORE_DRIVER", "postgres")
	t.Setenv("REGRESS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("REGRESS_SERVER_PORT", "3000")
	t.Setenv("REGRESS_API_BASE_URL", "https://env.example.com")
	t.Setenv("REGRESS_NOTIFY_WEBHOOK_URL", "https://hooks.example.com/x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, "https://hooks.example.com/x", cfg.Notify.WebhookURL)
}

func TestLoadBadFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api: [unterminated"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadFromExplicitFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: warn\n"), 0644))

	path := filepath.Join(dir, "nightly.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\ncompare:\n  row_limit: 5\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level, "explicit file replaces ./config.yaml")
	assert.Equal(t, 5, cfg.Compare.RowLimit)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoadFromMissingFile(t *testing.T) {
	dir := chdirTemp(t)

	_, err := LoadFrom(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.API.BaseURL = "https://qa.example.com"
	cfg.Mentors = DefaultMentors()
	cfg.Store.Driver = "sqlite"
	cfg.Archive.Driver = "powerautomate"
	cfg.Notify.Driver = "teams"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_MissingBaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.API.BaseURL = "  "

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url is required")
}

func TestValidate_Mentors(t *testing.T) {
	tests := []struct {
		name    string
		mentors []model.Mentor
		want    string
	}{
		{"none", nil, "at least one mentor is required"},
		{"sheet zero", []model.Mentor{{Sheet: 0, Name: "A"}}, "mentors[0].sheet must be >= 1"},
		{"no name", []model.Mentor{{Sheet: 1}}, "mentors[0].name is required"},
		{"duplicate", []model.Mentor{{Sheet: 1, Name: "A"}, {Sheet: 2, Name: "A"}}, `mentors[1].name "A" is duplicated`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			cfg.Mentors = tt.mentors
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_Drivers(t *testing.T) {
	cfg := validDefaults()
	cfg.Archive.Enabled = true
	cfg.Archive.Driver = "s3"
	cfg.Notify.Enabled = true
	cfg.Notify.Driver = "email"
	cfg.Store.Driver = "mysql"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `archive.driver "s3"`)
	assert.Contains(t, err.Error(), `notify.driver "email"`)
	assert.Contains(t, err.Error(), `store.driver "mysql"`)
}

func TestValidate_DisabledDriversIgnored(t *testing.T) {
	cfg := validDefaults()
	cfg.Archive.Driver = "s3"
	cfg.Notify.Driver = "email"
	cfg.Store.Driver = "none"

	assert.NoError(t, cfg.Validate())
}

func TestValidate_NegativeRowLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Compare.RowLimit = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compare.row_limit must be >= 0")
}

func TestAPITimeout(t *testing.T) {
	assert.Equal(t, "1m0s", APIConfig{TimeoutSecs: 60}.Timeout().String())
}
