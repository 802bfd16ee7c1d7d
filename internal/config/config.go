package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/mentor-regress/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Mentors  []model.Mentor `yaml:"mentors" mapstructure:"mentors"`
	Files    FilesConfig    `yaml:"files" mapstructure:"files"`
	Compare  CompareConfig  `yaml:"compare" mapstructure:"compare"`
	Archive  ArchiveConfig  `yaml:"archive" mapstructure:"archive"`
	Notify   NotifyConfig   `yaml:"notify" mapstructure:"notify"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// APIConfig holds the QA service connection settings.
type APIConfig struct {
	BaseURL            string  `yaml:"base_url" mapstructure:"base_url"`
	EmailID            string  `yaml:"email_id" mapstructure:"email_id"`
	SessionID          string  `yaml:"session_id" mapstructure:"session_id"`
	APIKey             string  `yaml:"api_key" mapstructure:"api_key"`
	UserAgent          string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond  float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	InsecureSkipVerify bool    `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// Timeout returns the per-request deadline.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// FilesConfig names the workbooks a run reads and writes.
type FilesConfig struct {
	Benchmark      string `yaml:"benchmark" mapstructure:"benchmark"`
	Output         string `yaml:"output" mapstructure:"output"`
	DegradedReport string `yaml:"degraded_report" mapstructure:"degraded_report"`
}

// CompareConfig tunes the batch comparator. RowLimit 0 means every row.
type CompareConfig struct {
	RowLimit int `yaml:"row_limit" mapstructure:"row_limit"`
}

// ArchiveConfig configures remote upload of the degraded report.
type ArchiveConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver      string `yaml:"driver" mapstructure:"driver"`
	URL         string `yaml:"url" mapstructure:"url"`
	SiteURL     string `yaml:"site_url" mapstructure:"site_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// NotifyConfig configures the chat webhook.
type NotifyConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver      string `yaml:"driver" mapstructure:"driver"`
	WebhookURL  string `yaml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the run history API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ScheduleConfig configures periodic sweeps.
type ScheduleConfig struct {
	Cron string `yaml:"cron" mapstructure:"cron"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultMentors is the stock sheet-to-endpoint mapping of the QA service.
func DefaultMentors() []model.Mentor {
	return []model.Mentor{
		{Sheet: 3, Name: "PSP Mentor", APIPath: "/api/pspmentor", AgentID: "psp"},
		{Sheet: 4, Name: "VSM Mentor", APIPath: "/api/vsmmentor", AgentID: "vsm"},
		{Sheet: 5, Name: "TPI Mentor", APIPath: "/api/tpimentor", AgentID: "tpi"},
		{Sheet: 6, Name: "Search/Chat", APIPath: "/api/chat", AgentID: "search"},
	}
}

func mentorDefaults() []map[string]any {
	var out []map[string]any
	for _, m := range DefaultMentors() {
		out = append(out, map[string]any{
			"sheet":    m.Sheet,
			"name":     m.Name,
			"api_path": m.APIPath,
			"agent_id": m.AgentID,
		})
	}
	return out
}

// Load reads configuration from ./config.yaml (if present) and environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. Unlike ./config.yaml, an
// explicit file must exist.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("REGRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.email_id", "")
	v.SetDefault("api.session_id", "")
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.user_agent", "mentor-regress")
	v.SetDefault("api.timeout_secs", 60)
	v.SetDefault("api.requests_per_second", 0)
	v.SetDefault("api.insecure_skip_verify", false)
	v.SetDefault("mentors", mentorDefaults())
	v.SetDefault("files.benchmark", "compare.xlsx")
	v.SetDefault("files.output", "Direct Query Master List V_Test.xlsx")
	v.SetDefault("files.degraded_report", "Degraded_Responses_Report.xlsx")
	v.SetDefault("compare.row_limit", 0)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.driver", "powerautomate")
	v.SetDefault("archive.url", "")
	v.SetDefault("archive.site_url", "")
	v.SetDefault("archive.timeout_secs", 30)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.driver", "teams")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.timeout_secs", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "regress.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("schedule.cron", "0 6 * * *")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a sweep depends on and reports every problem
// at once.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, "api.base_url is required")
	}
	if len(c.Mentors) == 0 {
		errs = append(errs, "at least one mentor is required")
	}
	seen := make(map[string]bool, len(c.Mentors))
	for i, m := range c.Mentors {
		if m.Sheet < 1 {
			errs = append(errs, fmt.Sprintf("mentors[%d].sheet must be >= 1", i))
		}
		if m.Name == "" {
			errs = append(errs, fmt.Sprintf("mentors[%d].name is required", i))
			continue
		}
		if seen[m.Name] {
			errs = append(errs, fmt.Sprintf("mentors[%d].name %q is duplicated", i, m.Name))
		}
		seen[m.Name] = true
	}
	if c.Compare.RowLimit < 0 {
		errs = append(errs, "compare.row_limit must be >= 0")
	}

	if c.Archive.Enabled {
		switch c.Archive.Driver {
		case "powerautomate", "ftp":
		default:
			errs = append(errs, fmt.Sprintf("archive.driver %q is not one of powerautomate, ftp", c.Archive.Driver))
		}
	}
	if c.Notify.Enabled {
		switch c.Notify.Driver {
		case "teams", "slack":
		default:
			errs = append(errs, fmt.Sprintf("notify.driver %q is not one of teams, slack", c.Notify.Driver))
		}
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "none", "":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of sqlite, postgres, none", c.Store.Driver))
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
