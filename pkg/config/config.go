// Package config loads the salesboard settings from a YAML file and
// SALESBOARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SALESBOARD_API_BASE_URL.
const EnvPrefix = "SALESBOARD"

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	API       APIConfig       `mapstructure:"api"`
	Log       LogConfig       `mapstructure:"log"`
	Table     TableConfig     `mapstructure:"table"`
	Sales     SalesConfig     `mapstructure:"sales"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

type ServerConfig struct {
	Address  string `mapstructure:"address"`
	BasePath string `mapstructure:"base_path"`
}

// APIConfig points at the sales backend. Mock serves demo data in process.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Mock    bool          `mapstructure:"mock"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TableConfig struct {
	DefaultPageSize int   `mapstructure:"default_page_size"`
	PageSizeOptions []int `mapstructure:"page_size_options"`
}

type SalesConfig struct {
	QuoteGoal        int `mapstructure:"quote_goal"`
	NewClientsTarget int `mapstructure:"new_clients_target"`
	MonthRange       int `mapstructure:"month_range"`
	// DocumentDate pins lookups to a YYYY-MM-DD date; empty means today.
	DocumentDate string `mapstructure:"document_date"`
}

// TasksConfig selects the task store; an empty DBPath keeps tasks in memory.
type TasksConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type DashboardConfig struct {
	ManifestPath  string        `mapstructure:"manifest_path"`
	ChartCacheTTL time.Duration `mapstructure:"chart_cache_ttl"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	ChartTheme    string        `mapstructure:"chart_theme"`
	// TemplateDir overrides the embedded HTML templates.
	TemplateDir string `mapstructure:"template_dir"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Address: ":8080", BasePath: "/admin"},
		API: APIConfig{
			BaseURL: "http://localhost:5000/api/v1",
			Timeout: 10 * time.Second,
			Mock:    true,
		},
		Log:   LogConfig{Level: "info", Format: "json"},
		Table: TableConfig{DefaultPageSize: 10, PageSizeOptions: []int{5, 10, 25, 50}},
		Sales: SalesConfig{QuoteGoal: 20, NewClientsTarget: 50, MonthRange: 1},
		Dashboard: DashboardConfig{
			ChartCacheTTL: 5 * time.Minute,
			SessionTTL:    12 * time.Hour,
		},
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.base_path", d.Server.BasePath)

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.mock", d.API.Mock)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("table.default_page_size", d.Table.DefaultPageSize)
	v.SetDefault("table.page_size_options", d.Table.PageSizeOptions)

	v.SetDefault("sales.quote_goal", d.Sales.QuoteGoal)
	v.SetDefault("sales.new_clients_target", d.Sales.NewClientsTarget)
	v.SetDefault("sales.month_range", d.Sales.MonthRange)
	v.SetDefault("sales.document_date", d.Sales.DocumentDate)

	v.SetDefault("tasks.db_path", d.Tasks.DBPath)

	v.SetDefault("dashboard.manifest_path", d.Dashboard.ManifestPath)
	v.SetDefault("dashboard.chart_cache_ttl", d.Dashboard.ChartCacheTTL)
	v.SetDefault("dashboard.session_ttl", d.Dashboard.SessionTTL)
	v.SetDefault("dashboard.chart_theme", d.Dashboard.ChartTheme)
	v.SetDefault("dashboard.template_dir", d.Dashboard.TemplateDir)
}

// Load reads path (optional) and the environment into a validated Config.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Address) == "" {
		errs = append(errs, errors.New("config: server.address is required"))
	}
	if !c.API.Mock && strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("config: api.base_url is required unless api.mock is set"))
	}
	if len(c.Table.PageSizeOptions) == 0 {
		errs = append(errs, errors.New("config: table.page_size_options must not be empty"))
	}
	for _, size := range c.Table.PageSizeOptions {
		if size <= 0 {
			errs = append(errs, fmt.Errorf("config: invalid page size option %d", size))
		}
	}
	if c.Table.DefaultPageSize <= 0 {
		errs = append(errs, errors.New("config: table.default_page_size must be positive"))
	} else if len(c.Table.PageSizeOptions) > 0 && !slices.Contains(c.Table.PageSizeOptions, c.Table.DefaultPageSize) {
		errs = append(errs, fmt.Errorf("config: table.default_page_size %d is not one of %v", c.Table.DefaultPageSize, c.Table.PageSizeOptions))
	}
	if c.Sales.QuoteGoal <= 0 {
		errs = append(errs, errors.New("config: sales.quote_goal must be positive"))
	}
	if c.Sales.MonthRange <= 0 {
		errs = append(errs, errors.New("config: sales.month_range must be positive"))
	}
	if _, err := c.Sales.Date(); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Date parses DocumentDate; the zero time means "today".
func (s SalesConfig) Date() (time.Time, error) {
	raw := strings.TrimSpace(s.DocumentDate)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: sales.document_date: %w", err)
	}
	return t, nil
}

// SlogLevel returns the configured level, info when unset.
func (l LogConfig) SlogLevel() slog.Level {
	level, err := parseLevel(l.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(raw) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
