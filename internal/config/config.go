package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/josh987123/ftg-foundation-data/internal/aging"
	"github.com/josh987123/ftg-foundation-data/internal/logger"
)

// DefaultExcludedVendors are internal transfers and expense-card payees that
// never belong on the AP aging
var DefaultExcludedVendors = []string{
	"FTG Builders LLC",
	"FTG Builders, LLC",
	"FTG Builders",
	"FTG BUILDERS LLC",
	"CoPower One",
	"Travel costs",
	"Meals and Entertainment",
	"DoorDash Food Delivery",
	"Costco Wholesale",
	"Gas/other vehicle expense",
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	AsOfDate  string
	DataDir   string
	OutputDir string
	Workers   int
	WriteCSV  bool

	Database DatabaseConfig

	ExcludedVendors []string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

type DatabaseConfig struct {
	URL    string
	Driver string
}

// Enabled reports whether runs should be persisted
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from the optional config file, FTG_* environment
// variables and built-in defaults, in that order of precedence (env wins).
// An empty configFile searches for ftg.yaml in the working directory.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ftg")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("FTG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", "FTG_DATABASE_URL", "DATABASE_URL")

	cfg := &Config{
		AsOfDate:  v.GetString("as_of_date"),
		DataDir:   v.GetString("data_dir"),
		OutputDir: v.GetString("output_dir"),
		Workers:   v.GetInt("workers"),
		WriteCSV:  v.GetBool("output.csv"),
		Database: DatabaseConfig{
			URL:    v.GetString("database.url"),
			Driver: v.GetString("database.driver"),
		},
		ExcludedVendors: vendorList(v.Get("ap.excluded_vendors")),
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		LogTimeFormat:   v.GetString("log.time_format"),
		LogOutput:       v.GetString("log.output"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("as_of_date", "")
	v.SetDefault("data_dir", "data")
	v.SetDefault("output_dir", "public/data")
	v.SetDefault("workers", 4)
	v.SetDefault("output.csv", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("ap.excluded_vendors", DefaultExcludedVendors)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.time_format", time.RFC3339)
	v.SetDefault("log.output", "stdout")
}

// vendorList accepts a YAML list or a semicolon separated env value. Vendor
// names may contain commas.
func vendorList(raw any) []string {
	var items []string
	switch val := raw.(type) {
	case []string:
		items = val
	case []any:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	case string:
		items = strings.Split(val, ";")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.AsOfDate != "" {
		if _, ok := aging.ParseDate(c.AsOfDate); !ok {
			return fmt.Errorf("as_of_date %q is not a date", c.AsOfDate)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}

// AsOf resolves the aging reference date. An unset date means today.
func (c *Config) AsOf(now time.Time) time.Time {
	if t, ok := aging.ParseDate(c.AsOfDate); ok {
		return t
	}
	return aging.DateOf(now)
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}
