package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/llm"
	"github.com/Veraticus/the-listings-must-flow/internal/sheets"
)

// EnvPrefix is prepended to every environment override, e.g. LISTINGS_LLM_PROVIDER.
const EnvPrefix = "LISTINGS"

// Config is the typed application configuration.
type Config struct {
	LLM      llm.Config
	Sheets   sheets.Config
	Database DatabaseConfig
	Logging  LoggingConfig
	Import   ImportConfig
	Metrics  MetricsConfig
	Dedup    DedupConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path      string
	BackupDir string
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// ImportConfig controls the import pipeline.
type ImportConfig struct {
	TimeZone  string
	Workers   int
	BatchSize int
	Replace   bool
}

// DedupConfig controls deduplication paging.
type DedupConfig struct {
	PageSize  int
	BatchSize int
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	Textfile string
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("database.backup_dir", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("import.workers", 8)
	v.SetDefault("import.replace", true)
	v.SetDefault("import.batch_size", 500)
	v.SetDefault("import.time_zone", "UTC")
	v.SetDefault("llm.provider", llm.ProviderNone)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 15*time.Second)
	v.SetDefault("llm.requests_per_minute", 60)
	v.SetDefault("llm.cache_ttl", 24*time.Hour)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay", 500*time.Millisecond)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 256)
	v.SetDefault("dedup.page_size", 500)
	v.SetDefault("dedup.batch_size", 100)
	v.SetDefault("metrics.textfile", "")

	sheetDefaults := sheets.DefaultConfig()
	v.SetDefault("sheets.spreadsheet_name", sheetDefaults.SpreadsheetName)
	v.SetDefault("sheets.time_zone", sheetDefaults.TimeZone)
	v.SetDefault("sheets.batch_size", sheetDefaults.BatchSize)
	v.SetDefault("sheets.retry_attempts", sheetDefaults.RetryAttempts)
	v.SetDefault("sheets.retry_delay", sheetDefaults.RetryDelay)
	v.SetDefault("sheets.enable_formatting", sheetDefaults.EnableFormatting)
	v.SetDefault("sheets.token_file", "")
}

// BindEnv makes every key overridable as LISTINGS_SECTION_KEY.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the typed configuration from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Database: DatabaseConfig{
			Path:      ExpandPath(v.GetString("database.path")),
			BackupDir: ExpandPath(v.GetString("database.backup_dir")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Import: ImportConfig{
			Workers:   v.GetInt("import.workers"),
			BatchSize: v.GetInt("import.batch_size"),
			Replace:   v.GetBool("import.replace"),
			TimeZone:  v.GetString("import.time_zone"),
		},
		LLM: llm.Config{
			Provider:          strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			Model:             v.GetString("llm.model"),
			APIKey:            v.GetString("llm.api_key"),
			BaseURL:           v.GetString("llm.base_url"),
			Timeout:           v.GetDuration("llm.timeout"),
			RequestsPerMinute: v.GetInt("llm.requests_per_minute"),
			CacheTTL:          v.GetDuration("llm.cache_ttl"),
			MaxRetries:        v.GetInt("llm.max_retries"),
			RetryDelay:        v.GetDuration("llm.retry_delay"),
			Temperature:       v.GetFloat64("llm.temperature"),
			MaxTokens:         v.GetInt("llm.max_tokens"),
		},
		Dedup: DedupConfig{
			PageSize:  v.GetInt("dedup.page_size"),
			BatchSize: v.GetInt("dedup.batch_size"),
		},
		Metrics: MetricsConfig{
			Textfile: ExpandPath(v.GetString("metrics.textfile")),
		},
		Sheets: sheets.Config{
			ClientID:           v.GetString("sheets.client_id"),
			ClientSecret:       v.GetString("sheets.client_secret"),
			RefreshToken:       v.GetString("sheets.refresh_token"),
			TokenFile:          ExpandPath(v.GetString("sheets.token_file")),
			ServiceAccountPath: ExpandPath(v.GetString("sheets.service_account_path")),
			SpreadsheetID:      v.GetString("sheets.spreadsheet_id"),
			SpreadsheetName:    v.GetString("sheets.spreadsheet_name"),
			TimeZone:           v.GetString("sheets.time_zone"),
			BatchSize:          v.GetInt("sheets.batch_size"),
			RetryAttempts:      v.GetInt("sheets.retry_attempts"),
			RetryDelay:         v.GetDuration("sheets.retry_delay"),
			EnableFormatting:   v.GetBool("sheets.enable_formatting"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location returns the time zone export timestamps are read in.
func (c ImportConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: import.time_zone %q: %w", common.ErrInvalidConfig, c.TimeZone, err)
	}
	return loc, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", common.ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json, got %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	if c.Import.Workers <= 0 || c.Import.BatchSize <= 0 {
		return fmt.Errorf("%w: import.workers and import.batch_size must be positive", common.ErrInvalidConfig)
	}
	if _, err := c.Import.Location(); err != nil {
		return err
	}
	if c.Dedup.PageSize <= 0 || c.Dedup.BatchSize <= 0 {
		return fmt.Errorf("%w: dedup.page_size and dedup.batch_size must be positive", common.ErrInvalidConfig)
	}
	if !llm.KnownProvider(c.LLM.Provider) {
		return fmt.Errorf("%w: unknown llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.RequestsPerMinute < 0 || c.LLM.MaxRetries < 0 {
		return fmt.Errorf("%w: llm.requests_per_minute and llm.max_retries cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}
