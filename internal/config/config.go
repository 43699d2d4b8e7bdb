// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jdfalk/mbseries/internal/series"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MusicBrainzConfig configures the catalog client.
type MusicBrainzConfig struct {
	BaseURL   string  `yaml:"base_url" validate:"required,url"`
	UserAgent string  `yaml:"user_agent" validate:"required"`
	RateLimit float64 `yaml:"rate_limit" validate:"gt=0"` // requests per second
}

// SeriesConfig configures the series plugin.
type SeriesConfig struct {
	Auto   bool                `yaml:"auto"`
	Fields series.FieldsConfig `yaml:"fields"`
}

// Config holds application configuration
type Config struct {
	LibraryDir   string `yaml:"library" validate:"required"`
	DatabasePath string `yaml:"database_path" validate:"required"`
	DatabaseType string `yaml:"database_type" validate:"oneof=pebble sqlite"` // "pebble" (default) or "sqlite"
	EnableSQLite bool   `yaml:"enable_sqlite3_i_know_the_risks"`              // Must be true to use SQLite (safety flag)
	PathPattern  string `yaml:"path_pattern" validate:"required"`

	// Host defaults for series-style commands; --move/--nomove/--nowrite override.
	Move  bool `yaml:"move"`
	Write bool `yaml:"write"`

	LogLevel    string `yaml:"log_level" validate:"oneof=trace debug info warn error off"`
	MetricsFile string `yaml:"metrics_file,omitempty"`

	MusicBrainz MusicBrainzConfig `yaml:"musicbrainz"`
	Series      SeriesConfig      `yaml:"series"`

	SupportedExtensions []string `yaml:"supported_extensions" validate:"min=1"`
}

var AppConfig Config

// SetDefaults registers default values with viper.
func SetDefaults() {
	fields := series.DefaultFields()

	viper.SetDefault("library", "~/Music")
	viper.SetDefault("database_path", "~/.mbseries/library.pebble")
	viper.SetDefault("database_type", "pebble")
	viper.SetDefault("enable_sqlite3_i_know_the_risks", false)
	viper.SetDefault("path_pattern", "{albumartist}/{album}/{track} {title}")
	viper.SetDefault("move", true)
	viper.SetDefault("write", true)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("metrics_file", "")
	viper.SetDefault("musicbrainz.base_url", "https://musicbrainz.org/ws/2")
	viper.SetDefault("musicbrainz.user_agent", "mbseries/1.0 ( https://github.com/jdfalk/mbseries )")
	viper.SetDefault("musicbrainz.rate_limit", 1.0)
	viper.SetDefault("series.auto", true)
	viper.SetDefault("series.fields.id.field_name", fields.ID.FieldName)
	viper.SetDefault("series.fields.id.write", fields.ID.Write)
	viper.SetDefault("series.fields.name.field_name", fields.Name.FieldName)
	viper.SetDefault("series.fields.name.write", fields.Name.Write)
	viper.SetDefault("series.fields.volume.field_name", fields.Volume.FieldName)
	viper.SetDefault("series.fields.volume.write", fields.Volume.Write)
	viper.SetDefault("supported_extensions", []string{".mp3", ".flac", ".m4a", ".ogg", ".opus", ".wav", ".aiff"})
}

// InitConfig initializes the application configuration
func InitConfig() {
	SetDefaults()

	AppConfig = Config{
		LibraryDir:   expandHome(viper.GetString("library")),
		DatabasePath: expandHome(viper.GetString("database_path")),
		DatabaseType: viper.GetString("database_type"),
		EnableSQLite: viper.GetBool("enable_sqlite3_i_know_the_risks"),
		PathPattern:  viper.GetString("path_pattern"),
		Move:         viper.GetBool("move"),
		Write:        viper.GetBool("write"),
		LogLevel:     strings.ToLower(viper.GetString("log_level")),
		MetricsFile:  viper.GetString("metrics_file"),
		MusicBrainz: MusicBrainzConfig{
			BaseURL:   strings.TrimRight(viper.GetString("musicbrainz.base_url"), "/"),
			UserAgent: viper.GetString("musicbrainz.user_agent"),
			RateLimit: viper.GetFloat64("musicbrainz.rate_limit"),
		},
		Series: SeriesConfig{
			Auto: viper.GetBool("series.auto"),
			Fields: series.FieldsConfig{
				ID:     fieldConfig("id"),
				Name:   fieldConfig("name"),
				Volume: fieldConfig("volume"),
			},
		},
		SupportedExtensions: viper.GetStringSlice("supported_extensions"),
	}

	// Normalize database type
	if AppConfig.DatabaseType == "sqlite3" {
		AppConfig.DatabaseType = "sqlite"
	}
	if AppConfig.DatabaseType == "" {
		AppConfig.DatabaseType = "pebble"
	}
	for i, ext := range AppConfig.SupportedExtensions {
		AppConfig.SupportedExtensions[i] = strings.ToLower(ext)
	}
}

func fieldConfig(key string) series.FieldConfig {
	return series.FieldConfig{
		FieldName: viper.GetString("series.fields." + key + ".field_name"),
		Write:     viper.GetBool("series.fields." + key + ".write"),
	}
}

// Validate checks a configuration for values the commands cannot work with.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.DatabaseType == "sqlite" && !cfg.EnableSQLite {
		return fmt.Errorf("invalid configuration: SQLite3 is not enabled. To use SQLite3, you must explicitly enable it with --enable-sqlite3-i-know-the-risks or set 'enable_sqlite3_i_know_the_risks: true' in your config file")
	}
	return nil
}

// Dump writes cfg as YAML.
func Dump(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
