package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// DeleteMode selects the default delete behavior.
type DeleteMode string

const (
	DeleteModeArchive DeleteMode = "archive"
	DeleteModeHard    DeleteMode = "hard"
)

// Config is the full TOML-backed configuration.
type Config struct {
	Database       DatabaseConfig       `toml:"database"`
	Delete         DeleteConfig         `toml:"delete"`
	Timeline       TimelineConfig       `toml:"timeline"`
	ActivityFields ActivityFieldsConfig `toml:"activity_fields"`
	Logging        LoggingConfig        `toml:"logging"`
	Serve          ServeConfig          `toml:"serve"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type DeleteConfig struct {
	DefaultMode DeleteMode `toml:"default_mode"`
}

// TimelineConfig carries the vertical geometry handed to the connector
// router. The layout engine accepts these as parameters; it does not own
// them.
type TimelineConfig struct {
	RowHeight int `toml:"row_height"`
	TopOffset int `toml:"top_offset"`
}

type ActivityFieldsConfig struct {
	ShowAssignees bool `toml:"show_assignees"`
	ShowProgress  bool `toml:"show_progress"`
	ShowTags      bool `toml:"show_tags"`
	ShowNotes     bool `toml:"show_notes"`
}

type LoggingConfig struct {
	Level   string           `toml:"level"`
	DevFile DevFileLogConfig `toml:"dev_file"`
}

type DevFileLogConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ServeConfig struct {
	Addr         string `toml:"addr"`
	EndpointPath string `toml:"endpoint_path"`
}

// Default returns the baseline configuration for the given database path.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Delete: DeleteConfig{
			DefaultMode: DeleteModeArchive,
		},
		Timeline: TimelineConfig{
			RowHeight: 40,
			TopOffset: 60,
		},
		ActivityFields: ActivityFieldsConfig{
			ShowAssignees: true,
			ShowProgress:  true,
			ShowTags:      true,
			ShowNotes:     false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Serve: ServeConfig{
			Addr:         "127.0.0.1:7465",
			EndpointPath: "/mcp",
		},
	}
}

// Load reads the TOML file at path over the supplied defaults. A missing or
// empty file yields the defaults unchanged.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations the rest of the app cannot run against.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	switch c.Delete.DefaultMode {
	case DeleteModeArchive, DeleteModeHard:
	default:
		return fmt.Errorf("invalid delete.default_mode: %q", c.Delete.DefaultMode)
	}

	if c.Timeline.RowHeight <= 0 {
		return errors.New("timeline.row_height must be > 0")
	}
	if c.Timeline.TopOffset < 0 {
		return errors.New("timeline.top_offset must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Serve.Addr) == "" {
		return errors.New("serve.addr is required")
	}

	return nil
}

// EnsureConfigDir creates the directory that will hold the config file.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
