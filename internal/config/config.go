package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/booknook/internal/backup"
	"github.com/dmitrijs2005/booknook/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "NOOK"

type Config struct {
	DataDir      string    `mapstructure:"data_dir"      yaml:"data_dir"`
	DatabasePath string    `mapstructure:"database_path" yaml:"database_path"`
	BlobDir      string    `mapstructure:"blob_dir"      yaml:"blob_dir"`
	BackupFormat string    `mapstructure:"backup_format" yaml:"backup_format"`
	Log          LogConfig `mapstructure:"log"           yaml:"log"`
}

type LogConfig struct {
	Level    string         `mapstructure:"level"    yaml:"level"`
	JSON     bool           `mapstructure:"json"     yaml:"json"`
	File     string         `mapstructure:"file"     yaml:"file"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"    yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"     yaml:"max_age"`
	Compress   bool `mapstructure:"compress"    yaml:"compress"`
}

// DefaultDataDir is ~/.booknook, or .booknook when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".booknook"
	}
	return filepath.Join(home, ".booknook")
}

// LoadDefaults populates c with defaults. Empty paths are derived from
// DataDir by Resolve.
func (c *Config) LoadDefaults() {
	c.DataDir = DefaultDataDir()
	c.DatabasePath = ""
	c.BlobDir = ""
	c.BackupFormat = string(backup.FormatJSON)
	c.Log = LogConfig{
		Level: "info",
		Rotation: RotationConfig{
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
		},
	}
}

func setDefaults(v *viper.Viper) {
	var d Config
	d.LoadDefaults()

	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("database_path", d.DatabasePath)
	v.SetDefault("blob_dir", d.BlobDir)
	v.SetDefault("backup_format", d.BackupFormat)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.rotation.max_size", d.Log.Rotation.MaxSize)
	v.SetDefault("log.rotation.max_backups", d.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age", d.Log.Rotation.MaxAge)
	v.SetDefault("log.rotation.compress", d.Log.Rotation.Compress)
}

// godotenv.Load never overrides a set variable, so the more specific file
// goes first: process env > .env.local > .env.
var envFiles = []string{".env.local", ".env"}

func loadDotEnv(dir string) {
	for _, name := range envFiles {
		// missing files are fine
		_ = godotenv.Load(filepath.Join(dir, name))
	}
}

var fileNames = []string{"config.yaml", "config.yml", "config.toml", "config.json", "config.jsonc"}

// findConfigFile returns the first candidate file in dirs, or "".
func findConfigFile(dirs ...string) string {
	for _, dir := range dirs {
		for _, name := range fileNames {
			p := filepath.Join(dir, name)
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				return p
			}
		}
	}
	return ""
}

func readConfigFile(v *viper.Viper, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".jsonc" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(std)); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Load builds a Config from v. Flags should already be bound to v. path is
// an explicit config file and must exist when set.
func Load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	loadDotEnv(".")
	if path != "" {
		loadDotEnv(filepath.Dir(path))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = findConfigFile(".", expandHome(v.GetString("data_dir")))
	}
	if path != "" {
		if err := readConfigFile(v, path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve expands "~", derives empty paths from DataDir and validates
// enumerated values.
func (c *Config) Resolve() error {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	c.DataDir = expandHome(c.DataDir)

	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "library.db")
	}
	c.DatabasePath = expandHome(c.DatabasePath)

	if c.BlobDir == "" {
		c.BlobDir = filepath.Join(c.DataDir, "blobs")
	}
	c.BlobDir = expandHome(c.BlobDir)
	c.Log.File = expandHome(c.Log.File)

	f, err := backup.ParseFormat(c.BackupFormat)
	if err != nil {
		return fmt.Errorf("invalid backup_format: %w", err)
	}
	c.BackupFormat = string(f)

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// LogOptions converts the log section for logging.New.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{
		Level: c.Log.Level,
		JSON:  c.Log.JSON,
		File:  c.Log.File,
		Rotation: logging.Rotation{
			MaxSize:    c.Log.Rotation.MaxSize,
			MaxBackups: c.Log.Rotation.MaxBackups,
			MaxAge:     c.Log.Rotation.MaxAge,
			Compress:   c.Log.Rotation.Compress,
		},
	}
}

// Format returns the configured backup format.
func (c *Config) Format() backup.Format {
	return backup.Format(c.BackupFormat)
}

// GenerateYAML renders the defaults as a YAML config file.
func GenerateYAML() ([]byte, error) {
	var c Config
	c.LoadDefaults()
	out, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
