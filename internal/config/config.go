// Package config handles configuration loading, validation, and management for quwei.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete engine configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Engine configuration for the code entry state machine.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// Keys maps navigation actions to key names.
	Keys KeysConfig `toml:"keys" json:"keys" yaml:"keys"`

	// Punctuation configuration for full-width punctuation.
	Punctuation PunctuationConfig `toml:"punctuation" json:"punctuation" yaml:"punctuation"`

	// QuickPhrase configuration for the trigger-key phrase mode.
	QuickPhrase QuickPhraseConfig `toml:"quick_phrase" json:"quick_phrase" yaml:"quick_phrase"`

	// History configuration for the commit history store.
	History HistoryConfig `toml:"history" json:"history" yaml:"history"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// IBus configuration for the D-Bus frontend.
	IBus IBusConfig `toml:"ibus" json:"ibus" yaml:"ibus"`

	// Metrics configuration for the Prometheus endpoint.
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// EngineConfig holds state machine options.
type EngineConfig struct {
	// Locale selects the punctuation table.
	Locale string `toml:"locale" json:"locale" yaml:"locale"`

	// KeepPageOnEmptySelect keeps the page shown when an empty slot is chosen
	// instead of discarding the code.
	KeepPageOnEmptySelect bool `toml:"keep_page_on_empty_select" json:"keep_page_on_empty_select" yaml:"keep_page_on_empty_select"`

	// SelectWithSpace commits the candidate under the cursor on space.
	SelectWithSpace bool `toml:"select_with_space" json:"select_with_space" yaml:"select_with_space"`
}

// KeysConfig holds key bindings by keysym name ("Page_Up", "minus", "=").
type KeysConfig struct {
	PrevPage      []string `toml:"prev_page" json:"prev_page" yaml:"prev_page"`
	NextPage      []string `toml:"next_page" json:"next_page" yaml:"next_page"`
	PrevCandidate []string `toml:"prev_candidate" json:"prev_candidate" yaml:"prev_candidate"`
	NextCandidate []string `toml:"next_candidate" json:"next_candidate" yaml:"next_candidate"`
}

// PunctuationConfig holds punctuation options.
type PunctuationConfig struct {
	// Enabled turns full-width punctuation on.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// PairedTogether emits the closing mark with the opening one and moves
	// the caret between them.
	PairedTogether bool `toml:"paired_together" json:"paired_together" yaml:"paired_together"`

	// TablePath is an optional .toml or .json table replacing the built-in one.
	TablePath string `toml:"table_path" json:"table_path" yaml:"table_path"`
}

// QuickPhraseConfig holds quick phrase options.
type QuickPhraseConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Trigger is the single character that enters quick phrase mode.
	Trigger string `toml:"trigger" json:"trigger" yaml:"trigger"`

	// PhrasePath is an optional phrase file, one "key phrase" pair per line.
	PhrasePath string `toml:"phrase_path" json:"phrase_path" yaml:"phrase_path"`

	// MaxCandidates bounds the candidate list.
	MaxCandidates int `toml:"max_candidates" json:"max_candidates" yaml:"max_candidates"`
}

// HistoryConfig holds commit history options.
type HistoryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the sqlite database path.
	Path string `toml:"path" json:"path" yaml:"path"`

	// RetentionDays prunes older rows at startup. Zero keeps everything.
	RetentionDays int `toml:"retention_days" json:"retention_days" yaml:"retention_days"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of log files in days.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// IBusConfig holds IBus frontend configuration.
type IBusConfig struct {
	// BusName is the well-known name requested when started by ibus-daemon.
	BusName string `toml:"bus_name" json:"bus_name" yaml:"bus_name"`

	// EngineName is the engine name advertised in the component.
	EngineName string `toml:"engine_name" json:"engine_name" yaml:"engine_name"`

	// Address overrides bus address discovery.
	Address string `toml:"address" json:"address" yaml:"address"`

	// LockPath guards against a second frontend instance.
	LockPath string `toml:"lock_path" json:"lock_path" yaml:"lock_path"`
}

// MetricsConfig holds metrics endpoint options.
type MetricsConfig struct {
	// Listen is a host:port for the /metrics endpoint. Empty disables it.
	Listen string `toml:"listen" json:"listen" yaml:"listen"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := QuweiDir()

	return &Config{
		Version: Version,
		Engine: EngineConfig{
			Locale:          "zh_CN",
			SelectWithSpace: true,
		},
		Keys: KeysConfig{
			PrevPage:      []string{"Page_Up", "KP_Page_Up", "minus"},
			NextPage:      []string{"Page_Down", "KP_Page_Down", "equal"},
			PrevCandidate: []string{"Up", "Left"},
			NextCandidate: []string{"Down", "Right"},
		},
		Punctuation: PunctuationConfig{
			Enabled: true,
		},
		QuickPhrase: QuickPhraseConfig{
			Enabled:       true,
			Trigger:       ";",
			PhrasePath:    filepath.Join(PlatformConfigDir(), "quickphrase.txt"),
			MaxCandidates: 10,
		},
		History: HistoryConfig{
			Enabled:       false,
			Path:          filepath.Join(dir, "history.db"),
			RetentionDays: 90,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   filepath.Join(PlatformLogDir(), "quwei.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
			Compress:   true,
		},
		IBus: IBusConfig{
			BusName:    "org.freedesktop.IBus.Quwei",
			EngineName: "quwei",
			LockPath:   filepath.Join(PlatformRuntimeDir(), "quwei-ibus.lock"),
		},
	}
}

// ConfigPath returns the configuration file to use: $QUWEI_CONFIG, else an
// existing config.{toml,json,yaml,yml} in the platform config directory,
// else config.toml there.
func ConfigPath() string {
	if v := os.Getenv("QUWEI_CONFIG"); v != "" {
		return v
	}
	dir := PlatformConfigDir()
	if path := findConfigFile(dir); path != "" {
		return path
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the configured files live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Logging.FilePath),
		filepath.Dir(c.IBus.LockPath),
	}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// QuweiDir returns the base data directory.
// Uses platform-specific paths or the QUWEI_DATA_DIR environment override.
func QuweiDir() string {
	if envDir := os.Getenv("QUWEI_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with QUWEI_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("QUWEI_LOCALE"); v != "" {
		c.Engine.Locale = v
	}

	if v := os.Getenv("QUWEI_PUNCTUATION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Punctuation.Enabled = b
		}
	}

	if v := os.Getenv("QUWEI_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.History.Enabled = b
		}
	}
	if v := os.Getenv("QUWEI_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}

	if v := os.Getenv("QUWEI_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("QUWEI_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}

	if v := os.Getenv("QUWEI_IBUS_ADDRESS"); v != "" {
		c.IBus.Address = v
	}

	if v := os.Getenv("QUWEI_METRICS_LISTEN"); v != "" {
		c.Metrics.Listen = v
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Config{
		Version:     c.Version,
		Engine:      c.Engine,
		Keys:        c.Keys,
		Punctuation: c.Punctuation,
		QuickPhrase: c.QuickPhrase,
		History:     c.History,
		Logging:     c.Logging,
		IBus:        c.IBus,
		Metrics:     c.Metrics,
	}

	clone.Keys.PrevPage = append([]string{}, c.Keys.PrevPage...)
	clone.Keys.NextPage = append([]string{}, c.Keys.NextPage...)
	clone.Keys.PrevCandidate = append([]string{}, c.Keys.PrevCandidate...)
	clone.Keys.NextCandidate = append([]string{}, c.Keys.NextCandidate...)

	return clone
}

// TriggerRune returns the quick phrase trigger, or 0 when quick phrase is off.
func (c *Config) TriggerRune() rune {
	if !c.QuickPhrase.Enabled {
		return 0
	}
	for _, r := range c.QuickPhrase.Trigger {
		return r
	}
	return 0
}

// Encode writes the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "# quwei configuration\n# Version %d\n\n", c.Version)
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return nil, fmt.Errorf("encode TOML: %w", err)
	}
	return []byte(b.String()), nil
}
