package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// reloadDebounce coalesces the burst of events editors produce on save.
const reloadDebounce = 100 * time.Millisecond

// Loader owns the configuration file of a running engine. It loads the
// file once, then watches it and hands every changed, valid revision to
// the OnChange callbacks. A revision that fails to parse or validate is
// reported on Errors and the previous configuration stays in effect.
type Loader struct {
	path     string
	debounce time.Duration

	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
	errs    chan error
}

// NewLoader returns a Loader for path, or for ConfigPath() when path is empty.
func NewLoader(path string) *Loader {
	if path == "" {
		path = ConfigPath()
	}
	return &Loader{
		path:     path,
		debounce: reloadDebounce,
		done:     make(chan struct{}),
		errs:     make(chan error, 1),
	}
}

// Path returns the watched file path.
func (l *Loader) Path() string {
	return l.path
}

// read parses the file, applies QUWEI_* overrides and validates the result.
// A missing file yields the defaults.
func (l *Loader) read() (*Config, error) {
	cfg, err := loadConfigFromFile(l.path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// Load reads the file and makes it the current configuration.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.read()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

// LoadOrCreate is Load, except that a missing file is first written with
// the defaults. created reports whether that happened.
func (l *Loader) LoadOrCreate() (cfg *Config, created bool, err error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if err := SaveConfig(DefaultConfig(), l.path); err != nil {
			return nil, false, fmt.Errorf("create default config: %w", err)
		}
		created = true
	}
	cfg, err = l.Load()
	if err != nil {
		return nil, false, err
	}
	return cfg, created, nil
}

// LoadOrCreate loads path, writing the defaults there first when the file
// does not exist.
func LoadOrCreate(path string) (*Config, bool, error) {
	return NewLoader(path).LoadOrCreate()
}

// Config returns the current configuration, nil before the first Load.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers cb for every applied revision.
func (l *Loader) OnChange(cb func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, cb)
}

// Errors returns reload and watcher errors. Errors are dropped while one
// is pending.
func (l *Loader) Errors() <-chan error {
	return l.errs
}

// Watch starts watching the file's directory, so that editors replacing
// the file by rename are followed.
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	l.watcher = watcher

	go l.watchLoop()
	return nil
}

func (l *Loader) watchLoop() {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-l.done:
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if !l.touches(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(l.debounce, l.reload)

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.sendErr(err)
		}
	}
}

func (l *Loader) touches(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(l.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// reload re-reads the file. Revisions equal to the current configuration,
// such as a save without edits, do not reach the callbacks.
func (l *Loader) reload() {
	next, err := l.read()
	if err != nil {
		l.sendErr(fmt.Errorf("reload config: %w", err))
		return
	}

	l.mu.Lock()
	if l.current != nil && reflect.DeepEqual(l.current, next) {
		l.mu.Unlock()
		return
	}
	l.current = next
	callbacks := append([]func(*Config){}, l.onChange...)
	l.mu.Unlock()

	for _, cb := range callbacks {
		cb(next)
	}
}

func (l *Loader) sendErr(err error) {
	select {
	case l.errs <- err:
	default:
	}
}

// Close stops watching. It is safe to call more than once.
func (l *Loader) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		if l.watcher != nil {
			err = l.watcher.Close()
		}
	})
	return err
}

// loadConfigFromFile reads and parses a config file based on its extension.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()

	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if err := autoDetectAndParse(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	return cfg, nil
}

// autoDetectAndParse attempts to parse the config in multiple formats.
func autoDetectAndParse(data []byte, cfg *Config) error {
	if _, err := toml.Decode(string(data), cfg); err == nil {
		return nil
	}
	if err := json.Unmarshal(data, cfg); err == nil {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err == nil {
		return nil
	}
	return fmt.Errorf("unable to parse config file (tried TOML, JSON, YAML)")
}

// SaveConfig saves the configuration to a file.
func SaveConfig(cfg *Config, path string) error {
	var data []byte
	var err error

	switch filepath.Ext(path) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = cfg.Encode()
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
