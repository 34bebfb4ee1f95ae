package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jongio/autoattach/attach"
	"github.com/jongio/autoattach/logutil"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the settings file name without extension.
	FileName = "autoattach"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "AUTOATTACH"

	// DefaultMetricsPort serves /metrics when metrics are enabled.
	DefaultMetricsPort = 9464

	// DefaultCommandFilter is the interpreter marker a command line must
	// contain before it is dispatched.
	DefaultCommandFilter = "pike"
)

// Backend names accepted for the "backend" key.
const (
	BackendCommand = "command"
	BackendNative  = "native"
)

// Attach modes accepted for "attach.mode".
const (
	AttachModeStdout  = "stdout"
	AttachModeCommand = "command"
)

// ErrInvalidConfig is returned when a loaded setting is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the decoded settings file.
type Config struct {
	Enabled       bool               `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Interval      time.Duration      `mapstructure:"interval" yaml:"interval" json:"interval"`
	Backend       string             `mapstructure:"backend" yaml:"backend" json:"backend"`
	CommandFilter string             `mapstructure:"commandFilter" yaml:"commandFilter" json:"commandFilter"`
	RootPID       int                `mapstructure:"rootPid" yaml:"rootPid" json:"rootPid"`
	ProbeRate     float64            `mapstructure:"probeRate" yaml:"probeRate" json:"probeRate"`
	Notify        bool               `mapstructure:"notify" yaml:"notify" json:"notify"`
	Debugger      attach.DebugConfig `mapstructure:"debugger" yaml:"debugger" json:"debugger"`
	Attach        AttachConfig       `mapstructure:"attach" yaml:"attach" json:"attach"`
	Metrics       MetricsConfig      `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	Log           LogConfig          `mapstructure:"log" yaml:"log" json:"log"`
	Breaker       BreakerConfig      `mapstructure:"breaker" yaml:"breaker" json:"breaker"`
}

// AttachConfig selects where attach requests go.
type AttachConfig struct {
	Mode    string        `mapstructure:"mode" yaml:"mode" json:"mode"`
	Command string        `mapstructure:"command" yaml:"command,omitempty" json:"command,omitempty"`
	Shell   string        `mapstructure:"shell" yaml:"shell,omitempty" json:"shell,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port" json:"port"`
}

// LogConfig controls log output.
type LogConfig struct {
	Debug  bool   `mapstructure:"debug" yaml:"debug" json:"debug"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty" json:"file,omitempty"`
}

// BreakerConfig controls the process enumeration circuit breaker.
type BreakerConfig struct {
	Failures int           `mapstructure:"failures" yaml:"failures" json:"failures"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// Default returns the settings used when no file is found.
func Default() Config {
	return Config{
		Enabled:       true,
		Interval:      1500 * time.Millisecond,
		Backend:       BackendCommand,
		CommandFilter: DefaultCommandFilter,
		Debugger: attach.DebugConfig{
			Type:    attach.DefaultType,
			Port:    attach.DefaultPort,
			Timeout: attach.DefaultTimeout,
		},
		Attach: AttachConfig{
			Mode:    AttachModeStdout,
			Timeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{Port: DefaultMetricsPort},
		Log:     LogConfig{Format: "text"},
		Breaker: BreakerConfig{Failures: 5, Timeout: 30 * time.Second},
	}
}

// Validate checks value ranges and enum keys.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, c.Interval)
	}
	switch c.Backend {
	case BackendCommand, BackendNative:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	switch c.Attach.Mode {
	case AttachModeStdout:
	case AttachModeCommand:
		if strings.TrimSpace(c.Attach.Command) == "" {
			return fmt.Errorf("%w: attach.command is required in command mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown attach mode %q", ErrInvalidConfig, c.Attach.Mode)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("%w: metrics.port %d out of range", ErrInvalidConfig, c.Metrics.Port)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.ProbeRate < 0 {
		return fmt.Errorf("%w: probeRate must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Store holds the current settings and reloads them when the file changes.
type Store struct {
	v   *viper.Viper
	log *logutil.ComponentLogger

	mu      sync.RWMutex
	current Config
}

// Load reads settings. An explicit path must exist; with an empty path the
// search directories are tried and a missing file yields Default().
func Load(path string) (*Store, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	s := &Store{v: v}
	cfg, err := s.decode()
	if err != nil {
		return nil, err
	}
	s.current = cfg
	return s, nil
}

// Config returns a copy of the current settings.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Path returns the settings file in use, or "" when running on defaults.
func (s *Store) Path() string {
	return s.v.ConfigFileUsed()
}

// Watch reloads the file on every change and calls onChange with the old and
// new settings. A file that no longer decodes or validates is logged and
// ignored; the previous settings stay in effect. Watch does nothing when no
// file was loaded.
func (s *Store) Watch(onChange func(old, updated Config)) {
	if s.Path() == "" {
		return
	}
	s.log = logutil.NewLogger("config")
	s.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := s.decode()
		if err != nil {
			s.log.Warn("ignoring config change", "file", e.Name, "error", err)
			return
		}

		s.mu.Lock()
		old := s.current
		s.current = cfg
		s.mu.Unlock()

		s.log.Debug("config reloaded", "file", e.Name, "op", e.Op.String())
		if onChange != nil {
			onChange(old, cfg)
		}
	})
	s.v.WatchConfig()
}

func (s *Store) decode() (Config, error) {
	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	// viper folds key case and splits keys on dots, both of which mangle
	// glob patterns, so the overrides map is read from the raw file.
	overrides, err := readPathOverrides(s.v.ConfigFileUsed())
	if err != nil {
		return Config{}, err
	}
	cfg.Debugger.SourceMapPathOverrides = overrides

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readPathOverrides(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var raw struct {
		Debugger struct {
			SourceMapPathOverrides map[string]string `yaml:"sourceMapPathOverrides" json:"sourceMapPathOverrides"`
		} `yaml:"debugger" json:"debugger"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return raw.Debugger.SourceMapPathOverrides, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("enabled", d.Enabled)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("commandFilter", d.CommandFilter)
	v.SetDefault("rootPid", d.RootPID)
	v.SetDefault("probeRate", d.ProbeRate)
	v.SetDefault("notify", d.Notify)

	v.SetDefault("debugger.type", d.Debugger.Type)
	v.SetDefault("debugger.port", d.Debugger.Port)
	v.SetDefault("debugger.timeout", d.Debugger.Timeout)
	v.SetDefault("debugger.sourceMaps", false)
	v.SetDefault("debugger.outFiles", []string{})
	v.SetDefault("debugger.smartStep", false)
	v.SetDefault("debugger.skipFiles", []string{})
	v.SetDefault("debugger.showAsyncStacks", false)
	v.SetDefault("debugger.trace", false)

	v.SetDefault("attach.mode", d.Attach.Mode)
	v.SetDefault("attach.command", d.Attach.Command)
	v.SetDefault("attach.shell", d.Attach.Shell)
	v.SetDefault("attach.timeout", d.Attach.Timeout)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.port", d.Metrics.Port)

	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("breaker.failures", d.Breaker.Failures)
	v.SetDefault("breaker.timeout", d.Breaker.Timeout)
}

func searchDirs() []string {
	dirs := []string{filepath.Join(".", "."+FileName)}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, FileName))
	}
	return dirs
}
