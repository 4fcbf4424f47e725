package config

import (
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/blockedit/internal/config/loader"
)

// DefaultEnvPrefix is the prefix of environment overrides.
const DefaultEnvPrefix = "BLOCKEDIT_"

// maxIncludeDepth limits nested includes.
const maxIncludeDepth = 8

// Storage backend names.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config is the complete blockedit configuration.
type Config struct {
	Editor  Editor  `toml:"editor"`
	Storage Storage `toml:"storage"`
	Keymap  Keymap  `toml:"keymap"`
	Logging Logging `toml:"logging"`
	Server  Server  `toml:"server"`
}

// Editor configures editor instances.
type Editor struct {
	// HistorySize caps the undo stack.
	HistorySize int `toml:"historySize"`
	// AutoSaveDelay is the quiet period before an automatic save. Zero
	// disables automatic saving.
	AutoSaveDelay Duration `toml:"autoSaveDelay"`
	// Platform selects the primary modifier ("darwin" uses Meta). Empty
	// means the host platform.
	Platform string `toml:"platform"`
}

// Storage selects and configures the document store.
type Storage struct {
	Backend    string `toml:"backend"`
	Path       string `toml:"path"`
	URL        string `toml:"url"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	Prefix     string `toml:"prefix"`
}

// Keymap configures user key bindings.
type Keymap struct {
	// File is a JSON or YAML keymap layered over the defaults.
	File string `toml:"file"`
	// Watch reloads File when it changes.
	Watch bool `toml:"watch"`
}

// Logging configures the zap logger.
type Logging struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Server configures the HTTP host.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Editor: Editor{
			HistorySize:   100,
			AutoSaveDelay: Duration(time.Second),
		},
		Storage: Storage{
			Backend:    BackendMemory,
			Path:       "blockedit.db",
			Database:   "blockedit",
			Collection: "documents",
			Prefix:     "blockedit",
		},
		Logging: Logging{Level: "info"},
		Server:  Server{Addr: ":8080"},
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	file      string
	fs        fs.FS
	envPrefix string
	env       bool
}

// WithFile layers a TOML file over the defaults. A missing file is not an
// error.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithFileSystem reads config files from fsys.
func WithFileSystem(fsys fs.FS) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithoutEnv skips environment overrides.
func WithoutEnv() Option {
	return func(o *options) {
		o.env = false
	}
}

// Load builds the configuration from defaults, the config file and the
// environment, in increasing priority, and validates the result.
func Load(opts ...Option) (Config, error) {
	o := options{fs: loader.OS{}, envPrefix: DefaultEnvPrefix, env: true}
	for _, opt := range opts {
		opt(&o)
	}

	defaults, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}
	merged := defaults

	source := "defaults"
	if o.file != "" {
		fileConfig, err := loader.ReadTOML(o.fs, o.file, maxIncludeDepth)
		if err != nil {
			return Config{}, err
		}
		merged = loader.Merge(merged, fileConfig)
		source = o.file
	}

	if o.env {
		typed, err := typeEnv(defaults, loader.NewEnv(o.envPrefix).Read())
		if err != nil {
			return Config{}, err
		}
		merged = loader.Merge(merged, typed)
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return Config{}, loader.NewParseError(source, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that decode but cannot be used.
func (c Config) Validate() error {
	if c.Editor.HistorySize < 1 {
		return fmt.Errorf("%w: editor.historySize must be positive, got %d", ErrValidationFailed, c.Editor.HistorySize)
	}
	if c.Editor.AutoSaveDelay < 0 {
		return fmt.Errorf("%w: editor.autoSaveDelay must not be negative", ErrValidationFailed)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendBadger, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrValidationFailed, err)
	}
	return nil
}

func toMap(c Config) (map[string]any, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return m, nil
}

func fromMap(m map[string]any) (Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// typeEnv converts raw environment strings to the type of the default
// they override. Settings without a default stay strings.
func typeEnv(defaults, env map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(env))
	for section, v := range env {
		settings, ok := v.(map[string]any)
		if !ok {
			continue
		}
		known, _ := defaults[section].(map[string]any)
		typed := make(map[string]any, len(settings))
		for name, raw := range settings {
			s, _ := raw.(string)
			val, err := typeValue(known[name], s)
			if err != nil {
				return nil, &ParseError{
					Path:    "environment",
					Message: fmt.Sprintf("%s.%s: %v", section, name, err),
					Err:     err,
				}
			}
			typed[name] = val
		}
		out[section] = typed
	}
	return out, nil
}

func typeValue(def any, s string) (any, error) {
	switch def.(type) {
	case int64:
		return strconv.ParseInt(s, 10, 64)
	case bool:
		if s == "" {
			return false, nil
		}
		return strconv.ParseBool(s)
	case float64:
		return strconv.ParseFloat(s, 64)
	}
	return s, nil
}
