package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Filter base values
const (
	FilterBaseHeld    = "held"
	FilterBaseFetched = "fetched"
)

// DefaultEndpoint is the collection endpoint used when none is configured
const DefaultEndpoint = "http://localhost:3000/cars"

// Config represents the application configuration
type Config struct {
	Version        int            `toml:"version" yaml:"version"`
	Endpoint       string         `toml:"endpoint" yaml:"endpoint"`
	RequestTimeout Duration       `toml:"request_timeout" yaml:"request_timeout"` // zero means no timeout
	SequenceGuard  bool           `toml:"sequence_guard" yaml:"sequence_guard"`
	FilterBase     string         `toml:"filter_base" yaml:"filter_base"`
	UISettings     UISettings     `toml:"ui" yaml:"ui"`
	Server         ServerSettings `toml:"server" yaml:"server"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	Title        string   `toml:"title" yaml:"title"`
	ExtraFields  []string `toml:"extra_fields" yaml:"extra_fields"` // passthrough attributes shown per item
	ErrorDisplay Duration `toml:"error_display" yaml:"error_display"`
}

// ServerSettings configures the local collection endpoint
type ServerSettings struct {
	Addr    string   `toml:"addr" yaml:"addr"`
	Data    string   `toml:"data" yaml:"data"`
	Path    string   `toml:"path" yaml:"path"`
	Latency Duration `toml:"latency" yaml:"latency"`
	Fail    bool     `toml:"fail" yaml:"fail"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service rooted in the user config directory
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	return &configService{
		filePath: filepath.Join(configDir, "carlist", "config.toml"),
	}
}

// NewConfigServiceAt creates a config service for an explicit file
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// Path returns the file used by Load and Save
func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file, falling back to defaults
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path.
// Missing keys keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	switch formatOf(path) {
	case formatYAML:
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveToPath saves configuration to a specific path.
// Concurrent writers are serialized with a lock file next to the config.
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch formatOf(path) {
	case formatYAML:
		data, err = yaml.Marshal(config)
	default:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		err = enc.Encode(config)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock config file: %w", err)
	}
	defer lock.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	return nil
}

// Validate checks field values that cannot be expressed by types alone
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint: unsupported scheme %q", u.Scheme)
	}

	switch c.FilterBase {
	case FilterBaseHeld, FilterBaseFetched:
	default:
		return fmt.Errorf("filter_base: must be %q or %q, got %q", FilterBaseHeld, FilterBaseFetched, c.FilterBase)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout: must not be negative")
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:       1,
		Endpoint:      DefaultEndpoint,
		SequenceGuard: true,
		FilterBase:    FilterBaseHeld,
		UISettings: UISettings{
			Title:        "Recent listings",
			ExtraFields:  []string{},
			ErrorDisplay: Duration(2 * time.Second),
		},
		Server: ServerSettings{
			Addr: ":3000",
			Data: "cars.json",
			Path: "/cars",
		},
	}
}

type format int

const (
	formatTOML format = iota
	formatYAML
)

func formatOf(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatTOML
	}
}
