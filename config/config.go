// ABOUTME: Application configuration loaded from file, .env and BIZCRM_ environment variables
// ABOUTME: Paths default to XDG locations; Validate checks backend and policy names
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName   = "bizcrm"
	envPrefix = "BIZCRM"
)

// Storage backend names.
const (
	BackendSQLite    = "sqlite"
	BackendBadger    = "badger"
	BackendCharm     = "charm"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Backends lists every supported backend name.
var Backends = []string{BackendSQLite, BackendBadger, BackendCharm, BackendFirestore, BackendMemory}

// Config holds every setting the application reads at startup.
type Config struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`

	CharmHost     string `mapstructure:"charm_host"`
	CharmAutoSync bool   `mapstructure:"charm_auto_sync"`

	FirestoreProject    string `mapstructure:"firestore_project"`
	FirestoreCollection string `mapstructure:"firestore_collection"`

	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	RedirectPort       int    `mapstructure:"redirect_port"`

	Timezone    string `mapstructure:"timezone"`
	MergePolicy string `mapstructure:"merge_policy"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// DefaultPath returns the XDG config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// DefaultDataDir returns the XDG data directory for local stores.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("charm_host", "charm.2389.dev")
	v.SetDefault("charm_auto_sync", true)
	v.SetDefault("firestore_project", "")
	v.SetDefault("firestore_collection", "bizcrm")
	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("redirect_port", 8085)
	v.SetDefault("timezone", "")
	v.SetDefault("merge_policy", "provider_wins")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
}

// Load reads configuration. An empty path means the default location, which
// may be absent; an explicit path must exist. A .env file in the working
// directory is loaded first and never overrides variables already set.
// Google credentials also fall back to GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.
func Load(path string) (*Config, error) {
	cfg, _, err := load(path, path != "")
	return cfg, err
}

// LoadOrDefault is Load without the existence check. found reports whether
// the file was read; otherwise cfg holds defaults and environment overrides.
func LoadOrDefault(path string) (cfg *Config, found bool, err error) {
	return load(path, false)
}

func load(path string, mustExist bool) (*Config, bool, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("google_client_id", envPrefix+"_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("google_client_secret", envPrefix+"_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")

	if path == "" {
		path = DefaultPath()
	}
	found := true
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if mustExist || !errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		found = false
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, false, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, found, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !validBackend(c.Backend) {
		return fmt.Errorf("unknown backend %q (want one of %s)", c.Backend, strings.Join(Backends, ", "))
	}
	if c.Backend == BackendFirestore && c.FirestoreProject == "" {
		return fmt.Errorf("firestore backend requires firestore_project")
	}
	switch c.MergePolicy {
	case "", "provider_wins", "local_wins", "last_write_wins":
	default:
		return fmt.Errorf("unknown merge policy %q", c.MergePolicy)
	}
	if c.RedirectPort < 0 || c.RedirectPort > 65535 {
		return fmt.Errorf("invalid redirect port %d", c.RedirectPort)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func validBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// Location returns the zone calendar times are shown in; time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GoogleConfigured reports whether OAuth client credentials are present.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// SQLitePath is the database file used by the sqlite backend.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "bizcrm.db")
}

// BadgerDir is the directory used by the badger backend.
func (c *Config) BadgerDir() string {
	return filepath.Join(c.DataDir, "badger")
}

// TokenPath is the file holding the Google session.
func (c *Config) TokenPath() string {
	return filepath.Join(c.DataDir, "google-session.json")
}

// Save writes the configuration to path, creating parent directories. The
// format follows the file extension. Secrets are written as they are.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("backend", c.Backend)
	v.Set("data_dir", c.DataDir)
	v.Set("charm_host", c.CharmHost)
	v.Set("charm_auto_sync", c.CharmAutoSync)
	v.Set("firestore_project", c.FirestoreProject)
	v.Set("firestore_collection", c.FirestoreCollection)
	v.Set("google_client_id", c.GoogleClientID)
	v.Set("google_client_secret", c.GoogleClientSecret)
	v.Set("redirect_port", c.RedirectPort)
	v.Set("timezone", c.Timezone)
	v.Set("merge_policy", c.MergePolicy)
	v.Set("log_level", c.LogLevel)
	v.Set("log_file", c.LogFile)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}
