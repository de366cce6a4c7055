// config.go: This file contains the configuration for the regbot application.
// It defines the settings struct and functions to load and save the settings.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// UpstreamSettings contains credentials and endpoints for the members API.
type UpstreamSettings struct {
	AuthURL      string // OAuth token endpoint
	APIURL       string // data API base URL
	ClientID     string // OAuth client id
	ClientSecret string // OAuth client secret, masked before transmission
	Username     string // member account username
	Password     string // member account password, masked before transmission
	Timeout      int    // HTTP timeout in seconds
	CacheTTL     int    // catalog endpoint response cache TTL in minutes
}

// WatcherSettings contains settings for the race guide poll loop.
type WatcherSettings struct {
	PollInterval int // seconds between race guide polls
	BackoffFloor int // initial retry backoff in seconds
	BackoffCap   int // maximum retry backoff in seconds
}

// NotifySettings contains settings for outbound notification delivery.
type NotifySettings struct {
	PayloadLimit int               // maximum characters per outbound message
	Timeout      int               // per-send timeout in seconds
	Destinations map[string]string // destination id to shoutrrr service URL
}

// SQLiteSettings contains settings for the SQLite store.
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite
	Path    string // path to the SQLite database file
}

// MySQLSettings contains settings for the MySQL store.
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL host
	Port     string // MySQL port
}

// OutputSettings selects the persistent store backend.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// TelemetrySettings contains settings for the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to expose Prometheus metrics
	Listen  string // listen address and port of telemetry endpoint
}

// Settings is the top level configuration for the application.
type Settings struct {
	Debug bool // true to enable debug logging

	Upstream  UpstreamSettings
	Watcher   WatcherSettings
	Notify    NotifySettings
	Output    OutputSettings
	Telemetry TelemetrySettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	for _, path := range configPaths() {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("regbot")
	viper.AutomaticEnv()

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file is fine, defaults plus environment apply
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// configPaths returns the search paths for the config file.
func configPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "regbot"))
	}
	return paths
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveYAMLConfig writes the settings to the given path as YAML. The write is
// staged through a temporary file so a crash cannot truncate the config.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, yamlData, 0o644); err != nil {
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
