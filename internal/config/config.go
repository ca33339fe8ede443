package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/cleancache/pkg/utils"
	"gopkg.in/yaml.v3"
)

// AppDirName is the per-user directory holding config, folder state and history
const AppDirName = "cleancache"

// Config represents the application configuration
type Config struct {
	MinFileSize    string         `yaml:"min_file_size"` // e.g. "1MB"; only larger files are deleted
	StateFile      string         `yaml:"state_file"`    // ini store for resolved folders
	ExtraFolders   []string       `yaml:"extra_folders"`
	ProtectedPaths []string       `yaml:"protected_paths"`
	Vendors        []VendorConfig `yaml:"vendors"`
	Commands       CommandsConfig `yaml:"commands"`
	DryRun         bool           `yaml:"dry_run"`
	Verbose        bool           `yaml:"verbose"`
	LogFile        string         `yaml:"log_file"`
	LogLevel       string         `yaml:"log_level"`
	Daemon         *DaemonConfig  `yaml:"daemon,omitempty"`
}

// VendorConfig describes a vendor whose applications install side-by-side
// versioned folders and keep per-application temp folders in the roaming profile.
type VendorConfig struct {
	Name           string   `yaml:"name"`
	InstallRoot    string   `yaml:"install_root"` // defaults to <ProgramFiles>/<Name>
	Apps           []string `yaml:"apps"`
	TempApps       []string `yaml:"temp_apps"`
	LauncherConfig string   `yaml:"launcher_config"` // relative to each app folder
	RegistryKey    string   `yaml:"registry_key"`    // HKLM key; app name is appended
}

// CommandsConfig controls the OS-level cleanup commands run alongside deletion
type CommandsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	List         []string      `yaml:"list"`          // empty uses the platform defaults
	PurgeFolders []string      `yaml:"purge_folders"` // removed entirely, folder included
	Timeout      time.Duration `yaml:"timeout"`
}

// DaemonConfig holds scheduled-run configuration
type DaemonConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Schedule    string `yaml:"schedule"` // cron expression or descriptor
	PidFile     string `yaml:"pid_file"`
	HistoryFile string `yaml:"history_file"`
	RunOnStart  bool   `yaml:"run_on_start"`
}

// Load loads configuration from a file
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := c.MinFileSizeBytes(); err != nil {
		return fmt.Errorf("invalid min_file_size: %w", err)
	}

	for _, path := range c.ExtraFolders {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("extra folder must be absolute: %s", path)
		}
	}

	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	for _, v := range c.Vendors {
		if v.Name == "" {
			return fmt.Errorf("vendor entry is missing a name")
		}
		if v.InstallRoot != "" && !filepath.IsAbs(v.InstallRoot) {
			return fmt.Errorf("vendor %s install_root must be absolute: %s", v.Name, v.InstallRoot)
		}
	}

	for _, path := range c.Commands.PurgeFolders {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("purge folder must be absolute: %s", path)
		}
	}

	if c.Commands.Timeout < 0 {
		return fmt.Errorf("commands timeout must be >= 0")
	}

	if c.Daemon != nil && c.Daemon.Enabled && c.Daemon.Schedule == "" {
		return fmt.Errorf("daemon is enabled but has no schedule")
	}

	return nil
}

// MinFileSizeBytes parses MinFileSize. An empty value means no filter.
func (c *Config) MinFileSizeBytes() (int64, error) {
	if c.MinFileSize == "" {
		return 0, nil
	}
	return utils.ParseSize(c.MinFileSize)
}

// StatePath returns the ini store path, falling back to the per-user default
func (c *Config) StatePath() (string, error) {
	if c.StateFile != "" {
		return c.StateFile, nil
	}
	dir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "User.ini"), nil
}

// HistoryPath returns where scheduled-run summaries are appended
func (c *Config) HistoryPath() (string, error) {
	if c.Daemon != nil && c.Daemon.HistoryFile != "" {
		return c.Daemon.HistoryFile, nil
	}
	dir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "Log", "output.txt"), nil
}

// GetAppDir returns the per-user application directory
func GetAppDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppDirName), nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	dir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// SaveExample writes the commented example configuration to configPath
func SaveExample(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
