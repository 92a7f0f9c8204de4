package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads a variant configuration from a YAML file
func LoadConfig(configPath string) (*Config, error) {
	var cfg Config
	if err := LoadConfigInto(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigInto loads config into the provided struct (out must be a pointer).
func LoadConfigInto(configPath string, out interface{}) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// LoadConfigFromDir loads configuration from a directory, merging all YAML files
// Files are loaded in alphabetical order, with later files overriding earlier ones
// This allows splitting config into multiple files (e.g., 00-base.yml, 10-payout.yaml)
func LoadConfigFromDir(configDir string) (*Config, error) {
	var cfg Config
	if err := LoadConfigFromDirInto(configDir, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigFromDirInto loads config from a directory into the provided struct (out must be a pointer).
// All YAML files in the directory are loaded and merged, with later files (alphabetically) overriding earlier ones.
func LoadConfigFromDirInto(configDir string, out interface{}) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read all YAML files in the directory
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return fmt.Errorf("failed to read config directory: %w", err)
	}

	var yamlFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			yamlFiles = append(yamlFiles, entry.Name())
		}
	}
	sort.Strings(yamlFiles)

	if len(yamlFiles) == 0 {
		return fmt.Errorf("no YAML files found in config directory: %s", configDir)
	}

	// Load each file, with later files overriding earlier ones
	for _, filename := range yamlFiles {
		filePath := filepath.Join(configDir, filename)
		v.SetConfigFile(filePath)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("failed to merge config from %s: %w", filename, err)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// LoadGameConfig loads game configuration with custom fields from a file or directory.
// The custom struct should embed game.Config with `mapstructure:",squash"`.
// configPath can be a single YAML file or a directory containing multiple YAML files.
func LoadGameConfig[T any](configPath string) (*T, error) {
	info, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config path: %w", err)
	}

	var customConfig T

	if info.IsDir() {
		if err := LoadConfigFromDirInto(configPath, &customConfig); err != nil {
			return nil, fmt.Errorf("failed to load config from directory: %w", err)
		}
	} else {
		if err := LoadConfigInto(configPath, &customConfig); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	return &customConfig, nil
}

// LoadVariant loads a variant from a file or directory, completes it from the
// registered variant with the same game code and validates the result.
func LoadVariant(configPath string, registry *Registry) (*Config, error) {
	cfg, err := LoadGameConfig[Config](configPath)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		registry = DefaultRegistry
	}
	if base, ok := registry.Get(cfg.GameCode); ok {
		cfg.ApplyDefaults(base)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid variant config: %w", err)
	}
	return cfg, nil
}
