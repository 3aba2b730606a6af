/*
Package config loads the TOML configuration shared by the pm CLI and the
autofill native-messaging host.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

const (
	appDirName     = "passautofill"
	configFileName = "config.toml"
	dbFileName     = "vault.db"
)

// Config holds the entire config structure.
type Config struct {
	Vault  VaultConfig  `toml:"vault"`
	Suffix SuffixConfig `toml:"suffix"`
	Log    LogConfig    `toml:"log"`
}

// VaultConfig locates the credential store.
type VaultConfig struct {
	// Dir holds vault.db.
	Dir string `toml:"dir"`
}

// SuffixConfig selects the public-suffix table.
type SuffixConfig struct {
	// ListPath points to a publicsuffix.org ".dat" file. Empty uses the
	// list compiled into golang.org/x/net/publicsuffix.
	ListPath       string `toml:"list_path"`
	IncludePrivate bool   `toml:"include_private"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Vault:  VaultConfig{Dir: "./dev-vault"},
		Suffix: SuffixConfig{IncludePrivate: true},
		Log:    LogConfig{Level: "info"},
	}
}

// DefaultPath returns [UserConfigDir]/passautofill/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, appDirName, configFileName), nil
}

// Load reads path on top of the defaults. A missing file is not an error:
// the defaults are returned as is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debugf("Config file %s not found, using built-in defaults", path)
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		log.Warnf("Ignoring unknown config key %q in %s", key.String(), path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	log.Debugf("Loaded config from %s", path)
	return cfg, nil
}

// Save writes cfg to path as TOML, creating the parent directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	if c.Vault.Dir == "" {
		return errors.New("vault.dir must not be empty")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LogLevel returns the configured level, falling back to info.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// DatabasePath returns the location of vault.db inside the vault directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Vault.Dir, dbFileName)
}
