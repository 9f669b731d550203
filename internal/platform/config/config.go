package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "config.yaml"

	DefaultAPIBaseURL        = "http://localhost:8000"
	DefaultAPITimeout        = 15 * time.Second
	DefaultMinIdentityLength = 32

	EnvAPIBaseURL = "CAREPANION_API_BASE_URL"
	EnvLogLevel   = "CAREPANION_LOG_LEVEL"
)

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	MinIdentityLength      int  `yaml:"min_identity_length"`
	VerifyProfileOnRestore bool `yaml:"verify_profile_on_restore"`
}

type WalletConfig struct {
	DefaultProvider string `yaml:"default_provider"`
}

type PlayerConfig struct {
	// Command launches audio. Empty selects open or xdg-open.
	Command string `yaml:"command"`
}

type UIConfig struct {
	Theme string `yaml:"theme"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the merged result of defaults, <data-dir>/config.yaml and
// environment overrides. Paths are derived from DataDir and never read
// from the file.
type Config struct {
	DataDir            string `yaml:"-"`
	DBPath             string `yaml:"-"`
	CredentialsPath    string `yaml:"-"`
	LogPath            string `yaml:"-"`
	WalletManifestPath string `yaml:"-"`

	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Player  PlayerConfig  `yaml:"player"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`
}

func Default(dataDir string) Config {
	return Config{
		DataDir:            dataDir,
		DBPath:             filepath.Join(dataDir, "carepanion.db"),
		CredentialsPath:    filepath.Join(dataDir, "credentials.json"),
		LogPath:            filepath.Join(dataDir, "logs", "carepanion.log"),
		WalletManifestPath: filepath.Join(dataDir, "wallets", "wallets.yaml"),
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
			Timeout: DefaultAPITimeout,
		},
		Session: SessionConfig{
			MinIdentityLength:      DefaultMinIdentityLength,
			VerifyProfileOnRestore: true,
		},
		UI:  UIConfig{Theme: "mocha"},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultDataDir resolves the per-user data directory.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return ".carepanion"
	}
	return filepath.Join(base, "carepanion")
}

func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Default(dataDir)
	if err := cfg.loadFile(filepath.Join(dataDir, FileName)); err != nil {
		return Config{}, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBaseURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Session.MinIdentityLength < 1 {
		return fmt.Errorf("session.min_identity_length must be at least 1")
	}
	switch strings.ToLower(strings.TrimSpace(c.UI.Theme)) {
	case "", "mocha", "latte":
	default:
		return fmt.Errorf("ui.theme must be mocha or latte, got %q", c.UI.Theme)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Render returns the effective configuration as YAML.
func (c Config) Render() (string, error) {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(raw), nil
}
