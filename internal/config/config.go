package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultEndpoint   = "https://api.openai.com/v1/chat/completions"
	DefaultModel      = "gpt-4o-mini"
	DefaultTimeout    = 30 * time.Second
	DefaultLogDir     = "logs"
	DefaultListenAddr = "127.0.0.1:8787"

	// CredentialEnv is consulted when no credential is configured
	CredentialEnv = "OPENAI_API_KEY"
)

// Config holds application configuration
type Config struct {
	Credential string        `toml:"credential"`
	Model      string        `toml:"model"`
	Endpoint   string        `toml:"endpoint"`
	Timeout    time.Duration `toml:"timeout"` // Upper bound for a single completion request
	LogDir     string        `toml:"log_dir"`
	Debug      bool          `toml:"debug"`

	// Host bridge
	ListenAddr string `toml:"listen_addr"`
}

// Default returns a Config populated with defaults
func Default() Config {
	return Config{
		Model:      DefaultModel,
		Endpoint:   DefaultEndpoint,
		Timeout:    DefaultTimeout,
		LogDir:     DefaultLogDir,
		ListenAddr: DefaultListenAddr,
	}
}

// Load reads a TOML config file on top of the defaults. An empty path
// returns the defaults. The credential falls back to $OPENAI_API_KEY.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}

	if cfg.Credential == "" {
		cfg.Credential = os.Getenv(CredentialEnv)
	}

	return cfg, nil
}

// Validate checks the settings that have no sensible fallback
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
