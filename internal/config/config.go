// Package config loads harness-wide settings for faultline.
//
// Configuration is optional: with no file present the defaults are used.
// Files are YAML and decoded strictly, so typos in field names are
// rejected instead of silently ignored.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that points at the
// configuration file. The relaunch driver inherits the parent
// environment, so a child scenario run sees the same configuration as
// the orchestrator without extra plumbing.
const EnvConfigPath = "FAULTLINE_CONFIG"

// Default values applied for fields left unset.
const (
	DefaultNodeBinary    = "kvnoded"
	DefaultBaseRPCPort   = 18743
	DefaultTimeoutFactor = 1.0
)

// Config holds the harness settings shared by the orchestrator and the
// relaunched scenario runs.
type Config struct {
	// NodeBinary is the managed node daemon executable. Resolved via
	// PATH when not an absolute path.
	NodeBinary string `yaml:"node_binary"`

	// BaseRPCPort is the first port of the RPC port range. Node i
	// polls base+i; the wrong-port scenario deliberately redirects the
	// daemon to a port the harness is not polling.
	BaseRPCPort int `yaml:"base_rpc_port"`

	// TimeoutFactor scales the relaunch driver's wall-clock budget.
	// Useful on slow CI machines.
	TimeoutFactor float64 `yaml:"timeout_factor"`

	// LogRoot is the directory under which per-run log directories are
	// created. Defaults to the system temp directory.
	LogRoot string `yaml:"log_root"`
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	return &Config{
		NodeBinary:    DefaultNodeBinary,
		BaseRPCPort:   DefaultBaseRPCPort,
		TimeoutFactor: DefaultTimeoutFactor,
		LogRoot:       os.TempDir(),
	}
}

// Load reads and parses a configuration file. Unset fields fall back
// to their defaults. Unknown fields are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields (catches typos)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// FromEnv loads the file named by FAULTLINE_CONFIG, or the defaults
// when the variable is unset. An explicit path argument wins over the
// environment.
func FromEnv(explicitPath string) (*Config, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// RPCPort returns the RPC port assigned to node i.
func (c *Config) RPCPort(i int) int {
	return c.BaseRPCPort + i
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.NodeBinary == "" {
		return fmt.Errorf("node_binary is required")
	}
	if c.BaseRPCPort <= 0 || c.BaseRPCPort > 65535 {
		return fmt.Errorf("base_rpc_port %d out of range", c.BaseRPCPort)
	}
	if c.TimeoutFactor <= 0 {
		return fmt.Errorf("timeout_factor must be positive, got %v", c.TimeoutFactor)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.NodeBinary == "" {
		c.NodeBinary = DefaultNodeBinary
	}
	if c.BaseRPCPort == 0 {
		c.BaseRPCPort = DefaultBaseRPCPort
	}
	if c.TimeoutFactor == 0 {
		c.TimeoutFactor = DefaultTimeoutFactor
	}
	if c.LogRoot == "" {
		c.LogRoot = os.TempDir()
	}
}
