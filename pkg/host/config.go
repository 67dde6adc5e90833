package host

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/exp/jsonrpc2"
	"sigs.k8s.io/yaml"
)

// Config describes how to reach the host. An empty Command means the
// extension was spawned by the host and the channel is on stdin/stdout.
type Config struct {
	// Command is the host broker executable to spawn, if any.
	Command string `json:"command,omitempty"`

	// Args are passed to the broker command.
	Args []string `json:"args,omitempty"`

	// Env contains extra environment variables for the broker process, on
	// top of the current environment.
	Env map[string]string `json:"env,omitempty"`
}

// LoadConfig reads a connection config from a file. The file can be in JSON
// or YAML format.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses connection config data from bytes.
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	// sigs.k8s.io/yaml can handle both JSON and YAML
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// ConfigFromEnv builds a connection config from HOSTBRIDGE_* environment
// variables: HOSTBRIDGE_COMMAND, HOSTBRIDGE_ARGS (comma separated),
// HOSTBRIDGE_ENV (key:value pairs).
func ConfigFromEnv() (*Config, error) {
	var ec struct {
		Command string            `envconfig:"COMMAND"`
		Args    []string          `envconfig:"ARGS"`
		Env     map[string]string `envconfig:"ENV"`
	}

	if err := envconfig.Process("HOSTBRIDGE", &ec); err != nil {
		return nil, fmt.Errorf("failed to read environment config: %w", err)
	}

	return &Config{
		Command: ec.Command,
		Args:    ec.Args,
		Env:     ec.Env,
	}, nil
}

// Dialer returns the transport the config describes: a spawned broker when
// Command is set, otherwise the extension's own stdio.
func (c *Config) Dialer() jsonrpc2.Dialer {
	if c.Command == "" {
		return StdioDialer()
	}

	cmd := exec.Command(c.Command, c.Args...)
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	return CommandDialer(cmd)
}
