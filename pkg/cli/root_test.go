package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectOptions_ResolveConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "broker.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("command: /from/file\nargs: [--a]\n"), 0o644))

	tt := map[string]struct {
		opts          connectOptions
		env           string
		expectCommand string
		expectArgs    []string
	}{
		"flag wins over config file": {
			opts:          connectOptions{broker: "/from/flag", brokerArgs: []string{"--b"}, configFile: configFile},
			expectCommand: "/from/flag",
			expectArgs:    []string{"--b"},
		},
		"config file used when no flag": {
			opts:          connectOptions{configFile: configFile},
			expectCommand: "/from/file",
			expectArgs:    []string{"--a"},
		},
		"environment used when nothing else": {
			opts:          connectOptions{},
			env:           "/from/env",
			expectCommand: "/from/env",
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			if tc.env != "" {
				t.Setenv("HOSTBRIDGE_COMMAND", tc.env)
			}

			cfg, err := tc.opts.resolveConfig()
			require.NoError(t, err)
			assert.Equal(t, tc.expectCommand, cfg.Command)
			if tc.expectArgs != nil {
				assert.Equal(t, tc.expectArgs, cfg.Args)
			}
		})
	}
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	expected := []string{"describe", "ports", "discover", "exec", "snapshot"}
	for _, name := range expected {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
