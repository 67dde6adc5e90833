package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	tt := map[string]struct {
		data          string
		expectCommand string
		expectArgs    []string
		expectErr     bool
	}{
		"yaml config": {
			data:          "command: /usr/bin/host-broker\nargs:\n  - --debug\n",
			expectCommand: "/usr/bin/host-broker",
			expectArgs:    []string{"--debug"},
		},
		"json config": {
			data:          `{"command": "broker", "env": {"LOG": "1"}}`,
			expectCommand: "broker",
		},
		"empty config": {
			data: "",
		},
		"malformed": {
			data:      "command: [",
			expectErr: true,
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tc.data))
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectCommand, cfg.Command)
			assert.Equal(t, tc.expectArgs, cfg.Args)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("HOSTBRIDGE_COMMAND", "/opt/broker")
	t.Setenv("HOSTBRIDGE_ARGS", "--debug,--trace")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/opt/broker", cfg.Command)
	assert.Equal(t, []string{"--debug", "--trace"}, cfg.Args)
}

func TestConfig_Dialer(t *testing.T) {
	tt := map[string]struct {
		cfg         Config
		expectStdio bool
	}{
		"no command means stdio": {
			cfg:         Config{},
			expectStdio: true,
		},
		"command means spawned broker": {
			cfg: Config{Command: "broker"},
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			dialer := tc.cfg.Dialer()
			_, isStdio := dialer.(*stdioDialer)
			assert.Equal(t, tc.expectStdio, isStdio)
		})
	}
}
