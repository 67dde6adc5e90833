package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/hostbridge/hostbridge/pkg/host"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root hostbridge command
func NewRootCmd() *cobra.Command {
	opts := &connectOptions{}

	rootCmd := &cobra.Command{
		Use:   "hostbridge",
		Short: "Diagnostic client for an editor-host command broker",
		Long: `hostbridge spawns a host broker binary and exercises its command boundary:
host capabilities, serial ports, device discovery, SSH command execution.

The broker is taken from --broker, from a config file (--config), or from
HOSTBRIDGE_* environment variables, in that order of precedence.`,
	}

	rootCmd.PersistentFlags().StringVar(&opts.broker, "broker", "", "Host broker executable to spawn")
	rootCmd.PersistentFlags().StringArrayVar(&opts.brokerArgs, "broker-arg", nil, "Argument for the broker executable (repeatable)")
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Connection config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print host log notifications")

	// Add subcommands
	rootCmd.AddCommand(NewDescribeCmd(opts))
	rootCmd.AddCommand(NewPortsCmd(opts))
	rootCmd.AddCommand(NewDiscoverCmd(opts))
	rootCmd.AddCommand(NewExecCmd(opts))
	rootCmd.AddCommand(NewSnapshotCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

type connectOptions struct {
	broker     string
	brokerArgs []string
	configFile string
	verbose    bool
}

// connect resolves the broker configuration and opens the command channel.
func (o *connectOptions) connect(ctx context.Context) (*host.Client, error) {
	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Command == "" {
		return nil, fmt.Errorf("no host broker configured: pass --broker, --config, or set HOSTBRIDGE_COMMAND")
	}

	clientOpts := host.Options{
		Name:    "hostbridge-cli",
		Version: "1.0.0",
		Dialer:  cfg.Dialer(),
	}
	if o.verbose {
		dim := color.New(color.Faint)
		clientOpts.LogHandler = func(level, message string, data map[string]any) {
			dim.Printf("host %s: %s %v\n", level, message, data)
		}
	}

	client, err := host.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to host broker: %w", err)
	}

	return client, nil
}

func (o *connectOptions) resolveConfig() (*host.Config, error) {
	var cfg *host.Config
	var err error

	if o.configFile != "" {
		cfg, err = host.LoadConfig(o.configFile)
	} else {
		cfg, err = host.ConfigFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if o.broker != "" {
		cfg.Command = o.broker
		cfg.Args = o.brokerArgs
	}

	return cfg, nil
}
