package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/hostbridge/hostbridge/pkg/fsys"
	"github.com/hostbridge/hostbridge/pkg/host/protocol"
	"github.com/hostbridge/hostbridge/pkg/serial"
	"github.com/hostbridge/hostbridge/pkg/ssh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewPortsCmd creates the ports command
func NewPortsCmd(opts *connectOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports visible to the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			ports, err := serial.New(client).List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list ports: %w", err)
			}

			printPorts(ports)
			return nil
		},
	}
}

// NewDiscoverCmd creates the discover command
func NewDiscoverCmd(opts *connectOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Discover devices reachable from the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			devices, err := ssh.Discover(ctx, client)
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}

			printDevices(devices)
			return nil
		},
	}
}

// NewExecCmd creates the exec command
func NewExecCmd(opts *connectOptions) *cobra.Command {
	var (
		target   string
		port     int
		user     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "exec [command]",
		Short: "Run a command on a device over SSH",
		Long:  `Open an SSH connection through the host, run a single command, print its output, and close the connection.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			session := ssh.NewSession(client)
			if err := session.Open(ctx, target, port, user, password); err != nil {
				return fmt.Errorf("failed to open ssh connection: %w", err)
			}
			defer session.Close(ctx)

			output, err := session.Exec(ctx, args[0])
			if err != nil {
				return fmt.Errorf("exec failed: %w", err)
			}

			fmt.Print(output)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "host", "", "Device hostname or address (required)")
	cmd.Flags().IntVar(&port, "port", 22, "SSH port")
	cmd.Flags().StringVar(&user, "user", "", "SSH user (required)")
	cmd.Flags().StringVar(&password, "password", "", "SSH password")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// NewSnapshotCmd creates the snapshot command
func NewSnapshotCmd(opts *connectOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Gather platform, ports, volumes, and devices in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			var (
				platform string
				ports    []protocol.ComPort
				volumes  []protocol.Volume
				devices  []protocol.DeviceInfo
			)

			serialClient := serial.New(client)
			fsClient := fsys.New(client)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				platform, err = serialClient.Platform(gctx)
				return err
			})
			g.Go(func() error {
				var err error
				ports, err = serialClient.List(gctx)
				return err
			})
			g.Go(func() error {
				var err error
				volumes, err = fsClient.ListVolumes(gctx)
				return err
			})
			g.Go(func() error {
				var err error
				devices, err = ssh.Discover(gctx, client)
				return err
			})
			if err := g.Wait(); err != nil {
				return fmt.Errorf("snapshot failed: %w", err)
			}

			bold := color.New(color.Bold)

			bold.Println("Platform")
			fmt.Printf("  %s\n\n", platform)

			bold.Println("Serial ports")
			printPorts(ports)
			fmt.Println()

			bold.Println("Volumes")
			for _, v := range volumes {
				if v.Name != "" {
					fmt.Printf("  %s (%s)\n", v.Path, v.Name)
				} else {
					fmt.Printf("  %s\n", v.Path)
				}
			}
			fmt.Println()

			bold.Println("Devices")
			printDevices(devices)

			return nil
		},
	}
}

func printPorts(ports []protocol.ComPort) {
	if len(ports) == 0 {
		fmt.Println("  no serial ports")
		return
	}
	for _, p := range ports {
		fmt.Printf("  %s", p.Path)
		if p.Manufacturer != "" {
			fmt.Printf("  %s", p.Manufacturer)
		}
		if p.SerialNumber != "" {
			fmt.Printf("  sn=%s", p.SerialNumber)
		}
		fmt.Println()
	}
}

func printDevices(devices []protocol.DeviceInfo) {
	if len(devices) == 0 {
		fmt.Println("  no devices found")
		return
	}
	green := color.New(color.FgGreen)
	for _, d := range devices {
		green.Printf("  %s", d.ID)
		fmt.Printf("  %s", d.HardwareAddr)
		if d.IP != "" {
			fmt.Printf("  %s", d.IP)
		}
		if d.Hostname != "" {
			fmt.Printf("  %s", d.Hostname)
		}
		fmt.Println()
	}
}
