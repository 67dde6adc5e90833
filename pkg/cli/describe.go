package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewDescribeCmd creates the describe command
func NewDescribeCmd(opts *connectOptions) *cobra.Command {
	var showSchemas bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the host manifest",
		Long:  `Connect to the host broker and print its manifest: name, version, and every command it dispatches.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			manifest := client.Manifest()

			bold := color.New(color.Bold)
			cyan := color.New(color.FgCyan)

			bold.Printf("%s %s", manifest.Name, manifest.Version)
			fmt.Printf(" (protocol %s)\n", manifest.ProtocolVersion)
			if manifest.Description != "" {
				fmt.Println(manifest.Description)
			}
			fmt.Println()

			names := make([]string, 0, len(manifest.Commands))
			for name := range manifest.Commands {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				command := manifest.Commands[name]
				cyan.Printf("  %s", name)
				if command.Description != "" {
					fmt.Printf("  %s", command.Description)
				}
				fmt.Println()

				if showSchemas {
					if _, err := command.ResolvedParams(); err != nil {
						return fmt.Errorf("command %s: %w", name, err)
					}
					data, err := json.MarshalIndent(&command.Params, "    ", "  ")
					if err != nil {
						return fmt.Errorf("command %s: %w", name, err)
					}
					fmt.Printf("    %s\n", data)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showSchemas, "schemas", false, "Print resolved parameter schemas")

	return cmd
}
