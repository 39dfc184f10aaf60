package main

import (
	"fmt"

	"github.com/danmuck/finalframe/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate feed config files",
	}

	var (
		kind   string
		output string
		force  bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a feed config template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(output, kind, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config to %s\n", kind, output)
			return nil
		},
	}
	initCmd.Flags().StringVar(&kind, "kind", "listen", "template kind: listen|multicast")
	initCmd.Flags().StringVar(&output, "output", "ffctl.toml", "output path")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a feed config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFeedConfig(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "validated config %q at %s\n", cfg.Name, args[0])
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
