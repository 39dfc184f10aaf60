package main

import (
	"fmt"
	"io"
	"os"

	"github.com/danmuck/finalframe/internal/logging"
	"github.com/danmuck/finalframe/internal/observability"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

type app struct {
	logLevel string
	logger   zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ffctl",
		Short:         "Encode, decode and relay Final Frame packets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = observability.InitLogger("ffctl")
			if a.logLevel != "" {
				lvl, ok := logging.ParseLevel(a.logLevel)
				if !ok {
					return fmt.Errorf("unknown log level %q", a.logLevel)
				}
				zerolog.SetGlobalLevel(lvl)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace|debug|info|warn|error|off")

	root.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newSendCmd(a),
		newListenCmd(a),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show ffctl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "ffctl version %s\n", version)
			return nil
		},
	}
}

// readInput reads all of path, or of stdin when path is "" or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
