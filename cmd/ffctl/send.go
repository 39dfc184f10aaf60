package main

import (
	"fmt"

	"github.com/danmuck/finalframe/internal/feed"
	"github.com/spf13/cobra"
)

func newSendCmd(a *app) *cobra.Command {
	var (
		cfg feed.SenderConfig
		in  string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Encode the input and send it as one frame over UDP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Addr == "" {
				return fmt.Errorf("--addr is required")
			}
			payload, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			s, err := feed.Dial(cfg)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Send(payload); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			a.logger.Info().Str("addr", cfg.Addr).Int("payload_len", len(payload)).Msg("frame sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", "", "destination host:port")
	cmd.Flags().IntVar(&cfg.MulticastTTL, "ttl", 0, "multicast TTL (0 keeps the system default)")
	cmd.Flags().StringVar(&in, "in", "", "payload file (default stdin)")
	return cmd
}
