package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/finalframe/internal/config"
	"github.com/danmuck/finalframe/internal/feed"
	"github.com/danmuck/finalframe/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newListenCmd(a *app) *cobra.Command {
	var (
		cfgPath     string
		addr        string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive Final Frame datagrams and expose reader counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultFeedConfig()
			if cfgPath != "" {
				var err error
				if cfg, err = config.LoadFeedConfig(cfgPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("addr") {
				cfg.ListenAddr = addr
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if err := config.ValidateFeedConfig(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runListen(ctx, cfg, a.logger)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "feed config file (TOML)")
	cmd.Flags().StringVar(&addr, "addr", "", "UDP listen address, overrides listen_addr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "HTTP metrics address, overrides metrics_addr (empty disables)")
	return cmd
}

func runListen(ctx context.Context, cfg config.FeedConfig, logger zerolog.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With().Str("feed", cfg.Name).Logger()

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewFrameMetrics(reg, cfg.Name)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	handler := func(payload []byte) {
		logger.Debug().Uint8("category", categoryOf(payload)).Int("payload_len", len(payload)).Msg("payload")
	}
	l := feed.NewListener(config.ListenerConfig(cfg), handler, metrics, logger)
	if err := l.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.Run(gctx)
	})

	if cfg.MetricsAddr != "" {
		gatherers := prometheus.Gatherers{reg, prometheus.DefaultGatherer}
		router := observability.NewRouter(cfg.Name, logger, gatherers, func() gin.H {
			s, datagrams := l.Stats()
			return gin.H{
				"datagrams":      datagrams,
				"frames_read":    s.FramesRead,
				"frames_dropped": s.FramesDropped,
			}
		})
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	s, datagrams := l.Stats()
	logger.Info().
		Uint64("datagrams", datagrams).
		Uint64("frames_read", s.FramesRead).
		Uint64("frames_dropped", s.FramesDropped).
		Uint64("filtered", s.Filtered).
		Msg("feed stopped")
	return err
}

func categoryOf(p []byte) uint8 {
	if len(p) == 0 {
		return 0
	}
	return p[0]
}
