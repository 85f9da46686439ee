package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/admin"
	"github.com/TaciturnJian/bytecomm/internal/auth"
	"github.com/TaciturnJian/bytecomm/internal/config"
	"github.com/TaciturnJian/bytecomm/internal/observability"
	"github.com/TaciturnJian/bytecomm/internal/session"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	configPath string
	count      int
	noAdmin    bool
	poll       time.Duration
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the echo relay on the configured transport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "bytecomm.toml", "config file (.toml, .yaml or .yml)")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "stop after echoing this many messages (0 = run until interrupted)")
	cmd.Flags().BoolVar(&opts.noAdmin, "no-admin", false, "do not start the admin HTTP server")
	cmd.Flags().DurationVar(&opts.poll, "poll", 100*time.Millisecond, "inbox poll interval")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, opts serveOptions) error {
	observability.InitLogger(cfg.Name)

	sessionCfg, err := config.SessionConfig(cfg)
	if err != nil {
		return err
	}
	verifier, err := config.Verifier(cfg)
	if err != nil {
		return err
	}
	provider, err := config.NewProvider(cfg.Transport)
	if err != nil {
		return err
	}
	link, err := session.NewLink(sessionCfg, verifier, provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	adminErr := make(chan error, 1)
	if !opts.noAdmin && cfg.Admin.ListenAddr != "" {
		srv := admin.New(cfg.Name, cfg.Admin.ListenAddr, cfg.Admin.CorsOrigins, link)
		srv.Version = version
		if cfg.Admin.Token != "" {
			srv.Guard = auth.StaticToken{Token: cfg.Admin.Token}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Serve(ctx); err != nil {
				adminErr <- err
				link.Stop()
			}
		}()
	}

	relayDone := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(relayDone)
		n, err := echo(ctx, link, opts.count, opts.poll)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("bytecommctl echo failed")
		}
		log.Info().Int("echoed", n).Msg("bytecommctl echo finished")
		link.Stop()
	}()

	log.Info().
		Str("name", cfg.Name).
		Str("kind", cfg.Transport.Kind).
		Int("data_size", cfg.DataSize).
		Str("verifier", cfg.Verifier).
		Msg("bytecommctl serve starting")
	runErr := link.Run(ctx)

	// The link can also end on its own (strict provider policy); release the relay.
	cancel()
	<-relayDone
	wg.Wait()

	select {
	case err := <-adminErr:
		return err
	default:
	}
	return runErr
}
