package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mcdev12/chooser/go/internal/config"
	"github.com/mcdev12/chooser/go/internal/touch/events"
	"github.com/mcdev12/chooser/go/internal/touch/gateway"
	"github.com/mcdev12/chooser/go/internal/touch/relay"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket gateway",
		Long:  "serve hosts chooser sessions over websockets, exposes the session REST API and, when NATS_URL is set, relays phase changes and outcomes to JetStream.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var relaySink events.Sink
	var relayHealth http.HandlerFunc
	if cfg.NATSURL != "" {
		jsCfg := relay.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATSURL

		publisher, err := relay.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			return fmt.Errorf("start event relay: %w", err)
		}
		defer publisher.Close()

		r := relay.New(publisher, relay.DefaultConfig())
		go r.Run(ctx)
		relaySink = r
		relayHealth = relay.HealthHandler(r, publisher)
	}

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.Session = cfg.SessionOptions()
	gatewayService := gateway.NewService(gatewayConfig, relaySink)

	handler := gatewayService.Handler()
	if relayHealth != nil {
		mux := http.NewServeMux()
		mux.Handle("/", handler)
		mux.HandleFunc("/health/relay", relayHealth)
		handler = mux
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("default_mode", string(cfg.DefaultMode)).
			Int("group_count", cfg.GroupCount).
			Dur("inactivity", cfg.Inactivity).
			Bool("relay", relaySink != nil).
			Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("chooser gateway shutdown complete")
	return nil
}
