package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/edge-filter/config"
	"github.com/angeloszaimis/edge-filter/internal/circuitbreaker"
	"github.com/angeloszaimis/edge-filter/internal/handler"
	"github.com/angeloszaimis/edge-filter/internal/httpserver"
	"github.com/angeloszaimis/edge-filter/internal/metrics"
	"github.com/angeloszaimis/edge-filter/internal/upstream"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the edge filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd.Flags(), map[string]string{
				"server.address":  "address",
				"metrics.address": "metrics-address",
				"logging.level":   "log-level",
			})
			if err != nil {
				return err
			}

			return serve(cmd.Context(), cfg, newLogger(cfg))
		},
	}

	cmd.Flags().String("address", "", "public listen address (host:port)")
	cmd.Flags().String("metrics-address", "", "admin listen address for /metrics, empty disables it")
	cmd.Flags().String("log-level", "", "debug, info, warn or error")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	collector.Start(ctx)

	breakers := newBreakers(cfg)
	fetcher := newFetcher(cfg, breakers)

	filterHandler := handler.NewFilterHandler(log, newFilter(cfg), fetcher, collector)

	servers, err := newServers(cfg, filterHandler, setupAdminRouter(collector, breakers))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		log.Info("Listening", slog.String("address", srv.Addr()))
		g.Go(srv.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")
		for _, srv := range servers {
			if err := srv.Shutdown(context.Background()); err != nil {
				log.Error("Error during shutdown",
					slog.String("address", srv.Addr()),
					slog.Any("err", err))
			}
		}
		return nil
	})

	return g.Wait()
}

// newServers returns the public server first, followed by the admin server
// when a metrics address is configured.
func newServers(cfg *config.Config, public, admin http.Handler) ([]*httpserver.Server, error) {
	srv, err := httpserver.New(cfg.Server.Address, public,
		httpserver.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout))
	if err != nil {
		return nil, err
	}

	servers := []*httpserver.Server{srv}

	if cfg.Metrics.Address != "" {
		adminSrv, err := httpserver.New(cfg.Metrics.Address, admin)
		if err != nil {
			return nil, err
		}
		servers = append(servers, adminSrv)
	}

	return servers, nil
}

func newBreakers(cfg *config.Config) *circuitbreaker.Registry {
	cb := cfg.Upstream.CircuitBreaker
	if !cb.Enabled {
		return nil
	}
	return circuitbreaker.NewRegistry(cb.Threshold, cb.ResetTimeout)
}

func newFetcher(cfg *config.Config, breakers *circuitbreaker.Registry) *upstream.Client {
	opts := []upstream.Option{upstream.WithTimeout(cfg.Upstream.Timeout)}
	if breakers != nil {
		opts = append(opts, upstream.WithBreakers(breakers))
	}
	return upstream.NewClient(opts...)
}
