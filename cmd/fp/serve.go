package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flightpath/internal/config"
	"github.com/alfredjeanlab/flightpath/internal/events"
	"github.com/alfredjeanlab/flightpath/internal/export"
	"github.com/alfredjeanlab/flightpath/internal/lock"
	"github.com/alfredjeanlab/flightpath/internal/metrics"
	"github.com/alfredjeanlab/flightpath/internal/network"
	"github.com/alfredjeanlab/flightpath/internal/routing"
	"github.com/alfredjeanlab/flightpath/internal/server"
	"github.com/alfredjeanlab/flightpath/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the flightpath HTTP and gRPC servers",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create an API client.
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect to Postgres.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
		if err != nil {
			store.Close()
			return err
		}

		// Topology lock: shared through Redis when configured.
		var locker lock.Locker = lock.NewLocal()
		if cfg.RedisURL != "" {
			pool := lock.NewRedisPool(cfg.RedisURL)
			defer pool.Close()
			locker = lock.NewRedis(pool, cfg.RedisLockTTL)
			logger.Info("shared topology lock enabled", "redis_url", cfg.RedisURL, "ttl", cfg.RedisLockTTL)
		}

		assemblerOpts := []network.Option{
			network.WithLocker(locker),
			network.WithRetries(cfg.SynthRetries),
			network.WithMetrics(collector),
		}
		if cfg.SynthSeed != 0 {
			seed := uint64(cfg.SynthSeed)
			assemblerOpts = append(assemblerOpts, network.WithRand(rand.New(rand.NewPCG(seed, seed>>1))))
		}
		assembler := network.New(store, assemblerOpts...)

		// Events go to SSE clients and, when configured, to NATS.
		hub := server.NewSSEHub()
		publisher := events.MultiPublisher{hub}
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = append(publisher, pub)
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("NATS events disabled (FP_NATS_URL not set)")
		}

		routes := routing.NewService(store, assembler,
			routing.WithPublisher(publisher),
			routing.WithMetrics(collector),
			routing.WithMaxNodes(cfg.MaxNodes),
		)
		srv := server.New(store, routes, hub, collector)

		var auth server.Authenticator
		switch {
		case cfg.JWTSecret != "":
			auth = server.NewJWTAuthenticator(cfg.JWTSecret)
			logger.Info("JWT authentication enabled")
		case cfg.AuthToken != "":
			auth = server.TokenAuthenticator{Token: cfg.AuthToken}
			logger.Info("token authentication enabled")
		default:
			auth = server.TokenAuthenticator{}
			logger.Warn("authentication disabled (FP_AUTH_TOKEN and FP_JWT_SECRET not set)")
		}

		// Start gRPC listener.
		grpcServer, healthServer := server.NewGRPCServer()
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			publisher.Close()
			store.Close()
			return err
		}

		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		// Start HTTP server.
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(auth),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start export scheduler if any destinations are configured.
		var scheduler *export.Scheduler
		if cfg.ExportInterval > 0 {
			var dests []export.Destination

			if cfg.ExportS3Bucket != "" {
				s3Dest, err := export.NewS3Destination(
					context.Background(),
					cfg.ExportS3Bucket,
					cfg.ExportS3Key,
					cfg.ExportS3Region,
					cfg.ExportS3Endpoint,
				)
				if err != nil {
					logger.Error("failed to create S3 export destination", "err", err)
				} else {
					dests = append(dests, s3Dest)
					logger.Info("export S3 destination enabled", "bucket", cfg.ExportS3Bucket, "key", cfg.ExportS3Key)
				}
			}

			if cfg.ExportFile != "" {
				dests = append(dests, &export.FileDestination{Path: cfg.ExportFile})
				logger.Info("export file destination enabled", "path", cfg.ExportFile)
			}

			if len(dests) > 0 {
				scheduler = export.NewScheduler(store, dests, cfg.ExportInterval, logger)
				scheduler.Start()
				logger.Info("export scheduler started", "interval", cfg.ExportInterval)
			}
		}

		logger.Info("flightpath server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"max_nodes", cfg.MaxNodes,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		healthServer.Shutdown()
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
