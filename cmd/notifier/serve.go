package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	jwtinfra "github.com/go-band-notify/internal/infrastructure/jwt"
	"github.com/go-band-notify/internal/infrastructure/metrics"
	"github.com/go-band-notify/internal/scheduler"
	transporthttp "github.com/go-band-notify/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when enabled, the in-process scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	cfg, log := c.cfg, c.log

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	defer a.Close()

	// The verifier is optional so the service can start without keys in
	// development; authenticated routes then answer 401.
	var verifier *jwtinfra.Verifier
	if v, err := jwtinfra.NewVerifier(cfg.JWTPublicKeyPath); err == nil {
		verifier = v
	} else {
		log.Warn("JWT verifier not available", "err", err)
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Devices:       a.devices,
		Notifications: a.notifications,
		Preferences:   a.preferences,
		Publisher:     a.writer,
		Cycles:        a.worker,
		Verifier:      verifier,
		Metrics:       metrics.Handler(reg),
	})
	defer router.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Delivery.CycleTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if cfg.SchedulerEnabled {
		g.Go(func() error {
			return scheduler.New(a.clock, cfg.Delivery.Interval, a.worker, log).Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
