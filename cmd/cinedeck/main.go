package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cinedeck/cinedeck/internal/api"
	"github.com/cinedeck/cinedeck/internal/backend"
	"github.com/cinedeck/cinedeck/internal/backend/movies"
	"github.com/cinedeck/cinedeck/internal/backend/people"
	"github.com/cinedeck/cinedeck/internal/backend/users"
	"github.com/cinedeck/cinedeck/internal/config"
	"github.com/cinedeck/cinedeck/internal/endpoint"
	"github.com/cinedeck/cinedeck/internal/enrich"
	"github.com/cinedeck/cinedeck/internal/health"
	"github.com/cinedeck/cinedeck/internal/logger"
	"github.com/cinedeck/cinedeck/internal/scheduler"
	"github.com/cinedeck/cinedeck/internal/scheduler/tasks"
	"github.com/cinedeck/cinedeck/internal/view"
	"github.com/cinedeck/cinedeck/internal/websocket"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")
	flag.Parse()

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "cinedeck: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting Cinedeck")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := endpoint.New(cfg.Services.EndpointOptions())
	client, err := backend.NewClient(backend.Config{
		ForwardOrigin: cfg.Services.ForwardOrigin,
		Timeout:       cfg.Services.Timeout,
	}, resolver, log.Logger)
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	for _, svc := range endpoint.Services {
		ev := log.Info().Str("service", string(svc))
		if resolver.Direct(svc) {
			ev.Str("mode", "direct").Str("base", resolver.Base(svc))
		} else {
			ev.Str("mode", "forwarded").Str("origin", client.ForwardOrigin())
		}
		ev.Msg("Service endpoint")
	}

	titles := movies.NewClient(client, log.Logger)
	persons := people.NewClient(client, log.Logger)
	deps := view.Deps{
		Titles: titles,
		People: persons,
		Users:  users.NewClient(client, log.Logger),
		Engine: enrich.NewEngine(persons, titles, enrich.Config{
			MaxConcurrency: cfg.Services.MaxConcurrency,
		}, log.Logger),
		Classifier:    view.NewClassifier(client.Resolver(), client.ForwardOrigin()),
		ProfileUserID: cfg.Profile.UserID,
		Logger:        log.Component("view"),
	}

	hub := websocket.NewHub(deps, log.Logger)
	go hub.Run(ctx)

	urls := make(map[endpoint.Service]string, len(endpoint.Services))
	for _, svc := range endpoint.Services {
		urls[svc] = client.URL(svc, "/", nil)
	}
	healthSvc := health.NewService(urls, log.Logger)
	healthSvc.SetBroadcaster(hub)
	prober := health.NewProber(healthSvc, health.DefaultChecks(client, cfg.Profile.UserID), health.DefaultRetryConfig(), log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		return err
	}
	if err := tasks.RegisterUpstreamProbeTask(sched, prober, cfg.Health, log.Logger); err != nil {
		return fmt.Errorf("register upstream probe: %w", err)
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Warn().Err(err).Msg("scheduler stop error")
		}
	}()

	server := api.NewServer(cfg, api.Services{
		Pages:     deps,
		Catalogue: deps,
		Hub:       hub,
		Health:    healthSvc,
		Prober:    prober,
		Scheduler: sched,
		Logs:      log,
	}, log.Logger)

	server.StartCleanup(ctx, 5*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}
