package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/fleetdesk/portal/internal/api"
	"github.com/fleetdesk/portal/internal/api/handler"
	"github.com/fleetdesk/portal/internal/backend"
	"github.com/fleetdesk/portal/internal/core/domain"
	"github.com/fleetdesk/portal/internal/core/service"
	mongoinfra "github.com/fleetdesk/portal/internal/infrastructure/db/mongo"
	redisinfra "github.com/fleetdesk/portal/internal/infrastructure/db/redis"
	"github.com/fleetdesk/portal/internal/infrastructure/queue"
	"github.com/fleetdesk/portal/internal/pkg/config"
	"github.com/fleetdesk/portal/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the portal HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := config.LoadFrom(ctx, envconfig.OsLookuper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "portal",
	})
	log.Info().Str("env", cfg.Env).Str("backend", cfg.Backend.BaseURL).Msg("starting portal")

	rdb, err := redisinfra.Connect(ctx, redisinfra.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	mongoClient, db, err := mongoinfra.Connect(ctx, mongoinfra.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongoinfra.Disconnect(mongoClient) }()

	auditRepo := mongoinfra.NewAuditRepository(db)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("audit indexes not ensured")
	}

	// Workers outlive the signal context so queued events are drained
	// after the server stops accepting requests.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, logger.Component("audit"))
	dispatcher.Start(workerCtx)

	client := backend.NewClient(backend.Config{
		BaseURL:       cfg.Backend.BaseURL,
		Timeout:       cfg.Backend.Timeout,
		SessionCookie: cfg.Backend.SessionCookie,
		XSRFCookie:    cfg.Backend.XSRFCookie,
		HealthPath:    cfg.Backend.HealthPath,
	}, logger.Component("backend"))

	svcLog := logger.Component("service")
	svc := api.Services{
		Auth: service.NewAuthService(client, redisinfra.NewSessionStore(rdb), dispatcher,
			cfg.Session.Secret, cfg.Session.TTL, svcLog),
		Users:          service.NewResourceService[domain.User]("users", client.Users(), dispatcher, svcLog),
		Cars:           service.NewResourceService[domain.Car]("cars", client.Cars(), dispatcher, svcLog),
		FuelPrices:     service.NewResourceService[domain.FuelPrice]("fuel-prices", client.FuelPrices(), dispatcher, svcLog),
		TravelPurposes: service.NewResourceService[domain.TravelPurposeDictionary]("travel-purpose-dictionaries", client.TravelPurposes(), dispatcher, svcLog),
		Laws:           service.NewResourceService[domain.Law]("laws", client.Laws(), dispatcher, svcLog),
		Addresses:      service.NewResourceService[domain.Address]("addresses", client.Addresses(), dispatcher, svcLog),
	}

	e := api.NewRouter(svc, api.Options{
		SessionSecret: cfg.Session.Secret,
		Cookie:        handler.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
		Checks: map[string]handler.Check{
			"redis":   redisinfra.Check(rdb),
			"mongodb": mongoinfra.Check(mongoClient),
			"backend": client.Ping,
		},
		Log: logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stopWorkers()
		dispatcher.Wait()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("portal stopped")
	return nil
}
