package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/wandering-ai/wecom-agent/internal/relay/http"
	"github.com/wandering-ai/wecom-agent/internal/relay/publisher"
	"github.com/wandering-ai/wecom-agent/internal/relay/publisher/kafka"
	"github.com/wandering-ai/wecom-agent/internal/relay/service"
	"github.com/wandering-ai/wecom-agent/internal/relay/store"
	"github.com/wandering-ai/wecom-agent/internal/relay/store/drivers/sqlite"
	"github.com/wandering-ai/wecom-agent/pkg/cryptox"
	"github.com/wandering-ai/wecom-agent/pkg/httpx"
	"github.com/wandering-ai/wecom-agent/pkg/slogx"
	"github.com/wandering-ai/wecom-agent/pkg/wecom"
)

const (
	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the relay: one agent, the ledger, background workers and
// the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	agent     *wecom.Agent
	db        store.Store
	publisher publisher.Publisher

	dispatchService     *service.DispatchService
	credentialWarmer    *service.CredentialWarmer
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and initializes every dependency. No vendor call is made
// until Run starts the warmer.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "wecom-relay",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.initAgent()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initPublisher(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.credentialWarmer.Start()
	app.housekeepingService.Start()

	app.logger.Info("wecom relay starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"corp_id", app.agent.CorpID(),
		"agent_id", app.cfg.AgentID,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			app.stopWorkers()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains HTTP traffic, stops the workers and closes the ledger and
// publisher.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down wecom relay...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopWorkers()

	if err := app.publisher.Close(); err != nil {
		app.logger.Error("error closing publisher", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("wecom relay stopped")
	return nil
}

func (app *Application) stopWorkers() {
	app.credentialWarmer.Stop()
	app.housekeepingService.Stop()
}

func (app *Application) initAgent() {
	opts := []wecom.Option{
		wecom.WithBaseURL(app.cfg.BaseURL),
		wecom.WithProactiveWindow(app.cfg.ProactiveWindow),
		wecom.WithBackoff(app.cfg.RefreshBackoff),
	}

	if app.cfg.VendorLimitEnabled() {
		opts = append(opts, wecom.WithSendLimiter(httpx.NewLimiter(app.cfg.VendorLimit)))
		app.logger.Info("outbound send limit enabled",
			"requests", app.cfg.VendorLimit.RequestsPerWindow,
			"window", app.cfg.VendorLimit.Window,
		)
	}

	app.agent = wecom.NewAgent(app.cfg.CorpID, app.cfg.Secret, opts...)
}

// initDatabase opens the ledger and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

func (app *Application) initPublisher() error {
	if len(app.cfg.KafkaBrokers) == 0 {
		app.publisher = publisher.NewNopPublisher()
		return nil
	}

	p, err := kafka.NewPublisher(kafka.Config{
		Brokers:  app.cfg.KafkaBrokers,
		Topic:    app.cfg.KafkaTopic,
		ClientID: app.cfg.KafkaClientID,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize kafka publisher: %w", err)
	}

	app.publisher = p
	app.logger.Info("delivery events enabled", "brokers", app.cfg.KafkaBrokers, "topic", app.cfg.KafkaTopic)
	return nil
}

func (app *Application) initServices() {
	app.dispatchService = service.NewDispatchService(app.agent, app.db, app.publisher, app.cfg.AgentID)

	app.credentialWarmer = service.NewCredentialWarmer(app.agent, app.logger, app.cfg.WarmInterval)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.DeliveryRetention,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		cryptox.NewKeySet(app.cfg.APIKeys...),
		BuildVersion,
		app.db,
		app.agent,
		app.logger,
	)
	router.DispatchService = app.dispatchService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
