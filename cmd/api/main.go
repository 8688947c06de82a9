package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-ledger/internal/application/alerting"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/credit"
	domaininv "github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/jobs"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/notify"
	httpRouter "github.com/jhoicas/Inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("db_driver", cfg.DB.Driver).
		Str("alerts_mode", cfg.Alerts.Mode).
		Msg("iniciando API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("backend de persistencia")
	}
	defer be.close()

	reversal, err := domaininv.ParseReversalMode(cfg.Ledger.ReversalMode)
	if err != nil {
		log.Fatal().Err(err).Msg("LEDGER_REVERSAL_MODE")
	}
	tracker := credit.NewTracker(cfg.Ledger.UTCOffsetHours)
	m := metrics.New("inventario_ledger")

	ledgerUC := inventory.NewLedgerUseCase(
		be.txRunner, be.products, be.warehouses, be.movements, tracker,
		inventory.Config{ReversalMode: reversal, DueSoonDays: cfg.Ledger.DueSoonDays},
		log.Zerolog(),
	).WithRecorder(m)

	alertSvc := alerting.NewService(be.products, be.stock, ledgerUC, notify.NewLogNotifier(log.Zerolog()), log.Zerolog()).
		WithRecorder(m)

	var publisher alerting.Publisher
	switch cfg.Alerts.Mode {
	case "inline":
		publisher = jobs.NewInlinePublisher(alertSvc.Handle, cfg.Alerts.CreditRescanDelay, log.Zerolog())
	default:
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		publisher = jobs.NewAsynqPublisher(client, cfg.Alerts.CreditRescanDelay)
	}
	dispatcher := alerting.NewDispatcher(be.outbox, publisher, alerting.DispatcherConfig{
		PollInterval: cfg.Alerts.PollInterval,
		BatchSize:    cfg.Alerts.BatchSize,
		MaxAttempts:  cfg.Alerts.MaxAttempts,
	}, log.Zerolog()).WithRecorder(m)
	ledgerUC.OnCommit(dispatcher.Wake)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Ledger API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      ledgerUC,
		JWTSecret:   cfg.JWT.Secret,
		ServiceName: cfg.App.Name,
		Logger:      log.Zerolog(),
		Metrics:     m.Handler(),
		HealthCheck: be.ping,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("apagando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor detenido con error")
		return
	}
	log.Info().Msg("servidor detenido")
}
