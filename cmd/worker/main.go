package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-ledger/internal/application/alerting"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/credit"
	domaininv "github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/jobs"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/notify"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

// Worker de alertas: consume las tareas que cmd/api encola desde el outbox.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-worker",
	})
	if cfg.DB.Driver != "postgres" {
		log.Fatal().Str("db_driver", cfg.DB.Driver).Msg("el worker requiere DB_DRIVER=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	seqMode, err := postgres.ParseSequenceMode(cfg.Ledger.SequenceMode)
	if err != nil {
		log.Fatal().Err(err).Msg("LEDGER_SEQUENCE_MODE")
	}
	reversal, err := domaininv.ParseReversalMode(cfg.Ledger.ReversalMode)
	if err != nil {
		log.Fatal().Err(err).Msg("LEDGER_REVERSAL_MODE")
	}

	m := metrics.New("inventario_ledger")
	products := postgres.NewProductRepository(pool)
	ledgerUC := inventory.NewLedgerUseCase(
		postgres.NewTxRunner(pool, seqMode, log.Zerolog()),
		products,
		postgres.NewWarehouseRepository(pool),
		postgres.NewMovementRepository(pool),
		credit.NewTracker(cfg.Ledger.UTCOffsetHours),
		inventory.Config{ReversalMode: reversal, DueSoonDays: cfg.Ledger.DueSoonDays},
		log.Zerolog(),
	).WithRecorder(m)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	svc := alerting.NewService(products, postgres.NewStockRepository(pool), ledgerUC,
		notify.NewLogNotifier(log.Zerolog()), log.Zerolog()).
		WithGuard(lock.NewRedisGuard(rdb, log.Zerolog())).
		WithRecorder(m)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Concurrency: cfg.Alerts.WorkerConcurrency,
		Logger:      log.Zerolog(),
		Handlers:    jobs.NewHandlers(svc).TaskHandlers(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("construir worker")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	if addr := cfg.Alerts.WorkerMetricsAddr; addr != "" && addr != metricsAddrOff {
		app := newMetricsApp(m)
		g.Go(func() error {
			log.Info().Str("addr", addr).Msg("métricas del worker escuchando")
			return app.Listen(addr)
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker detenido con error")
		return
	}
	log.Info().Msg("worker detenido")
}
