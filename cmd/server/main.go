package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vytor/lingoprogress/internal/api"
	"github.com/vytor/lingoprogress/internal/clock"
	"github.com/vytor/lingoprogress/internal/config"
	"github.com/vytor/lingoprogress/internal/db"
	"github.com/vytor/lingoprogress/internal/jobs"
	"github.com/vytor/lingoprogress/internal/logger"
	"github.com/vytor/lingoprogress/internal/reconciler"
	"github.com/vytor/lingoprogress/internal/repository"
	"github.com/vytor/lingoprogress/internal/repository/postgres"
	"github.com/vytor/lingoprogress/internal/repository/sqlite"
	"github.com/vytor/lingoprogress/internal/retry"
	"github.com/vytor/lingoprogress/internal/scheduler"
	"github.com/vytor/lingoprogress/internal/services"
	"github.com/vytor/lingoprogress/internal/worker"
)

// stores bundles the repositories of whichever backend DB_DRIVER selects.
type stores struct {
	profiles  repository.ProfileRepository
	exercises repository.ExerciseRepository
	progress  repository.ProgressRepository
	pinger    api.Pinger
	close     func()
}

func openStores(ctx context.Context, cfg config.Config, log *logger.Logger) (*stores, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns:        int32(cfg.DBMaxConns),
			MaxConnLifetime: time.Hour,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			profiles:  postgres.NewProfileRepository(pool),
			exercises: postgres.NewExerciseRepository(pool),
			progress:  postgres.NewProgressRepository(pool, postgres.NewTransactor(pool)),
			pinger:    pool,
			close:     pool.Close,
		}, nil
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return &stores{
			profiles:  sqlite.NewProfileRepository(database.DB),
			exercises: sqlite.NewExerciseRepository(database.DB),
			progress:  sqlite.NewProgressRepository(database.DB),
			pinger:    database,
			close: func() {
				log.Debug("closing database connection")
				if err := database.Close(); err != nil {
					log.Warn("close database: %v", err)
				}
			},
		}, nil
	}
}

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("LingoProgress Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_driver=%s", cfg.DBDriver)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("timezone=%s", cfg.Timezone)
	log.Debug("heart_sweep_interval=%v", cfg.HeartSweepInterval)
	log.Debug("streak_sweep_at=%s", cfg.StreakSweepAt)
	log.Debug("sweep_worker_count=%d", cfg.SweepWorkerCount)
	log.Debug("sweep_queue_size=%d", cfg.SweepQueueSize)
	log.Debug("submit_max_attempts=%d", cfg.SubmitMaxAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.NewContext(ctx, log)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store: %v", err)
		os.Exit(1)
	}
	defer st.close()

	loc := cfg.Location()
	clk := clock.New(loc)
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.SubmitMaxAttempts

	progressService := services.NewProgressService(st.profiles, st.exercises, st.progress, clk, retryCfg)
	profileService := services.NewProfileService(st.profiles, clk, retryCfg)
	exerciseService := services.NewExerciseService(st.exercises)

	rec := reconciler.New(st.profiles, retryCfg)
	sweepPool := worker.NewPool(cfg.SweepWorkerCount, cfg.SweepQueueSize)
	sweepQueue := jobs.NewWorkerQueue(sweepPool, rec, clk)

	sched, err := scheduler.New(sweepQueue, scheduler.Config{
		HeartInterval: cfg.HeartSweepInterval,
		StreakAt:      cfg.StreakSweepAt,
		Location:      loc,
	})
	if err != nil {
		log.Error("failed to configure scheduler: %v", err)
		os.Exit(1)
	}

	srv := &api.Server{
		ProgressService: progressService,
		ProfileService:  profileService,
		ExerciseService: exerciseService,
		Sweeps:          sweepQueue,
		DB:              st.pinger,
		RequestTimeout:  cfg.RequestTimeout,
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sweepPool.Start(ctx)
	sched.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log.Debug("stopping scheduler")
		sched.Stop()

		log.Debug("shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error: %v", err)
		}

		// Cancels a running sweep between users and drops queued ones.
		log.Debug("stopping sweep pool")
		sweepPool.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error: %v", err)
	}

	log.Info("===========================================")
	log.Info("LingoProgress Server Stopped")
	log.Info("===========================================")
}
