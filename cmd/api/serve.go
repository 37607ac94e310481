package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hr-data-api/internal/auth"
	"github.com/hr-data-api/internal/cache"
	"github.com/hr-data-api/internal/config"
	"github.com/hr-data-api/internal/database"
	"github.com/hr-data-api/internal/events"
	"github.com/hr-data-api/internal/handler"
	"github.com/hr-data-api/internal/importer"
	"github.com/hr-data-api/internal/notify"
	"github.com/hr-data-api/internal/repository"
	"github.com/hr-data-api/internal/service"
	"github.com/hr-data-api/internal/storage"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, import workers and notifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Подключение к БД
	db, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Запуск миграций
	if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		return err
	}

	// Инициализация репозиториев
	orgRepo := repository.NewOrganizationRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	empRepo := repository.NewEmployeeRepository(db)
	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewImportJobRepository(db)
	statRepo := repository.NewImportStatisticRepository(db)
	salaryLogRepo := repository.NewSalaryLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	tx := repository.NewTransactor(db)

	appCache, closeCache, err := newCache(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	// Конвейер импорта
	bus := events.NewBus(logger)
	files := storage.NewLocal(cfg.Import.StoragePath)

	notifier := notify.New(notificationRepo, userRepo, notify.NewMailer(cfg.Mail, logger), notify.Config{
		AdminAddress: cfg.Mail.AdminAddress,
	}, logger)
	notifier.Start()

	engine := importer.NewEngine(empRepo, tx, bus, validator.New())
	orchestrator := importer.NewOrchestrator(jobRepo, files, engine, notifier, bus, importer.OrchestratorConfig{
		MaxAttempts: cfg.Import.MaxAttempts,
		Timeout:     cfg.Import.Timeout,
	}, logger)
	scheduler := importer.NewScheduler(orchestrator, jobRepo, bus, importer.SchedulerConfig{
		Workers:      cfg.Import.Workers,
		QueueSize:    cfg.Import.QueueSize,
		MaxAttempts:  cfg.Import.MaxAttempts,
		RetryBackoff: cfg.Import.RetryBackoff,
	}, logger)

	importer.Listeners{
		Scheduler:  scheduler,
		SalaryLogs: salaryLogRepo,
		Statistics: statRepo,
		Reporter:   notifier,
	}.Register(bus)

	scheduler.Start(context.Background())
	if err := scheduler.Recover(ctx); err != nil {
		logger.Error("failed to recover import jobs", slog.Any("error", err))
	}

	// Инициализация сервисов
	tokens := auth.NewJWTService(cfg.JWT)
	authService := service.NewAuthService(userRepo, tokens, auth.NewPasswordHasher(cfg.Password.BcryptCost))
	orgService := service.NewOrganizationService(orgRepo, appCache, logger)
	teamService := service.NewTeamService(teamRepo, orgRepo)
	empService := service.NewEmployeeService(empRepo, teamRepo, orgRepo, tx, bus)
	importService := service.NewImportService(jobRepo, statRepo, notificationRepo, files, bus, logger)
	reportService := service.NewReportService(reportRepo, salaryLogRepo)

	// Настройка роутера
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	router := handler.NewRouter(handler.Handlers{
		Auth:         handler.NewAuthHandler(authService, tokens.TTL(), logger),
		Organization: handler.NewOrganizationHandler(orgService, logger),
		Team:         handler.NewTeamHandler(teamService, logger),
		Employee:     handler.NewEmployeeHandler(empService, logger),
		Import:       handler.NewImportHandler(importService, cfg.Import.MaxUploadSize, logger),
		Report:       handler.NewReportHandler(reportService, logger),
	}, tokens, metricsPath, logger)

	// Настройка HTTP сервера
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server is starting", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var listenErr error
	select {
	case listenErr = <-serveErr:
		if listenErr != nil {
			logger.Error("could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", listenErr))
		}
	case <-ctx.Done():
		logger.Info("server is shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("could not gracefully shutdown the server", slog.Any("error", err))
	}
	// воркеры публикуют события, асинхронные подписчики пишут в notifier
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		logger.Error("import workers did not stop in time", slog.Any("error", err))
	}
	bus.Wait()
	notifier.Close()

	logger.Info("server stopped")
	return listenErr
}

// newCache выбирает Redis при заданном адресе, иначе кэш в памяти
func newCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (cache.Cache, func(), error) {
	if cfg.Addr == "" {
		logger.Info("using in-memory cache")
		return cache.NewMemory(), func() {}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using redis cache", slog.String("addr", cfg.Addr))
	return cache.NewRedis(client, "hrdata:"), func() { client.Close() }, nil
}
