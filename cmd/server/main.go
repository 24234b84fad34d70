package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/config"
	"github.com/ignatzorin/taskmarket-backend/internal/db"
	httpHandlers "github.com/ignatzorin/taskmarket-backend/internal/http/handlers"
	"github.com/ignatzorin/taskmarket-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/taskmarket-backend/internal/http/router"
	"github.com/ignatzorin/taskmarket-backend/internal/infrastructure/gateway"
	"github.com/ignatzorin/taskmarket-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/handler"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/service"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/application"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/dispute"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/escrow"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/task"
	"github.com/ignatzorin/taskmarket-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}
	log := logger.L()

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Метрики.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(registry); err != nil {
		log.Fatalf("main: ошибка регистрации метрик: %v", err)
	}

	// Вебсокеты и уведомления.
	hub := ws.NewHub(ctx)
	go hub.Run()

	notificationService := service.NewNotificationService(repository.NewNotificationRepository(dbConn), hub)
	notifier := notification.NewDispatcher(notificationService)

	// Репозитории.
	txManager := persistence.NewTxManager(dbConn)
	taskRepo := persistence.NewTaskRepositoryAdapter(dbConn)
	applicationRepo := persistence.NewApplicationRepositoryAdapter(dbConn)
	transactionRepo := persistence.NewTransactionRepositoryAdapter(dbConn)
	eventRepo := persistence.NewGatewayEventRepositoryAdapter(dbConn)
	disputeRepo := persistence.NewDisputeRepositoryAdapter(dbConn)
	reviewRepo := persistence.NewReviewRepositoryAdapter(dbConn)

	// Платежный шлюз.
	var paymentGateway escrow.Gateway
	if cfg.GatewayBaseURL != "" {
		paymentGateway = gateway.NewHTTPGateway(gateway.Options{
			BaseURL: cfg.GatewayBaseURL,
			APIKey:  cfg.GatewayAPIKey,
			Timeout: cfg.GatewayTimeout,
			RPS:     cfg.GatewayRPS,
		})
	} else {
		log.Warn("main: GATEWAY_BASE_URL не задан, используется sandbox шлюз")
		paymentGateway = gateway.NewSandbox()
	}
	escrowCfg := escrow.Config{
		FeeBps:         cfg.PlatformFeeBps,
		Currency:       cfg.PaymentCurrency,
		GatewayTimeout: cfg.GatewayTimeout,
	}

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Health:       httpHandlers.NewHealthHandler(dbConn),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		Task: handler.NewTaskHandler(
			task.NewCreateTaskUseCase(taskRepo),
			task.NewGetTaskUseCase(taskRepo),
			task.NewStartTaskUseCase(taskRepo, txManager, notifier),
			task.NewMarkDoneUseCase(taskRepo, txManager, notifier),
			task.NewConfirmUseCase(taskRepo, txManager, notifier),
			task.NewCancelUseCase(taskRepo, txManager, notifier),
			task.NewDisputeTaskUseCase(taskRepo, disputeRepo, txManager, notifier),
		),
		Application: handler.NewApplicationHandler(
			application.NewApplyUseCase(taskRepo, applicationRepo, txManager, notifier),
			application.NewWithdrawUseCase(applicationRepo, txManager),
			application.NewAcceptUseCase(taskRepo, applicationRepo, txManager, notifier),
			application.NewRejectUseCase(taskRepo, applicationRepo, txManager, notifier),
			application.NewListUseCase(taskRepo, applicationRepo),
		),
		Escrow: handler.NewEscrowHandler(
			escrow.NewCreateHoldUseCase(taskRepo, transactionRepo, txManager, paymentGateway, escrowCfg),
			escrow.NewCaptureUseCase(taskRepo, transactionRepo, txManager, paymentGateway, notifier, escrowCfg),
			escrow.NewReleaseUseCase(taskRepo, transactionRepo, txManager, notifier),
			escrow.NewRefundUseCase(transactionRepo, txManager, paymentGateway, notifier, escrowCfg),
			escrow.NewGetTransactionUseCase(transactionRepo),
			escrow.NewHandleGatewayEventUseCase(taskRepo, transactionRepo, eventRepo, txManager, paymentGateway, notifier, escrowCfg),
			escrowCfg,
			cfg.GatewayWebhookSecret,
		),
		Dispute: handler.NewDisputeHandler(
			dispute.NewFileDisputeUseCase(taskRepo, disputeRepo, txManager, notifier),
			dispute.NewRespondUseCase(taskRepo, disputeRepo, txManager, notifier),
			dispute.NewResolveUseCase(taskRepo, disputeRepo, reviewRepo, applicationRepo, txManager, notifier),
			dispute.NewQueryUseCase(taskRepo, disputeRepo),
			cfg.SupportEmail,
		),
	}

	tokens := auth.NewTokenVerifier(cfg.JWTSecret)
	handlers.WS = httpHandlers.NewWSHandler(hub, tokens, cfg.AllowedOrigins)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, handlers, httpRouter.Deps{
		Tokens:   tokens,
		Gatherer: registry,
		Store:    middleware.NewRateLimitStore(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":         cfg.HTTPPort,
		"env":          cfg.Env,
		"platform_fee": cfg.PlatformFeeBps,
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.L().WithError(err).Error("main: ошибка закрытия базы")
	}
}
