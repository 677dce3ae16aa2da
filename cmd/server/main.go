package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/smetapro/contractor-backend/internal/config"
	"github.com/smetapro/contractor-backend/internal/db"
	httpHandlers "github.com/smetapro/contractor-backend/internal/http/handlers"
	httpRouter "github.com/smetapro/contractor-backend/internal/http/router"
	"github.com/smetapro/contractor-backend/internal/logger"
	"github.com/smetapro/contractor-backend/internal/repository"
	"github.com/smetapro/contractor-backend/internal/service"
	"github.com/smetapro/contractor-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	// Репозитории.
	estimateRepo := repository.NewEstimateRepository(dbConn)
	invoiceRepo := repository.NewInvoiceRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	historyRepo := repository.NewHistoryRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Сервисы.
	notificationService := service.NewNotificationService(notificationRepo)
	projectService := service.NewProjectService(projectRepo, catalogRepo, invoiceRepo, logger.Log)
	estimateService := service.NewEstimateService(estimateRepo, invoiceRepo, historyRepo,
		notificationService, logger.Log, cfg.EstimateNumberPrefix, cfg.InvoiceNumberPrefix, cfg.InvoiceDueDays)
	invoiceService := service.NewInvoiceService(invoiceRepo, historyRepo, notificationService, logger.Log,
		cfg.InvoiceNumberPrefix, cfg.InvoiceDueDays)
	paymentService := service.NewPaymentService(invoiceRepo, paymentRepo, projectService,
		notificationService, logger.Log)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	go hub.Run()

	// HTTP хэндлеры.
	estimateHandler := httpHandlers.NewEstimateHandler(estimateService)
	invoiceHandler := httpHandlers.NewInvoiceHandler(invoiceService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	projectHandler := httpHandlers.NewProjectHandler(projectService)
	catalogHandler := httpHandlers.NewCatalogHandler(catalogRepo)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, estimateHandler, invoiceHandler, paymentHandler,
		projectHandler, catalogHandler, notificationHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
