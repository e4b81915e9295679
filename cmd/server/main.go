package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/CollabraChain/escrow-backend/internal/config"
	"github.com/CollabraChain/escrow-backend/internal/db"
	"github.com/CollabraChain/escrow-backend/internal/escrow"
	"github.com/CollabraChain/escrow-backend/internal/events"
	"github.com/CollabraChain/escrow-backend/internal/goroutine"
	httpHandlers "github.com/CollabraChain/escrow-backend/internal/http/handlers"
	httpRouter "github.com/CollabraChain/escrow-backend/internal/http/router"
	"github.com/CollabraChain/escrow-backend/internal/ledger"
	"github.com/CollabraChain/escrow-backend/internal/logger"
	"github.com/CollabraChain/escrow-backend/internal/repository"
	"github.com/CollabraChain/escrow-backend/internal/reputation"
	"github.com/CollabraChain/escrow-backend/internal/service"
	"github.com/CollabraChain/escrow-backend/internal/storage"
	"github.com/CollabraChain/escrow-backend/internal/ws"
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

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	artifactStorage, err := storage.NewArtifactStorage(cfg.ArtifactStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Вебсокеты и рассылка событий протокола.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	eventLog := events.NewLog()
	sink := events.NewSink(eventLog, hub)
	goroutine.SafeGoWithContext(ctx, sink.Run)

	// Ядро протокола: расчётный актив, реестр репутации, фабрика проектов.
	assetLedger := ledger.NewLedger()
	credentialRegistry := reputation.NewRegistry()

	factory, err := escrow.NewFactory(assetLedger, credentialRegistry, sink)
	if err != nil {
		log.Fatalf("main: не удалось создать фабрику проектов: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	projectService := service.NewProjectService(factory, eventLog)
	ledgerService := service.NewLedgerService(assetLedger, cfg.FaucetEnabled, cfg.FaucetAmount)
	reputationService := service.NewReputationService(credentialRegistry)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	usersHandler := httpHandlers.NewUsersHandler(authService)
	projectHandler := httpHandlers.NewProjectHandler(projectService)
	ledgerHandler := httpHandlers.NewLedgerHandler(ledgerService)
	reputationHandler := httpHandlers.NewReputationHandler(reputationService)
	artifactHandler := httpHandlers.NewArtifactHandler(artifactStorage)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, usersHandler, projectHandler, ledgerHandler, reputationHandler, artifactHandler, wsHandler, healthHandler, tokenManager)

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
