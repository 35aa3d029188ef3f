// Точка входа Confshare — сервиса обмена материалами мероприятия.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/arturkryukov/confshare/internal/access"
	"github.com/arturkryukov/confshare/internal/api/handlers"
	"github.com/arturkryukov/confshare/internal/api/middleware"
	"github.com/arturkryukov/confshare/internal/auth"
	"github.com/arturkryukov/confshare/internal/config"
	"github.com/arturkryukov/confshare/internal/event"
	"github.com/arturkryukov/confshare/internal/server"
	"github.com/arturkryukov/confshare/internal/service"
	"github.com/arturkryukov/confshare/internal/storage/catalog"
	"github.com/arturkryukov/confshare/internal/storage/filestore"
	"github.com/arturkryukov/confshare/internal/summary"
)

func main() {
	// .env — опционально, для локальной разработки
	_ = godotenv.Load()

	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Confshare запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
	)

	// --- Инициализация компонентов ---

	// 1. Файловое хранилище
	store, err := filestore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации FileStore", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Каталог материалов (сайдкары рядом с бинарными файлами)
	cat := catalog.New(cfg.DataDir, logger)

	// 3. Конфигурация мероприятия (event.json, создаётся при первом старте)
	events, err := event.NewStore(cfg.StateDir, logger)
	if err != nil {
		logger.Error("Ошибка загрузки конфигурации мероприятия", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Реестр докладчиков
	registry, err := auth.NewRegistry(cfg.SpeakersFile, logger)
	if err != nil {
		logger.Error("Ошибка загрузки реестра докладчиков", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Токены и шлюз авторизации
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	gate := access.NewGate(events, tokens, logger)

	// 6. Сервисы
	summarizer := summary.New()
	uploadSvc := service.NewUploadService(cfg, store, cat, summarizer, logger)
	streamSvc := service.NewStreamService(store, cat, logger)

	// 7. Фоновая сверка каталога.
	// Первый проход синхронно: он же заполняет метрику числа файлов.
	ctx := context.Background()
	sweepSvc := service.NewSweepService(store, cat, cfg.DataDir, cfg.SweepInterval, logger)
	if result, skipped := sweepSvc.RunOnce(); !skipped {
		logger.Info("Первичная сверка каталога завершена",
			slog.Int("files_checked", result.FilesChecked),
			slog.Int("issues", len(result.Issues)),
		)
	}
	sweepSvc.Start(ctx)

	// 8. Handlers
	authHandler := handlers.NewAuthHandler(registry, tokens, logger)
	eventHandler := handlers.NewEventHandler(events, cfg.PublicURL, logger)
	filesHandler := handlers.NewFilesHandler(cat, streamSvc, cfg.PublicURL, logger)
	uploadHandler := handlers.NewUploadHandler(uploadSvc, logger)
	healthHandler := handlers.NewHealthHandler(cfg.DataDir, cfg.StateDir)

	apiHandler := handlers.NewAPIHandler(
		authHandler,
		eventHandler,
		filesHandler,
		uploadHandler,
		healthHandler,
	)

	// 9. Middleware аутентификации
	authMiddleware := middleware.NewAuth(tokens, gate, logger)

	// 10. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, authMiddleware)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")
	sweepSvc.Stop()

	logger.Info("Confshare остановлен")
}
