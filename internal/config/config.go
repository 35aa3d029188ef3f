// Пакет config — загрузка и валидация конфигурации Confshare
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Confshare.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к директории хранения файлов и сайдкаров
	DataDir string
	// Путь к директории служебного состояния (event.json, speakers.toml)
	StateDir string
	// Путь к файлу реестра докладчиков
	SpeakersFile string
	// Секрет подписи JWT (HS256)
	JWTSecret string
	// Время жизни токена докладчика
	TokenTTL time.Duration
	// Максимальный размер загружаемого файла в байтах
	MaxFileSize int64
	// Внешний базовый URL сервиса (для ссылок в bulk-download)
	PublicURL string
	// Интервал фоновой сверки каталога
	SweepInterval time.Duration
	// Путь к TLS сертификату (опционально)
	TLSCert string
	// Путь к TLS приватному ключу (опционально)
	TLSKey string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// CS_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("CS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("CS_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("CS_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// CS_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("CS_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// CS_STATE_DIR — обязательный.
	// Отдельная директория: event.json не должен попадать
	// в сканирование сайдкаров каталога.
	cfg.StateDir, err = getEnvRequired("CS_STATE_DIR")
	if err != nil {
		return nil, err
	}

	// CS_SPEAKERS_FILE — путь к реестру докладчиков
	// (по умолчанию {CS_STATE_DIR}/speakers.toml)
	cfg.SpeakersFile = getEnvDefault("CS_SPEAKERS_FILE", filepath.Join(cfg.StateDir, "speakers.toml"))

	// CS_JWT_SECRET — обязательный
	cfg.JWTSecret, err = getEnvRequired("CS_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// CS_TOKEN_TTL — время жизни токена (по умолчанию 24h)
	cfg.TokenTTL, err = getEnvDuration("CS_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CS_TOKEN_TTL: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("CS_TOKEN_TTL: значение должно быть положительным")
	}

	// CS_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 50 MiB)
	maxFileSize, err := getEnvInt64("CS_MAX_FILE_SIZE", 52428800)
	if err != nil {
		return nil, fmt.Errorf("CS_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("CS_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// CS_PUBLIC_URL — внешний базовый URL (опционально, без завершающего /)
	cfg.PublicURL = strings.TrimRight(getEnvDefault("CS_PUBLIC_URL", ""), "/")

	// CS_SWEEP_INTERVAL — интервал сверки каталога (по умолчанию 1h)
	cfg.SweepInterval, err = getEnvDuration("CS_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CS_SWEEP_INTERVAL: %w", err)
	}

	// CS_TLS_CERT / CS_TLS_KEY — опциональная пара
	cfg.TLSCert = getEnvDefault("CS_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("CS_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("CS_TLS_CERT и CS_TLS_KEY должны задаваться вместе")
	}

	// CS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CS_LOG_LEVEL: %w", err)
	}

	// CS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// CS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("CS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 24h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
