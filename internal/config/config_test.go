package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnvVars устанавливает переменные окружения для теста и возвращает
// функцию очистки. Всегда вызывать defer cleanup().
func setEnvVars(t *testing.T, vars map[string]string) func() {
	t.Helper()

	// Сохраняем оригинальные значения
	originals := make(map[string]string)
	origSet := make(map[string]bool)
	for k := range vars {
		if v, ok := os.LookupEnv(k); ok {
			originals[k] = v
			origSet[k] = true
		}
	}

	// Устанавливаем новые
	for k, v := range vars {
		os.Setenv(k, v)
	}

	return func() {
		for k := range vars {
			if origSet[k] {
				os.Setenv(k, originals[k])
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

// clearAllCSEnvVars очищает все переменные окружения CS_* для чистого теста.
func clearAllCSEnvVars(t *testing.T) func() {
	t.Helper()
	keys := []string{
		"CS_PORT", "CS_DATA_DIR", "CS_STATE_DIR", "CS_SPEAKERS_FILE",
		"CS_JWT_SECRET", "CS_TOKEN_TTL", "CS_MAX_FILE_SIZE",
		"CS_PUBLIC_URL", "CS_SWEEP_INTERVAL",
		"CS_TLS_CERT", "CS_TLS_KEY",
		"CS_LOG_LEVEL", "CS_LOG_FORMAT", "CS_SHUTDOWN_TIMEOUT",
	}
	originals := make(map[string]string)
	origSet := make(map[string]bool)
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			originals[k] = v
			origSet[k] = true
		}
		os.Unsetenv(k)
	}
	return func() {
		for _, k := range keys {
			if origSet[k] {
				os.Setenv(k, originals[k])
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

// requiredEnvVars возвращает минимальный набор обязательных переменных.
func requiredEnvVars() map[string]string {
	return map[string]string{
		"CS_DATA_DIR":   "/tmp/confshare/data",
		"CS_STATE_DIR":  "/tmp/confshare/state",
		"CS_JWT_SECRET": "test-secret",
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	cleanup := clearAllCSEnvVars(t)
	defer cleanup()

	cleanupVars := setEnvVars(t, requiredEnvVars())
	defer cleanupVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port: ожидалось 8080, получено %d", cfg.Port)
	}
	if cfg.SpeakersFile != filepath.Join("/tmp/confshare/state", "speakers.toml") {
		t.Errorf("SpeakersFile: ожидался путь в CS_STATE_DIR, получено %q", cfg.SpeakersFile)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL: ожидалось 24h, получено %v", cfg.TokenTTL)
	}
	if cfg.MaxFileSize != 52428800 {
		t.Errorf("MaxFileSize: ожидалось 52428800 (50 MiB), получено %d", cfg.MaxFileSize)
	}
	if cfg.PublicURL != "" {
		t.Errorf("PublicURL: ожидалась пустая строка, получено %q", cfg.PublicURL)
	}
	if cfg.SweepInterval != time.Hour {
		t.Errorf("SweepInterval: ожидалось 1h, получено %v", cfg.SweepInterval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось INFO, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось 'json', получено %q", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 5s, получено %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_AllCustomValues(t *testing.T) {
	cleanup := clearAllCSEnvVars(t)
	defer cleanup()

	vars := requiredEnvVars()
	vars["CS_PORT"] = "9090"
	vars["CS_SPEAKERS_FILE"] = "/etc/confshare/speakers.toml"
	vars["CS_TOKEN_TTL"] = "12h"
	vars["CS_MAX_FILE_SIZE"] = "10485760"
	vars["CS_PUBLIC_URL"] = "https://files.goconf.example/"
	vars["CS_SWEEP_INTERVAL"] = "30m"
	vars["CS_TLS_CERT"] = "/tmp/tls.crt"
	vars["CS_TLS_KEY"] = "/tmp/tls.key"
	vars["CS_LOG_LEVEL"] = "debug"
	vars["CS_LOG_FORMAT"] = "text"
	vars["CS_SHUTDOWN_TIMEOUT"] = "10s"

	cleanupVars := setEnvVars(t, vars)
	defer cleanupVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port: ожидалось 9090, получено %d", cfg.Port)
	}
	if cfg.SpeakersFile != "/etc/confshare/speakers.toml" {
		t.Errorf("SpeakersFile: ожидалось '/etc/confshare/speakers.toml', получено %q", cfg.SpeakersFile)
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Errorf("TokenTTL: ожидалось 12h, получено %v", cfg.TokenTTL)
	}
	if cfg.MaxFileSize != 10485760 {
		t.Errorf("MaxFileSize: ожидалось 10485760, получено %d", cfg.MaxFileSize)
	}
	// Завершающий / должен срезаться
	if cfg.PublicURL != "https://files.goconf.example" {
		t.Errorf("PublicURL: ожидалось без завершающего /, получено %q", cfg.PublicURL)
	}
	if cfg.SweepInterval != 30*time.Minute {
		t.Errorf("SweepInterval: ожидалось 30m, получено %v", cfg.SweepInterval)
	}
	if cfg.TLSCert != "/tmp/tls.crt" || cfg.TLSKey != "/tmp/tls.key" {
		t.Errorf("TLS: ожидались '/tmp/tls.crt' и '/tmp/tls.key', получено %q и %q", cfg.TLSCert, cfg.TLSKey)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось DEBUG, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось 'text', получено %q", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 10s, получено %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	requiredKeys := []string{"CS_DATA_DIR", "CS_STATE_DIR", "CS_JWT_SECRET"}

	for _, missing := range requiredKeys {
		t.Run(missing, func(t *testing.T) {
			cleanup := clearAllCSEnvVars(t)
			defer cleanup()

			vars := requiredEnvVars()
			delete(vars, missing)
			cleanupVars := setEnvVars(t, vars)
			defer cleanupVars()

			_, err := Load()
			if err == nil {
				t.Errorf("ожидалась ошибка при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ноль", "0"},
		{"выше диапазона", "70000"},
		{"не число", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := clearAllCSEnvVars(t)
			defer cleanup()

			vars := requiredEnvVars()
			vars["CS_PORT"] = tt.value
			cleanupVars := setEnvVars(t, vars)
			defer cleanupVars()

			_, err := Load()
			if err == nil {
				t.Errorf("ожидалась ошибка для CS_PORT=%s", tt.value)
			}
		})
	}
}

func TestLoad_InvalidMaxFileSize(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"не число", "abc"},
		{"нулевое", "0"},
		{"отрицательное", "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := clearAllCSEnvVars(t)
			defer cleanup()

			vars := requiredEnvVars()
			vars["CS_MAX_FILE_SIZE"] = tt.value
			cleanupVars := setEnvVars(t, vars)
			defer cleanupVars()

			_, err := Load()
			if err == nil {
				t.Errorf("ожидалась ошибка для CS_MAX_FILE_SIZE=%s", tt.value)
			}
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	durationVars := []string{"CS_TOKEN_TTL", "CS_SWEEP_INTERVAL", "CS_SHUTDOWN_TIMEOUT"}

	for _, varName := range durationVars {
		t.Run(varName, func(t *testing.T) {
			cleanup := clearAllCSEnvVars(t)
			defer cleanup()

			vars := requiredEnvVars()
			vars[varName] = "not-a-duration"
			cleanupVars := setEnvVars(t, vars)
			defer cleanupVars()

			_, err := Load()
			if err == nil {
				t.Errorf("ожидалась ошибка для невалидного %s", varName)
			}
		})
	}
}

func TestLoad_NegativeTokenTTL(t *testing.T) {
	cleanup := clearAllCSEnvVars(t)
	defer cleanup()

	vars := requiredEnvVars()
	vars["CS_TOKEN_TTL"] = "-1h"
	cleanupVars := setEnvVars(t, vars)
	defer cleanupVars()

	_, err := Load()
	if err == nil {
		t.Error("ожидалась ошибка для отрицательного CS_TOKEN_TTL")
	}
}

func TestLoad_TLSPairIncomplete(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"только сертификат", map[string]string{"CS_TLS_CERT": "/tmp/tls.crt"}},
		{"только ключ", map[string]string{"CS_TLS_KEY": "/tmp/tls.key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := clearAllCSEnvVars(t)
			defer cleanup()

			vars := requiredEnvVars()
			for k, v := range tt.vars {
				vars[k] = v
			}
			cleanupVars := setEnvVars(t, vars)
			defer cleanupVars()

			_, err := Load()
			if err == nil {
				t.Error("ожидалась ошибка для неполной TLS-пары")
			}
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	cleanup := clearAllCSEnvVars(t)
	defer cleanup()

	vars := requiredEnvVars()
	vars["CS_LOG_LEVEL"] = "invalid"
	cleanupVars := setEnvVars(t, vars)
	defer cleanupVars()

	_, err := Load()
	if err == nil {
		t.Error("ожидалась ошибка для невалидного CS_LOG_LEVEL")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	cleanup := clearAllCSEnvVars(t)
	defer cleanup()

	vars := requiredEnvVars()
	vars["CS_LOG_FORMAT"] = "yaml"
	cleanupVars := setEnvVars(t, vars)
	defer cleanupVars()

	_, err := Load()
	if err == nil {
		t.Error("ожидалась ошибка для невалидного CS_LOG_FORMAT")
	}
}

func TestLoad_ValidLogLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cleanup := clearAllCSEnvVars(t)
			defer cleanup()

			vars := requiredEnvVars()
			vars["CS_LOG_LEVEL"] = tt.input
			cleanupVars := setEnvVars(t, vars)
			defer cleanupVars()

			cfg, err := Load()
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if cfg.LogLevel != tt.expected {
				t.Errorf("LogLevel: ожидалось %v, получено %v", tt.expected, cfg.LogLevel)
			}
		})
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json", "json"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:  slog.LevelInfo,
				LogFormat: tt.format,
			}
			logger := SetupLogger(cfg)
			if logger == nil {
				t.Fatal("SetupLogger вернул nil")
			}
		})
	}
}
