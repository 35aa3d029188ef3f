// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/arturkryukov/confshare/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	// dataDir — директория файлов и сайдкаров (проверка записи)
	dataDir string
	// stateDir — директория служебного состояния (event.json)
	stateDir string
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(dataDir, stateDir string) *HealthHandler {
	return &HealthHandler{
		version:  config.Version,
		dataDir:  dataDir,
		stateDir: stateDir,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "confshare",
	})
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет доступность директорий данных и состояния на запись.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	dataCheck := checkWritable(h.dataDir)
	stateCheck := checkWritable(h.stateDir)

	if dataCheck["status"] != "ok" || stateCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "confshare",
		"checks": map[string]any{
			"data_dir":  dataCheck,
			"state_dir": stateCheck,
		},
	})
}

// checkWritable проверяет доступность директории на запись.
func checkWritable(dir string) map[string]any {
	if dir == "" {
		return map[string]any{
			"status":  statusFail,
			"message": "Директория не настроена",
		}
	}

	testFile := filepath.Join(dir, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Директория недоступна для записи: " + err.Error(),
		}
	}
	_ = os.Remove(testFile)

	return map[string]any{
		"status": "ok",
	}
}
