// metrics.go — Prometheus HTTP метрики для Confshare.
// Регистрирует метрики: cs_http_requests_total, cs_http_request_duration_seconds.
// Бизнес-метрики (cs_files_total, cs_uploads_total и др.) экспортируются
// отсюда же и обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cs_http_requests_total",
			Help: "Общее количество HTTP-запросов к Confshare",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cs_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Confshare в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// FilesTotal — текущее количество материалов в каталоге (gauge).
	FilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cs_files_total",
			Help: "Текущее количество материалов в каталоге",
		},
	)

	// UploadsTotal — общее количество загрузок по результату.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cs_uploads_total",
			Help: "Общее количество загрузок материалов",
		},
		[]string{"result"},
	)

	// DownloadsTotal — общее количество отдач файлов по типу ответа.
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cs_downloads_total",
			Help: "Общее количество отдач файлов",
		},
		[]string{"result"},
	)

	// DownloadBytesTotal — суммарный объём отданных байт.
	DownloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cs_download_bytes_total",
			Help: "Суммарный объём отданных байт",
		},
	)

	// AccessDeniedTotal — отказы шлюза авторизации по причинам.
	AccessDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cs_access_denied_total",
			Help: "Количество отказов в доступе по причинам",
		},
		[]string{"reason"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (имя файла заменяется на {name} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет имя файла в пути на {name} для предотвращения
// взрывного роста кардинальности метрик.
// /files/1724427600123-talk.pdf → /files/{name}
func normalizePath(path string) string {
	switch path {
	case "/auth/login", "/auth/verify",
		"/event/status", "/event/configure", "/event/generate-link", "/event/shareable-link",
		"/upload", "/files", "/files/bulk-download",
		"/health/live", "/health/ready", "/metrics":
		return path
	}

	if rest, ok := strings.CutPrefix(path, "/files/"); ok && rest != "" {
		if name, found := strings.CutSuffix(rest, "/info"); found && name != "" && !strings.Contains(name, "/") {
			return "/files/{name}/info"
		}
		if !strings.Contains(rest, "/") {
			return "/files/{name}"
		}
	}

	return path
}
