// stream.go — сервис отдачи файлов, с поддержкой Range для видео.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	apierrors "github.com/arturkryukov/confshare/internal/api/errors"
	"github.com/arturkryukov/confshare/internal/api/middleware"
	"github.com/arturkryukov/confshare/internal/domain/model"
	"github.com/arturkryukov/confshare/internal/storage/catalog"
	"github.com/arturkryukov/confshare/internal/storage/filestore"
)

// contentTypeByExt — фиксированная таблица тип-по-расширению.
// Расширение имеет приоритет над MIME-типом из сайдкара.
var contentTypeByExt = map[string]string{
	".pdf":  "application/pdf",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
}

var (
	// errRangeMalformed — заголовок Range не распознан; файл отдаётся целиком.
	errRangeMalformed = errors.New("некорректный заголовок Range")
	// errRangeUnsatisfiable — запрошенный диапазон вне файла.
	errRangeUnsatisfiable = errors.New("диапазон вне файла")
)

// StreamError — ошибка отдачи файла с HTTP-кодом.
type StreamError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StreamService — сервис отдачи файлов клиентам.
type StreamService struct {
	store   *filestore.FileStore
	catalog *catalog.Store
	logger  *slog.Logger
}

// NewStreamService создаёт сервис отдачи файлов.
func NewStreamService(store *filestore.FileStore, cat *catalog.Store, logger *slog.Logger) *StreamService {
	return &StreamService{
		store:   store,
		catalog: cat,
		logger:  logger.With(slog.String("component", "stream_service")),
	}
}

// Serve отдаёт файл storageName клиенту.
//
// Правила:
//   - Content-Type: по расширению из фиксированной таблицы, затем из
//     сайдкара, затем application/octet-stream.
//   - Disposition: forceDownload — всегда attachment; иначе inline для
//     video/* и application/pdf, attachment для остальных.
//   - Range обрабатывается только для video/*: start или end за пределами
//     файла — 416 без открытия потока; корректный диапазон — 206 с
//     Content-Range и срезом байт. Нераспознанный заголовок игнорируется.
//   - PDF и прочие типы всегда отдаются целиком, даже при наличии Range.
func (s *StreamService) Serve(w http.ResponseWriter, r *http.Request, storageName string, forceDownload bool) *StreamError {
	// 1. Имя проверяется до любого обращения к диску
	if !filestore.IsSafeName(storageName) {
		return &StreamError{
			StatusCode: 400,
			Code:       apierrors.CodeValidationError,
			Message:    "Недопустимое имя файла",
		}
	}

	// 2. Размер бинарного файла; отсутствие — 404
	size, err := s.store.FileSize(storageName)
	if err != nil {
		return &StreamError{
			StatusCode: 404,
			Code:       apierrors.CodeNotFound,
			Message:    fmt.Sprintf("Файл %s не найден", storageName),
		}
	}

	// 3. Сайдкар даёт оригинальное имя и запасной MIME-тип; его
	// отсутствие отдачу не блокирует.
	rec, err := s.catalog.Get(storageName)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			s.logger.Warn("Сайдкар не прочитан",
				slog.String("storage_name", storageName),
				slog.String("error", err.Error()),
			)
		}
		rec = nil
	}

	contentType := resolveContentType(storageName, rec)
	downloadName := storageName
	if rec != nil && rec.OriginalFilename != "" {
		downloadName = rec.OriginalFilename
	}

	disposition := "attachment"
	if !forceDownload && isPreviewable(contentType) {
		disposition = "inline"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, downloadName))

	// 4. Range только для видео
	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" && strings.HasPrefix(contentType, "video/") {
		start, end, rErr := parseRange(rangeHeader, size)
		switch {
		case rErr == nil:
			return s.serveRange(w, storageName, start, end, size)
		case errors.Is(rErr, errRangeUnsatisfiable):
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			return &StreamError{
				StatusCode: 416,
				Code:       apierrors.CodeInvalidRange,
				Message:    fmt.Sprintf("Запрошенный диапазон вне файла размером %d байт", size),
			}
		default:
			// Нераспознанный заголовок — отдаём файл целиком.
			s.logger.Debug("Заголовок Range не распознан",
				slog.String("storage_name", storageName),
				slog.String("range", rangeHeader),
			)
		}
	}

	return s.serveFull(w, storageName, size)
}

// serveFull отдаёт файл целиком: 200, Content-Length, Accept-Ranges и
// долгий кеш — имена с миллисекундным префиксом не переиспользуются,
// инвалидация не нужна.
func (s *StreamService) serveFull(w http.ResponseWriter, storageName string, size int64) *StreamError {
	file, err := s.store.Open(storageName)
	if err != nil {
		return &StreamError{
			StatusCode: 404,
			Code:       apierrors.CodeNotFound,
			Message:    fmt.Sprintf("Файл %s не найден", storageName),
		}
	}
	defer file.Close()

	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, file)
	if err != nil {
		// Статус уже отправлен; типично — клиент разорвал соединение.
		s.logger.Debug("Отдача файла прервана",
			slog.String("storage_name", storageName),
			slog.Int64("written", written),
			slog.String("error", err.Error()),
		)
	}

	middleware.DownloadsTotal.WithLabelValues("full").Inc()
	middleware.DownloadBytesTotal.Add(float64(written))

	s.logger.Debug("Файл отдан",
		slog.String("storage_name", storageName),
		slog.Int64("size", size),
	)

	return nil
}

// serveRange отдаёт срез [start, end]: 206, Content-Range, Content-Length.
func (s *StreamService) serveRange(w http.ResponseWriter, storageName string, start, end, size int64) *StreamError {
	file, err := s.store.Open(storageName)
	if err != nil {
		return &StreamError{
			StatusCode: 404,
			Code:       apierrors.CodeNotFound,
			Message:    fmt.Sprintf("Файл %s не найден", storageName),
		}
	}
	defer file.Close()

	length := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)

	written, err := io.Copy(w, io.NewSectionReader(file, start, length))
	if err != nil {
		s.logger.Debug("Отдача диапазона прервана",
			slog.String("storage_name", storageName),
			slog.Int64("written", written),
			slog.String("error", err.Error()),
		)
	}

	middleware.DownloadsTotal.WithLabelValues("range").Inc()
	middleware.DownloadBytesTotal.Add(float64(written))

	s.logger.Debug("Отдан диапазон файла",
		slog.String("storage_name", storageName),
		slog.Int64("start", start),
		slog.Int64("end", end),
		slog.Int64("size", size),
	)

	return nil
}

// resolveContentType определяет Content-Type: расширение → сайдкар →
// application/octet-stream.
func resolveContentType(storageName string, rec *model.FileRecord) string {
	if ct, ok := contentTypeByExt[strings.ToLower(filepath.Ext(storageName))]; ok {
		return ct
	}
	if rec != nil && rec.ContentType != "" {
		return rec.ContentType
	}
	return "application/octet-stream"
}

// isPreviewable — типы, которые браузер показывает сам.
func isPreviewable(contentType string) bool {
	return strings.HasPrefix(contentType, "video/") || contentType == "application/pdf"
}

// parseRange разбирает заголовок вида bytes=start-end (end опционален,
// по умолчанию — последний байт). Возвращает errRangeUnsatisfiable, если
// start или end за пределами файла, и errRangeMalformed для всего,
// что не является единственным диапазоном bytes=start[-end]:
// суффиксная форма bytes=-N и списки диапазонов не поддерживаются.
func parseRange(header string, size int64) (int64, int64, error) {
	rangeSpec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok || strings.Contains(rangeSpec, ",") {
		return 0, 0, errRangeMalformed
	}

	startStr, endStr, ok := strings.Cut(rangeSpec, "-")
	if !ok || startStr == "" {
		return 0, 0, errRangeMalformed
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, errRangeMalformed
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, errRangeMalformed
		}
	}

	if start >= size || end >= size {
		return 0, 0, errRangeUnsatisfiable
	}

	return start, end, nil
}
