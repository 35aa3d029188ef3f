// Пакет service — бизнес-логика Confshare.
// upload.go — пайплайн загрузки материалов.
package service

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/arturkryukov/confshare/internal/api/errors"
	"github.com/arturkryukov/confshare/internal/api/middleware"
	"github.com/arturkryukov/confshare/internal/config"
	"github.com/arturkryukov/confshare/internal/domain/model"
	"github.com/arturkryukov/confshare/internal/storage/catalog"
	"github.com/arturkryukov/confshare/internal/storage/filestore"
	"github.com/arturkryukov/confshare/internal/summary"
)

// allowedContentTypes — фиксированный список допустимых MIME-типов.
// Для avi/mov/wmv принимаются и исторические формы video/avi|mov|wmv,
// и зарегистрированные IANA-эквиваленты.
var allowedContentTypes = map[string]struct{}{
	"application/pdf":               {},
	"application/vnd.ms-powerpoint": {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"video/mp4":       {},
	"video/avi":       {},
	"video/x-msvideo": {},
	"video/mov":       {},
	"video/quicktime": {},
	"video/wmv":       {},
	"video/x-ms-wmv":  {},
}

// UploadParams — параметры загрузки материала.
type UploadParams struct {
	// Reader — поток данных файла
	Reader io.Reader
	// OriginalFilename — оригинальное имя файла
	OriginalFilename string
	// ContentType — заявленный MIME-тип файла
	ContentType string
	// Size — размер файла (из multipart part)
	Size int64
	// UploadedBy — идентификатор докладчика (subject из JWT)
	UploadedBy string
}

// UploadResult — результат загрузки материала.
type UploadResult struct {
	Record *model.FileRecord
}

// UploadError — ошибка загрузки с HTTP-кодом.
type UploadError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UploadService — сервис загрузки материалов.
type UploadService struct {
	cfg        *config.Config
	store      *filestore.FileStore
	catalog    *catalog.Store
	summarizer *summary.Summarizer
	logger     *slog.Logger
}

// NewUploadService создаёт сервис загрузки материалов.
func NewUploadService(
	cfg *config.Config,
	store *filestore.FileStore,
	cat *catalog.Store,
	summarizer *summary.Summarizer,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		cfg:        cfg,
		store:      store,
		catalog:    cat,
		summarizer: summarizer,
		logger:     logger.With(slog.String("component", "upload_service")),
	}
}

// Upload загружает материал в каталог.
//
// Поток:
//  1. Проверка размера (до какой-либо записи на диск)
//  2. Проверка MIME-типа по списку разрешённых
//  3. Проверка имени файла
//  4. SaveFile (бинарный файл под именем {millis}-{original})
//  5. Генерация описания
//  6. Запись сайдкара
//
// При ошибке после SaveFile — удаление бинарного файла.
func (s *UploadService) Upload(params UploadParams) (*UploadResult, *UploadError) {
	// 1. Проверяем размер до записи на диск
	if params.Size > s.cfg.MaxFileSize {
		return nil, &UploadError{
			StatusCode: 400,
			Code:       apierrors.CodeFileTooLarge,
			Message:    fmt.Sprintf("Размер файла %d байт превышает максимум %d байт", params.Size, s.cfg.MaxFileSize),
		}
	}

	// 2. Проверяем MIME-тип
	contentType := detectContentType(params.ContentType)
	if _, ok := allowedContentTypes[contentType]; !ok {
		return nil, &UploadError{
			StatusCode: 400,
			Code:       apierrors.CodeUnsupportedType,
			Message:    fmt.Sprintf("Тип файла %q не поддерживается", contentType),
		}
	}

	// 3. Проверяем имя файла
	if !filestore.IsSafeName(params.OriginalFilename) {
		return nil, &UploadError{
			StatusCode: 400,
			Code:       apierrors.CodeValidationError,
			Message:    "Недопустимое имя файла",
		}
	}

	// 4. Сохраняем бинарный файл.
	// Заявленный размер уже проверен; лимит на чтении страхует от
	// клиента, приславшего больше заявленного.
	now := time.Now().UTC()
	saved, err := s.store.SaveFile(io.LimitReader(params.Reader, s.cfg.MaxFileSize+1), params.OriginalFilename, now)
	if err != nil {
		s.logger.Error("Ошибка сохранения файла",
			slog.String("filename", params.OriginalFilename),
			slog.String("error", err.Error()),
		)
		return nil, &UploadError{
			StatusCode: 500,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка сохранения файла на диск",
		}
	}

	rollback := func() {
		_ = s.store.DeleteFile(saved.StorageName)
	}

	if saved.Size > s.cfg.MaxFileSize {
		rollback()
		return nil, &UploadError{
			StatusCode: 400,
			Code:       apierrors.CodeFileTooLarge,
			Message:    fmt.Sprintf("Размер файла превышает максимум %d байт", s.cfg.MaxFileSize),
		}
	}

	// 5. Генерируем описание
	sum := s.summarizer.Summarize(saved.StorageName, contentType, saved.Size)

	// 6. Формируем и записываем сайдкар
	record := &model.FileRecord{
		ID:                       strconv.FormatInt(now.UnixMilli(), 10),
		OriginalFilename:         params.OriginalFilename,
		StorageName:              saved.StorageName,
		Size:                     saved.Size,
		ContentType:              contentType,
		UploadedAt:               now,
		UploadedBy:               params.UploadedBy,
		Summary:                  sum.Text,
		EstimatedDurationMinutes: sum.EstimatedDurationMinutes,
		Category:                 sum.Category,
		Topic:                    sum.Topic,
	}
	if err := s.catalog.Put(record); err != nil {
		rollback()
		s.logger.Error("Ошибка записи сайдкара",
			slog.String("storage_name", saved.StorageName),
			slog.String("error", err.Error()),
		)
		return nil, &UploadError{
			StatusCode: 500,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка записи метаданных",
		}
	}

	// Обновляем метрики
	middleware.UploadsTotal.WithLabelValues("success").Inc()
	middleware.FilesTotal.Inc()

	s.logger.Info("Материал загружен",
		slog.String("storage_name", saved.StorageName),
		slog.String("filename", params.OriginalFilename),
		slog.Int64("size", saved.Size),
		slog.String("content_type", contentType),
		slog.String("category", string(sum.Category)),
		slog.String("uploaded_by", params.UploadedBy),
	)

	return &UploadResult{Record: record}, nil
}

// detectContentType нормализует MIME-тип из заголовка multipart part.
// Если не указан — используется application/octet-stream.
func detectContentType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	// Убираем параметры (charset и т.д.)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
