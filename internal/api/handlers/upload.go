// upload.go — обработчик POST /upload: приём материалов от докладчиков.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/arturkryukov/confshare/internal/api/errors"
	"github.com/arturkryukov/confshare/internal/api/middleware"
	"github.com/arturkryukov/confshare/internal/service"
)

// UploadHandler — обработчик загрузки материалов.
type UploadHandler struct {
	uploadSvc *service.UploadService
	logger    *slog.Logger
}

// NewUploadHandler создаёт обработчик загрузки.
func NewUploadHandler(uploadSvc *service.UploadService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploadSvc: uploadSvc,
		logger:    logger.With(slog.String("component", "upload_handler")),
	}
}

// Upload обрабатывает POST /upload.
// Multipart form: file (обязательно). Проверки типа и размера —
// в сервисе загрузки, здесь только разбор формы.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SpeakerFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
		return
	}

	// Буфер формы в памяти; сам файл стримится из multipart reader
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле 'file' обязательно")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	result, uploadErr := h.uploadSvc.Upload(service.UploadParams{
		Reader:           file,
		OriginalFilename: header.Filename,
		ContentType:      contentType,
		Size:             header.Size,
		UploadedBy:       claims.Subject,
	})
	if uploadErr != nil {
		apierrors.WriteError(w, uploadErr.StatusCode, uploadErr.Code, uploadErr.Message)
		return
	}

	writeJSON(w, http.StatusCreated, result.Record)
}
