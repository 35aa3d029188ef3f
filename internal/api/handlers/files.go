// files.go — обработчики /files endpoints: список материалов, отдача,
// метаданные, пакетное скачивание.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/confshare/internal/api/errors"
	"github.com/arturkryukov/confshare/internal/api/middleware"
	"github.com/arturkryukov/confshare/internal/domain/model"
	"github.com/arturkryukov/confshare/internal/service"
	"github.com/arturkryukov/confshare/internal/storage/catalog"
	"github.com/arturkryukov/confshare/internal/storage/filestore"
)

// FilesHandler — обработчик endpoints каталога материалов.
type FilesHandler struct {
	catalog   *catalog.Store
	stream    *service.StreamService
	publicURL string
	logger    *slog.Logger
}

// NewFilesHandler создаёт обработчик endpoints каталога.
func NewFilesHandler(cat *catalog.Store, stream *service.StreamService, publicURL string, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{
		catalog:   cat,
		stream:    stream,
		publicURL: publicURL,
		logger:    logger.With(slog.String("component", "files_handler")),
	}
}

// List обрабатывает GET /files.
// Полный список материалов, отсортированный по дате загрузки (новые первыми).
func (h *FilesHandler) List(w http.ResponseWriter, _ *http.Request) {
	records, err := h.catalog.List()
	if err != nil {
		h.logger.Error("Ошибка чтения каталога", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Ошибка чтения каталога")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files": records,
	})
}

// Serve обрабатывает GET /files/{name}.
// Отдаёт бинарное содержимое файла. ?download=true — принудительное
// скачивание, для видео поддерживаются Range-запросы.
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	forceDownload := r.URL.Query().Get("download") == "true"

	if streamErr := h.stream.Serve(w, r, name, forceDownload); streamErr != nil {
		apierrors.WriteError(w, streamErr.StatusCode, streamErr.Code, streamErr.Message)
	}
}

// Info обрабатывает GET /files/{name}/info.
// Метаданные файла из сайдкара, без бинарного содержимого.
func (h *FilesHandler) Info(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !filestore.IsSafeName(name) {
		apierrors.ValidationError(w, "Недопустимое имя файла")
		return
	}

	rec, err := h.catalog.Get(name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			apierrors.NotFound(w, fmt.Sprintf("Файл %s не найден", name))
			return
		}
		h.logger.Error("Ошибка чтения сайдкара",
			slog.String("storage_name", name),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка чтения метаданных")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// bulkDownloadRequest — тело запроса POST /files/bulk-download.
type bulkDownloadRequest struct {
	Filenames []string `json:"filenames"`
}

// bulkDownloadEntry — элемент ответа bulk-download: прямая ссылка
// на скачивание одного файла.
type bulkDownloadEntry struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	URL              string `json:"url"`
	Size             int64  `json:"size"`
}

// BulkDownload обрабатывает POST /files/bulk-download.
// Архив не собирается: клиент получает список прямых ссылок и качает
// файлы по одному. Имена, отсутствующие в каталоге, молча пропускаются.
func (h *FilesHandler) BulkDownload(w http.ResponseWriter, r *http.Request) {
	var req bulkDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: ожидается массив filenames")
		return
	}

	if req.Filenames == nil {
		apierrors.ValidationError(w, "Поле filenames обязательно")
		return
	}

	for _, name := range req.Filenames {
		if !filestore.IsSafeName(name) {
			apierrors.ValidationError(w, fmt.Sprintf("Недопустимое имя файла: %q", name))
			return
		}
	}

	// Ссылки должны работать для самого вызывающего: если он пришёл
	// по публичной ссылке, токен добавляется в каждый URL.
	linkToken := middleware.LinkTokenFromContext(r.Context())

	entries := make([]bulkDownloadEntry, 0, len(req.Filenames))
	for _, name := range req.Filenames {
		rec, err := h.catalog.Get(name)
		if err != nil {
			continue
		}
		entries = append(entries, h.downloadEntry(rec, linkToken))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files": entries,
	})
}

// downloadEntry строит ссылку на скачивание одного файла.
func (h *FilesHandler) downloadEntry(rec *model.FileRecord, linkToken string) bulkDownloadEntry {
	u := fmt.Sprintf("%s/files/%s?download=true", h.publicURL, url.PathEscape(rec.StorageName))
	if linkToken != "" {
		u += "&link=" + url.QueryEscape(linkToken)
	}

	return bulkDownloadEntry{
		Filename:         rec.StorageName,
		OriginalFilename: rec.OriginalFilename,
		URL:              u,
		Size:             rec.Size,
	}
}
