// handler.go — APIHandler собирает доменные обработчики в один объект,
// который сервер привязывает к маршрутам.
package handlers

import (
	"encoding/json"
	"net/http"
)

// APIHandler — единый обработчик всех endpoints Confshare.
type APIHandler struct {
	auth   *AuthHandler
	event  *EventHandler
	files  *FilesHandler
	upload *UploadHandler
	health *HealthHandler
}

// NewAPIHandler создаёт единый обработчик для всех endpoints.
func NewAPIHandler(
	auth *AuthHandler,
	event *EventHandler,
	files *FilesHandler,
	upload *UploadHandler,
	health *HealthHandler,
) *APIHandler {
	return &APIHandler{
		auth:   auth,
		event:  event,
		files:  files,
		upload: upload,
		health: health,
	}
}

// --- Auth ---

func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.auth.Login(w, r)
}

func (h *APIHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.auth.Verify(w, r)
}

// --- Event ---

func (h *APIHandler) EventStatus(w http.ResponseWriter, r *http.Request) {
	h.event.Status(w, r)
}

func (h *APIHandler) ConfigureEvent(w http.ResponseWriter, r *http.Request) {
	h.event.Configure(w, r)
}

func (h *APIHandler) GenerateLink(w http.ResponseWriter, r *http.Request) {
	h.event.GenerateLink(w, r)
}

func (h *APIHandler) ShareableLink(w http.ResponseWriter, r *http.Request) {
	h.event.ShareableLink(w, r)
}

// --- Files ---

func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	h.files.List(w, r)
}

func (h *APIHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	h.files.Serve(w, r)
}

func (h *APIHandler) FileInfo(w http.ResponseWriter, r *http.Request) {
	h.files.Info(w, r)
}

func (h *APIHandler) BulkDownload(w http.ResponseWriter, r *http.Request) {
	h.files.BulkDownload(w, r)
}

// --- Upload ---

func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	h.upload.Upload(w, r)
}

// --- Health ---

func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
