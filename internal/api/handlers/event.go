// event.go — обработчики /event endpoints: статус, настройка окна
// доступа, публичная ссылка.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	apierrors "github.com/arturkryukov/confshare/internal/api/errors"
	"github.com/arturkryukov/confshare/internal/domain/model"
	"github.com/arturkryukov/confshare/internal/event"
)

// EventHandler — обработчик endpoints конфигурации мероприятия.
type EventHandler struct {
	events    *event.Store
	publicURL string
	logger    *slog.Logger
}

// NewEventHandler создаёт обработчик endpoints мероприятия.
// publicURL — внешний базовый URL сервиса, без завершающего слэша.
func NewEventHandler(events *event.Store, publicURL string, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:    events,
		publicURL: publicURL,
		logger:    logger.With(slog.String("component", "event_handler")),
	}
}

// eventView — публичное представление конфигурации мероприятия.
// Токен ссылки не отдаётся: зрители получают его только от докладчика.
type eventView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
}

// statusResponse — ответ GET /event/status и POST /event/configure.
type statusResponse struct {
	Event  eventView         `json:"event"`
	Status model.EventStatus `json:"status"`
}

func newStatusResponse(cfg model.EventConfig, now time.Time) statusResponse {
	return statusResponse{
		Event: eventView{
			ID:        cfg.ID,
			Name:      cfg.Name,
			StartDate: cfg.StartDate,
			EndDate:   cfg.EndDate,
			IsActive:  cfg.IsActive,
		},
		Status: cfg.StatusAt(now),
	}
}

// Status обрабатывает GET /event/status.
// Публичный endpoint: конфигурация мероприятия и вычисленный статус.
func (h *EventHandler) Status(w http.ResponseWriter, _ *http.Request) {
	cfg := h.events.Config()
	writeJSON(w, http.StatusOK, newStatusResponse(cfg, time.Now().UTC()))
}

// configureRequest — тело запроса POST /event/configure.
// Все поля опциональны: обновляются только переданные.
type configureRequest struct {
	Name      *string `json:"name"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	IsActive  *bool   `json:"is_active"`
}

// Configure обрабатывает POST /event/configure.
// Частичное обновление конфигурации мероприятия. Даты — RFC3339.
func (h *EventHandler) Configure(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	upd := event.Update{
		Name:     req.Name,
		IsActive: req.IsActive,
	}

	if req.StartDate != nil {
		t, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			apierrors.ValidationError(w, fmt.Sprintf("Некорректная дата start_date: %q (ожидается RFC3339)", *req.StartDate))
			return
		}
		upd.StartDate = &t
	}

	if req.EndDate != nil {
		t, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			apierrors.ValidationError(w, fmt.Sprintf("Некорректная дата end_date: %q (ожидается RFC3339)", *req.EndDate))
			return
		}
		upd.EndDate = &t
	}

	cfg, err := h.events.Update(upd)
	if err != nil {
		if errors.Is(err, event.ErrInvalidRange) {
			apierrors.WriteError(w, http.StatusBadRequest, apierrors.CodeInvalidRange,
				"Дата начала должна быть строго раньше даты окончания")
			return
		}
		h.logger.Error("Ошибка сохранения конфигурации мероприятия",
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Ошибка сохранения конфигурации мероприятия")
		return
	}

	h.logger.Info("Конфигурация мероприятия обновлена",
		slog.String("event_id", cfg.ID),
		slog.Time("start_date", cfg.StartDate),
		slog.Time("end_date", cfg.EndDate),
		slog.Bool("is_active", cfg.IsActive),
	)

	writeJSON(w, http.StatusOK, newStatusResponse(cfg, time.Now().UTC()))
}

// linkResponse — ответ endpoints публичной ссылки.
type linkResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// GenerateLink обрабатывает POST /event/generate-link.
// Генерирует новый токен публичной ссылки, заменяя предыдущий.
func (h *EventHandler) GenerateLink(w http.ResponseWriter, _ *http.Request) {
	token, err := h.events.GenerateLink()
	if err != nil {
		h.logger.Error("Ошибка генерации публичной ссылки", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Ошибка генерации публичной ссылки")
		return
	}

	h.logger.Info("Сгенерирована новая публичная ссылка")

	writeJSON(w, http.StatusOK, linkResponse{
		Token: token,
		URL:   h.linkURL(token),
	})
}

// ShareableLink обрабатывает GET /event/shareable-link.
// 404, если ссылка ещё не генерировалась.
func (h *EventHandler) ShareableLink(w http.ResponseWriter, _ *http.Request) {
	token := h.events.LinkToken()
	if token == "" {
		apierrors.NotFound(w, "Публичная ссылка ещё не сгенерирована")
		return
	}

	writeJSON(w, http.StatusOK, linkResponse{
		Token: token,
		URL:   h.linkURL(token),
	})
}

// linkURL строит полный URL публичной ссылки на список материалов.
func (h *EventHandler) linkURL(token string) string {
	return fmt.Sprintf("%s/files?link=%s", h.publicURL, url.QueryEscape(token))
}
