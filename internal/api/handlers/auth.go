// auth.go — обработчики /auth endpoints: вход докладчика и проверка токена.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/arturkryukov/confshare/internal/api/errors"
	"github.com/arturkryukov/confshare/internal/api/middleware"
	"github.com/arturkryukov/confshare/internal/auth"
)

// AuthHandler — обработчик аутентификации докладчиков.
type AuthHandler struct {
	registry *auth.Registry
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewAuthHandler создаёт обработчик аутентификации.
func NewAuthHandler(registry *auth.Registry, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		registry: registry,
		tokens:   tokens,
		logger:   logger.With(slog.String("component", "auth_handler")),
	}
}

// loginRequest — тело запроса POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// speakerInfo — публичные данные докладчика в ответах API.
type speakerInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Login обрабатывает POST /auth/login.
// Проверяет учётные данные по реестру докладчиков и выпускает JWT.
// Ответ на неверные данные всегда одинаковый: не раскрываем,
// существует ли такой пользователь.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	if req.Username == "" || req.Password == "" {
		apierrors.ValidationError(w, "Поля username и password обязательны")
		return
	}

	speaker, err := h.registry.Authenticate(req.Username, req.Password)
	if err != nil {
		h.logger.Debug("Неудачная попытка входа",
			slog.String("username", req.Username),
			slog.String("remote_addr", r.RemoteAddr),
		)
		apierrors.InvalidCredentials(w)
		return
	}

	token, expiresAt, err := h.tokens.Issue(speaker, time.Now().UTC())
	if err != nil {
		h.logger.Error("Ошибка выпуска токена", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Ошибка выпуска токена")
		return
	}

	h.logger.Info("Докладчик вошёл в систему",
		slog.String("username", speaker.Username),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"speaker": speakerInfo{
			ID:          speaker.ID,
			Username:    speaker.Username,
			DisplayName: speaker.DisplayName,
		},
	})
}

// Verify обрабатывает POST /auth/verify.
// Маршрут закрыт middleware RequireSpeaker: сюда попадают только
// запросы с валидным токеном, остаётся вернуть данные из claims.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SpeakerFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
		return
	}

	writeJSON(w, http.StatusOK, speakerInfo{
		ID:          claims.Subject,
		Username:    claims.Username,
		DisplayName: claims.DisplayName,
	})
}
