// auth.go — middleware аутентификации и авторизации.
// RequireSpeaker — маршруты только для докладчиков (Bearer HS256).
// ReadAccess — читающие маршруты: bearer-токен ИЛИ публичная ссылка,
// затем проверка окна доступа мероприятия через шлюз авторизации.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arturkryukov/confshare/internal/access"
	apierrors "github.com/arturkryukov/confshare/internal/api/errors"
	"github.com/arturkryukov/confshare/internal/auth"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeySpeaker — ключ claims докладчика в контексте запроса.
	ContextKeySpeaker contextKey = "speaker_claims"
	// ContextKeyLinkToken — ключ токена публичной ссылки, по которой
	// аутентифицирован запрос.
	ContextKeyLinkToken contextKey = "link_token"
)

// Auth — middleware аутентификации Confshare.
type Auth struct {
	tokens *auth.TokenService
	gate   *access.Gate
	logger *slog.Logger
}

// NewAuth создаёт middleware аутентификации.
func NewAuth(tokens *auth.TokenService, gate *access.Gate, logger *slog.Logger) *Auth {
	return &Auth{
		tokens: tokens,
		gate:   gate,
		logger: logger.With(slog.String("component", "auth_middleware")),
	}
}

// RequireSpeaker возвращает middleware для маршрутов докладчиков.
// Отсутствие учётных данных — 401, невалидный или просроченный токен — 403.
// Claims докладчика помещаются в контекст запроса.
func (a *Auth) RequireSpeaker() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			claims, err := a.tokens.Verify(parts[1])
			if err != nil {
				a.logger.Debug("JWT валидация не пройдена",
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Forbidden(w, "Невалидный или просроченный токен")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySpeaker, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ReadAccess возвращает middleware для читающих маршрутов каталога.
// Запрос проходит шлюз авторизации: bearer-токен или ссылка, затем окно
// доступа. Отказ по окну отдаёт тело с event_status и границей окна.
func (a *Auth) ReadAccess() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := extractCredential(r)
			decision := a.gate.AuthorizeRead(cred, time.Now().UTC())
			if !decision.Allowed {
				AccessDeniedTotal.WithLabelValues(decision.Reason()).Inc()
				if decision.EventStatus != "" {
					apierrors.WriteEventDenial(w, decision.StatusCode, decision.Code,
						decision.Message, string(decision.EventStatus),
						decision.StartsAt, decision.EndedAt)
				} else {
					apierrors.WriteError(w, decision.StatusCode, decision.Code, decision.Message)
				}
				return
			}

			ctx := r.Context()
			if decision.Speaker != nil {
				ctx = context.WithValue(ctx, ContextKeySpeaker, decision.Speaker)
			}
			if cred.Kind == access.KindLink {
				ctx = context.WithValue(ctx, ContextKeyLinkToken, cred.Token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractCredential определяет учётные данные запроса: заголовок
// Authorization имеет приоритет над query-параметром link.
func extractCredential(r *http.Request) access.Credential {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return access.Credential{Kind: access.KindBearer, Token: parts[1]}
		}
		// Заголовок есть, но это не Bearer — считаем невалидным токеном.
		return access.Credential{Kind: access.KindBearer}
	}

	if link := r.URL.Query().Get("link"); link != "" {
		return access.Credential{Kind: access.KindLink, Token: link}
	}

	return access.Credential{Kind: access.KindNone}
}

// SpeakerFromContext извлекает claims докладчика из контекста запроса.
// Возвращает nil, если запрос не аутентифицирован как докладчик.
func SpeakerFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ContextKeySpeaker).(*auth.Claims)
	return claims
}

// LinkTokenFromContext извлекает токен ссылки, по которой аутентифицирован
// запрос. Пустая строка — запрос аутентифицирован не ссылкой.
func LinkTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyLinkToken).(string)
	return token
}
