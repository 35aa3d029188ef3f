// Пакет access — единая точка авторизации читающих запросов.
//
// Два независимых способа пройти проверку учётных данных — bearer-токен
// докладчика и публичная ссылка — сходятся в одном решении. Проверка окна
// доступа мероприятия применяется после любого из них: ссылка никогда не
// обходит окно, её назначение — удобство раздачи, а не обход расписания.
package access

import (
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/arturkryukov/confshare/internal/api/errors"
	"github.com/arturkryukov/confshare/internal/auth"
	"github.com/arturkryukov/confshare/internal/domain/model"
	"github.com/arturkryukov/confshare/internal/event"
)

// Kind — способ предъявления учётных данных.
type Kind string

const (
	// KindBearer — токен докладчика в заголовке Authorization.
	KindBearer Kind = "bearer"
	// KindLink — токен публичной ссылки в query-параметре link.
	KindLink Kind = "link"
	// KindNone — учётные данные не предъявлены.
	KindNone Kind = "none"
)

// Credential — учётные данные читающего запроса.
type Credential struct {
	Kind  Kind
	Token string
}

// Decision — результат авторизации. При отказе несёт HTTP-статус,
// машиночитаемый код и сообщение; для отказов по окну доступа — ещё
// вычисленный статус мероприятия и границу окна.
type Decision struct {
	Allowed bool

	// Speaker — claims докладчика; nil при доступе по ссылке.
	Speaker *auth.Claims

	StatusCode  int
	Code        string
	Message     string
	EventStatus model.EventStatus
	StartsAt    *time.Time
	EndedAt     *time.Time
}

// Reason возвращает код отказа для метрик; пустая строка при допуске.
func (d Decision) Reason() string {
	if d.Allowed {
		return ""
	}
	return d.Code
}

// Gate — шлюз авторизации читающих запросов.
type Gate struct {
	events *event.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewGate создаёт шлюз авторизации.
func NewGate(events *event.Store, tokens *auth.TokenService, logger *slog.Logger) *Gate {
	return &Gate{
		events: events,
		tokens: tokens,
		logger: logger.With(slog.String("component", "access_gate")),
	}
}

// AuthorizeRead принимает решение о допуске читающего запроса.
//
// Шаг 1 — учётные данные: bearer-токен проверяется подписью, токен ссылки —
// сравнением с текущим сохранённым (пустой сохранённый токен не совпадает
// ни с чем). Шаг 2 — окно доступа: применяется к обоим путям одинаково.
func (g *Gate) AuthorizeRead(cred Credential, now time.Time) Decision {
	var speaker *auth.Claims

	switch cred.Kind {
	case KindBearer:
		claims, err := g.tokens.Verify(cred.Token)
		if err != nil {
			g.logger.Debug("Отказ: невалидный bearer-токен")
			return Decision{
				StatusCode: http.StatusUnauthorized,
				Code:       apierrors.CodeInvalidToken,
				Message:    "Невалидный или просроченный токен",
			}
		}
		speaker = claims

	case KindLink:
		// Сравнение не является криптографической границей: сервер и так
		// владеет токеном, защищаемся только от подбора извне.
		stored := g.events.LinkToken()
		if stored == "" || cred.Token != stored {
			g.logger.Debug("Отказ: недействительный токен ссылки")
			return Decision{
				StatusCode: http.StatusForbidden,
				Code:       apierrors.CodeInvalidLink,
				Message:    "Недействительная ссылка",
			}
		}

	default:
		return Decision{
			StatusCode: http.StatusUnauthorized,
			Code:       apierrors.CodeUnauthorized,
			Message:    "Требуется аутентификация",
		}
	}

	cfg := g.events.Config()
	switch status := cfg.StatusAt(now); status {
	case model.EventInactive:
		g.logger.Debug("Отказ: мероприятие неактивно")
		return Decision{
			StatusCode:  http.StatusForbidden,
			Code:        apierrors.CodeEventInactive,
			Message:     "Мероприятие неактивно",
			EventStatus: status,
		}
	case model.EventNotStarted:
		g.logger.Debug("Отказ: мероприятие ещё не началось",
			slog.Time("starts_at", cfg.StartDate),
		)
		return Decision{
			StatusCode:  http.StatusForbidden,
			Code:        apierrors.CodeEventNotStarted,
			Message:     "Мероприятие ещё не началось",
			EventStatus: status,
			StartsAt:    &cfg.StartDate,
		}
	case model.EventEnded:
		g.logger.Debug("Отказ: мероприятие завершено",
			slog.Time("ended_at", cfg.EndDate),
		)
		return Decision{
			StatusCode:  http.StatusForbidden,
			Code:        apierrors.CodeEventEnded,
			Message:     "Мероприятие завершено",
			EventStatus: status,
			EndedAt:     &cfg.EndDate,
		}
	}

	return Decision{Allowed: true, Speaker: speaker}
}
