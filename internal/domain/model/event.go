// event.go — модель конфигурации мероприятия и вычисление его статуса.
package model

import (
	"time"
)

// EventStatus — статус мероприятия в данный момент времени.
type EventStatus string

const (
	// EventActive — мероприятие идёт, доступ к материалам открыт
	EventActive EventStatus = "active"
	// EventInactive — мероприятие отключено администратором
	EventInactive EventStatus = "inactive"
	// EventNotStarted — мероприятие ещё не началось
	EventNotStarted EventStatus = "not_started"
	// EventEnded — мероприятие завершилось
	EventEnded EventStatus = "ended"
)

// EventConfig — конфигурация мероприятия. Единственный экземпляр,
// хранится в event.json и загружается при старте.
type EventConfig struct {
	// ID — уникальный идентификатор мероприятия (UUID v4)
	ID string `json:"id"`

	// Name — название мероприятия
	Name string `json:"name"`

	// StartDate — начало окна доступа (UTC)
	StartDate time.Time `json:"start_date"`

	// EndDate — конец окна доступа (UTC). Всегда строго позже StartDate.
	EndDate time.Time `json:"end_date"`

	// IsActive — ручной выключатель доступа. Имеет приоритет над окном дат.
	IsActive bool `json:"is_active"`

	// ShareableLinkToken — токен публичной ссылки для зрителей.
	// Пустая строка — ссылка не сгенерирована.
	ShareableLinkToken string `json:"shareable_link_token"`
}

// StatusAt вычисляет статус мероприятия на момент now.
// Приоритет проверок: inactive > not_started > ended > active.
// Границы окна включительны: в моменты StartDate и EndDate доступ открыт.
func (c EventConfig) StatusAt(now time.Time) EventStatus {
	switch {
	case !c.IsActive:
		return EventInactive
	case now.Before(c.StartDate):
		return EventNotStarted
	case now.After(c.EndDate):
		return EventEnded
	default:
		return EventActive
	}
}
