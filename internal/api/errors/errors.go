// Пакет errors — конструкторы стандартных ошибок в формате Confshare.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // TODO: переименовать пакет errors, конфликт со stdlib

import (
	"encoding/json"
	"net/http"
	"time"
)

// Машиночитаемые коды ошибок API.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidLink        = "INVALID_LINK"
	CodeEventInactive      = "EVENT_INACTIVE"
	CodeEventNotStarted    = "EVENT_NOT_STARTED"
	CodeEventEnded         = "EVENT_ENDED"
	CodeInvalidRange       = "INVALID_RANGE"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeUnsupportedType    = "UNSUPPORTED_TYPE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// eventDenialBody — тело отказа по окну доступа мероприятия.
// Помимо стандартного конверта несёт вычисленный статус и границу окна,
// чтобы клиент мог показать «начнётся в ... / завершилось в ...».
type eventDenialBody struct {
	Error       errorDetail `json:"error"`
	EventStatus string      `json:"event_status"`
	StartsAt    *time.Time  `json:"starts_at,omitempty"`
	EndedAt     *time.Time  `json:"ended_at,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате Confshare.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// WriteEventDenial записывает отказ по окну доступа: стандартный конверт
// плюс event_status и граница окна (обе границы опциональны).
func WriteEventDenial(w http.ResponseWriter, statusCode int, code, message, eventStatus string, startsAt, endedAt *time.Time) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(eventDenialBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
		EventStatus: eventStatus,
		StartsAt:    startsAt,
		EndedAt:     endedAt,
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// InvalidCredentials — 401 неверная пара имя/пароль. Сообщение единое,
// чтобы не раскрывать существование пользователя.
func InvalidCredentials(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, CodeInvalidCredentials,
		"Неверное имя пользователя или пароль")
}

// InvalidRange — 416 запрошенный диапазон вне файла.
func InvalidRange(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestedRangeNotSatisfiable, CodeInvalidRange, message)
}

// FileTooLarge — 400 файл превышает лимит. Лимит проверяется до записи
// на диск, поэтому это ошибка валидации, а не 413.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeFileTooLarge, message)
}

// UnsupportedType — 400 тип файла не входит в список разрешённых.
func UnsupportedType(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeUnsupportedType, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
