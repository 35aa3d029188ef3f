package access

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturkryukov/confshare/internal/auth"
	"github.com/arturkryukov/confshare/internal/domain/model"
	"github.com/arturkryukov/confshare/internal/event"
)

var (
	eventStart = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	eventEnd   = time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)
	inWindow   = time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestGate(t *testing.T, cfg model.EventConfig) (*Gate, *auth.TokenService) {
	t.Helper()

	dir := t.TempDir()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, event.FileName), data, 0o640))

	events, err := event.NewStore(dir, testLogger())
	require.NoError(t, err)

	tokens := auth.NewTokenService("test-secret", 24*time.Hour)
	return NewGate(events, tokens, testLogger()), tokens
}

func activeConfig() model.EventConfig {
	return model.EventConfig{
		ID:                 "evt-1",
		Name:               "DevConf 2026",
		StartDate:          eventStart,
		EndDate:            eventEnd,
		IsActive:           true,
		ShareableLinkToken: "link-token-1",
	}
}

func speakerToken(t *testing.T, tokens *auth.TokenService) string {
	t.Helper()
	token, _, err := tokens.Issue(&model.Speaker{
		ID:          "sp-1",
		Username:    "ivanov",
		DisplayName: "Иван Иванов",
	}, inWindow)
	require.NoError(t, err)
	return token
}

func TestAuthorizeRead_BearerActive(t *testing.T) {
	gate, tokens := newTestGate(t, activeConfig())

	d := gate.AuthorizeRead(Credential{Kind: KindBearer, Token: speakerToken(t, tokens)}, inWindow)

	require.True(t, d.Allowed)
	require.NotNil(t, d.Speaker)
	assert.Equal(t, "ivanov", d.Speaker.Username)
	assert.Empty(t, d.Reason())
}

func TestAuthorizeRead_BearerInvalid(t *testing.T) {
	gate, _ := newTestGate(t, activeConfig())

	d := gate.AuthorizeRead(Credential{Kind: KindBearer, Token: "garbage"}, inWindow)

	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusUnauthorized, d.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", d.Code)
}

func TestAuthorizeRead_NoCredentials(t *testing.T) {
	gate, _ := newTestGate(t, activeConfig())

	d := gate.AuthorizeRead(Credential{Kind: KindNone}, inWindow)

	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusUnauthorized, d.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", d.Code)
}

func TestAuthorizeRead_LinkValid(t *testing.T) {
	gate, _ := newTestGate(t, activeConfig())

	d := gate.AuthorizeRead(Credential{Kind: KindLink, Token: "link-token-1"}, inWindow)

	require.True(t, d.Allowed)
	// Доступ по ссылке анонимный.
	assert.Nil(t, d.Speaker)
}

func TestAuthorizeRead_LinkWrong(t *testing.T) {
	gate, _ := newTestGate(t, activeConfig())

	d := gate.AuthorizeRead(Credential{Kind: KindLink, Token: "wrong"}, inWindow)

	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.StatusCode)
	assert.Equal(t, "INVALID_LINK", d.Code)
}

// Пока ссылка не сгенерирована, не совпадает никакой токен — в том числе
// пустой.
func TestAuthorizeRead_LinkNotGenerated(t *testing.T) {
	cfg := activeConfig()
	cfg.ShareableLinkToken = ""
	gate, _ := newTestGate(t, cfg)

	for _, token := range []string{"", "anything"} {
		d := gate.AuthorizeRead(Credential{Kind: KindLink, Token: token}, inWindow)
		assert.False(t, d.Allowed)
		assert.Equal(t, "INVALID_LINK", d.Code)
	}
}

// Ссылка не обходит окно доступа: после завершения мероприятия оба пути —
// ссылка и токен докладчика — получают одинаковый отказ.
func TestAuthorizeRead_EndedDeniesBothPaths(t *testing.T) {
	gate, tokens := newTestGate(t, activeConfig())
	afterEnd := eventEnd.Add(time.Hour)

	token, _, err := tokens.Issue(&model.Speaker{ID: "sp-1", Username: "ivanov"}, afterEnd)
	require.NoError(t, err)

	byBearer := gate.AuthorizeRead(Credential{Kind: KindBearer, Token: token}, afterEnd)
	byLink := gate.AuthorizeRead(Credential{Kind: KindLink, Token: "link-token-1"}, afterEnd)

	for _, d := range []Decision{byBearer, byLink} {
		assert.False(t, d.Allowed)
		assert.Equal(t, http.StatusForbidden, d.StatusCode)
		assert.Equal(t, "EVENT_ENDED", d.Code)
		assert.Equal(t, model.EventEnded, d.EventStatus)
		require.NotNil(t, d.EndedAt)
		assert.Equal(t, eventEnd, *d.EndedAt)
	}
}

func TestAuthorizeRead_NotStarted(t *testing.T) {
	gate, _ := newTestGate(t, activeConfig())
	beforeStart := eventStart.Add(-time.Hour)

	d := gate.AuthorizeRead(Credential{Kind: KindLink, Token: "link-token-1"}, beforeStart)

	assert.False(t, d.Allowed)
	assert.Equal(t, "EVENT_NOT_STARTED", d.Code)
	assert.Equal(t, model.EventNotStarted, d.EventStatus)
	require.NotNil(t, d.StartsAt)
	assert.Equal(t, eventStart, *d.StartsAt)
	assert.Nil(t, d.EndedAt)
}

// Флаг is_active сильнее времени: внутри окна, но неактивно — отказ
// без границ окна.
func TestAuthorizeRead_Inactive(t *testing.T) {
	cfg := activeConfig()
	cfg.IsActive = false
	gate, tokens := newTestGate(t, cfg)

	d := gate.AuthorizeRead(Credential{Kind: KindBearer, Token: speakerToken(t, tokens)}, inWindow)

	assert.False(t, d.Allowed)
	assert.Equal(t, "EVENT_INACTIVE", d.Code)
	assert.Equal(t, model.EventInactive, d.EventStatus)
	assert.Nil(t, d.StartsAt)
	assert.Nil(t, d.EndedAt)
}
