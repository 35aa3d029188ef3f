package event

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturkryukov/confshare/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func writeEventFile(t *testing.T, dir string, cfg model.EventConfig) {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), data, 0o640))
}

// Первый запуск: файла нет — создаётся активная конфигурация
// с недельным окном доступа и сразу персистится.
func TestNewStore_FirstBoot(t *testing.T) {
	dir := t.TempDir()

	before := time.Now().UTC()
	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	after := time.Now().UTC()

	cfg := s.Config()
	assert.NotEmpty(t, cfg.ID)
	assert.NotEmpty(t, cfg.Name)
	assert.True(t, cfg.IsActive)
	assert.Empty(t, cfg.ShareableLinkToken)

	// Начало окна — момент первого запуска.
	assert.False(t, cfg.StartDate.Before(before))
	assert.False(t, cfg.StartDate.After(after))
	assert.Equal(t, defaultEventDuration, cfg.EndDate.Sub(cfg.StartDate))

	// Файл создан и читается повторно.
	s2, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	assert.Equal(t, cfg, s2.Config())
}

func TestNewStore_LoadExisting(t *testing.T) {
	dir := t.TempDir()
	want := model.EventConfig{
		ID:                 "evt-1",
		Name:               "DevConf 2026",
		StartDate:          time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC),
		IsActive:           true,
		ShareableLinkToken: "abc123",
	}
	writeEventFile(t, dir, want)

	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	assert.Equal(t, want, s.Config())
	assert.Equal(t, "abc123", s.LinkToken())
}

func TestNewStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{broken"), 0o640))

	_, err := NewStore(dir, testLogger())
	assert.Error(t, err)
}

// Загруженный файл с нарушенным инвариантом окна — ошибка запуска.
func TestNewStore_InvalidWindow(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	writeEventFile(t, dir, model.EventConfig{
		ID:        "evt-1",
		Name:      "Broken",
		StartDate: ts,
		EndDate:   ts,
		IsActive:  true,
	})

	_, err := NewStore(dir, testLogger())
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	dir := t.TempDir()
	writeEventFile(t, dir, model.EventConfig{
		ID:        "evt-1",
		Name:      "DevConf 2026",
		StartDate: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC),
		IsActive:  true,
	})

	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)

	assert.Equal(t, model.EventNotStarted, s.Status(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, model.EventActive, s.Status(time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, model.EventEnded, s.Status(time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)))
}

func TestUpdate_Partial(t *testing.T) {
	dir := t.TempDir()
	writeEventFile(t, dir, model.EventConfig{
		ID:        "evt-1",
		Name:      "Old name",
		StartDate: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC),
		IsActive:  true,
	})

	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)

	name := "New name"
	got, err := s.Update(Update{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "New name", got.Name)
	// Остальные поля не тронуты.
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), got.StartDate)
	assert.Equal(t, time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC), got.EndDate)
	assert.True(t, got.IsActive)

	// Обновление персистентно.
	s2, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "New name", s2.Config().Name)
}

func TestUpdate_Deactivate(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)

	inactive := false
	_, err = s.Update(Update{IsActive: &inactive})
	require.NoError(t, err)

	assert.Equal(t, model.EventInactive, s.Status(time.Now().UTC()))
}

// Обновление, нарушающее start_date < end_date, отклоняется целиком:
// конфигурация не меняется ни в памяти, ни на диске.
func TestUpdate_InvalidRange(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)
	writeEventFile(t, dir, model.EventConfig{
		ID:        "evt-1",
		Name:      "DevConf 2026",
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	})

	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)

	badEnd := start.Add(-time.Hour)
	_, err = s.Update(Update{EndDate: &badEnd})
	assert.ErrorIs(t, err, ErrInvalidRange)

	// Равенство дат тоже нарушение.
	_, err = s.Update(Update{EndDate: &start})
	assert.ErrorIs(t, err, ErrInvalidRange)

	cfg := s.Config()
	assert.Equal(t, start, cfg.StartDate)
	assert.Equal(t, end, cfg.EndDate)
}

func TestGenerateLink(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	assert.Empty(t, s.LinkToken())

	token, err := s.GenerateLink()
	require.NoError(t, err)

	assert.Len(t, token, linkLength)
	for _, r := range token {
		assert.True(t, strings.ContainsRune(linkAlphabet, r),
			"недопустимый символ в токене: %q", r)
	}
	assert.Equal(t, token, s.LinkToken())

	// Повторная генерация перезаписывает токен.
	token2, err := s.GenerateLink()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	assert.Equal(t, token2, s.LinkToken())

	// Токен персистентен.
	s2, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	assert.Equal(t, token2, s2.LinkToken())
}
