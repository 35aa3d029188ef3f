package auth

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	// MinCost — в тестах важна скорость, не стойкость.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func writeSpeakersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speakers.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func TestNewRegistry_LoadAndAuthenticate(t *testing.T) {
	path := writeSpeakersFile(t, `
[[speakers]]
id = "sp-1"
username = "ivanov"
display_name = "Иван Иванов"
password_hash = "`+hashFor(t, "secret-1")+`"

[[speakers]]
id = "sp-2"
username = "petrov"
display_name = "Пётр Петров"
password_hash = "`+hashFor(t, "secret-2")+`"
`)

	r, err := NewRegistry(path, testLogger())
	require.NoError(t, err)

	sp, err := r.Authenticate("ivanov", "secret-1")
	require.NoError(t, err)
	assert.Equal(t, "sp-1", sp.ID)
	assert.Equal(t, "Иван Иванов", sp.DisplayName)

	sp, err = r.Authenticate("petrov", "secret-2")
	require.NoError(t, err)
	assert.Equal(t, "sp-2", sp.ID)

	// Неверный пароль и неизвестное имя — одна и та же ошибка.
	_, err = r.Authenticate("ivanov", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = r.Authenticate("nobody", "secret-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// Отсутствующий файл — пустой реестр, не ошибка запуска.
func TestNewRegistry_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speakers.toml")

	r, err := NewRegistry(path, testLogger())
	require.NoError(t, err)

	_, err = r.Authenticate("anyone", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewRegistry_DuplicateUsername(t *testing.T) {
	hash := hashFor(t, "x")
	path := writeSpeakersFile(t, `
[[speakers]]
username = "ivanov"
password_hash = "`+hash+`"

[[speakers]]
username = "ivanov"
password_hash = "`+hash+`"
`)

	_, err := NewRegistry(path, testLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "дубликат")
}

func TestNewRegistry_EmptyUsername(t *testing.T) {
	path := writeSpeakersFile(t, `
[[speakers]]
username = ""
password_hash = "`+hashFor(t, "x")+`"
`)

	_, err := NewRegistry(path, testLogger())
	assert.Error(t, err)
}

func TestNewRegistry_EmptyHash(t *testing.T) {
	path := writeSpeakersFile(t, `
[[speakers]]
username = "ivanov"
password_hash = ""
`)

	_, err := NewRegistry(path, testLogger())
	assert.Error(t, err)
}

func TestNewRegistry_BadTOML(t *testing.T) {
	path := writeSpeakersFile(t, `[[speakers`)

	_, err := NewRegistry(path, testLogger())
	assert.Error(t, err)
}

// Пустое display_name подменяется username при загрузке.
func TestNewRegistry_DisplayNameFallback(t *testing.T) {
	path := writeSpeakersFile(t, `
[[speakers]]
username = "ivanov"
password_hash = "`+hashFor(t, "x")+`"
`)

	r, err := NewRegistry(path, testLogger())
	require.NoError(t, err)

	sp, err := r.Authenticate("ivanov", "x")
	require.NoError(t, err)
	assert.Equal(t, "ivanov", sp.DisplayName)
}
