// Пакет auth — аутентификация докладчиков.
//
// Реестр докладчиков загружается из TOML-файла при старте и не меняется
// во время работы сервиса. Управление списком — через утилиту csctl.
// Проверка токенов — в TokenService.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/bcrypt"

	"github.com/arturkryukov/confshare/internal/domain/model"
)

// ErrInvalidCredentials — единая ошибка для неизвестного имени и неверного
// пароля: ответ не раскрывает, существует ли пользователь.
var ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")

// speakersFile — структура TOML-файла со списком докладчиков.
//
//	[[speakers]]
//	id = "sp-1"
//	username = "ivanov"
//	display_name = "Иван Иванов"
//	password_hash = "$2a$12$..."
type speakersFile struct {
	Speakers []model.Speaker `toml:"speakers"`
}

// Registry — реестр докладчиков, неизменяемый после загрузки.
type Registry struct {
	logger     *slog.Logger
	byUsername map[string]model.Speaker

	// dummyHash — валидный bcrypt-хеш для выравнивания времени ответа
	// при неизвестном имени пользователя.
	dummyHash []byte
}

// NewRegistry загружает реестр докладчиков из TOML-файла path.
// Отсутствующий файл — не ошибка: сервис стартует с пустым реестром
// (вход докладчиков невозможен, публичная ссылка продолжает работать).
func NewRegistry(path string, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		logger:     logger.With(slog.String("component", "auth_registry")),
		byUsername: make(map[string]model.Speaker),
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("confshare"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации dummy-хеша: %w", err)
	}
	r.dummyHash = dummy

	var f speakersFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if os.IsNotExist(err) {
			r.logger.Warn("Файл докладчиков не найден, вход докладчиков отключён",
				slog.String("path", path),
			)
			return r, nil
		}
		return nil, fmt.Errorf("ошибка чтения файла докладчиков %s: %w", path, err)
	}

	for _, sp := range f.Speakers {
		if sp.Username == "" {
			return nil, fmt.Errorf("докладчик без username в %s", path)
		}
		if sp.PasswordHash == "" {
			return nil, fmt.Errorf("у докладчика %q пустой password_hash", sp.Username)
		}
		if _, dup := r.byUsername[sp.Username]; dup {
			return nil, fmt.Errorf("дубликат username %q в %s", sp.Username, path)
		}
		if sp.DisplayName == "" {
			sp.DisplayName = sp.Username
		}
		r.byUsername[sp.Username] = sp
	}

	r.logger.Info("Реестр докладчиков загружен",
		slog.String("path", path),
		slog.Int("speakers", len(r.byUsername)),
	)

	return r, nil
}

// Authenticate проверяет пару имя/пароль. Возвращает докладчика или
// ErrInvalidCredentials — одну и ту же для неизвестного имени и
// неверного пароля.
func (r *Registry) Authenticate(username, password string) (*model.Speaker, error) {
	sp, ok := r.byUsername[username]
	if !ok {
		// bcrypt выполняется и для неизвестного имени, чтобы время
		// ответа не отличалось от случая неверного пароля.
		_ = bcrypt.CompareHashAndPassword(r.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(sp.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &sp, nil
}
