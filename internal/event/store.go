// Пакет event — хранилище конфигурации мероприятия.
//
// Конфигурация — единственный экземпляр model.EventConfig, персистентно
// хранится в {CS_STATE_DIR}/event.json и загружается при старте.
// Файл лежит вне директории данных, чтобы не попадать в сканирование
// сайдкаров каталога. Запись атомарная: temp → fsync → rename.
//
// Формат файла:
//
//	{"id": "...", "name": "...", "start_date": "...", "end_date": "...",
//	 "is_active": true, "shareable_link_token": ""}
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/arturkryukov/confshare/internal/domain/model"
)

const (
	// FileName — имя файла конфигурации в директории состояния.
	FileName = "event.json"

	// defaultEventDuration — длина окна доступа при первом запуске.
	defaultEventDuration = 7 * 24 * time.Hour

	// linkAlphabet, linkLength — параметры токена публичной ссылки.
	// 27 символов 62-символьного алфавита — более 160 бит энтропии,
	// подбор ссылки перебором исключён.
	linkAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	linkLength   = 27
)

// ErrInvalidRange — дата начала не раньше даты окончания.
var ErrInvalidRange = errors.New("дата начала должна быть раньше даты окончания")

// Update — частичное обновление конфигурации мероприятия.
// nil-поля не меняются.
type Update struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  *bool
}

// Store — хранилище конфигурации мероприятия с персистентностью в event.json.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	cfg model.EventConfig
}

// NewStore загружает конфигурацию мероприятия из stateDir/event.json.
// При первом запуске (файл отсутствует) создаёт конфигурацию по умолчанию:
// мероприятие активно, окно доступа — неделя начиная с текущего момента —
// и сразу персистит её. Повреждённый файл — ошибка запуска: лучше
// остановиться, чем молча сбросить настроенное окно доступа.
func NewStore(stateDir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию состояния %s: %w", stateDir, err)
	}

	s := &Store{
		path:   filepath.Join(stateDir, FileName),
		logger: logger.With(slog.String("component", "event_store")),
	}

	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		now := time.Now().UTC()
		s.cfg = model.EventConfig{
			ID:        uuid.New().String(),
			Name:      "Новое мероприятие",
			StartDate: now,
			EndDate:   now.Add(defaultEventDuration),
			IsActive:  true,
		}
		if err := s.save(s.cfg); err != nil {
			return nil, fmt.Errorf("ошибка сохранения конфигурации по умолчанию: %w", err)
		}
		s.logger.Info("Создана конфигурация мероприятия по умолчанию",
			slog.String("event_id", s.cfg.ID),
			slog.Time("start_date", s.cfg.StartDate),
			slog.Time("end_date", s.cfg.EndDate),
		)
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения %s: %w", s.path, err)
	default:
		var cfg model.EventConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("ошибка десериализации %s: %w", s.path, err)
		}
		if !cfg.StartDate.Before(cfg.EndDate) {
			return nil, fmt.Errorf("некорректное окно доступа в %s: start_date должна быть раньше end_date", s.path)
		}
		s.cfg = cfg
		s.logger.Info("Конфигурация мероприятия загружена",
			slog.String("event_id", cfg.ID),
			slog.String("name", cfg.Name),
			slog.Bool("is_active", cfg.IsActive),
		)
	}

	return s, nil
}

// Config возвращает копию текущей конфигурации.
func (s *Store) Config() model.EventConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Status вычисляет статус мероприятия на момент now.
func (s *Store) Status(now time.Time) model.EventStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.StatusAt(now)
}

// LinkToken возвращает текущий токен публичной ссылки.
// Пустая строка — ссылка не сгенерирована.
func (s *Store) LinkToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ShareableLinkToken
}

// Update применяет частичное обновление конфигурации.
// Инвариант start_date < end_date проверяется на итоговом значении:
// нарушающее обновление отклоняется с ErrInvalidRange, прежняя
// конфигурация остаётся без изменений. При ошибке персистентности
// in-memory конфигурация также не подменяется.
func (s *Store) Update(upd Update) (model.EventConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.StartDate != nil {
		next.StartDate = upd.StartDate.UTC()
	}
	if upd.EndDate != nil {
		next.EndDate = upd.EndDate.UTC()
	}
	if upd.IsActive != nil {
		next.IsActive = *upd.IsActive
	}

	if !next.StartDate.Before(next.EndDate) {
		return model.EventConfig{}, ErrInvalidRange
	}

	if err := s.save(next); err != nil {
		return model.EventConfig{}, err
	}
	s.cfg = next

	s.logger.Info("Конфигурация мероприятия обновлена",
		slog.String("name", next.Name),
		slog.Time("start_date", next.StartDate),
		slog.Time("end_date", next.EndDate),
		slog.Bool("is_active", next.IsActive),
	)

	return next, nil
}

// GenerateLink создаёт новый токен публичной ссылки, перезаписывая
// предыдущий, и персистит конфигурацию. Возвращает токен.
func (s *Store) GenerateLink() (string, error) {
	token, err := nanoid.Generate(linkAlphabet, linkLength)
	if err != nil {
		return "", fmt.Errorf("ошибка генерации токена ссылки: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	next.ShareableLinkToken = token

	if err := s.save(next); err != nil {
		return "", err
	}
	s.cfg = next

	s.logger.Info("Сгенерирована публичная ссылка",
		slog.String("event_id", next.ID),
	)

	return token, nil
}

// save атомарно записывает конфигурацию в event.json (temp → fsync → rename).
func (s *Store) save(cfg model.EventConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации event.json: %w", err)
	}

	tmpPath := s.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания temp event.json: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи temp event.json: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync temp event.json: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия temp event.json: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ошибка rename event.json: %w", err)
	}

	return nil
}
