// Пакет catalog — каталог материалов на основе JSON-сайдкаров.
// Каждый бинарный файл в хранилище имеет сопутствующий {storage_name}.json,
// который является единственным источником истины для метаданных.
// Каталог не держит состояния в памяти: каждый List — полное сканирование
// директории. Все операции записи выполняются атомарно: temp → fsync → rename.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arturkryukov/confshare/internal/domain/model"
)

// SidecarSuffix — суффикс файла метаданных.
const SidecarSuffix = ".json"

// maxSidecarSize — максимальный допустимый размер сайдкара (16 КБ).
// Ограничение гарантирует атомарность записи.
const maxSidecarSize = 16384

// ErrNotFound — сайдкар для файла не найден или нечитаем.
var ErrNotFound = errors.New("запись каталога не найдена")

// SidecarPath возвращает путь к сайдкару для данного бинарного файла.
// Пример: "/data/1724427600123-talk.pdf" → "/data/1724427600123-talk.pdf.json"
func SidecarPath(dataFilePath string) string {
	return dataFilePath + SidecarSuffix
}

// IsSidecar проверяет, является ли имя файлом метаданных.
func IsSidecar(name string) bool {
	return strings.HasSuffix(name, SidecarSuffix)
}

// Store — каталог материалов в директории данных.
type Store struct {
	dataDir string
	logger  *slog.Logger
}

// New создаёт каталог поверх директории данных.
func New(dataDir string, logger *slog.Logger) *Store {
	return &Store{
		dataDir: dataDir,
		logger:  logger.With(slog.String("component", "catalog")),
	}
}

// Put атомарно записывает метаданные в сайдкар рядом с бинарным файлом.
// Паттерн: JSON → temp файл → fsync → atomic rename.
// Повторная запись для того же storage_name перезаписывает сайдкар.
func (s *Store) Put(rec *model.FileRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных: %w", err)
	}

	// Проверка размера для гарантии атомарности
	if len(data) > maxSidecarSize {
		return fmt.Errorf("размер сайдкара (%d байт) превышает максимум (%d байт)", len(data), maxSidecarSize)
	}

	path := s.sidecarPath(rec.StorageName)
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}

// Get читает метаданные файла по его имени хранения.
// Возвращает ErrNotFound, если сайдкар отсутствует или нечитаем.
func (s *Store) Get(storageName string) (*model.FileRecord, error) {
	rec, err := readSidecar(s.sidecarPath(storageName))
	if err != nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// List сканирует директорию данных и возвращает все записи каталога,
// отсортированные по дате загрузки (новые первыми).
//
// Полное сканирование на каждый вызов — сознательное решение: каталог
// рассчитан на десятки файлов одного мероприятия, и отсутствие индекса
// исключает рассинхронизацию с диском. Нечитаемые сайдкары пропускаются
// с записью в лог: один повреждённый файл не должен ронять листинг.
func (s *Store) List() ([]*model.FileRecord, error) {
	pattern := filepath.Join(s.dataDir, "*"+SidecarSuffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования директории %s: %w", s.dataDir, err)
	}

	result := make([]*model.FileRecord, 0, len(matches))
	for _, path := range matches {
		rec, err := readSidecar(path)
		if err != nil {
			s.logger.Warn("Пропущен нечитаемый сайдкар",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		result = append(result, rec)
	}

	// Новые первыми; при равном времени — по имени хранения в обратном
	// порядке, чтобы порядок был детерминированным.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.After(result[j].UploadedAt)
		}
		return result[i].StorageName > result[j].StorageName
	})

	return result, nil
}

// sidecarPath возвращает полный путь к сайдкару по имени хранения.
func (s *Store) sidecarPath(storageName string) string {
	return SidecarPath(filepath.Join(s.dataDir, storageName))
}

// readSidecar читает и десериализует один сайдкар.
func readSidecar(path string) (*model.FileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сайдкара %s: %w", path, err)
	}

	var rec model.FileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сайдкара %s: %w", path, err)
	}

	return &rec, nil
}
