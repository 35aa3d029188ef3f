// Пакет filestore — операции с бинарными файлами материалов на диске.
// Обеспечивает streaming-запись, чтение и проверку имён файлов.
// Все операции записи выполняются атомарно: temp → fsync → rename.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsafeName — имя файла не прошло проверку безопасности.
var ErrUnsafeName = fmt.Errorf("небезопасное имя файла")

// FileStore — управление бинарными файлами на диске.
type FileStore struct {
	// dataDir — корневая директория хранения файлов (CS_DATA_DIR)
	dataDir string
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// StorageName — имя файла в dataDir: {uploadTimestampMillis}-{originalFilename}
	StorageName string
	// FullPath — абсолютный путь файла на диске
	FullPath string
	// Size — размер записанных данных в байтах
	Size int64
}

// New создаёт новый FileStore. Проверяет и создаёт директорию
// если она не существует.
func New(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &FileStore{dataDir: dataDir}, nil
}

// IsSafeName проверяет имя файла, полученное извне.
// Отклоняет пустые имена и имена, содержащие "..", "/" или "\": любая из этих
// последовательностей позволяет выйти за пределы директории данных.
// Проверка выполняется ДО любого обращения к файловой системе.
func IsSafeName(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return true
}

// SaveFile записывает данные из reader на диск.
// Имя файла: {uploadTimestampMillis}-{originalFilename}, где millis — момент now.
// Временной префикс делает имя уникальным, а содержимое по имени — неизменяемым.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (fs *FileStore) SaveFile(reader io.Reader, originalFilename string, now time.Time) (*SaveResult, error) {
	if !IsSafeName(originalFilename) {
		return nil, ErrUnsafeName
	}

	storageName := fmt.Sprintf("%d-%s", now.UnixMilli(), originalFilename)
	fullPath := filepath.Join(fs.dataDir, storageName)
	tmpPath := fullPath + ".tmp"

	// Создаём temp файл
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StorageName: storageName,
		FullPath:    fullPath,
		Size:        size,
	}, nil
}

// Open открывает файл для чтения и возвращает *os.File.
// storageName — имя файла в dataDir. Вызывающий код обязан закрыть файл.
func (fs *FileStore) Open(storageName string) (*os.File, error) {
	if !IsSafeName(storageName) {
		return nil, ErrUnsafeName
	}
	fullPath := filepath.Join(fs.dataDir, storageName)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("файл не найден: %s", storageName)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", storageName, err)
	}

	return f, nil
}

// FullPath возвращает абсолютный путь к файлу на диске.
func (fs *FileStore) FullPath(storageName string) string {
	return filepath.Join(fs.dataDir, storageName)
}

// DeleteFile удаляет файл с диска. Используется для отката
// незавершённой загрузки. Возвращает nil если файл уже не существует.
func (fs *FileStore) DeleteFile(storageName string) error {
	if !IsSafeName(storageName) {
		return ErrUnsafeName
	}
	fullPath := filepath.Join(fs.dataDir, storageName)

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", storageName, err)
	}
	return nil
}

// FileExists проверяет существование файла на диске.
func (fs *FileStore) FileExists(storageName string) bool {
	if !IsSafeName(storageName) {
		return false
	}
	fullPath := filepath.Join(fs.dataDir, storageName)
	_, err := os.Stat(fullPath)
	return err == nil
}

// FileSize возвращает размер файла на диске.
func (fs *FileStore) FileSize(storageName string) (int64, error) {
	if !IsSafeName(storageName) {
		return 0, ErrUnsafeName
	}
	fullPath := filepath.Join(fs.dataDir, storageName)
	info, err := os.Stat(fullPath)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения информации о файле %s: %w", storageName, err)
	}
	return info.Size(), nil
}

// DataDir возвращает путь к директории данных.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}
