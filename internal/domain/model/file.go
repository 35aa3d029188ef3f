// Пакет model — доменные модели Confshare.
// FileRecord — единая структура метаданных файла, используется
// как in-memory представление и как формат JSON-сайдкара на диске.
package model

import (
	"time"
)

// Category — категория материала, определяется по MIME-типу при загрузке.
type Category string

const (
	// CategoryDocument — документ (PDF)
	CategoryDocument Category = "document"
	// CategorySlides — презентация (PPT, PPTX)
	CategorySlides Category = "slides"
	// CategoryVideo — видеозапись доклада
	CategoryVideo Category = "video"
)

// FileRecord — метаданные файла. Соответствует содержимому сайдкара
// {storage_name}.json рядом с бинарным файлом.
type FileRecord struct {
	// ID — идентификатор файла: unix-время загрузки в миллисекундах.
	// Совпадает с префиксом storage_name.
	ID string `json:"id"`

	// OriginalFilename — оригинальное имя файла при загрузке
	OriginalFilename string `json:"original_filename"`

	// StorageName — имя бинарного файла на диске.
	// Формат: {uploadTimestampMillis}-{originalFilename}
	StorageName string `json:"storage_name"`

	// Size — размер файла в байтах
	Size int64 `json:"size"`

	// ContentType — MIME-тип файла
	ContentType string `json:"content_type"`

	// UploadedAt — дата и время загрузки (UTC)
	UploadedAt time.Time `json:"uploaded_at"`

	// UploadedBy — идентификатор докладчика (из JWT sub)
	UploadedBy string `json:"uploaded_by"`

	// Summary — текстовая аннотация материала
	Summary string `json:"summary"`

	// EstimatedDurationMinutes — оценка времени изучения в минутах
	EstimatedDurationMinutes int `json:"estimated_duration_minutes"`

	// Category — категория материала (document, slides, video)
	Category Category `json:"category"`

	// Topic — тема материала (из имени файла)
	Topic string `json:"topic"`
}
