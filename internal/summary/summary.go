// Пакет summary — шаблонный генератор описаний загруженных материалов.
//
// Никакого вывода моделью: категория определяется по MIME-типу, тема —
// по имени файла, длительность — по размеру. Генератор чистый и
// детерминированный, сетевых вызовов нет.
package summary

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arturkryukov/confshare/internal/domain/model"
)

const (
	minDurationMinutes = 1
	maxDurationMinutes = 240

	// Эвристика длительности: байт контента на минуту доклада.
	bytesPerMinuteDocument = 50 * 1024
	bytesPerMinuteSlides   = 256 * 1024
	bytesPerMinuteVideo    = 10 * 1024 * 1024
)

// storagePrefixRe — миллисекундный префикс имени хранения {millis}-.
var storagePrefixRe = regexp.MustCompile(`^\d+-`)

// Summary — результат генерации описания.
type Summary struct {
	Text                     string
	EstimatedDurationMinutes int
	Category                 model.Category
	Topic                    string
}

// Summarizer — генератор описаний. Состояния не имеет.
type Summarizer struct{}

// New создаёт генератор описаний.
func New() *Summarizer {
	return &Summarizer{}
}

// Summarize строит описание материала по имени хранения, MIME-типу и
// размеру.
func (s *Summarizer) Summarize(storageName, contentType string, size int64) Summary {
	category := categoryFor(contentType)
	topic := topicFrom(storageName)
	minutes := estimateMinutes(category, size)

	var text string
	switch category {
	case model.CategoryVideo:
		text = fmt.Sprintf("Видеозапись «%s». Ориентировочная длительность — %d мин.", topic, minutes)
	case model.CategorySlides:
		text = fmt.Sprintf("Презентация «%s». Ориентировочное время доклада — %d мин.", topic, minutes)
	default:
		text = fmt.Sprintf("Документ «%s». Ориентировочное время изучения — %d мин.", topic, minutes)
	}

	return Summary{
		Text:                     text,
		EstimatedDurationMinutes: minutes,
		Category:                 category,
		Topic:                    topic,
	}
}

// categoryFor определяет категорию материала по MIME-типу.
func categoryFor(contentType string) model.Category {
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return model.CategoryVideo
	case contentType == "application/vnd.ms-powerpoint",
		contentType == "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return model.CategorySlides
	default:
		return model.CategoryDocument
	}
}

// topicFrom выводит тему из имени хранения: миллисекундный префикс и
// расширение отбрасываются, подчёркивания и дефисы заменяются пробелами.
func topicFrom(storageName string) string {
	name := storagePrefixRe.ReplaceAllString(storageName, "")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)

	topic := strings.Join(strings.Fields(name), " ")
	if topic == "" {
		return "Материал"
	}
	return topic
}

// estimateMinutes оценивает длительность по размеру с округлением вверх
// и ограничением [1, 240] минут.
func estimateMinutes(category model.Category, size int64) int {
	var perMinute int64
	switch category {
	case model.CategoryVideo:
		perMinute = bytesPerMinuteVideo
	case model.CategorySlides:
		perMinute = bytesPerMinuteSlides
	default:
		perMinute = bytesPerMinuteDocument
	}

	minutes := (size + perMinute - 1) / perMinute
	if minutes < minDurationMinutes {
		return minDurationMinutes
	}
	if minutes > maxDurationMinutes {
		return maxDurationMinutes
	}
	return int(minutes)
}
