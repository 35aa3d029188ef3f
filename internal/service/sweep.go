// sweep.go — сервис фоновой сверки каталога материалов.
//
// Сверка сравнивает бинарные файлы с сайдкарами:
//   - orphan_binary: бинарный файл без сайдкара
//   - orphan_sidecar: сайдкар без бинарного файла
//   - size_mismatch: размер на диске не совпадает с сайдкаром
//   - corrupt_sidecar: сайдкар существует, но не читается
//
// Сверка только наблюдает: ничего не удаляет и не правит — материалы
// не удаляются в течение всего мероприятия. Запускается как горутина
// с периодическим тикером (CS_SWEEP_INTERVAL).
package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arturkryukov/confshare/internal/api/middleware"
	"github.com/arturkryukov/confshare/internal/storage/catalog"
	"github.com/arturkryukov/confshare/internal/storage/filestore"
)

// Prometheus метрики сверки
var (
	// sweepRunsTotal — количество прогонов сверки.
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs_sweep_runs_total",
		Help: "Общее количество прогонов сверки каталога",
	})

	// sweepIssuesTotal — количество обнаруженных расхождений по типу.
	sweepIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cs_sweep_issues_total",
		Help: "Общее количество расхождений, обнаруженных сверкой",
	}, []string{"type"})

	// sweepDurationSeconds — длительность прогона сверки.
	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cs_sweep_duration_seconds",
		Help:    "Длительность прогона сверки каталога в секундах",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// Типы расхождений, обнаруживаемых сверкой.
const (
	IssueOrphanBinary   = "orphan_binary"
	IssueOrphanSidecar  = "orphan_sidecar"
	IssueSizeMismatch   = "size_mismatch"
	IssueCorruptSidecar = "corrupt_sidecar"
)

// SweepIssue — одно расхождение каталога.
type SweepIssue struct {
	Type        string `json:"type"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// SweepSummary — сводка по типам расхождений.
type SweepSummary struct {
	Ok              int `json:"ok"`
	OrphanBinaries  int `json:"orphan_binaries"`
	OrphanSidecars  int `json:"orphan_sidecars"`
	SizeMismatches  int `json:"size_mismatches"`
	CorruptSidecars int `json:"corrupt_sidecars"`
}

// SweepResult — результат одного прогона сверки.
type SweepResult struct {
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  time.Time    `json:"completed_at"`
	FilesChecked int          `json:"files_checked"`
	Issues       []SweepIssue `json:"issues"`
	Summary      SweepSummary `json:"summary"`
}

// SweepService — сервис фоновой сверки каталога.
type SweepService struct {
	store    *filestore.FileStore
	catalog  *catalog.Store
	dataDir  string
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex // защита от параллельного запуска
	inProcess bool       // сверка в процессе выполнения
	cancel    context.CancelFunc
}

// NewSweepService создаёт сервис сверки каталога.
func NewSweepService(
	store *filestore.FileStore,
	cat *catalog.Store,
	dataDir string,
	interval time.Duration,
	logger *slog.Logger,
) *SweepService {
	return &SweepService{
		store:    store,
		catalog:  cat,
		dataDir:  dataDir,
		interval: interval,
		logger:   logger.With(slog.String("component", "sweep")),
	}
}

// Start запускает фоновую горутину сверки с периодическим тикером.
func (ss *SweepService) Start(ctx context.Context) {
	ssCtx, cancel := context.WithCancel(ctx)
	ss.cancel = cancel

	go ss.run(ssCtx)

	ss.logger.Info("Сверка каталога запущена",
		slog.String("interval", ss.interval.String()),
	)
}

// Stop останавливает фоновой процесс сверки.
func (ss *SweepService) Stop() {
	if ss.cancel != nil {
		ss.cancel()
	}
	ss.logger.Info("Сверка каталога остановлена")
}

// IsInProgress возвращает true, если сверка выполняется.
func (ss *SweepService) IsInProgress() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.inProcess
}

// run — основной цикл фоновой горутины.
func (ss *SweepService) run(ctx context.Context) {
	ticker := time.NewTicker(ss.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ss.RunOnce()
		}
	}
}

// RunOnce выполняет один прогон сверки.
// Потокобезопасен: если сверка уже выполняется, возвращает nil, true.
func (ss *SweepService) RunOnce() (*SweepResult, bool) {
	ss.mu.Lock()
	if ss.inProcess {
		ss.mu.Unlock()
		ss.logger.Warn("Сверка уже выполняется, пропуск")
		return nil, true
	}
	ss.inProcess = true
	ss.mu.Unlock()

	defer func() {
		ss.mu.Lock()
		ss.inProcess = false
		ss.mu.Unlock()
	}()

	startedAt := time.Now().UTC()

	issues, summary, filesChecked := ss.sweep()

	completedAt := time.Now().UTC()
	duration := completedAt.Sub(startedAt)

	// Обновляем Prometheus метрики
	sweepRunsTotal.Inc()
	sweepDurationSeconds.Observe(duration.Seconds())
	for _, issue := range issues {
		sweepIssuesTotal.WithLabelValues(issue.Type).Inc()
	}
	middleware.FilesTotal.Set(float64(summary.Ok + summary.SizeMismatches))

	level := slog.LevelInfo
	if len(issues) > 0 {
		level = slog.LevelWarn
	}
	ss.logger.Log(context.Background(), level, "Сверка каталога завершена",
		slog.Int("files_checked", filesChecked),
		slog.Int("issues", len(issues)),
		slog.Int("ok", summary.Ok),
		slog.Duration("duration", duration),
	)

	return &SweepResult{
		StartedAt:    startedAt,
		CompletedAt:  completedAt,
		FilesChecked: filesChecked,
		Issues:       issues,
		Summary:      summary,
	}, false
}

// sweep выполняет сверку пар бинарный файл + сайдкар.
func (ss *SweepService) sweep() ([]SweepIssue, SweepSummary, int) {
	var issues []SweepIssue
	var summary SweepSummary

	binaries := make(map[string]bool)
	sidecars := make(map[string]bool)

	entries, err := os.ReadDir(ss.dataDir)
	if err != nil {
		ss.logger.Error("Ошибка чтения директории данных",
			slog.String("error", err.Error()),
		)
		return issues, summary, 0
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		// Пропускаем служебные и temp файлы
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
			continue
		}

		if catalog.IsSidecar(name) {
			sidecars[name] = true
		} else {
			binaries[name] = true
		}
	}

	// 1. Бинарный файл без сайдкара
	for binary := range binaries {
		if !sidecars[binary+catalog.SidecarSuffix] {
			summary.OrphanBinaries++
			issues = append(issues, SweepIssue{
				Type:        IssueOrphanBinary,
				Path:        binary,
				Description: "Бинарный файл без сайдкара",
			})
		}
	}

	// 2. Сайдкар без бинарного файла
	for sidecar := range sidecars {
		binary := strings.TrimSuffix(sidecar, catalog.SidecarSuffix)
		if !binaries[binary] {
			summary.OrphanSidecars++
			issues = append(issues, SweepIssue{
				Type:        IssueOrphanSidecar,
				Path:        sidecar,
				Description: "Сайдкар без соответствующего бинарного файла",
			})
		}
	}

	// 3. Размер бинарного файла против сайдкара
	for sidecar := range sidecars {
		binary := strings.TrimSuffix(sidecar, catalog.SidecarSuffix)
		if !binaries[binary] {
			continue
		}

		rec, readErr := ss.catalog.Get(binary)
		if readErr != nil {
			// Сайдкар существует, но не парсится: такие записи каталог
			// пропускает при листинге.
			summary.CorruptSidecars++
			issues = append(issues, SweepIssue{
				Type:        IssueCorruptSidecar,
				Path:        sidecar,
				Description: "Сайдкар существует, но не читается",
			})
			continue
		}

		actualSize, sizeErr := ss.store.FileSize(binary)
		if sizeErr != nil {
			ss.logger.Warn("Ошибка получения размера файла",
				slog.String("file", binary),
				slog.String("error", sizeErr.Error()),
			)
			continue
		}

		if actualSize != rec.Size {
			summary.SizeMismatches++
			issues = append(issues, SweepIssue{
				Type:        IssueSizeMismatch,
				Path:        binary,
				Description: "Размер файла на диске не совпадает с сайдкаром",
			})
		} else {
			summary.Ok++
		}
	}

	return issues, summary, len(binaries) + len(sidecars)
}
