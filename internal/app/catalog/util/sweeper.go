package util

import (
	"context"
	"time"

	"bloomhaven/internal/app/catalog/repository"
	"bloomhaven/pkg/logger"
	"bloomhaven/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// OrphanSweeper убирает из каталога загрузок файлы, на которые БД больше не ссылается
// Такие сироты появляются по дизайну: строки удаляются и коммитятся раньше файлов,
// упавшая зачистка оставляет файл на диске вместо битой ссылки в БД
type OrphanSweeper struct {
	cron   *cron.Cron
	store  *DiskImageStore
	repo   repository.ProductRepository
	minAge time.Duration
}

// NewOrphanSweeper создает сборщик сирот
// minAge защищает файлы незакоммиченных транзакций: файл пишется на диск
// до вставки строки, слишком свежие файлы трогать нельзя
func NewOrphanSweeper(store *DiskImageStore, repo repository.ProductRepository, minAge time.Duration) *OrphanSweeper {
	return &OrphanSweeper{
		cron:   cron.New(),
		store:  store,
		repo:   repo,
		minAge: minAge,
	}
}

// Start регистрирует задачу по расписанию и запускает планировщик
func (s *OrphanSweeper) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.Sweep(ctx); err != nil {
			logger.Error().Err(err).Msg("Orphan sweep failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Orphan sweeper started")
	return nil
}

// Stop останавливает планировщик, дожидаясь завершения текущего прохода
func (s *OrphanSweeper) Stop() {
	<-s.cron.Stop().Done()
	logger.Info().Msg("Orphan sweeper stopped")
}

// Sweep выполняет один проход: сверяет файлы на диске со ссылками в БД
// и удаляет достаточно старые файлы без ссылок
func (s *OrphanSweeper) Sweep(ctx context.Context) error {
	referenced, err := s.repo.AllImageURLs(ctx)
	if err != nil {
		return err
	}

	refSet := make(map[string]struct{}, len(referenced))
	for _, url := range referenced {
		refSet[url] = struct{}{}
	}

	candidates, err := s.store.ListOlderThan(s.minAge)
	if err != nil {
		return err
	}

	removed := 0
	for _, url := range candidates {
		if _, ok := refSet[url]; ok {
			continue
		}

		if err := s.store.Remove(url); err != nil {
			metrics.SweeperOrphansRemoved.WithLabelValues("failed").Inc()
			logger.Warn().Err(err).Str("image_url", url).Msg("Failed to remove orphan file")
			continue
		}

		metrics.SweeperOrphansRemoved.WithLabelValues("removed").Inc()
		metrics.UploadFilesDeleted.WithLabelValues("sweep").Inc()
		removed++
	}

	logger.Info().
		Int("candidates", len(candidates)).
		Int("removed", removed).
		Msg("Orphan sweep completed")

	return nil
}
