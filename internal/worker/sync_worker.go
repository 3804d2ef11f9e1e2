package worker

import (
	"context"
	"time"

	"planvista/internal/logger"
	"planvista/internal/service"

	"go.uber.org/zap"
)

const defaultQueueSize = 16

// SyncJob - одно задание фоновой синхронизации календаря
type SyncJob struct {
	UserID      int64
	AccessToken string
	EnqueuedAt  time.Time
}

// SyncWorker выполняет синхронизацию календаря вне потока запроса:
// вызывающий получает "синхронизация запущена" сразу, результат виден
// при следующем чтении календаря. Отмены на середине нет - задание
// выполняется до конца или падает.
type SyncWorker struct {
	sync *service.SyncService
	jobs chan SyncJob
}

func NewSyncWorker(syncService *service.SyncService, queueSize int) *SyncWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &SyncWorker{
		sync: syncService,
		jobs: make(chan SyncJob, queueSize),
	}
}

// Enqueue ставит задание в очередь. Возвращает false при переполненной
// очереди - вызывающий сам решает, что сказать пользователю.
func (w *SyncWorker) Enqueue(job SyncJob) bool {
	job.EnqueuedAt = time.Now()
	select {
	case w.jobs <- job:
		logger.Info("Worker: Синхронизация поставлена в очередь",
			zap.Int64("user_id", job.UserID))
		return true
	default:
		logger.Warn("Worker: Очередь синхронизации переполнена",
			zap.Int64("user_id", job.UserID))
		return false
	}
}

// Start обрабатывает очередь до отмены контекста.
// Задания выполняются последовательно: изоляция ошибок остаётся на
// уровне отдельных событий внутри батча.
func (w *SyncWorker) Start(ctx context.Context) {
	logger.Info("Worker: Фоновая синхронизация календаря запущена")

	for {
		select {
		case job := <-w.jobs:
			w.process(ctx, job)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая синхронизация останавливается")
			return
		}
	}
}

func (w *SyncWorker) process(ctx context.Context, job SyncJob) {
	start := time.Now()
	logger.Info("Worker: Синхронизация начата",
		zap.Int64("user_id", job.UserID),
		zap.Duration("queued", start.Sub(job.EnqueuedAt)))

	result, err := w.sync.SyncUser(ctx, job.AccessToken, job.UserID)
	if err != nil {
		logger.Error("Worker: Синхронизация не удалась", err,
			zap.Int64("user_id", job.UserID),
			zap.Duration("ms", time.Since(start)))
		return
	}

	logger.Info("Worker: Синхронизация выполнена",
		zap.Int64("user_id", job.UserID),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Duration("ms", time.Since(start)))
}
